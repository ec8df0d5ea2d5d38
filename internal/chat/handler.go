package chat

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/websocket"

	"github.com/kaizendigital/leadflow/pkg/logging"
)

// Handler exposes the chat flow over HTTP and WebSocket.
type Handler struct {
	service *Service
	logger  *logging.Logger
}

// NewHandler creates a chat handler.
func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger}
}

// InboundMessage is what the widget sends over the socket.
type InboundMessage struct {
	Type      string `json:"type"` // "message", "ping"
	SessionID string `json:"session_id"`
	Text      string `json:"text"`
}

// OutboundMessage is what we send to the widget.
type OutboundMessage struct {
	Type         string   `json:"type"` // "message", "typing", "session", "pong", "error"
	Text         string   `json:"text,omitempty"`
	SessionID    string   `json:"session_id,omitempty"`
	QuickReplies []string `json:"quickReplies,omitempty"`
	State        State    `json:"state,omitempty"`
	Timestamp    string   `json:"timestamp,omitempty"`
}

// HandleMessage is the HTTP fallback for clients without WebSocket support.
// POST /chat/message {session_id?, text}.
func (h *Handler) HandleMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string `json:"session_id"`
		Text      string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	reply, err := h.service.HandleMessage(r.Context(), req.SessionID, req.Text)
	if err != nil {
		h.logger.Error("chat: message failed", "error", err, "session_id", req.SessionID)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(reply)
}

// HandleWebSocket upgrades to WebSocket and drives the flow in real time.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	websocket.Handler(func(conn *websocket.Conn) {
		h.serveWS(conn, r)
	}).ServeHTTP(w, r)
}

func (h *Handler) serveWS(conn *websocket.Conn, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		sessionID = generateSessionID()
	}

	_ = websocket.JSON.Send(conn, OutboundMessage{Type: "session", SessionID: sessionID})

	h.logger.Info("chat: connection opened", "session_id", sessionID)

	for {
		var msg InboundMessage
		if err := websocket.JSON.Receive(conn, &msg); err != nil {
			h.logger.Debug("chat: connection closed", "session_id", sessionID, "error", err)
			return
		}

		if msg.Type == "ping" {
			_ = websocket.JSON.Send(conn, OutboundMessage{Type: "pong"})
			continue
		}
		if msg.Type != "message" || strings.TrimSpace(msg.Text) == "" {
			continue
		}
		if msg.SessionID != "" {
			sessionID = msg.SessionID
		}

		_ = websocket.JSON.Send(conn, OutboundMessage{Type: "typing"})

		reply, err := h.service.HandleMessage(r.Context(), sessionID, msg.Text)
		if err != nil {
			h.logger.Error("chat: message failed", "error", err, "session_id", sessionID)
			_ = websocket.JSON.Send(conn, OutboundMessage{
				Type: "error",
				Text: "Sorry, something went wrong. Please try again.",
			})
			continue
		}
		sessionID = reply.SessionID

		_ = websocket.JSON.Send(conn, OutboundMessage{
			Type:         "message",
			Text:         reply.Prompt,
			SessionID:    reply.SessionID,
			QuickReplies: reply.QuickReplies,
			State:        reply.State,
			Timestamp:    time.Now().UTC().Format(time.RFC3339),
		})
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
