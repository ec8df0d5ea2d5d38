package followup

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/kaizendigital/leadflow/internal/leads"
	"github.com/kaizendigital/leadflow/pkg/logging"
)

// Handler handles HTTP requests for scheduled follow-ups.
type Handler struct {
	scheduler *Scheduler
	store     Store
	logger    *logging.Logger
}

// NewHandler creates a new follow-up handler.
func NewHandler(scheduler *Scheduler, store Store, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		scheduler: scheduler,
		store:     store,
		logger:    logger,
	}
}

// ScheduleRequest is the request body for scheduling a follow-up.
type ScheduleRequest struct {
	Recipient         string                      `json:"recipient"`
	Channel           string                      `json:"channel"`
	UserID            string                      `json:"userId"`
	QualificationData *leads.QualificationAnswers `json:"qualificationData,omitempty"`
	ScheduleTiming    string                      `json:"scheduleTiming,omitempty"`
}

// ScheduledMessageView is the public projection of a scheduled message; the
// recipient is partially redacted.
type ScheduledMessageView struct {
	ID        uuid.UUID `json:"id"`
	SendAt    string    `json:"sendAt"`
	Channel   Channel   `json:"channel"`
	Timing    Timing    `json:"timing"`
	Status    Status    `json:"status"`
	Recipient string    `json:"recipient"`
}

// ScheduleResponse is the response for scheduling a follow-up.
type ScheduleResponse struct {
	Success          bool                 `json:"success"`
	ScheduledMessage ScheduledMessageView `json:"scheduledMessage"`
}

// Schedule handles POST /messaging/schedule requests.
func (h *Handler) Schedule(w http.ResponseWriter, r *http.Request) {
	var req ScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("followup: failed to decode request", "error", err)
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	channel, err := ParseChannel(req.Channel)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	timing, err := ParseTiming(req.ScheduleTiming)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var qualification leads.QualificationAnswers
	if req.QualificationData != nil {
		qualification = *req.QualificationData
	}

	msg, _, err := h.scheduler.Schedule(r.Context(), ScheduleInput{
		LeadID:        req.UserID,
		Recipient:     req.Recipient,
		Channel:       channel,
		Qualification: qualification,
		Timing:        timing,
	})
	if err != nil {
		if errors.Is(err, ErrMissingLeadID) || errors.Is(err, ErrMissingRecipient) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("followup: schedule failed", "error", err, "lead_id", req.UserID)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, ScheduleResponse{
		Success:          true,
		ScheduledMessage: viewOf(msg),
	})
}

// StatsResponse is the response for the scheduling stats view.
type StatsResponse struct {
	Success bool   `json:"success"`
	Stats   *Stats `json:"stats"`
}

// GetStats handles GET /messaging/schedule requests.
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.Stats(r.Context())
	if err != nil {
		h.logger.Error("followup: stats failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, StatsResponse{Success: true, Stats: stats})
}

// ListByLeadResponse is the response for the admin message listing.
type ListByLeadResponse struct {
	Messages []ScheduledMessage `json:"messages"`
	Count    int                `json:"count"`
}

// ListByLead handles GET /admin/messages requests. Recipients are unmasked;
// the route sits behind admin auth.
func (h *Handler) ListByLead(w http.ResponseWriter, r *http.Request) {
	leadID := r.URL.Query().Get("lead_id")
	if leadID == "" {
		writeError(w, http.StatusBadRequest, "lead_id is required")
		return
	}

	messages, err := h.store.ListByLead(r.Context(), leadID)
	if err != nil {
		h.logger.Error("followup: list by lead failed", "error", err, "lead_id", leadID)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, ListByLeadResponse{Messages: messages, Count: len(messages)})
}

// Retry handles POST /admin/messages/{id}/retry requests: the operator action
// that moves a failed message back into the pending sweep.
func (h *Handler) Retry(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid message id")
		return
	}

	switch err := h.store.Retry(r.Context(), id); {
	case err == nil:
		h.logger.Info("followup: retry requested", "id", id)
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	case errors.Is(err, ErrMessageNotFound):
		writeError(w, http.StatusNotFound, "scheduled message not found")
	case errors.Is(err, ErrNotRetryable):
		writeError(w, http.StatusConflict, err.Error())
	default:
		h.logger.Error("followup: retry failed", "error", err, "id", id)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func viewOf(m *ScheduledMessage) ScheduledMessageView {
	return ScheduledMessageView{
		ID:        m.ID,
		SendAt:    m.SendAt.Format(time.RFC3339),
		Channel:   m.Channel,
		Timing:    m.Timing,
		Status:    m.Status,
		Recipient: m.MaskedRecipient(),
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
