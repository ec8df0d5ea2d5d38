package chat

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaizendigital/leadflow/internal/leads"
	"github.com/kaizendigital/leadflow/pkg/logging"
)

func newChatHandler(t *testing.T) *Handler {
	t.Helper()
	svc := NewService(NewMemorySessionStore(time.Hour), leads.NewInMemoryRepository(), nil, NewMachine(nil, ""), logging.New("error"))
	return NewHandler(svc, logging.New("error"))
}

func TestHandleMessage_HTTP(t *testing.T) {
	h := newChatHandler(t)

	body := `{"text":"hi"}`
	req := httptest.NewRequest(http.MethodPost, "/chat/message", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	h.HandleMessage(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	var reply Reply
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &reply))
	assert.NotEmpty(t, reply.SessionID)
	assert.Equal(t, StateAskedHasWebsite, reply.State)
	assert.NotEmpty(t, reply.Prompt)
	assert.Equal(t, hasWebsiteReplies, reply.QuickReplies)
}

func TestHandleMessage_ResumesSession(t *testing.T) {
	h := newChatHandler(t)

	first := httptest.NewRecorder()
	h.HandleMessage(first, httptest.NewRequest(http.MethodPost, "/chat/message", strings.NewReader(`{"text":"hi"}`)))
	require.Equal(t, http.StatusOK, first.Code)

	var reply Reply
	require.NoError(t, json.Unmarshal(first.Body.Bytes(), &reply))

	second := httptest.NewRecorder()
	h.HandleMessage(second, httptest.NewRequest(http.MethodPost, "/chat/message",
		strings.NewReader(`{"session_id":"`+reply.SessionID+`","text":"No"}`)))
	require.Equal(t, http.StatusOK, second.Code)

	var next Reply
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &next))
	assert.Equal(t, reply.SessionID, next.SessionID)
	assert.Equal(t, StateAskedMainGoal, next.State)
}

func TestHandleMessage_MissingText(t *testing.T) {
	h := newChatHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/chat/message", strings.NewReader(`{"text":"  "}`))
	w := httptest.NewRecorder()

	h.HandleMessage(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleMessage_MalformedBody(t *testing.T) {
	h := newChatHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/chat/message", strings.NewReader("{not json"))
	w := httptest.NewRecorder()

	h.HandleMessage(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGenerateSessionID(t *testing.T) {
	s1 := generateSessionID()
	s2 := generateSessionID()
	assert.NotEmpty(t, s1)
	assert.NotEqual(t, s1, s2)
	assert.Len(t, s1, 32) // 16 bytes = 32 hex chars
}
