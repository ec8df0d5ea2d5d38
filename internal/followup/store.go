package followup

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store persists scheduled messages. Create is first-writer-wins per
// (lead id, timing): a second create for the same key returns the existing
// message instead of queueing a duplicate send.
type Store interface {
	Create(ctx context.Context, m *ScheduledMessage) (*ScheduledMessage, bool, error)
	Get(ctx context.Context, id uuid.UUID) (*ScheduledMessage, error)
	ListDue(ctx context.Context, asOf time.Time, limit int) ([]ScheduledMessage, error)
	ListByLead(ctx context.Context, leadID string) ([]ScheduledMessage, error)
	MarkSent(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, reason string) error
	Retry(ctx context.Context, id uuid.UUID) error
	Stats(ctx context.Context) (*Stats, error)
}

// MemoryStore keeps scheduled messages in process memory, for development and
// tests.
type MemoryStore struct {
	mu       sync.RWMutex
	messages map[uuid.UUID]*ScheduledMessage
	byKey    map[string]uuid.UUID // leadID+"/"+timing -> message
	order    []uuid.UUID
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		messages: make(map[uuid.UUID]*ScheduledMessage),
		byKey:    make(map[string]uuid.UUID),
	}
}

func dedupKey(leadID string, timing Timing) string {
	return leadID + "/" + string(timing)
}

// Create stores the message unless the (lead, timing) slot is already taken.
func (s *MemoryStore) Create(ctx context.Context, m *ScheduledMessage) (*ScheduledMessage, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.byKey[dedupKey(m.LeadID, m.Timing)]; ok {
		out := *s.messages[existing]
		return &out, false, nil
	}

	stored := *m
	if stored.ID == uuid.Nil {
		stored.ID = uuid.New()
	}
	now := time.Now().UTC()
	stored.CreatedAt = now
	stored.UpdatedAt = now
	if stored.Status == "" {
		stored.Status = StatusPending
	}

	s.messages[stored.ID] = &stored
	s.byKey[dedupKey(stored.LeadID, stored.Timing)] = stored.ID
	s.order = append(s.order, stored.ID)

	out := stored
	return &out, true, nil
}

// Get returns a message by id.
func (s *MemoryStore) Get(ctx context.Context, id uuid.UUID) (*ScheduledMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.messages[id]
	if !ok {
		return nil, ErrMessageNotFound
	}
	out := *m
	return &out, nil
}

// ListDue returns pending messages whose send time has arrived, oldest first.
func (s *MemoryStore) ListDue(ctx context.Context, asOf time.Time, limit int) ([]ScheduledMessage, error) {
	if limit <= 0 {
		limit = 25
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var due []ScheduledMessage
	for _, id := range s.order {
		m := s.messages[id]
		if m.Status != StatusPending || m.SendAt.After(asOf) {
			continue
		}
		due = append(due, *m)
		if len(due) >= limit {
			break
		}
	}
	return due, nil
}

// ListByLead returns every message owned by a lead, oldest first.
func (s *MemoryStore) ListByLead(ctx context.Context, leadID string) ([]ScheduledMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []ScheduledMessage
	for _, id := range s.order {
		if m := s.messages[id]; m.LeadID == leadID {
			out = append(out, *m)
		}
	}
	return out, nil
}

// MarkSent transitions pending -> sent.
func (s *MemoryStore) MarkSent(ctx context.Context, id uuid.UUID) error {
	return s.transition(id, StatusPending, StatusSent, "")
}

// MarkFailed transitions pending -> failed, recording the dispatch error.
func (s *MemoryStore) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	return s.transition(id, StatusPending, StatusFailed, reason)
}

// Retry transitions failed -> pending; operator action, never automatic.
func (s *MemoryStore) Retry(ctx context.Context, id uuid.UUID) error {
	return s.transition(id, StatusFailed, StatusPending, "")
}

func (s *MemoryStore) transition(id uuid.UUID, from, to Status, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.messages[id]
	if !ok {
		return ErrMessageNotFound
	}
	if m.Status != from {
		if to == StatusPending {
			return ErrNotRetryable
		}
		return ErrMessageNotFound
	}

	now := time.Now().UTC()
	m.Status = to
	m.UpdatedAt = now
	switch to {
	case StatusSent:
		m.SentAt = &now
	case StatusFailed:
		m.FailedAt = &now
		m.LastError = reason
	case StatusPending:
		m.SentAt = nil
		m.FailedAt = nil
		m.LastError = ""
	}
	return nil
}

// Stats counts messages per status.
func (s *MemoryStore) Stats(ctx context.Context) (*Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &Stats{Total: int64(len(s.messages))}
	for _, m := range s.messages {
		switch m.Status {
		case StatusPending:
			stats.Pending++
		case StatusSent:
			stats.Sent++
		case StatusFailed:
			stats.Failed++
		}
	}
	return stats, nil
}
