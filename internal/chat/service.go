package chat

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kaizendigital/leadflow/internal/followup"
	"github.com/kaizendigital/leadflow/internal/leads"
	"github.com/kaizendigital/leadflow/pkg/logging"
)

// Service ties the state machine to its side effects: lead upserts on answer
// changes and the follow-up scheduling check when contact info is known.
type Service struct {
	sessions  SessionStore
	repo      leads.Repository
	scheduler *followup.Scheduler
	machine   *Machine
	logger    *logging.Logger
}

// NewService creates a chat service. The scheduler may be nil, in which case
// no follow-ups are queued.
func NewService(sessions SessionStore, repo leads.Repository, scheduler *followup.Scheduler, machine *Machine, logger *logging.Logger) *Service {
	if machine == nil {
		machine = NewMachine(nil, "")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		sessions:  sessions,
		repo:      repo,
		scheduler: scheduler,
		machine:   machine,
		logger:    logger,
	}
}

// Reply is the assistant's response to one visitor message.
type Reply struct {
	SessionID    string   `json:"session_id"`
	State        State    `json:"state"`
	Prompt       string   `json:"reply"`
	QuickReplies []string `json:"quickReplies,omitempty"`
}

// HandleMessage processes one visitor message. An empty session id starts a
// fresh conversation; the new id is returned in the reply.
func (s *Service) HandleMessage(ctx context.Context, sessionID, text string) (*Reply, error) {
	sess, err := s.loadOrCreate(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	var q leads.QualificationAnswers
	if lead, err := s.repo.GetByID(ctx, sess.LeadID); err == nil {
		q = lead.Qualification
	} else if !errors.Is(err, leads.ErrLeadNotFound) {
		return nil, fmt.Errorf("chat: load lead: %w", err)
	}

	step := s.machine.Submit(sess.State, text, q)

	if step.Patch != nil || step.Contact != nil {
		if err := s.applyEffects(ctx, sess, text, step); err != nil {
			return nil, err
		}
	}

	sess.State = step.Next
	sess.UpdatedAt = time.Now().UTC()
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, err
	}

	return &Reply{
		SessionID:    sess.ID,
		State:        step.Next,
		Prompt:       step.Prompt,
		QuickReplies: step.QuickReplies,
	}, nil
}

func (s *Service) loadOrCreate(ctx context.Context, sessionID string) (*Session, error) {
	if sessionID != "" {
		sess, err := s.sessions.Get(ctx, sessionID)
		if err == nil {
			return sess, nil
		}
		if !errors.Is(err, ErrSessionNotFound) {
			return nil, err
		}
	}
	if sessionID == "" {
		sessionID = generateSessionID()
	}
	now := time.Now().UTC()
	return &Session{
		ID:        sessionID,
		LeadID:    sessionID,
		State:     StateStart,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// applyEffects upserts the lead with whatever the step changed and runs the
// scheduling check on the merged record. A scheduling failure is logged, not
// surfaced: the visitor's chat must not break because a follow-up could not
// be queued.
func (s *Service) applyEffects(ctx context.Context, sess *Session, text string, step StepResult) error {
	interaction, _ := json.Marshal(map[string]string{"message": text, "state": string(step.Next)})
	req := &leads.UpsertRequest{
		ID:            sess.LeadID,
		Qualification: step.Patch,
		Interaction:   &leads.InteractionInput{Type: "chat_answer", Data: interaction},
	}
	if step.Contact != nil {
		req.Email = step.Contact.Email
		req.Phone = step.Contact.Phone
	}

	lead, err := s.repo.Upsert(ctx, req)
	if err != nil {
		return fmt.Errorf("chat: upsert lead: %w", err)
	}

	if s.scheduler != nil {
		if _, err := s.scheduler.AutoSchedule(ctx, lead); err != nil {
			s.logger.Error("chat: follow-up scheduling failed", "error", err, "lead_id", lead.ID)
		}
	}
	return nil
}

// generateSessionID creates a random session identifier.
func generateSessionID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return uuid.New().String()
	}
	return hex.EncodeToString(b)
}
