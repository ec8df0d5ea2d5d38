package followup

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kaizendigital/leadflow/internal/leads"
	"github.com/kaizendigital/leadflow/pkg/logging"
)

// Scheduler derives send times and message bodies from qualification data and
// records them as pending sends.
type Scheduler struct {
	store     Store
	templates *TemplateSet
	logger    *logging.Logger
	now       func() time.Time
	metrics   Observer
}

// WithMetrics attaches a scheduling observer.
func (s *Scheduler) WithMetrics(m Observer) *Scheduler {
	s.metrics = m
	return s
}

// NewScheduler creates a follow-up scheduler.
func NewScheduler(store Store, templates *TemplateSet, logger *logging.Logger) *Scheduler {
	if templates == nil {
		templates = NewTemplateSet("", "")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Scheduler{
		store:     store,
		templates: templates,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// ScheduleInput contains the information needed to create one follow-up.
type ScheduleInput struct {
	LeadID        string
	Recipient     string
	Channel       Channel
	Qualification leads.QualificationAnswers
	Timing        Timing
}

// Schedule records a follow-up send for a lead. The boolean reports whether a
// new message was created; false means the (lead, timing) tier was already
// scheduled and the existing message is returned unchanged.
func (s *Scheduler) Schedule(ctx context.Context, input ScheduleInput) (*ScheduledMessage, bool, error) {
	if strings.TrimSpace(input.LeadID) == "" {
		return nil, false, ErrMissingLeadID
	}
	if strings.TrimSpace(input.Recipient) == "" {
		return nil, false, ErrMissingRecipient
	}
	offset, ok := input.Timing.Offset()
	if !ok {
		return nil, false, ErrInvalidTiming
	}
	if _, err := ParseChannel(string(input.Channel)); err != nil {
		return nil, false, err
	}

	msg := &ScheduledMessage{
		LeadID:    input.LeadID,
		Recipient: input.Recipient,
		Channel:   input.Channel,
		Timing:    input.Timing,
		Body:      s.templates.Body(input.Qualification, input.Timing),
		SendAt:    s.now().Add(offset),
		Status:    StatusPending,
	}

	stored, created, err := s.store.Create(ctx, msg)
	if err != nil {
		return nil, false, fmt.Errorf("followup: schedule: %w", err)
	}

	if created {
		if s.metrics != nil {
			s.metrics.ObserveScheduled(string(stored.Timing), string(stored.Channel))
		}
		s.logger.Info("followup: scheduled",
			"lead_id", stored.LeadID,
			"timing", stored.Timing,
			"channel", stored.Channel,
			"send_at", stored.SendAt.Format(time.RFC3339),
		)
	}
	return stored, created, nil
}

// AutoSchedule applies the scheduling policy after a lead upsert: the first
// time contact info and at least one qualification answer are both present,
// an immediate-tier follow-up is queued; once the lead is qualified, the 3d
// and 7d tiers are queued as well. The store's (lead, timing) key makes every
// tier at-most-once, so qualification flips cannot enqueue duplicates.
func (s *Scheduler) AutoSchedule(ctx context.Context, lead *leads.Lead) ([]*ScheduledMessage, error) {
	if lead == nil || !lead.HasContact() || !lead.Qualification.Answered() {
		return nil, nil
	}

	recipient, channel := contactFor(lead)

	tiers := []Timing{TimingImmediate}
	if lead.Qualification.Qualified {
		tiers = append(tiers, Timing3d, Timing7d)
	}

	var scheduled []*ScheduledMessage
	for _, tier := range tiers {
		msg, created, err := s.Schedule(ctx, ScheduleInput{
			LeadID:        lead.ID,
			Recipient:     recipient,
			Channel:       channel,
			Qualification: lead.Qualification,
			Timing:        tier,
		})
		if err != nil {
			return scheduled, err
		}
		if created {
			scheduled = append(scheduled, msg)
		}
	}
	return scheduled, nil
}

// contactFor picks the recipient address and channel for a lead, honoring the
// preferred channel when the matching address exists.
func contactFor(lead *leads.Lead) (string, Channel) {
	switch Channel(lead.PreferredChannel) {
	case ChannelEmail:
		if lead.Email != "" {
			return lead.Email, ChannelEmail
		}
	case ChannelSMS:
		if lead.Phone != "" {
			return lead.Phone, ChannelSMS
		}
	case ChannelWhatsApp:
		if lead.Phone != "" {
			return lead.Phone, ChannelWhatsApp
		}
	}
	if lead.Email != "" {
		return lead.Email, ChannelEmail
	}
	return lead.Phone, ChannelSMS
}
