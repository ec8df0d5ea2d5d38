package followup

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaizendigital/leadflow/internal/leads"
)

func boolPtr(b bool) *bool    { return &b }
func strPtr(s string) *string { return &s }

func newTestScheduler(t *testing.T) (*Scheduler, *MemoryStore) {
	t.Helper()
	store := NewMemoryStore()
	return NewScheduler(store, NewTemplateSet("Kaizen Digital", "https://kaizen-digital.com"), nil), store
}

func TestScheduleValidation(t *testing.T) {
	s, _ := newTestScheduler(t)
	ctx := context.Background()

	_, _, err := s.Schedule(ctx, ScheduleInput{Recipient: "a@x.com", Channel: ChannelEmail, Timing: TimingImmediate})
	assert.ErrorIs(t, err, ErrMissingLeadID)

	_, _, err = s.Schedule(ctx, ScheduleInput{LeadID: "v1", Channel: ChannelEmail, Timing: TimingImmediate})
	assert.ErrorIs(t, err, ErrMissingRecipient)

	_, _, err = s.Schedule(ctx, ScheduleInput{LeadID: "v1", Recipient: "a@x.com", Channel: "carrier-pigeon", Timing: TimingImmediate})
	assert.ErrorIs(t, err, ErrInvalidChannel)

	_, _, err = s.Schedule(ctx, ScheduleInput{LeadID: "v1", Recipient: "a@x.com", Channel: ChannelEmail, Timing: "fortnight"})
	assert.ErrorIs(t, err, ErrInvalidTiming)
}

func TestScheduleOffsets(t *testing.T) {
	tests := []struct {
		timing Timing
		offset time.Duration
	}{
		{TimingImmediate, 5 * time.Minute},
		{Timing24h, 24 * time.Hour},
		{Timing3d, 72 * time.Hour},
		{Timing7d, 168 * time.Hour},
	}
	for _, tt := range tests {
		t.Run(string(tt.timing), func(t *testing.T) {
			s, _ := newTestScheduler(t)
			before := time.Now().UTC()
			msg, created, err := s.Schedule(context.Background(), ScheduleInput{
				LeadID:    "v1",
				Recipient: "a@x.com",
				Channel:   ChannelEmail,
				Timing:    tt.timing,
			})
			after := time.Now().UTC()
			require.NoError(t, err)
			assert.True(t, created)
			assert.False(t, msg.SendAt.Before(before.Add(tt.offset)))
			assert.False(t, msg.SendAt.After(after.Add(tt.offset).Add(time.Minute)))
			assert.Equal(t, StatusPending, msg.Status)
			assert.NotEmpty(t, msg.Body)
		})
	}
}

func TestScheduleIsIdempotentPerTier(t *testing.T) {
	s, _ := newTestScheduler(t)
	ctx := context.Background()
	input := ScheduleInput{LeadID: "v1", Recipient: "a@x.com", Channel: ChannelEmail, Timing: Timing3d}

	first, created, err := s.Schedule(ctx, input)
	require.NoError(t, err)
	assert.True(t, created)

	second, created, err := s.Schedule(ctx, input)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
}

func TestAutoScheduleRequiresContactAndAnswer(t *testing.T) {
	s, store := newTestScheduler(t)
	ctx := context.Background()

	// Contact without answers: nothing happens.
	scheduled, err := s.AutoSchedule(ctx, &leads.Lead{ID: "v1", Email: "a@x.com"})
	require.NoError(t, err)
	assert.Empty(t, scheduled)

	// Answers without contact: nothing happens.
	scheduled, err = s.AutoSchedule(ctx, &leads.Lead{
		ID:            "v1",
		Qualification: leads.QualificationAnswers{HasWebsite: boolPtr(false)},
	})
	require.NoError(t, err)
	assert.Empty(t, scheduled)

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.Total)
}

func TestAutoScheduleOnlyOnce(t *testing.T) {
	s, _ := newTestScheduler(t)
	ctx := context.Background()

	lead := &leads.Lead{
		ID:            "v1",
		Email:         "a@x.com",
		Qualification: leads.QualificationAnswers{HasWebsite: boolPtr(false)},
	}

	scheduled, err := s.AutoSchedule(ctx, lead)
	require.NoError(t, err)
	require.Len(t, scheduled, 1)
	assert.Equal(t, TimingImmediate, scheduled[0].Timing)

	// A second upsert with contact and answers must not schedule again.
	scheduled, err = s.AutoSchedule(ctx, lead)
	require.NoError(t, err)
	assert.Empty(t, scheduled)
}

func TestAutoScheduleQualifiedAddsLaterTiers(t *testing.T) {
	s, store := newTestScheduler(t)
	ctx := context.Background()

	lead := &leads.Lead{
		ID:    "v1",
		Email: "a@x.com",
	}
	lead.Qualification.Merge(leads.QualificationAnswers{HasWebsite: boolPtr(false)})

	_, err := s.AutoSchedule(ctx, lead)
	require.NoError(t, err)

	lead.Qualification.Merge(leads.QualificationAnswers{Timeline: strPtr(leads.TimelineASAP)})
	require.True(t, lead.Qualification.Qualified)

	scheduled, err := s.AutoSchedule(ctx, lead)
	require.NoError(t, err)
	require.Len(t, scheduled, 2)
	assert.Equal(t, Timing3d, scheduled[0].Timing)
	assert.Equal(t, Timing7d, scheduled[1].Timing)

	// Qualification flips must not duplicate the later tiers.
	lead.Qualification.Merge(leads.QualificationAnswers{Timeline: strPtr(leads.TimelineExploring)})
	lead.Qualification.Merge(leads.QualificationAnswers{Timeline: strPtr(leads.TimelineASAP)})
	scheduled, err = s.AutoSchedule(ctx, lead)
	require.NoError(t, err)
	assert.Empty(t, scheduled)

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Total)
}

func TestContactForPrefersStatedChannel(t *testing.T) {
	recipient, channel := contactFor(&leads.Lead{
		ID: "v1", Email: "a@x.com", Phone: "+15551234567", PreferredChannel: "whatsapp",
	})
	assert.Equal(t, "+15551234567", recipient)
	assert.Equal(t, ChannelWhatsApp, channel)

	// Preferred channel without a matching address falls back to email.
	recipient, channel = contactFor(&leads.Lead{
		ID: "v1", Email: "a@x.com", PreferredChannel: "sms",
	})
	assert.Equal(t, "a@x.com", recipient)
	assert.Equal(t, ChannelEmail, channel)
}
