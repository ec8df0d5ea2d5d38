package chat

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaizendigital/leadflow/internal/followup"
	"github.com/kaizendigital/leadflow/internal/leads"
)

func newTestService(t *testing.T) (*Service, *leads.InMemoryRepository, *followup.MemoryStore) {
	t.Helper()
	repo := leads.NewInMemoryRepository()
	store := followup.NewMemoryStore()
	scheduler := followup.NewScheduler(store, followup.NewTemplateSet("Kaizen Digital", "https://kaizen-digital.com"), nil)
	svc := NewService(NewMemorySessionStore(time.Hour), repo, scheduler, NewMachine(nil, "Kaizen Digital"), nil)
	return svc, repo, store
}

func say(t *testing.T, svc *Service, sessionID, text string) *Reply {
	t.Helper()
	reply, err := svc.HandleMessage(context.Background(), sessionID, text)
	require.NoError(t, err)
	return reply
}

func TestConversationCreatesSession(t *testing.T) {
	svc, _, _ := newTestService(t)

	reply := say(t, svc, "", "hi")
	assert.NotEmpty(t, reply.SessionID)
	assert.Equal(t, StateAskedHasWebsite, reply.State)
	assert.Equal(t, hasWebsiteReplies, reply.QuickReplies)

	// Same session id resumes where the visitor left off.
	reply2 := say(t, svc, reply.SessionID, "No")
	assert.Equal(t, reply.SessionID, reply2.SessionID)
	assert.Equal(t, StateAskedMainGoal, reply2.State)
}

func TestConversationUpsertsLeadPerAnswer(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	sid := say(t, svc, "", "hi").SessionID
	say(t, svc, sid, "No")
	say(t, svc, sid, leads.GoalSellOnline)

	lead, err := repo.GetByID(ctx, sid)
	require.NoError(t, err)
	require.NotNil(t, lead.Qualification.HasWebsite)
	assert.False(t, *lead.Qualification.HasWebsite)
	require.NotNil(t, lead.Qualification.MainGoal)
	assert.Equal(t, leads.GoalSellOnline, *lead.Qualification.MainGoal)
	assert.Equal(t, 60, lead.Score)
	assert.Len(t, lead.Interactions, 2)
}

func TestFullConversationSchedulesFollowUps(t *testing.T) {
	svc, repo, store := newTestService(t)
	ctx := context.Background()

	sid := say(t, svc, "", "hi").SessionID
	say(t, svc, sid, "No")
	say(t, svc, sid, leads.GoalSellOnline)
	say(t, svc, sid, leads.TimelineASAP)

	reply := say(t, svc, sid, leads.IndustryEcommerce)
	assert.Equal(t, StateQualified, reply.State)

	// No contact info yet, so nothing is scheduled.
	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.Total)

	say(t, svc, sid, "Leave my contact details")
	reply = say(t, svc, sid, "jane@example.com")
	assert.Equal(t, StateTerminal, reply.State)

	lead, err := repo.GetByID(ctx, sid)
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", lead.Email)
	assert.True(t, lead.Qualification.Qualified)
	assert.Equal(t, 100, lead.Score)

	// Qualified lead with contact: immediate plus the 3d and 7d tiers.
	msgs, err := store.ListByLead(ctx, sid)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	timings := map[followup.Timing]bool{}
	for _, m := range msgs {
		timings[m.Timing] = true
		assert.Equal(t, "jane@example.com", m.Recipient)
		assert.Equal(t, followup.ChannelEmail, m.Channel)
	}
	assert.True(t, timings[followup.TimingImmediate])
	assert.True(t, timings[followup.Timing3d])
	assert.True(t, timings[followup.Timing7d])
}

func TestNurtureConversationSchedulesImmediateOnly(t *testing.T) {
	svc, _, store := newTestService(t)
	ctx := context.Background()

	sid := say(t, svc, "", "hi").SessionID
	say(t, svc, sid, "Yes")
	say(t, svc, sid, leads.GoalBrandAwareness)
	say(t, svc, sid, leads.TimelineExploring)

	reply := say(t, svc, sid, leads.IndustryOther)
	assert.Equal(t, StateNurture, reply.State)

	say(t, svc, sid, "Leave my contact details")
	say(t, svc, sid, "call me on 5551234567")

	msgs, err := store.ListByLead(ctx, sid)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, followup.TimingImmediate, msgs[0].Timing)
	assert.Equal(t, followup.ChannelSMS, msgs[0].Channel)
}

func TestInvalidAnswerDoesNotTouchLead(t *testing.T) {
	svc, repo, _ := newTestService(t)

	sid := say(t, svc, "", "hi").SessionID
	reply := say(t, svc, sid, "maybe")
	assert.Equal(t, StateAskedHasWebsite, reply.State)

	_, err := repo.GetByID(context.Background(), sid)
	assert.ErrorIs(t, err, leads.ErrLeadNotFound)
}
