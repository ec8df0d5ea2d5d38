package followup

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v4"
)

func TestPostgresCreateNewMessage(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	store := NewPostgresStore(mock)
	mock.ExpectExec("INSERT INTO scheduled_messages").
		WithArgs(pgxmock.AnyArg(), "v1", "a@x.com", "email", "3d", "hello", pgxmock.AnyArg(), "pending", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	msg, created, err := store.Create(context.Background(), &ScheduledMessage{
		LeadID:    "v1",
		Recipient: "a@x.com",
		Channel:   ChannelEmail,
		Timing:    Timing3d,
		Body:      "hello",
		SendAt:    time.Now().UTC().Add(72 * time.Hour),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !created || msg.ID == uuid.Nil {
		t.Fatalf("expected fresh message, got created=%v id=%s", created, msg.ID)
	}
}

func TestPostgresCreateConflictReturnsExisting(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	store := NewPostgresStore(mock)
	existingID := uuid.New()
	now := time.Now().UTC()

	mock.ExpectExec("INSERT INTO scheduled_messages").
		WithArgs(pgxmock.AnyArg(), "v1", "a@x.com", "email", "3d", "hello", pgxmock.AnyArg(), "pending", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))
	mock.ExpectQuery("SELECT (.+) FROM scheduled_messages").
		WithArgs("v1", "3d").
		WillReturnRows(messageRows().
			AddRow(existingID, "v1", "a@x.com", "email", "3d", "earlier body", now, "pending", "", nil, nil, now, now))

	msg, created, err := store.Create(context.Background(), &ScheduledMessage{
		LeadID:    "v1",
		Recipient: "a@x.com",
		Channel:   ChannelEmail,
		Timing:    Timing3d,
		Body:      "hello",
		SendAt:    now,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created {
		t.Fatal("expected dedup to report existing message")
	}
	if msg.ID != existingID || msg.Body != "earlier body" {
		t.Fatalf("expected existing row back, got %+v", msg)
	}
}

func TestPostgresListDue(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	store := NewPostgresStore(mock)
	now := time.Now().UTC()
	mock.ExpectQuery("SELECT (.+) FROM scheduled_messages").
		WithArgs(pgxmock.AnyArg(), 25).
		WillReturnRows(messageRows().
			AddRow(uuid.New(), "v1", "a@x.com", "email", "immediate", "hello", now, "pending", "", nil, nil, now, now))

	due, err := store.ListDue(context.Background(), now, 0)
	if err != nil {
		t.Fatalf("list due: %v", err)
	}
	if len(due) != 1 || due[0].Status != StatusPending {
		t.Fatalf("unexpected due set: %+v", due)
	}
}

func TestPostgresMarkSentRequiresPending(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	store := NewPostgresStore(mock)
	id := uuid.New()
	mock.ExpectExec("UPDATE scheduled_messages").
		WithArgs(pgxmock.AnyArg(), id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	if err := store.MarkSent(context.Background(), id); err != ErrMessageNotFound {
		t.Fatalf("expected ErrMessageNotFound, got %v", err)
	}
}

func TestPostgresRetryRequiresFailed(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	store := NewPostgresStore(mock)
	id := uuid.New()
	mock.ExpectExec("UPDATE scheduled_messages").
		WithArgs(pgxmock.AnyArg(), id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	if err := store.Retry(context.Background(), id); err != ErrNotRetryable {
		t.Fatalf("expected ErrNotRetryable, got %v", err)
	}
}

func TestPostgresStats(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	store := NewPostgresStore(mock)
	mock.ExpectQuery("SELECT").
		WillReturnRows(pgxmock.NewRows([]string{"total", "pending", "sent", "failed"}).
			AddRow(int64(5), int64(2), int64(2), int64(1)))

	stats, err := store.Stats(context.Background())
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Pending != 2 || stats.Failed != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func messageRows() *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"id", "lead_id", "recipient", "channel", "timing", "body",
		"send_at", "status", "last_error", "sent_at", "failed_at",
		"created_at", "updated_at",
	})
}
