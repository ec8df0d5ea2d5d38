package followup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB abstracts the pgx query interface for testing.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore provides CRUD operations for scheduled_messages.
type PostgresStore struct {
	db DB
}

// NewPostgresStore creates a Postgres-backed scheduled message store.
func NewPostgresStore(db DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const messageColumns = `id, lead_id, recipient, channel, timing, body, send_at, status, last_error, sent_at, failed_at, created_at, updated_at`

// Create inserts the message unless the (lead_id, timing) slot is already
// taken, in which case the existing row wins and is returned.
func (s *PostgresStore) Create(ctx context.Context, m *ScheduledMessage) (*ScheduledMessage, bool, error) {
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

	tag, err := s.db.Exec(ctx, `
		INSERT INTO scheduled_messages (id, lead_id, recipient, channel, timing, body, send_at, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (lead_id, timing) DO NOTHING`,
		stored.ID, stored.LeadID, stored.Recipient, string(stored.Channel), string(stored.Timing),
		stored.Body, stored.SendAt, string(stored.Status), stored.CreatedAt, stored.UpdatedAt,
	)
	if err != nil {
		return nil, false, fmt.Errorf("followup: create message: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return &stored, true, nil
	}

	// Lost the race (or already scheduled earlier); hand back the winner.
	rows, err := s.db.Query(ctx, `
		SELECT `+messageColumns+`
		FROM scheduled_messages
		WHERE lead_id = $1 AND timing = $2`, stored.LeadID, string(stored.Timing))
	if err != nil {
		return nil, false, fmt.Errorf("followup: load existing message: %w", err)
	}
	defer rows.Close()
	existing, err := scanMessages(rows)
	if err != nil {
		return nil, false, err
	}
	if len(existing) == 0 {
		return nil, false, fmt.Errorf("followup: create message: conflict row vanished")
	}
	return &existing[0], false, nil
}

// Get returns a message by id.
func (s *PostgresStore) Get(ctx context.Context, id uuid.UUID) (*ScheduledMessage, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+messageColumns+`
		FROM scheduled_messages WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("followup: get message: %w", err)
	}
	defer rows.Close()
	messages, err := scanMessages(rows)
	if err != nil {
		return nil, err
	}
	if len(messages) == 0 {
		return nil, ErrMessageNotFound
	}
	return &messages[0], nil
}

// ListDue returns pending messages whose send_at is on or before the given time.
func (s *PostgresStore) ListDue(ctx context.Context, asOf time.Time, limit int) ([]ScheduledMessage, error) {
	if limit <= 0 {
		limit = 25
	}
	rows, err := s.db.Query(ctx, `
		SELECT `+messageColumns+`
		FROM scheduled_messages
		WHERE status = 'pending' AND send_at <= $1
		ORDER BY send_at ASC
		LIMIT $2`, asOf, limit)
	if err != nil {
		return nil, fmt.Errorf("followup: list due: %w", err)
	}
	defer rows.Close()
	return scanMessages(rows)
}

// ListByLead returns every message owned by a lead.
func (s *PostgresStore) ListByLead(ctx context.Context, leadID string) ([]ScheduledMessage, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+messageColumns+`
		FROM scheduled_messages
		WHERE lead_id = $1
		ORDER BY send_at ASC`, leadID)
	if err != nil {
		return nil, fmt.Errorf("followup: list by lead: %w", err)
	}
	defer rows.Close()
	return scanMessages(rows)
}

// MarkSent transitions a message from pending -> sent.
func (s *PostgresStore) MarkSent(ctx context.Context, id uuid.UUID) error {
	now := time.Now().UTC()
	tag, err := s.db.Exec(ctx, `
		UPDATE scheduled_messages SET status = 'sent', sent_at = $1, updated_at = $1
		WHERE id = $2 AND status = 'pending'`, now, id)
	if err != nil {
		return fmt.Errorf("followup: mark sent: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrMessageNotFound
	}
	return nil
}

// MarkFailed transitions a message from pending -> failed. No automatic
// retry; the row stays failed until an operator intervenes.
func (s *PostgresStore) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	now := time.Now().UTC()
	tag, err := s.db.Exec(ctx, `
		UPDATE scheduled_messages SET status = 'failed', failed_at = $1, last_error = $2, updated_at = $1
		WHERE id = $3 AND status = 'pending'`, now, reason, id)
	if err != nil {
		return fmt.Errorf("followup: mark failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrMessageNotFound
	}
	return nil
}

// Retry transitions failed -> pending so the next sweep picks the message up.
func (s *PostgresStore) Retry(ctx context.Context, id uuid.UUID) error {
	now := time.Now().UTC()
	tag, err := s.db.Exec(ctx, `
		UPDATE scheduled_messages
		SET status = 'pending', failed_at = NULL, sent_at = NULL, last_error = '', updated_at = $1
		WHERE id = $2 AND status = 'failed'`, now, id)
	if err != nil {
		return fmt.Errorf("followup: retry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotRetryable
	}
	return nil
}

// Stats returns aggregated counters for the admin dashboard.
func (s *PostgresStore) Stats(ctx context.Context) (*Stats, error) {
	row := s.db.QueryRow(ctx, `
		SELECT
			COUNT(*) AS total,
			COUNT(*) FILTER (WHERE status = 'pending') AS pending,
			COUNT(*) FILTER (WHERE status = 'sent') AS sent,
			COUNT(*) FILTER (WHERE status = 'failed') AS failed
		FROM scheduled_messages`)

	var stats Stats
	if err := row.Scan(&stats.Total, &stats.Pending, &stats.Sent, &stats.Failed); err != nil {
		return nil, fmt.Errorf("followup: stats: %w", err)
	}
	return &stats, nil
}

func scanMessages(rows pgx.Rows) ([]ScheduledMessage, error) {
	var result []ScheduledMessage
	for rows.Next() {
		var m ScheduledMessage
		var channel, timing, status string
		err := rows.Scan(
			&m.ID, &m.LeadID, &m.Recipient, &channel, &timing, &m.Body,
			&m.SendAt, &status, &m.LastError, &m.SentAt, &m.FailedAt,
			&m.CreatedAt, &m.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("followup: scan message: %w", err)
		}
		m.Channel = Channel(channel)
		m.Timing = Timing(timing)
		m.Status = Status(status)
		result = append(result, m)
	}
	if err := rows.Err(); err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	return result, nil
}
