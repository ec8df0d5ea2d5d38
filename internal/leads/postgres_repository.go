package leads

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// PgxPool abstracts the pgx pool surface the repository needs, so tests can
// substitute pgxmock.
type PgxPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores leads in the relational database.
type PostgresRepository struct {
	pool PgxPool
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool PgxPool) *PostgresRepository {
	if pool == nil {
		panic("leads: pgx pool required")
	}
	return &PostgresRepository{pool: pool}
}

// Upsert merges the request into the stored row inside one transaction. The
// row is locked for the duration of the merge, so concurrent upserts to the
// same id serialize instead of dropping fields.
func (r *PostgresRepository) Upsert(ctx context.Context, req *UpsertRequest) (*Lead, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("leads: begin upsert: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	now := time.Now().UTC()
	lead := &Lead{ID: req.ID, CreatedAt: now}

	var qualJSON []byte
	err = tx.QueryRow(ctx, `
		SELECT email, phone, preferred_channel, qualification, score, created_at
		FROM leads WHERE id = $1 FOR UPDATE`, req.ID).
		Scan(&lead.Email, &lead.Phone, &lead.PreferredChannel, &qualJSON, &lead.Score, &lead.CreatedAt)
	switch {
	case err == nil:
		if err := json.Unmarshal(qualJSON, &lead.Qualification); err != nil {
			return nil, fmt.Errorf("leads: decode qualification: %w", err)
		}
	case errors.Is(err, pgx.ErrNoRows):
		// First event for this visitor; insert below.
	default:
		return nil, fmt.Errorf("leads: select for update: %w", err)
	}

	applyUpsert(lead, req, now)

	merged, err := json.Marshal(lead.Qualification)
	if err != nil {
		return nil, fmt.Errorf("leads: encode qualification: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO leads (id, email, phone, preferred_channel, qualification, score, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email,
			phone = EXCLUDED.phone,
			preferred_channel = EXCLUDED.preferred_channel,
			qualification = EXCLUDED.qualification,
			score = EXCLUDED.score,
			updated_at = EXCLUDED.updated_at`,
		lead.ID, lead.Email, lead.Phone, lead.PreferredChannel, merged, lead.Score, lead.CreatedAt, lead.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("leads: upsert row: %w", err)
	}

	if req.Interaction != nil {
		_, err = tx.Exec(ctx, `
			INSERT INTO lead_interactions (lead_id, occurred_at, kind, data)
			VALUES ($1, $2, $3, $4)`,
			lead.ID, now, req.Interaction.Type, []byte(req.Interaction.Data),
		)
		if err != nil {
			return nil, fmt.Errorf("leads: append interaction: %w", err)
		}
	}

	interactions, err := loadInteractions(ctx, tx, lead.ID)
	if err != nil {
		return nil, err
	}
	lead.Interactions = interactions

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("leads: commit upsert: %w", err)
	}
	return lead, nil
}

// GetByID fetches a lead with its interaction log.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Lead, error) {
	var lead Lead
	var qualJSON []byte
	err := r.pool.QueryRow(ctx, `
		SELECT id, email, phone, preferred_channel, qualification, score, created_at, updated_at
		FROM leads WHERE id = $1`, id).
		Scan(&lead.ID, &lead.Email, &lead.Phone, &lead.PreferredChannel, &qualJSON, &lead.Score, &lead.CreatedAt, &lead.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLeadNotFound
		}
		return nil, fmt.Errorf("leads: select: %w", err)
	}
	if err := json.Unmarshal(qualJSON, &lead.Qualification); err != nil {
		return nil, fmt.Errorf("leads: decode qualification: %w", err)
	}

	interactions, err := loadInteractions(ctx, r.pool, lead.ID)
	if err != nil {
		return nil, err
	}
	lead.Interactions = interactions
	return &lead, nil
}

// List returns leads ordered by creation time, newest first.
func (r *PostgresRepository) List(ctx context.Context, filter ListFilter) ([]*Lead, error) {
	if filter.Limit <= 0 {
		filter.Limit = 50
	}

	query := `
		SELECT id, email, phone, preferred_channel, qualification, score, created_at, updated_at
		FROM leads`
	if filter.QualifiedOnly {
		query += `
		WHERE (qualification ->> 'qualified')::bool`
	}
	query += `
		ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	rows, err := r.pool.Query(ctx, query, filter.Limit, filter.Offset)
	if err != nil {
		return nil, fmt.Errorf("leads: list: %w", err)
	}
	defer rows.Close()

	var out []*Lead
	for rows.Next() {
		var lead Lead
		var qualJSON []byte
		if err := rows.Scan(&lead.ID, &lead.Email, &lead.Phone, &lead.PreferredChannel, &qualJSON, &lead.Score, &lead.CreatedAt, &lead.UpdatedAt); err != nil {
			return nil, fmt.Errorf("leads: scan: %w", err)
		}
		if err := json.Unmarshal(qualJSON, &lead.Qualification); err != nil {
			return nil, fmt.Errorf("leads: decode qualification: %w", err)
		}
		out = append(out, &lead)
	}
	return out, rows.Err()
}

// Stats aggregates lead counts in a single query.
func (r *PostgresRepository) Stats(ctx context.Context) (*Stats, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT
			COUNT(*) AS total,
			COUNT(*) FILTER (WHERE (qualification ->> 'qualified')::bool) AS qualified,
			COUNT(*) FILTER (WHERE score >= $1) AS high_value
		FROM leads`, HighValueScore)

	var stats Stats
	if err := row.Scan(&stats.Total, &stats.Qualified, &stats.HighValue); err != nil {
		return nil, fmt.Errorf("leads: stats: %w", err)
	}
	stats.ConversionRate = FormatConversionRate(stats.Qualified, stats.Total)
	return &stats, nil
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func loadInteractions(ctx context.Context, q querier, leadID string) ([]Interaction, error) {
	rows, err := q.Query(ctx, `
		SELECT occurred_at, kind, data
		FROM lead_interactions
		WHERE lead_id = $1
		ORDER BY occurred_at ASC, id ASC`, leadID)
	if err != nil {
		return nil, fmt.Errorf("leads: load interactions: %w", err)
	}
	defer rows.Close()

	var out []Interaction
	for rows.Next() {
		var it Interaction
		var data []byte
		if err := rows.Scan(&it.Timestamp, &it.Type, &data); err != nil {
			return nil, fmt.Errorf("leads: scan interaction: %w", err)
		}
		it.Data = json.RawMessage(data)
		out = append(out, it)
	}
	return out, rows.Err()
}
