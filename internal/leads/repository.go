package leads

import (
	"context"
	"sync"
	"time"
)

// ListFilter narrows admin lead listings.
type ListFilter struct {
	Limit         int
	Offset        int
	QualifiedOnly bool
}

// Repository defines the interface for lead storage
type Repository interface {
	Upsert(ctx context.Context, req *UpsertRequest) (*Lead, error)
	GetByID(ctx context.Context, id string) (*Lead, error)
	List(ctx context.Context, filter ListFilter) ([]*Lead, error)
	Stats(ctx context.Context) (*Stats, error)
}

// InMemoryRepository keeps leads in process memory. Used in development and
// tests; production runs on PostgresRepository.
type InMemoryRepository struct {
	mu    sync.RWMutex
	leads map[string]*Lead
	order []string // insertion order, for stable listings
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		leads: make(map[string]*Lead),
	}
}

// Upsert creates the lead on first sight and merges the patch into an
// existing record otherwise. The whole merge happens under one lock, so
// concurrent upserts to the same id cannot drop unrelated fields.
func (r *InMemoryRepository) Upsert(ctx context.Context, req *UpsertRequest) (*Lead, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	lead, ok := r.leads[req.ID]
	if !ok {
		lead = &Lead{
			ID:        req.ID,
			CreatedAt: now,
		}
		r.leads[req.ID] = lead
		r.order = append(r.order, req.ID)
	}

	applyUpsert(lead, req, now)

	return cloneLead(lead), nil
}

// GetByID retrieves a lead by ID
func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lead, ok := r.leads[id]
	if !ok {
		return nil, ErrLeadNotFound
	}
	return cloneLead(lead), nil
}

// List returns leads in insertion order.
func (r *InMemoryRepository) List(ctx context.Context, filter ListFilter) ([]*Lead, error) {
	if filter.Limit <= 0 {
		filter.Limit = 50
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Lead
	skipped := 0
	for _, id := range r.order {
		lead := r.leads[id]
		if filter.QualifiedOnly && !lead.Qualification.Qualified {
			continue
		}
		if skipped < filter.Offset {
			skipped++
			continue
		}
		out = append(out, cloneLead(lead))
		if len(out) >= filter.Limit {
			break
		}
	}
	return out, nil
}

// Stats aggregates over every stored lead.
func (r *InMemoryRepository) Stats(ctx context.Context) (*Stats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := &Stats{Total: len(r.leads)}
	for _, lead := range r.leads {
		if lead.Qualification.Qualified {
			stats.Qualified++
		}
		if lead.Score >= HighValueScore {
			stats.HighValue++
		}
	}
	stats.ConversionRate = FormatConversionRate(stats.Qualified, stats.Total)
	return stats, nil
}

// applyUpsert merges an upsert request into a lead and refreshes the score.
// Shared by the in-memory and Postgres implementations.
func applyUpsert(lead *Lead, req *UpsertRequest, now time.Time) {
	if req.Email != "" {
		lead.Email = req.Email
	}
	if req.Phone != "" {
		lead.Phone = req.Phone
	}
	if req.PreferredChannel != "" {
		lead.PreferredChannel = req.PreferredChannel
	}

	if req.Qualification != nil {
		lead.Qualification.Merge(*req.Qualification)
		lead.Score = Score(lead.Qualification)
	}

	if req.Interaction != nil {
		lead.Interactions = append(lead.Interactions, Interaction{
			Timestamp: now,
			Type:      req.Interaction.Type,
			Data:      req.Interaction.Data,
		})
	}

	lead.UpdatedAt = now
}

func cloneLead(l *Lead) *Lead {
	out := *l
	if l.Interactions != nil {
		out.Interactions = make([]Interaction, len(l.Interactions))
		copy(out.Interactions, l.Interactions)
	}
	return &out
}
