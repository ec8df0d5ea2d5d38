package leads

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/kaizendigital/leadflow/pkg/logging"
)

// UpsertObserver counts lead upserts for metrics.
type UpsertObserver interface {
	ObserveUpsert(qualified bool)
}

// Handler handles HTTP requests for leads
type Handler struct {
	repo    Repository
	logger  *logging.Logger
	metrics UpsertObserver
}

// NewHandler creates a new leads handler
func NewHandler(repo Repository, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		repo:   repo,
		logger: logger,
	}
}

// WithMetrics attaches an upsert observer.
func (h *Handler) WithMetrics(m UpsertObserver) *Handler {
	h.metrics = m
	return h
}

// UpsertResponse is the response for creating or updating a lead.
type UpsertResponse struct {
	Success bool  `json:"success"`
	Lead    *Lead `json:"lead"`
}

// Upsert handles POST /leads requests
func (h *Handler) Upsert(w http.ResponseWriter, r *http.Request) {
	var req UpsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("leads: failed to decode request", "error", err)
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	lead, err := h.repo.Upsert(r.Context(), &req)
	if err != nil {
		if errors.Is(err, ErrMissingID) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("leads: upsert failed", "error", err, "lead_id", req.ID)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if h.metrics != nil {
		h.metrics.ObserveUpsert(lead.Qualification.Qualified)
	}
	h.logger.Info("leads: upserted", "lead_id", lead.ID, "score", lead.Score, "qualified", lead.Qualification.Qualified)
	writeJSON(w, http.StatusOK, UpsertResponse{Success: true, Lead: lead.Masked()})
}

// StatsResponse is the response for the aggregate leads view.
type StatsResponse struct {
	Success bool   `json:"success"`
	Stats   *Stats `json:"stats"`
}

// Get handles GET /leads requests. With an id parameter it returns a single
// masked lead; without one it returns summary stats.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		stats, err := h.repo.Stats(r.Context())
		if err != nil {
			h.logger.Error("leads: stats failed", "error", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		writeJSON(w, http.StatusOK, StatsResponse{Success: true, Stats: stats})
		return
	}

	lead, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrLeadNotFound) {
			writeError(w, http.StatusNotFound, "lead not found")
			return
		}
		h.logger.Error("leads: get failed", "error", err, "lead_id", id)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, UpsertResponse{Success: true, Lead: lead.Masked()})
}

// ListResponse is the response for the admin lead listing.
type ListResponse struct {
	Leads  []*Lead `json:"leads"`
	Count  int     `json:"count"`
	Offset int     `json:"offset"`
	Limit  int     `json:"limit"`
}

// List handles GET /admin/leads requests. Contact fields are returned
// unmasked; the route sits behind admin auth.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	filter := ListFilter{Limit: 50}

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 && limit <= 100 {
			filter.Limit = limit
		}
	}
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil && offset >= 0 {
			filter.Offset = offset
		}
	}
	if qualified := r.URL.Query().Get("qualified"); qualified == "true" {
		filter.QualifiedOnly = true
	}

	result, err := h.repo.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("leads: list failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list leads")
		return
	}

	writeJSON(w, http.StatusOK, ListResponse{
		Leads:  result,
		Count:  len(result),
		Offset: filter.Offset,
		Limit:  filter.Limit,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
