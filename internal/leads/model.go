package leads

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Canonical answers for the qualification flow. The chat widget submits these
// exact strings, so they double as the wire format.
const (
	GoalMoreCustomers  = "Get more customers"
	GoalSellOnline     = "Sell products online"
	GoalBrandAwareness = "Build brand awareness"

	TimelineASAP        = "ASAP"
	TimelineOneMonth    = "Within 1 month"
	TimelineThreeMonths = "Within 3 months"
	TimelineExploring   = "Just exploring"

	IndustryEcommerce    = "E-commerce"
	IndustryProfServices = "Professional services"
	IndustryHealthcare   = "Healthcare"
	IndustryRealEstate   = "Real estate"
	IndustryOther        = "Other"
)

// HighValueScore is the score threshold above which a lead counts as high value.
const HighValueScore = 70

// QualificationAnswers tracks a visitor's answers to the qualifying questions.
// Nil pointers mean the question has not been answered yet.
type QualificationAnswers struct {
	HasWebsite *bool   `json:"hasWebsite"`
	MainGoal   *string `json:"mainGoal"`
	Timeline   *string `json:"timeline"`
	Budget     *string `json:"budget"`
	Industry   *string `json:"industry"`
	Qualified  bool    `json:"qualified"`
}

// Merge applies the non-nil fields of patch and re-derives Qualified from the
// freshly merged state. Qualified is never taken from the patch.
func (q *QualificationAnswers) Merge(patch QualificationAnswers) {
	if patch.HasWebsite != nil {
		q.HasWebsite = patch.HasWebsite
	}
	if patch.MainGoal != nil {
		q.MainGoal = patch.MainGoal
	}
	if patch.Timeline != nil {
		q.Timeline = patch.Timeline
	}
	if patch.Budget != nil {
		q.Budget = patch.Budget
	}
	if patch.Industry != nil {
		q.Industry = patch.Industry
	}
	q.Qualified = q.Timeline != nil &&
		(*q.Timeline == TimelineASAP || *q.Timeline == TimelineOneMonth)
}

// Answered reports whether at least one qualifying question has been answered.
func (q QualificationAnswers) Answered() bool {
	return q.HasWebsite != nil || q.MainGoal != nil || q.Timeline != nil ||
		q.Budget != nil || q.Industry != nil
}

// Interaction is one entry in a lead's append-only interaction log.
type Interaction struct {
	Timestamp time.Time       `json:"timestamp"`
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// Lead is the stored record for one visitor, keyed by the widget's session id.
type Lead struct {
	ID               string               `json:"id"`
	Email            string               `json:"email,omitempty"`
	Phone            string               `json:"phone,omitempty"`
	PreferredChannel string               `json:"preferredChannel,omitempty"`
	Qualification    QualificationAnswers `json:"qualification"`
	Score            int                  `json:"score"`
	Interactions     []Interaction        `json:"interactions"`
	CreatedAt        time.Time            `json:"createdAt"`
	UpdatedAt        time.Time            `json:"updatedAt"`
}

// HasContact reports whether the visitor has left a reachable address.
func (l *Lead) HasContact() bool {
	return l.Email != "" || l.Phone != ""
}

// Masked returns a copy safe for public API responses: contact fields are
// partially redacted. Storage is never masked.
func (l *Lead) Masked() *Lead {
	out := *l
	out.Email = MaskEmail(l.Email)
	out.Phone = MaskPhone(l.Phone)
	return &out
}

// UpsertRequest is the request body for creating or updating a lead.
type UpsertRequest struct {
	ID               string                `json:"id"`
	Email            string                `json:"email,omitempty"`
	Phone            string                `json:"phone,omitempty"`
	PreferredChannel string                `json:"preferredChannel,omitempty"`
	Qualification    *QualificationAnswers `json:"qualification,omitempty"`
	Interaction      *InteractionInput     `json:"interaction,omitempty"`
}

// InteractionInput is an interaction log entry supplied by the client.
type InteractionInput struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Validate validates the upsert request
func (r *UpsertRequest) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return ErrMissingID
	}
	return nil
}

// Stats is the aggregate view over all stored leads.
type Stats struct {
	Total          int    `json:"total"`
	Qualified      int    `json:"qualified"`
	HighValue      int    `json:"highValue"`
	ConversionRate string `json:"conversionRate"`
}

// FormatConversionRate renders qualified/total as the percentage string the
// dashboard expects, avoiding division by zero.
func FormatConversionRate(qualified, total int) string {
	if total == 0 {
		return "0%"
	}
	return fmt.Sprintf("%.1f%%", float64(qualified)/float64(total)*100)
}
