package leads

import "errors"

var (
	// ErrMissingID is returned when the lead id is absent
	ErrMissingID = errors.New("lead id is required")

	// ErrLeadNotFound is returned when a lead is not found
	ErrLeadNotFound = errors.New("lead not found")
)
