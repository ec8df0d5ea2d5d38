package followup

import "errors"

var (
	// ErrMissingRecipient is returned when no recipient address is given
	ErrMissingRecipient = errors.New("recipient is required")

	// ErrMissingLeadID is returned when no owning lead id is given
	ErrMissingLeadID = errors.New("lead id is required")

	// ErrInvalidChannel is returned for channels other than email/sms/whatsapp
	ErrInvalidChannel = errors.New("channel must be email, sms or whatsapp")

	// ErrInvalidTiming is returned for unknown schedule timings
	ErrInvalidTiming = errors.New("unknown schedule timing")

	// ErrMessageNotFound is returned when a scheduled message does not exist
	ErrMessageNotFound = errors.New("scheduled message not found")

	// ErrNotRetryable is returned when retrying a message that has not failed
	ErrNotRetryable = errors.New("only failed messages can be retried")
)
