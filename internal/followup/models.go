package followup

import (
	"time"

	"github.com/google/uuid"
)

// Timing identifies a follow-up tier. Each tier is scheduled at most once per
// lead; the (lead, timing) pair is the idempotency key.
type Timing string

const (
	TimingImmediate Timing = "immediate"
	Timing24h       Timing = "24h"
	Timing3d        Timing = "3d"
	Timing7d        Timing = "7d"
)

// Offset returns how far past "now" the tier is delivered. The immediate
// tier still gets a small delay so the lead is not messaged mid-chat.
func (t Timing) Offset() (time.Duration, bool) {
	switch t {
	case TimingImmediate:
		return 5 * time.Minute, true
	case Timing24h:
		return 24 * time.Hour, true
	case Timing3d:
		return 72 * time.Hour, true
	case Timing7d:
		return 168 * time.Hour, true
	default:
		return 0, false
	}
}

// ParseTiming normalizes a client-supplied timing, defaulting to immediate.
func ParseTiming(s string) (Timing, error) {
	if s == "" {
		return TimingImmediate, nil
	}
	t := Timing(s)
	if _, ok := t.Offset(); !ok {
		return "", ErrInvalidTiming
	}
	return t, nil
}

// Channel specifies how the follow-up is delivered.
type Channel string

const (
	ChannelEmail    Channel = "email"
	ChannelSMS      Channel = "sms"
	ChannelWhatsApp Channel = "whatsapp"
)

// ParseChannel validates a client-supplied channel.
func ParseChannel(s string) (Channel, error) {
	switch Channel(s) {
	case ChannelEmail, ChannelSMS, ChannelWhatsApp:
		return Channel(s), nil
	default:
		return "", ErrInvalidChannel
	}
}

// Status tracks the lifecycle of a scheduled message. Sent and failed are
// terminal for the sweep; only an operator retry moves failed back to pending.
type Status string

const (
	StatusPending Status = "pending"
	StatusSent    Status = "sent"
	StatusFailed  Status = "failed"
)

// ScheduledMessage is one pending or processed follow-up send.
type ScheduledMessage struct {
	ID        uuid.UUID  `json:"id"`
	LeadID    string     `json:"leadId"`
	Recipient string     `json:"recipient"`
	Channel   Channel    `json:"channel"`
	Timing    Timing     `json:"timing"`
	Body      string     `json:"body"`
	SendAt    time.Time  `json:"sendAt"`
	Status    Status     `json:"status"`
	LastError string     `json:"lastError,omitempty"`
	SentAt    *time.Time `json:"sentAt,omitempty"`
	FailedAt  *time.Time `json:"failedAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// MaskedRecipient redacts the middle of the address for public responses:
// "sarah@example.com" -> "sara****.com".
func (m *ScheduledMessage) MaskedRecipient() string {
	r := m.Recipient
	if len(r) <= 8 {
		return "****"
	}
	return r[:4] + "****" + r[len(r)-4:]
}

// Stats holds the aggregate scheduling counters for the admin dashboard.
type Stats struct {
	Total   int64 `json:"total"`
	Pending int64 `json:"pending"`
	Sent    int64 `json:"sent"`
	Failed  int64 `json:"failed"`
}
