package notify

import (
	"context"
	"fmt"

	"github.com/kaizendigital/leadflow/internal/followup"
	"github.com/kaizendigital/leadflow/pkg/logging"
)

// Dispatcher routes a scheduled follow-up to the provider for its channel:
// email goes through an EmailSender, sms and whatsapp through a TextSender.
type Dispatcher struct {
	email   EmailSender
	texts   TextSender
	subject string
	replyTo string
	logger  *logging.Logger
}

// NewDispatcher creates a dispatcher. Either sender may be nil; sends on a
// channel without a configured provider fail and are recorded as such.
func NewDispatcher(email EmailSender, texts TextSender, subject string, logger *logging.Logger) *Dispatcher {
	if subject == "" {
		subject = "Following up on your website project"
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Dispatcher{
		email:   email,
		texts:   texts,
		subject: subject,
		logger:  logger,
	}
}

// WithReplyTo sets the reply-to address stamped on outgoing emails.
func (d *Dispatcher) WithReplyTo(addr string) *Dispatcher {
	d.replyTo = addr
	return d
}

var _ followup.Dispatcher = (*Dispatcher)(nil)

// Send delivers one follow-up body to the recipient over the given channel.
func (d *Dispatcher) Send(ctx context.Context, recipient string, channel followup.Channel, body string) error {
	switch channel {
	case followup.ChannelEmail:
		if d.email == nil {
			return fmt.Errorf("notify: no email provider configured")
		}
		return d.email.Send(ctx, EmailMessage{
			To:      recipient,
			ReplyTo: d.replyTo,
			Subject: d.subject,
			Body:    body,
		})
	case followup.ChannelSMS:
		if d.texts == nil {
			return fmt.Errorf("notify: no sms provider configured")
		}
		return d.texts.Send(ctx, recipient, body)
	case followup.ChannelWhatsApp:
		if d.texts == nil {
			return fmt.Errorf("notify: no whatsapp provider configured")
		}
		return d.texts.SendWhatsApp(ctx, recipient, body)
	}
	return fmt.Errorf("notify: unsupported channel %q", channel)
}
