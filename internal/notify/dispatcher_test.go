package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaizendigital/leadflow/internal/followup"
	"github.com/kaizendigital/leadflow/pkg/logging"
)

type fakeEmailSender struct {
	sent []EmailMessage
	err  error
}

func (f *fakeEmailSender) Send(_ context.Context, msg EmailMessage) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

type fakeTextSender struct {
	sms      []string
	whatsapp []string
}

func (f *fakeTextSender) Send(_ context.Context, to, body string) error {
	f.sms = append(f.sms, to)
	return nil
}

func (f *fakeTextSender) SendWhatsApp(_ context.Context, to, body string) error {
	f.whatsapp = append(f.whatsapp, to)
	return nil
}

func TestDispatcherRoutesByChannel(t *testing.T) {
	email := &fakeEmailSender{}
	texts := &fakeTextSender{}
	d := NewDispatcher(email, texts, "", logging.New("error"))
	ctx := context.Background()

	require.NoError(t, d.Send(ctx, "a@x.com", followup.ChannelEmail, "hello"))
	require.NoError(t, d.Send(ctx, "+15551234567", followup.ChannelSMS, "hello"))
	require.NoError(t, d.Send(ctx, "+15551234567", followup.ChannelWhatsApp, "hello"))

	require.Len(t, email.sent, 1)
	assert.Equal(t, "a@x.com", email.sent[0].To)
	assert.NotEmpty(t, email.sent[0].Subject)
	assert.Equal(t, []string{"+15551234567"}, texts.sms)
	assert.Equal(t, []string{"+15551234567"}, texts.whatsapp)
}

func TestDispatcherCustomSubject(t *testing.T) {
	email := &fakeEmailSender{}
	d := NewDispatcher(email, nil, "Your new website", logging.New("error"))

	require.NoError(t, d.Send(context.Background(), "a@x.com", followup.ChannelEmail, "hello"))
	assert.Equal(t, "Your new website", email.sent[0].Subject)
}

func TestDispatcherMissingProvider(t *testing.T) {
	d := NewDispatcher(nil, nil, "", logging.New("error"))
	ctx := context.Background()

	assert.Error(t, d.Send(ctx, "a@x.com", followup.ChannelEmail, "hello"))
	assert.Error(t, d.Send(ctx, "+1555", followup.ChannelSMS, "hello"))
	assert.Error(t, d.Send(ctx, "+1555", followup.ChannelWhatsApp, "hello"))
}

func TestDispatcherUnknownChannel(t *testing.T) {
	d := NewDispatcher(&fakeEmailSender{}, &fakeTextSender{}, "", logging.New("error"))

	err := d.Send(context.Background(), "a@x.com", followup.Channel("pigeon"), "hello")
	assert.Error(t, err)
}

func TestDispatcherPropagatesProviderError(t *testing.T) {
	email := &fakeEmailSender{err: errors.New("quota exceeded")}
	d := NewDispatcher(email, nil, "", logging.New("error"))

	err := d.Send(context.Background(), "a@x.com", followup.ChannelEmail, "hello")
	assert.ErrorContains(t, err, "quota exceeded")
}
