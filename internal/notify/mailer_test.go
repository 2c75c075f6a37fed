package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/subscription-intake/internal/service/subscription"
)

type fakeTransport struct {
	mu       sync.Mutex
	sent     []*Message
	err      error
	deadline bool
}

func (f *fakeTransport) Name() string { return "fake" }

func (f *fakeTransport) Send(ctx context.Context, msg *Message) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, f.deadline = ctx.Deadline()
	if f.err != nil {
		return "", f.err
	}
	f.sent = append(f.sent, msg)
	return "msg-1", nil
}

func newTestMailer(t *testing.T, transport Transport, cfg MailerConfig) *Mailer {
	t.Helper()
	tpl, err := NewTemplates("")
	require.NoError(t, err)
	m := NewMailer(transport, tpl, cfg)
	m.now = func() time.Time { return time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC) }
	return m
}

var testMailerConfig = MailerConfig{
	FromEmail:  "hello@audits.example",
	FromName:   "Example Audits",
	AdminEmail: "leads@audits.example",
	SiteName:   "Example Audits",
}

func TestMailer_AdminNotice(t *testing.T) {
	transport := &fakeTransport{}
	m := newTestMailer(t, transport, testMailerConfig)

	require.NoError(t, m.SendSubscriptionNotification(context.Background(), "jane@example.com"))

	require.Len(t, transport.sent, 1)
	msg := transport.sent[0]
	assert.Equal(t, []string{"leads@audits.example"}, msg.To)
	assert.Equal(t, "jane@example.com", msg.ReplyTo)
	assert.Equal(t, "Example Audits <hello@audits.example>", msg.From())
	assert.Equal(t, subscription.KindAdminNotice, msg.Tags["kind"])
	assert.Contains(t, msg.HTML, "2026-03-01 10:00:00 UTC")
}

func TestMailer_ConfirmationGoesToSubscriber(t *testing.T) {
	transport := &fakeTransport{}
	m := newTestMailer(t, transport, testMailerConfig)

	require.NoError(t, m.SendSubscriptionConfirmation(context.Background(), "jane@example.com"))

	require.Len(t, transport.sent, 1)
	msg := transport.sent[0]
	assert.Equal(t, []string{"jane@example.com"}, msg.To)
	assert.Empty(t, msg.ReplyTo)
	assert.Equal(t, "You're subscribed to Example Audits", msg.Subject)
}

func TestMailer_UnsubscribeNotice(t *testing.T) {
	transport := &fakeTransport{}
	m := newTestMailer(t, transport, testMailerConfig)

	require.NoError(t, m.SendUnsubscribeNotification(context.Background(), "bye@example.com"))

	require.Len(t, transport.sent, 1)
	assert.Equal(t, []string{"leads@audits.example"}, transport.sent[0].To)
	assert.Equal(t, subscription.KindUnsubscribed, transport.sent[0].Tags["kind"])
}

func TestMailer_NoAdminRecipient(t *testing.T) {
	transport := &fakeTransport{}
	cfg := testMailerConfig
	cfg.AdminEmail = ""
	m := newTestMailer(t, transport, cfg)

	assert.ErrorIs(t, m.SendSubscriptionNotification(context.Background(), "jane@example.com"), ErrNoAdminRecipient)
	assert.ErrorIs(t, m.SendUnsubscribeNotification(context.Background(), "jane@example.com"), ErrNoAdminRecipient)
	assert.NoError(t, m.SendSubscriptionConfirmation(context.Background(), "jane@example.com"))
	assert.Len(t, transport.sent, 1)
}

func TestMailer_TransportErrorWrapped(t *testing.T) {
	boom := errors.New("throttled")
	m := newTestMailer(t, &fakeTransport{err: boom}, testMailerConfig)

	err := m.SendSubscriptionConfirmation(context.Background(), "jane@example.com")
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "via fake")
}

func TestMailer_TimeoutApplied(t *testing.T) {
	transport := &fakeTransport{}
	cfg := testMailerConfig
	cfg.Timeout = time.Second
	m := newTestMailer(t, transport, cfg)

	require.NoError(t, m.SendSubscriptionConfirmation(context.Background(), "jane@example.com"))
	assert.True(t, transport.deadline)

	transport = &fakeTransport{}
	m = newTestMailer(t, transport, testMailerConfig)
	require.NoError(t, m.SendSubscriptionConfirmation(context.Background(), "jane@example.com"))
	assert.False(t, transport.deadline)
}

func TestLogTransport(t *testing.T) {
	id, err := NewLogTransport().Send(context.Background(), &Message{To: []string{"a@b.co"}, Subject: "hi"})
	require.NoError(t, err)
	assert.Regexp(t, `^log-[0-9a-f-]{36}$`, id)
}
