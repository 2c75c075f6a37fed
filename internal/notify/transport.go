package notify

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/ignite/subscription-intake/internal/pkg/logger"
)

// Message is a rendered email ready for a Transport.
type Message struct {
	FromEmail string
	FromName  string
	To        []string
	ReplyTo   string
	Subject   string
	HTML      string
	Text      string
	Tags      map[string]string
}

// From formats the sender as "Name <address>".
func (m *Message) From() string {
	if m.FromName == "" {
		return m.FromEmail
	}
	return m.FromName + " <" + m.FromEmail + ">"
}

// Transport delivers a single message and returns the provider's message id.
type Transport interface {
	Send(ctx context.Context, msg *Message) (string, error)
	Name() string
}

// LogTransport writes messages to the structured log instead of sending them.
type LogTransport struct{}

// NewLogTransport creates a log-only transport.
func NewLogTransport() *LogTransport { return &LogTransport{} }

func (LogTransport) Name() string { return "log" }

func (LogTransport) Send(_ context.Context, msg *Message) (string, error) {
	id := "log-" + uuid.NewString()
	logger.Info("email logged, not sent",
		"message_id", id,
		"to_email", strings.Join(msg.To, ","),
		"subject", msg.Subject,
		"kind", msg.Tags["kind"],
	)
	return id, nil
}
