package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ignite/subscription-intake/internal/pkg/logger"
	"github.com/ignite/subscription-intake/internal/service/subscription"
)

// ErrNoAdminRecipient is returned for admin notices when no admin address is
// configured.
var ErrNoAdminRecipient = errors.New("notify: admin email not configured")

// MailerConfig holds sender identity and template variables.
type MailerConfig struct {
	FromEmail      string
	FromName       string
	AdminEmail     string
	SiteName       string
	UnsubscribeURL string
	Timeout        time.Duration
}

// Mailer implements subscription.Notifier on top of a Transport.
type Mailer struct {
	transport Transport
	templates *Templates
	cfg       MailerConfig
	now       func() time.Time
}

var _ subscription.Notifier = (*Mailer)(nil)

// NewMailer creates a Mailer.
func NewMailer(transport Transport, templates *Templates, cfg MailerConfig) *Mailer {
	return &Mailer{transport: transport, templates: templates, cfg: cfg, now: time.Now}
}

// SendSubscriptionNotification tells the site admin about a new subscriber.
func (m *Mailer) SendSubscriptionNotification(ctx context.Context, email string) error {
	if m.cfg.AdminEmail == "" {
		return ErrNoAdminRecipient
	}
	return m.send(ctx, subscription.KindAdminNotice, m.cfg.AdminEmail, email)
}

// SendSubscriptionConfirmation thanks the subscriber.
func (m *Mailer) SendSubscriptionConfirmation(ctx context.Context, email string) error {
	return m.send(ctx, subscription.KindConfirmation, email, email)
}

// SendUnsubscribeNotification tells the site admin about an unsubscribe.
func (m *Mailer) SendUnsubscribeNotification(ctx context.Context, email string) error {
	if m.cfg.AdminEmail == "" {
		return ErrNoAdminRecipient
	}
	return m.send(ctx, subscription.KindUnsubscribed, m.cfg.AdminEmail, email)
}

func (m *Mailer) send(ctx context.Context, kind, to, email string) error {
	subject, body, err := m.templates.Render(kind, map[string]interface{}{
		"email":           email,
		"site_name":       m.cfg.SiteName,
		"unsubscribe_url": m.cfg.UnsubscribeURL,
		"occurred_at":     m.now().UTC().Format("2006-01-02 15:04:05 MST"),
	})
	if err != nil {
		return err
	}

	msg := &Message{
		FromEmail: m.cfg.FromEmail,
		FromName:  m.cfg.FromName,
		To:        []string{to},
		Subject:   subject,
		HTML:      body,
		Tags:      map[string]string{"kind": kind},
	}
	// Admin replies go straight to the subscriber.
	if to != email {
		msg.ReplyTo = email
	}

	if m.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.cfg.Timeout)
		defer cancel()
	}

	id, err := m.transport.Send(ctx, msg)
	if err != nil {
		return fmt.Errorf("%s via %s: %w", kind, m.transport.Name(), err)
	}
	logger.Info("notification sent", "kind", kind, "email", email, "provider", m.transport.Name(), "message_id", id)
	return nil
}
