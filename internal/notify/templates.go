package notify

import (
	"errors"
	"fmt"
	"html"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/osteele/liquid"

	"github.com/ignite/subscription-intake/internal/service/subscription"
)

type source struct {
	subject string
	html    string
}

var builtins = map[string]source{
	subscription.KindAdminNotice: {
		subject: `New subscriber on {{ site_name }}: {{ email }}`,
		html: `<p>A new visitor subscribed to {{ site_name }} updates.</p>
<p><strong>Email:</strong> {{ email | escape }}<br>
<strong>Domain:</strong> {{ email | email_domain | escape }}<br>
<strong>Received:</strong> {{ occurred_at }}</p>`,
	},
	subscription.KindConfirmation: {
		subject: `You're subscribed to {{ site_name }}`,
		html: `<p>Thanks for subscribing to {{ site_name }}.</p>
<p>We'll send updates to {{ email | escape }}. Nothing else is needed on your side.</p>
{% if unsubscribe_url != "" %}<p style="font-size:12px;color:#666">Changed your mind? <a href="{{ unsubscribe_url }}?email={{ email | urlencode }}">Unsubscribe</a>.</p>{% endif %}`,
	},
	subscription.KindUnsubscribed: {
		subject: `Unsubscribe on {{ site_name }}: {{ email }}`,
		html: `<p>{{ email | escape }} asked to stop receiving {{ site_name }} updates.</p>
<p><strong>Received:</strong> {{ occurred_at }}</p>`,
	},
}

type compiled struct {
	subject *liquid.Template
	html    *liquid.Template
}

// Templates holds the parsed subject and body template for every
// notification kind.
type Templates struct {
	engine *liquid.Engine
	byKind map[string]compiled
}

// NewTemplates parses the built-in templates. When dir is set, files named
// <kind>.subject.liquid and <kind>.html.liquid in it replace the built-ins.
func NewTemplates(dir string) (*Templates, error) {
	engine := liquid.NewEngine()
	registerFilters(engine)

	t := &Templates{engine: engine, byKind: make(map[string]compiled, len(builtins))}
	for kind, src := range builtins {
		if dir != "" {
			var err error
			if src.subject, err = override(dir, kind+".subject.liquid", src.subject); err != nil {
				return nil, err
			}
			if src.html, err = override(dir, kind+".html.liquid", src.html); err != nil {
				return nil, err
			}
		}

		subj, err := engine.ParseString(src.subject)
		if err != nil {
			return nil, fmt.Errorf("parse %s subject: %w", kind, err)
		}
		body, err := engine.ParseString(src.html)
		if err != nil {
			return nil, fmt.Errorf("parse %s body: %w", kind, err)
		}
		t.byKind[kind] = compiled{subject: subj, html: body}
	}
	return t, nil
}

// Render produces the subject and HTML body for kind.
func (t *Templates) Render(kind string, vars map[string]interface{}) (string, string, error) {
	c, ok := t.byKind[kind]
	if !ok {
		return "", "", fmt.Errorf("no template for %q", kind)
	}
	subject, err := c.subject.RenderString(vars)
	if err != nil {
		return "", "", fmt.Errorf("render %s subject: %w", kind, err)
	}
	body, err := c.html.RenderString(vars)
	if err != nil {
		return "", "", fmt.Errorf("render %s body: %w", kind, err)
	}
	return strings.TrimSpace(subject), body, nil
}

func override(dir, name, fallback string) (string, error) {
	data, err := os.ReadFile(filepath.Join(dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return fallback, nil
	}
	if err != nil {
		return "", fmt.Errorf("read template %s: %w", name, err)
	}
	return string(data), nil
}

func registerFilters(engine *liquid.Engine) {
	engine.RegisterFilter("escape", func(s string) string {
		return html.EscapeString(s)
	})
	engine.RegisterFilter("urlencode", func(s string) string {
		return url.QueryEscape(s)
	})
	engine.RegisterFilter("email_domain", func(email string) string {
		if i := strings.LastIndex(email, "@"); i >= 0 {
			return email[i+1:]
		}
		return ""
	})
}
