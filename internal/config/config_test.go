package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))
	return configPath
}

func TestLoad(t *testing.T) {
	configPath := writeConfig(t, `
server:
  port: 9090
  host: "0.0.0.0"
  read_timeout_seconds: 3

storage:
  type: "postgres"
  database_url: "postgres://intake@localhost:5432/site?sslmode=disable"
  table: "newsletter_subscriptions"

notify:
  provider: "ses"
  from_email: "hello@audits.example"
  admin_email: "leads@audits.example"
  site_name: "Example Audits"
  unsubscribe_url: "https://audits.example/unsubscribe"

ses:
  region: "eu-west-1"
  configuration_set: "transactional"

journal:
  redis_url: "redis://localhost:6379/0"
  key: "intake:fallback"

cors:
  allowed_origins: ["https://audits.example"]

log:
  level: "debug"
  redact_pii: false
`)

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 3*time.Second, cfg.Server.ReadTimeout())

	assert.Equal(t, "postgres", cfg.Storage.Type)
	assert.Equal(t, "newsletter_subscriptions", cfg.Storage.Table)

	assert.Equal(t, "ses", cfg.Notify.Provider)
	assert.Equal(t, "leads@audits.example", cfg.Notify.AdminEmail)
	assert.Equal(t, "Example Audits", cfg.Notify.SiteName)
	assert.Equal(t, "eu-west-1", cfg.SES.Region)
	assert.Equal(t, "transactional", cfg.SES.ConfigurationSet)

	assert.Equal(t, "redis://localhost:6379/0", cfg.Journal.RedisURL)
	assert.Equal(t, "intake:fallback", cfg.Journal.Key)

	assert.Equal(t, []string{"https://audits.example"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.False(t, cfg.Log.Redact())
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "notify:\n  admin_email: \"a@b.co\"\n"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 10*time.Second, cfg.Server.WriteTimeout())
	assert.Equal(t, 15*time.Second, cfg.Server.ShutdownTimeout())
	assert.Equal(t, "memory", cfg.Storage.Type)
	assert.Equal(t, "site_subscriptions", cfg.Storage.Table)
	assert.Equal(t, "log", cfg.Notify.Provider)
	assert.Equal(t, "Audit Services", cfg.Notify.SiteName)
	assert.Equal(t, 30*time.Second, cfg.Notify.Timeout())
	assert.Equal(t, "subscriptions:fallback", cfg.Journal.Key)
	assert.Equal(t, int64(100000), cfg.Journal.MaxLen)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.True(t, cfg.Log.Redact())
}

func TestLoadFromEnv(t *testing.T) {
	configPath := writeConfig(t, `
notify:
  provider: "log"
`)

	t.Setenv("DATABASE_URL", "postgres://env@db:5432/site")
	t.Setenv("NOTIFY_PROVIDER", "resend")
	t.Setenv("RESEND_API_KEY", "re_test")
	t.Setenv("NOTIFY_ADMIN_EMAIL", "ops@audits.example")
	t.Setenv("REDIS_URL", "redis://cache:6379")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("PORT", "9999")

	cfg, err := LoadFromEnv(configPath)
	require.NoError(t, err)

	// DATABASE_URL flips the default memory store to postgres
	assert.Equal(t, "postgres", cfg.Storage.Type)
	assert.Equal(t, "postgres://env@db:5432/site", cfg.Storage.DatabaseURL)
	assert.Equal(t, "resend", cfg.Notify.Provider)
	assert.Equal(t, "re_test", cfg.Resend.APIKey)
	assert.Equal(t, "ops@audits.example", cfg.Notify.AdminEmail)
	assert.Equal(t, "redis://cache:6379", cfg.Journal.RedisURL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, 9999, cfg.Server.Port)
}

func TestLoadFileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	assert.Error(t, err)
}

func TestGetAWSProfile(t *testing.T) {
	cfg := StorageConfig{AWSProfile: "dev"}
	assert.Equal(t, "dev", cfg.GetAWSProfile())

	t.Setenv("AWS_PROFILE_OVERRIDE", "iam")
	assert.Equal(t, "", cfg.GetAWSProfile())
}
