package main

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/ignite/subscription-intake/internal/api"
	"github.com/ignite/subscription-intake/internal/config"
	"github.com/ignite/subscription-intake/internal/journal"
	"github.com/ignite/subscription-intake/internal/notify"
	"github.com/ignite/subscription-intake/internal/pkg/logger"
	"github.com/ignite/subscription-intake/internal/repository/dynamo"
	"github.com/ignite/subscription-intake/internal/repository/memory"
	"github.com/ignite/subscription-intake/internal/repository/postgres"
	"github.com/ignite/subscription-intake/internal/service/subscription"
)

// buildStore opens the configured directory store. The returned func
// releases its resources.
func buildStore(ctx context.Context, cfg config.StorageConfig) (subscription.DirectoryStore, func(), error) {
	noop := func() {}

	switch cfg.Type {
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, noop, fmt.Errorf("storage.database_url is required for postgres")
		}
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return nil, noop, fmt.Errorf("open postgres: %w", err)
		}
		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxOpenConns / 2)
		db.SetConnMaxLifetime(5 * time.Minute)

		repo := postgres.NewSubscriptionRepo(db, cfg.Table)
		schemaCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := repo.EnsureSchema(schemaCtx); err != nil {
			// The service still starts; requests fall back until the database is reachable.
			logger.Warn("postgres schema check failed", "host", extractHost(cfg.DatabaseURL), "error", err)
		}
		logger.Info("directory store: postgres", "host", extractHost(cfg.DatabaseURL), "table", cfg.Table)
		return repo, func() { db.Close() }, nil

	case "dynamodb":
		table := cfg.DynamoDBTable
		if table == "" {
			table = cfg.Table
		}
		repo, err := dynamo.NewFromConfig(ctx, table, cfg.AWSRegion, cfg.GetAWSProfile())
		if err != nil {
			return nil, noop, err
		}
		logger.Info("directory store: dynamodb", "table", table, "region", cfg.AWSRegion)
		return repo, noop, nil

	case "memory", "":
		logger.Warn("directory store: memory; subscriptions are lost on restart")
		return memory.NewSubscriptionRepo(), noop, nil
	}
	return nil, noop, fmt.Errorf("unknown storage type %q", cfg.Type)
}

func buildTransport(ctx context.Context, cfg *config.Config) (notify.Transport, error) {
	switch cfg.Notify.Provider {
	case "ses":
		return notify.NewSESTransportFromConfig(ctx, cfg.SES.Region, cfg.SES.AccessKey, cfg.SES.SecretKey, cfg.SES.ConfigurationSet)
	case "resend":
		if cfg.Resend.APIKey == "" {
			return nil, fmt.Errorf("resend.api_key is required for the resend provider")
		}
		return notify.NewResendTransport(cfg.Resend.APIKey), nil
	case "log", "":
		return notify.NewLogTransport(), nil
	}
	return nil, fmt.Errorf("unknown notify provider %q", cfg.Notify.Provider)
}

func buildMailer(transport notify.Transport, cfg config.NotifyConfig) (*notify.Mailer, error) {
	templates, err := notify.NewTemplates(cfg.TemplateDir)
	if err != nil {
		return nil, err
	}
	return notify.NewMailer(transport, templates, notify.MailerConfig{
		FromEmail:      cfg.FromEmail,
		FromName:       cfg.FromName,
		AdminEmail:     cfg.AdminEmail,
		SiteName:       cfg.SiteName,
		UnsubscribeURL: cfg.UnsubscribeURL,
		Timeout:        cfg.Timeout(),
	}), nil
}

// buildJournal returns the Redis journal when Redis is reachable and the
// log journal otherwise. The Pinger is nil unless Redis is in use.
func buildJournal(ctx context.Context, cfg config.JournalConfig) (subscription.Journal, api.Pinger, func()) {
	if cfg.RedisURL == "" {
		return journal.LogJournal{}, nil, func() {}
	}
	client, err := journal.Connect(ctx, cfg.RedisURL)
	if err != nil {
		logger.Warn("fallback journal: redis unavailable, using log", "error", err)
		return journal.LogJournal{}, nil, func() {}
	}
	j := journal.NewRedisJournal(client, cfg.Key, cfg.MaxLen)
	logger.Info("fallback journal: redis", "key", cfg.Key, "max_len", cfg.MaxLen)
	return j, j, func() { client.Close() }
}

// extractHost returns host:port from a DSN without credentials.
func extractHost(dsn string) string {
	at := strings.LastIndex(dsn, "@")
	if at < 0 {
		return "(unknown)"
	}
	rest := dsn[at+1:]
	if slash := strings.Index(rest, "/"); slash >= 0 {
		rest = rest[:slash]
	}
	return rest
}
