package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/ignite/subscription-intake/internal/domain"
	"github.com/ignite/subscription-intake/internal/service/subscription"
)

// SubscriptionRepo implements subscription.DirectoryStore against PostgreSQL.
type SubscriptionRepo struct {
	db    *sql.DB
	table string
}

// NewSubscriptionRepo creates a Postgres-backed subscription repository
// writing to table (quoted as an identifier).
func NewSubscriptionRepo(db *sql.DB, table string) *SubscriptionRepo {
	if table == "" {
		table = "site_subscriptions"
	}
	return &SubscriptionRepo{db: db, table: pq.QuoteIdentifier(table)}
}

// EnsureSchema creates the subscriptions table and its unique email index.
func (r *SubscriptionRepo) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id         UUID PRIMARY KEY,
			email      TEXT NOT NULL UNIQUE,
			source     TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`, r.table))
	if err != nil {
		return fmt.Errorf("ensure subscriptions schema: %w", err)
	}
	return nil
}

// CreateSubscription inserts sub. A second create for the same email keeps
// the original row and loads its id, source and created_at into sub.
func (r *SubscriptionRepo) CreateSubscription(ctx context.Context, sub *domain.Subscription) error {
	id := uuid.New().String()
	err := r.db.QueryRowContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (id, email, source, created_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (email) DO UPDATE SET email = EXCLUDED.email
		RETURNING id, source, created_at
	`, r.table), id, sub.Email, sub.Source).Scan(&sub.ID, &sub.Source, &sub.CreatedAt)
	if err != nil {
		return fmt.Errorf("create subscription: %w", err)
	}
	return nil
}

func (r *SubscriptionRepo) DeleteSubscription(ctx context.Context, email string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE email = $1`, r.table),
		email,
	)
	if err != nil {
		return false, fmt.Errorf("delete subscription: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete subscription rows: %w", err)
	}
	return n > 0, nil
}

func (r *SubscriptionRepo) FindSubscription(ctx context.Context, email string) (*domain.Subscription, error) {
	s := &domain.Subscription{}
	err := r.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT id, email, source, created_at FROM %s WHERE email = $1`, r.table),
		email,
	).Scan(&s.ID, &s.Email, &s.Source, &s.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, subscription.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find subscription: %w", err)
	}
	return s, nil
}

func (r *SubscriptionRepo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
