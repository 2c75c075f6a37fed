// Package memory provides an in-process directory store for local
// development and tests. Data does not survive a restart.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/subscription-intake/internal/domain"
	"github.com/ignite/subscription-intake/internal/service/subscription"
)

// SubscriptionRepo is a mutex-guarded map keyed by email.
type SubscriptionRepo struct {
	mu   sync.RWMutex
	subs map[string]domain.Subscription
}

func NewSubscriptionRepo() *SubscriptionRepo {
	return &SubscriptionRepo{subs: make(map[string]domain.Subscription)}
}

// CreateSubscription stores sub. An email that is already present keeps its
// original id.
func (r *SubscriptionRepo) CreateSubscription(_ context.Context, sub *domain.Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.subs[sub.Email]; ok {
		*sub = existing
		return nil
	}
	sub.ID = uuid.New().String()
	sub.CreatedAt = time.Now().UTC()
	r.subs[sub.Email] = *sub
	return nil
}

func (r *SubscriptionRepo) DeleteSubscription(_ context.Context, email string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.subs[email]; !ok {
		return false, nil
	}
	delete(r.subs, email)
	return true, nil
}

func (r *SubscriptionRepo) FindSubscription(_ context.Context, email string) (*domain.Subscription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sub, ok := r.subs[email]
	if !ok {
		return nil, subscription.ErrNotFound
	}
	return &sub, nil
}

func (r *SubscriptionRepo) Ping(context.Context) error { return nil }

// Len returns the number of stored subscriptions.
func (r *SubscriptionRepo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs)
}
