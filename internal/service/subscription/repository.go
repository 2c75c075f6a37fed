package subscription

import (
	"context"
	"time"

	"github.com/ignite/subscription-intake/internal/domain"
)

// DirectoryStore defines the data access contract for subscription records.
// Implementations rely on their own consistency guarantees; the service never
// performs read-modify-write against the store.
type DirectoryStore interface {
	// CreateSubscription persists sub. The store assigns sub.ID and
	// sub.CreatedAt. Behaviour for an email that already exists is
	// store-defined.
	CreateSubscription(ctx context.Context, sub *domain.Subscription) error

	// DeleteSubscription removes the record keyed by email. It returns true
	// iff a record existed and was removed.
	DeleteSubscription(ctx context.Context, email string) (bool, error)

	// FindSubscription returns the record for email or ErrNotFound.
	FindSubscription(ctx context.Context, email string) (*domain.Subscription, error)

	// Ping reports whether the store is reachable.
	Ping(ctx context.Context) error
}

// Notifier sends the transactional emails tied to the subscription
// lifecycle. Every method may fail; callers only log the failure.
type Notifier interface {
	// SendSubscriptionNotification tells the site admin about a new subscriber.
	SendSubscriptionNotification(ctx context.Context, email string) error
	// SendSubscriptionConfirmation confirms the signup to the subscriber.
	SendSubscriptionConfirmation(ctx context.Context, email string) error
	// SendUnsubscribeNotification tells the site admin about a removal.
	SendUnsubscribeNotification(ctx context.Context, email string) error
}

// Journal keeps fallback entries for later replay into the directory store.
type Journal interface {
	Record(ctx context.Context, entry domain.FallbackEntry) error
}

// Recorder receives lifecycle metrics. A nil Recorder is replaced with a
// no-op implementation.
type Recorder interface {
	SubscribeOutcome(outcome string)
	UnsubscribeOutcome(outcome string)
	NotificationSent(kind string, err error)
	ObserveStore(op string, start time.Time)
}

type nopRecorder struct{}

func (nopRecorder) SubscribeOutcome(string)        {}
func (nopRecorder) UnsubscribeOutcome(string)      {}
func (nopRecorder) NotificationSent(string, error) {}
func (nopRecorder) ObserveStore(string, time.Time) {}

type nopJournal struct{}

func (nopJournal) Record(context.Context, domain.FallbackEntry) error { return nil }
