package subscription

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/ignite/subscription-intake/internal/domain"
	"github.com/ignite/subscription-intake/internal/pkg/logger"
)

// Outcome labels reported to the Recorder.
const (
	OutcomeCreated  = "created"
	OutcomeRemoved  = "removed"
	OutcomeAbsent   = "absent"
	OutcomeFallback = "fallback"
	OutcomeInvalid  = "invalid"
)

// Notification kinds reported to the Recorder and the logs.
const (
	KindAdminNotice    = "admin_notice"
	KindConfirmation   = "subscriber_confirmation"
	KindUnsubscribed   = "unsubscribe_notice"
	kindFallbackRecord = "fallback_journal"
)

// SubscribeResult is the outcome of a successful Subscribe call.
type SubscribeResult struct {
	ID       string
	Record   *domain.Subscription
	Fallback bool
}

// UnsubscribeResult is the outcome of a successful Unsubscribe call.
type UnsubscribeResult struct {
	Removed  bool
	Fallback bool
}

// Service implements the subscription lifecycle. It is safe for concurrent
// use and holds no per-subscriber state.
type Service struct {
	store    DirectoryStore
	notifier Notifier
	journal  Journal
	metrics  Recorder
	now      func() time.Time

	inflight sync.WaitGroup

	journalMu   sync.Mutex
	journalTail chan struct{}
}

// Option customizes a Service.
type Option func(*Service)

// WithJournal sets the fallback journal.
func WithJournal(j Journal) Option {
	return func(s *Service) {
		if j != nil {
			s.journal = j
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(s *Service) {
		if r != nil {
			s.metrics = r
		}
	}
}

// WithClock overrides the time source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a subscription service backed by the given store and
// notifier.
func NewService(store DirectoryStore, notifier Notifier, opts ...Option) *Service {
	s := &Service{
		store:    store,
		notifier: notifier,
		journal:  nopJournal{},
		metrics:  nopRecorder{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe validates email, persists it and dispatches the admin notice and
// the subscriber confirmation. A store failure is not an error: the result
// carries a synthesized id and Fallback=true. Only validation errors are
// returned.
func (s *Service) Subscribe(ctx context.Context, email, source string) (*SubscribeResult, error) {
	email, err := ValidateEmail(email)
	if err != nil {
		s.metrics.SubscribeOutcome(OutcomeInvalid)
		return nil, err
	}

	sub := &domain.Subscription{Email: email, Source: source}
	if err := s.create(ctx, sub); err != nil {
		id := s.fallbackID()
		logger.Warn("subscribe fallback", "email", email, "fallback_id", id, "error", err)
		s.record(domain.FallbackEntry{
			ID:         id,
			Email:      email,
			Action:     domain.ActionSubscribe,
			Source:     source,
			Reason:     err.Error(),
			OccurredAt: s.now().UTC(),
		})
		s.notifySubscribed(email)
		s.metrics.SubscribeOutcome(OutcomeFallback)
		return &SubscribeResult{ID: id, Fallback: true}, nil
	}

	logger.Info("subscribed", "email", email, "id", sub.ID)
	s.notifySubscribed(email)
	s.metrics.SubscribeOutcome(OutcomeCreated)
	return &SubscribeResult{ID: sub.ID, Record: sub}, nil
}

// Unsubscribe validates email and removes it from the directory store. It is
// idempotent: removing an address that was never subscribed succeeds without
// a notification. A store failure still succeeds, with Fallback=true, and the
// admin is notified anyway.
func (s *Service) Unsubscribe(ctx context.Context, email string) (*UnsubscribeResult, error) {
	email, err := ValidateEmail(email)
	if err != nil {
		s.metrics.UnsubscribeOutcome(OutcomeInvalid)
		return nil, err
	}

	removed, err := s.delete(ctx, email)
	if err != nil {
		logger.Warn("unsubscribe fallback", "email", email, "error", err)
		s.record(domain.FallbackEntry{
			ID:         s.fallbackID(),
			Email:      email,
			Action:     domain.ActionUnsubscribe,
			Reason:     err.Error(),
			OccurredAt: s.now().UTC(),
		})
		s.dispatch(KindUnsubscribed, email, s.notifier.SendUnsubscribeNotification)
		s.metrics.UnsubscribeOutcome(OutcomeFallback)
		return &UnsubscribeResult{Fallback: true}, nil
	}

	if !removed {
		logger.Info("unsubscribe for absent email", "email", email)
		s.metrics.UnsubscribeOutcome(OutcomeAbsent)
		return &UnsubscribeResult{}, nil
	}

	logger.Info("unsubscribed", "email", email)
	s.dispatch(KindUnsubscribed, email, s.notifier.SendUnsubscribeNotification)
	s.metrics.UnsubscribeOutcome(OutcomeRemoved)
	return &UnsubscribeResult{Removed: true}, nil
}

// Wait blocks until every detached task started so far has finished. The
// request path never calls it; shutdown and tests do.
func (s *Service) Wait() {
	s.inflight.Wait()
}

func (s *Service) create(ctx context.Context, sub *domain.Subscription) error {
	defer s.metrics.ObserveStore("create", time.Now())
	if err := s.store.CreateSubscription(ctx, sub); err != nil {
		return &StoreError{Op: "create", Err: err}
	}
	return nil
}

func (s *Service) delete(ctx context.Context, email string) (bool, error) {
	defer s.metrics.ObserveStore("delete", time.Now())
	removed, err := s.store.DeleteSubscription(ctx, email)
	if err != nil {
		return false, &StoreError{Op: "delete", Err: err}
	}
	return removed, nil
}

func (s *Service) notifySubscribed(email string) {
	s.dispatch(KindAdminNotice, email, s.notifier.SendSubscriptionNotification)
	s.dispatch(KindConfirmation, email, s.notifier.SendSubscriptionConfirmation)
}

// record appends a fallback entry in the background. Appends are chained so
// they reach the journal in call order. Journal failures are logged only.
func (s *Service) record(entry domain.FallbackEntry) {
	s.journalMu.Lock()
	prev := s.journalTail
	done := make(chan struct{})
	s.journalTail = done
	s.journalMu.Unlock()

	s.detach(kindFallbackRecord, entry.Email, func(ctx context.Context, _ string) error {
		defer close(done)
		if prev != nil {
			<-prev
		}
		return s.journal.Record(ctx, entry)
	})
}

func (s *Service) dispatch(kind, email string, send func(context.Context, string) error) {
	s.detach(kind, email, func(ctx context.Context, email string) error {
		err := send(ctx, email)
		s.metrics.NotificationSent(kind, err)
		return err
	})
}

// detach runs fn on its own goroutine with a context that outlives the
// request. Errors and panics are logged and swallowed.
func (s *Service) detach(kind, email string, fn func(context.Context, string) error) {
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		defer func() {
			if r := recover(); r != nil {
				logger.Error("detached task panicked", "kind", kind, "email", email, "panic", r)
			}
		}()

		if err := fn(context.Background(), email); err != nil {
			logger.Error("detached task failed", "kind", kind, "email", email, "error", err)
			return
		}
		logger.Debug("detached task done", "kind", kind, "email", email)
	}()
}

// fallbackID builds an informational id for records the store did not
// confirm: fallback_<unix millis>_<random hex>. Uniqueness is not guaranteed.
func (s *Service) fallbackID() string {
	now := s.now()
	b := make([]byte, 5)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("fallback_%d_%010x", now.UnixMilli(), now.UnixNano()&0xffffffffff)
	}
	return fmt.Sprintf("fallback_%d_%s", now.UnixMilli(), hex.EncodeToString(b))
}
