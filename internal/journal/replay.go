package journal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/ignite/subscription-intake/internal/domain"
	"github.com/ignite/subscription-intake/internal/pkg/logger"
	"github.com/ignite/subscription-intake/internal/service/subscription"
)

// ReplayStats summarizes a replay run.
type ReplayStats struct {
	Subscribed   int
	Unsubscribed int
	Skipped      int
}

// Applied returns the number of entries written to the store.
func (s ReplayStats) Applied() int { return s.Subscribed + s.Unsubscribed }

// Replay pops up to limit entries, oldest first, and applies each one to
// store. An entry the store rejects is pushed back to the head of the list
// and replay stops, so order is preserved for the next run. Entries that
// cannot be decoded or carry an invalid email are dropped and counted as
// skipped.
func (j *RedisJournal) Replay(ctx context.Context, store subscription.DirectoryStore, limit int) (ReplayStats, error) {
	var stats ReplayStats
	for limit <= 0 || stats.Applied()+stats.Skipped < limit {
		raw, err := j.client.LPop(ctx, j.key).Result()
		if errors.Is(err, redis.Nil) {
			return stats, nil
		}
		if err != nil {
			return stats, fmt.Errorf("pop fallback entry: %w", err)
		}

		var entry domain.FallbackEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			logger.Warn("dropping undecodable fallback entry", "error", err)
			stats.Skipped++
			continue
		}

		email, err := subscription.ValidateEmail(entry.Email)
		if err != nil || (entry.Action != domain.ActionSubscribe && entry.Action != domain.ActionUnsubscribe) {
			logger.Warn("dropping unusable fallback entry", "fallback_id", entry.ID, "action", string(entry.Action))
			stats.Skipped++
			continue
		}

		if err := apply(ctx, store, entry.Action, email, entry.Source); err != nil {
			if perr := j.client.LPush(ctx, j.key, raw).Err(); perr != nil {
				return stats, fmt.Errorf("requeue %s after %v: %w", entry.ID, err, perr)
			}
			return stats, fmt.Errorf("replay %s: %w", entry.ID, err)
		}

		if entry.Action == domain.ActionSubscribe {
			stats.Subscribed++
		} else {
			stats.Unsubscribed++
		}
	}
	return stats, nil
}

func apply(ctx context.Context, store subscription.DirectoryStore, action domain.FallbackAction, email, source string) error {
	if action == domain.ActionSubscribe {
		return store.CreateSubscription(ctx, &domain.Subscription{Email: email, Source: source})
	}
	_, err := store.DeleteSubscription(ctx, email)
	return err
}
