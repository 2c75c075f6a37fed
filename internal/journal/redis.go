package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ignite/subscription-intake/internal/domain"
	"github.com/ignite/subscription-intake/internal/service/subscription"
)

// DefaultKey is the Redis list fallback entries are appended to.
const DefaultKey = "subscriptions:fallback"

// RedisJournal appends fallback entries as JSON to a capped Redis list.
type RedisJournal struct {
	client *redis.Client
	key    string
	maxLen int64
}

var _ subscription.Journal = (*RedisJournal)(nil)

// NewRedisJournal wraps an existing client. maxLen <= 0 leaves the list
// uncapped.
func NewRedisJournal(client *redis.Client, key string, maxLen int64) *RedisJournal {
	if key == "" {
		key = DefaultKey
	}
	return &RedisJournal{client: client, key: key, maxLen: maxLen}
}

// Connect parses a redis:// URL, or a bare host:port, and pings the server.
func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		opts = &redis.Options{Addr: redisURL}
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	return client, nil
}

// Record appends entry to the journal list, trimming the oldest entries once
// the list exceeds maxLen.
func (j *RedisJournal) Record(ctx context.Context, entry domain.FallbackEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal fallback entry: %w", err)
	}

	pipe := j.client.TxPipeline()
	pipe.RPush(ctx, j.key, data)
	if j.maxLen > 0 {
		pipe.LTrim(ctx, j.key, -j.maxLen, -1)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("append fallback entry: %w", err)
	}
	return nil
}

// Entries returns up to limit of the oldest pending entries.
func (j *RedisJournal) Entries(ctx context.Context, limit int64) ([]domain.FallbackEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	raw, err := j.client.LRange(ctx, j.key, 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("read fallback entries: %w", err)
	}

	entries := make([]domain.FallbackEntry, 0, len(raw))
	for _, r := range raw {
		var e domain.FallbackEntry
		if err := json.Unmarshal([]byte(r), &e); err != nil {
			return nil, fmt.Errorf("decode fallback entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Len returns the number of pending entries.
func (j *RedisJournal) Len(ctx context.Context) (int64, error) {
	return j.client.LLen(ctx, j.key).Result()
}

// Ping checks the Redis connection. Used by the readiness probe.
func (j *RedisJournal) Ping(ctx context.Context) error {
	return j.client.Ping(ctx).Err()
}
