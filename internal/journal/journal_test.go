package journal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/subscription-intake/internal/domain"
	"github.com/ignite/subscription-intake/internal/pkg/logger"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	return mr, client
}

func entry(i int) domain.FallbackEntry {
	return domain.FallbackEntry{
		ID:         fmt.Sprintf("fallback_1700000000000_%010d", i),
		Email:      fmt.Sprintf("user%d@example.com", i),
		Action:     domain.ActionSubscribe,
		Reason:     "store create: connection refused",
		OccurredAt: time.Date(2026, 3, 1, 10, 0, i, 0, time.UTC),
	}
}

func TestRedisJournal_RecordAndRead(t *testing.T) {
	mr, client := setupTestRedis(t)
	j := NewRedisJournal(client, "", 0)
	ctx := context.Background()

	require.NoError(t, j.Record(ctx, entry(1)))
	require.NoError(t, j.Record(ctx, entry(2)))

	assert.True(t, mr.Exists(DefaultKey))

	n, err := j.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	got, err := j.Entries(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, entry(1), got[0])
	assert.Equal(t, "user2@example.com", got[1].Email)
}

func TestRedisJournal_TrimsToMaxLen(t *testing.T) {
	_, client := setupTestRedis(t)
	j := NewRedisJournal(client, "intake:fallback", 3)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		require.NoError(t, j.Record(ctx, entry(i)))
	}

	got, err := j.Entries(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "user3@example.com", got[0].Email)
	assert.Equal(t, "user5@example.com", got[2].Email)
}

func TestRedisJournal_RedisDown(t *testing.T) {
	mr, client := setupTestRedis(t)
	j := NewRedisJournal(client, "", 0)
	mr.Close()

	assert.Error(t, j.Record(context.Background(), entry(1)))
	assert.Error(t, j.Ping(context.Background()))
}

func TestConnect(t *testing.T) {
	mr, _ := setupTestRedis(t)

	client, err := Connect(context.Background(), "redis://"+mr.Addr())
	require.NoError(t, err)
	client.Close()

	client, err = Connect(context.Background(), mr.Addr())
	require.NoError(t, err)
	client.Close()

	_, err = Connect(context.Background(), "127.0.0.1:1")
	assert.Error(t, err)
}

func TestLogJournal(t *testing.T) {
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	defer logger.SetOutput(os.Stderr)

	require.NoError(t, LogJournal{}.Record(context.Background(), entry(7)))

	out := buf.String()
	assert.True(t, strings.Contains(out, `"msg":"fallback entry"`), out)
	assert.Contains(t, out, "fallback_1700000000000_0000000007")
	assert.Contains(t, out, `"action":"subscribe"`)
}

func TestLogJournal_KeepsAddressUnderRedaction(t *testing.T) {
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	logger.SetRedactPII(true)
	defer logger.SetOutput(os.Stderr)

	e := entry(3)
	e.Email = "jane.doe@example.com"
	e.Source = "pricing"
	require.NoError(t, LogJournal{}.Record(context.Background(), e))

	var logged map[string]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &logged))
	assert.Equal(t, "jane.doe@example.com", logged["email"])
	assert.Equal(t, "pricing", logged["source"])
	assert.Equal(t, "true", logged["audit"])
}
