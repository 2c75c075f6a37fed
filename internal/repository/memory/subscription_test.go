package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/subscription-intake/internal/domain"
	"github.com/ignite/subscription-intake/internal/service/subscription"
)

func TestSubscriptionRepo_Lifecycle(t *testing.T) {
	repo := NewSubscriptionRepo()
	ctx := context.Background()

	sub := &domain.Subscription{Email: "jane@example.com"}
	require.NoError(t, repo.CreateSubscription(ctx, sub))
	assert.NotEmpty(t, sub.ID)
	assert.False(t, sub.CreatedAt.IsZero())

	got, err := repo.FindSubscription(ctx, "jane@example.com")
	require.NoError(t, err)
	assert.Equal(t, sub.ID, got.ID)

	removed, err := repo.DeleteSubscription(ctx, "jane@example.com")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = repo.DeleteSubscription(ctx, "jane@example.com")
	require.NoError(t, err)
	assert.False(t, removed, "second delete should report nothing removed")

	_, err = repo.FindSubscription(ctx, "jane@example.com")
	assert.ErrorIs(t, err, subscription.ErrNotFound)
}

func TestSubscriptionRepo_DuplicateKeepsOriginal(t *testing.T) {
	repo := NewSubscriptionRepo()
	ctx := context.Background()

	first := &domain.Subscription{Email: "dup@example.com", Source: "footer"}
	require.NoError(t, repo.CreateSubscription(ctx, first))

	second := &domain.Subscription{Email: "dup@example.com", Source: "blog"}
	require.NoError(t, repo.CreateSubscription(ctx, second))

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "footer", second.Source)
	assert.Equal(t, 1, repo.Len())
}
