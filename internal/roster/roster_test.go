package roster

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-workflow/internal/domain"
	"github.com/spec-kit/ticket-workflow/internal/repository/memory"
)

func TestRepositoryProviderListsOnlyActiveAgents(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	users := store.Repos().Users
	now := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)
	seed := []domain.User{
		{ID: "agent-1", Role: domain.RoleAgent, Active: true, CreatedAt: now},
		{ID: "agent-2", Role: domain.RoleAgent, Active: false, CreatedAt: now},
		{ID: "admin-1", Role: domain.RoleAdmin, Active: true, CreatedAt: now},
		{ID: "agent-3", Role: domain.RoleAgent, Active: true, CreatedAt: now.Add(time.Minute)},
	}
	for i := range seed {
		require.NoError(t, users.Create(ctx, &seed[i]))
	}

	ids, err := NewRepositoryProvider(users).ActiveAgents(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"agent-1", "agent-3"}, ids)
}

type stubProvider struct {
	ids   []string
	err   error
	calls int
}

func (s *stubProvider) ActiveAgents(context.Context) ([]string, error) {
	s.calls++
	return s.ids, s.err
}

func TestCachedProviderWithoutRedisReturnsNext(t *testing.T) {
	next := &stubProvider{ids: []string{"a"}}
	assert.Same(t, Provider(next), NewCachedProvider(next, nil, time.Minute, zap.NewNop()))
}

func TestCachedProviderFallsThroughWhenRedisUnavailable(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })

	next := &stubProvider{ids: []string{"agent-1"}}
	provider := NewCachedProvider(next, client, time.Minute, zap.NewNop())

	ids, err := provider.ActiveAgents(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"agent-1"}, ids)
	assert.Equal(t, 1, next.calls)

	next.err = errors.New("db down")
	_, err = provider.ActiveAgents(context.Background())
	assert.ErrorIs(t, err, next.err)
}
