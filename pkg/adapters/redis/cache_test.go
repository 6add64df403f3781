package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/stepper/pkg/adapters/redis"
	"github.com/aretw0/stepper/pkg/domain"
	"github.com/aretw0/stepper/pkg/ports"
	"github.com/aretw0/stepper/pkg/registration"
)

func newClient(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisCache_Contract(t *testing.T) {
	_, client := newClient(t)
	ports.RunStepperCacheContract(t, redis.NewFromClient(client))
}

func TestRedisCache_TTL_Expiration(t *testing.T) {
	mr, client := newClient(t)

	cache := redis.NewFromClient(client, redis.WithTTL(1*time.Second))
	ctx := context.Background()
	sessionID := "session-ttl"

	require.NoError(t, cache.SaveState(ctx, sessionID, domain.NewStepperState()))

	sessions, err := cache.List(ctx)
	require.NoError(t, err)
	assert.Contains(t, sessions, sessionID)

	// Key expiration in miniredis follows its own clock
	mr.FastForward(2 * time.Second)

	_, err = cache.LoadState(ctx, sessionID)
	assert.ErrorIs(t, err, domain.ErrStateNotFound)

	// Index pruning relies on the wall clock
	time.Sleep(1200 * time.Millisecond)

	sessions, err = cache.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestRedisCache_Prefix(t *testing.T) {
	mr, client := newClient(t)

	cache := redis.NewFromClient(client, redis.WithPrefix("custom:app:"))
	ctx := context.Background()
	sessionID := "my-session"

	require.NoError(t, cache.SaveState(ctx, sessionID, domain.NewStepperState()))
	require.NoError(t, cache.SaveForm(ctx, sessionID, registration.NewForm()))

	assert.True(t, mr.Exists("custom:app:my-session:"+domain.KeyStepper), "stepper key with custom prefix")
	assert.True(t, mr.Exists("custom:app:my-session:"+domain.KeyForm), "form key with custom prefix")
	assert.True(t, mr.Exists("custom:app:index"), "index with custom prefix")

	list, err := cache.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{sessionID}, list)
}
