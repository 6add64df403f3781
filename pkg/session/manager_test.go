package session_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/stepper"
	"github.com/aretw0/stepper/pkg/adapters/memory"
	"github.com/aretw0/stepper/pkg/adapters/redis"
	"github.com/aretw0/stepper/pkg/domain"
	"github.com/aretw0/stepper/pkg/session"
)

func TestManager_Locking(t *testing.T) {
	manager := session.ForEngine(stepper.New())
	ctx := context.Background()
	id, err := manager.Create(ctx)
	require.NoError(t, err)

	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := manager.WithLock(ctx, id, func(ctx context.Context, s *stepper.Stepper) error {
				n := atomic.AddInt32(&inside, 1)
				for {
					m := atomic.LoadInt32(&maxInside)
					if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
						break
					}
				}
				time.Sleep(2 * time.Millisecond)
				atomic.AddInt32(&inside, -1)
				return s.SetValues(ctx, map[string]any{"organization_name": "Acme"})
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&maxInside), "operations of one session must not overlap")
}

func TestManager_ReusesStepper(t *testing.T) {
	var opened int32
	eng := stepper.New()
	manager := session.NewManager(func(ctx context.Context, id string) (*stepper.Stepper, error) {
		atomic.AddInt32(&opened, 1)
		return eng.Open(ctx, id)
	})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, manager.WithLock(ctx, "s", func(context.Context, *stepper.Stepper) error { return nil }))
	}
	assert.Equal(t, int32(1), opened)
	assert.True(t, manager.Exists("s"))
	assert.Equal(t, []string{"s"}, manager.List())
}

func TestManager_OpenError(t *testing.T) {
	boom := errors.New("boom")
	manager := session.NewManager(func(context.Context, string) (*stepper.Stepper, error) {
		return nil, boom
	})

	err := manager.WithLock(context.Background(), "s", func(context.Context, *stepper.Stepper) error {
		t.Fatal("must not be called")
		return nil
	})
	assert.ErrorIs(t, err, boom)
	assert.False(t, manager.Exists("s"))
}

func TestManager_CreateAndDelete(t *testing.T) {
	ctx := context.Background()
	cache := memory.NewCache()
	manager := session.ForEngine(stepper.New(stepper.WithCache(cache)))

	id, err := manager.Create(ctx)
	require.NoError(t, err)
	assert.Len(t, id, 36)
	assert.True(t, manager.Exists(id))

	require.NoError(t, manager.WithLock(ctx, id, func(ctx context.Context, s *stepper.Stepper) error {
		return s.SetValues(ctx, map[string]any{"organization_name": "Acme"})
	}))
	sessions, err := cache.List(ctx)
	require.NoError(t, err)
	assert.Contains(t, sessions, id)

	require.NoError(t, manager.Delete(ctx, id))
	assert.False(t, manager.Exists(id))

	_, err = cache.LoadForm(ctx, id)
	assert.ErrorIs(t, err, domain.ErrStateNotFound)

	err = manager.WithLock(ctx, id, func(context.Context, *stepper.Stepper) error { return nil })
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
}

func TestManager_UnknownSession(t *testing.T) {
	ctx := context.Background()
	manager := session.ForEngine(stepper.New())

	err := manager.WithLock(ctx, "never-created", func(context.Context, *stepper.Stepper) error {
		t.Fatal("must not be called")
		return nil
	})
	require.ErrorIs(t, err, session.ErrSessionNotFound)
	assert.ErrorIs(t, manager.Delete(ctx, "never-created"), session.ErrSessionNotFound)
	assert.False(t, manager.Exists("never-created"))
	assert.Empty(t, manager.List())
	assert.Equal(t, 0, session.ActiveLocks(manager))
}

func TestManager_LockLifecycle(t *testing.T) {
	manager := session.ForEngine(stepper.New())
	ctx := context.Background()
	id, err := manager.Create(ctx)
	require.NoError(t, err)

	for i := 0; i < 100; i++ {
		require.NoError(t, manager.WithLock(ctx, id, func(context.Context, *stepper.Stepper) error { return nil }))
	}

	// All lock entries are released once nobody holds them.
	assert.Equal(t, 0, session.ActiveLocks(manager))
}

func TestManager_DistributedReopensFromSharedCache(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	cache := redis.NewFromClient(client)

	// Two replicas sharing the cache and the lock.
	replicaA := session.ForEngine(stepper.New(stepper.WithCache(cache)), session.WithLocker(redis.NewLocker(client, "test:")))
	replicaB := session.ForEngine(stepper.New(stepper.WithCache(cache)), session.WithLocker(redis.NewLocker(client, "test:")))

	id, err := replicaA.Create(ctx)
	require.NoError(t, err)

	require.NoError(t, replicaA.WithLock(ctx, id, func(ctx context.Context, s *stepper.Stepper) error {
		return s.SetValues(ctx, map[string]any{"organization_name": "From A"})
	}))

	require.NoError(t, replicaB.WithLock(ctx, id, func(ctx context.Context, s *stepper.Stepper) error {
		assert.Equal(t, "From A", s.Form().OrganizationName)
		return s.SetValues(ctx, map[string]any{"website": "https://b.example"})
	}))

	require.NoError(t, replicaA.WithLock(ctx, id, func(ctx context.Context, s *stepper.Stepper) error {
		assert.Equal(t, "https://b.example", s.Form().Website)
		return nil
	}))

	assert.False(t, mr.Exists("test:lock:"+id), "lock released after use")
}
