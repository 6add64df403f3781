package store_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/stepper/pkg/adapters/memory"
	"github.com/aretw0/stepper/pkg/domain"
	"github.com/aretw0/stepper/pkg/store"
)

func TestStore_Dispatch(t *testing.T) {
	s := store.New()
	assert.Equal(t, domain.NewStepperState(), s.State())

	state := s.Dispatch(domain.IncrementStep{})
	assert.Equal(t, domain.StepLegalPerson, state.CurrentStep)
	assert.Equal(t, state, s.State())

	// Snapshots returned to callers do not alias the store.
	state.Steps[0].Status = domain.StatusError
	assert.NotEqual(t, domain.StatusError, s.State().Steps[0].Status)
}

func TestStore_Subscribe(t *testing.T) {
	s := store.New()

	var seen []domain.StepKey
	unsubscribe := s.Subscribe(func(state domain.StepperState) {
		seen = append(seen, state.CurrentStep)
	})

	s.Dispatch(domain.IncrementStep{})
	s.Dispatch(domain.IncrementStep{})
	unsubscribe()
	s.Dispatch(domain.DecrementStep{})

	assert.Equal(t, []domain.StepKey{2, 3}, seen)
}

func TestStore_ConcurrentDispatch(t *testing.T) {
	s := store.New()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Dispatch(domain.IncrementStep{})
			s.Dispatch(domain.DecrementStep{})
		}()
	}
	wg.Wait()

	state := s.State()
	assert.True(t, state.CurrentStep.Valid())
	keys := map[domain.StepKey]int{}
	for _, step := range state.Steps {
		keys[step.Key]++
	}
	for key, n := range keys {
		assert.Equal(t, 1, n, "step %d recorded more than once", key)
	}
}

func TestLoad(t *testing.T) {
	ctx := context.Background()
	cache := memory.NewCache()

	s, err := store.Load(ctx, cache, "missing")
	require.NoError(t, err)
	assert.Equal(t, domain.NewStepperState(), s.State())

	saved := domain.Reduce(domain.NewStepperState(), domain.SetCurrentStep{Step: domain.StepTRISA})
	require.NoError(t, cache.SaveState(ctx, "sess", saved))

	s, err = store.Load(ctx, cache, "sess")
	require.NoError(t, err)
	assert.Equal(t, domain.StepTRISA, s.State().CurrentStep)
}

type brokenCache struct {
	*memory.Cache
}

func (brokenCache) LoadState(context.Context, string) (domain.StepperState, error) {
	return domain.StepperState{}, errors.New("disk on fire")
}

func TestLoad_Error(t *testing.T) {
	_, err := store.Load(context.Background(), brokenCache{memory.NewCache()}, "sess")
	assert.EqualError(t, err, "disk on fire")
}
