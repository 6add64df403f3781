package ports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/stepper/pkg/domain"
	"github.com/aretw0/stepper/pkg/registration"
)

// RunStepperCacheContract runs a suite of tests to verify that a StepperCache
// implementation adheres to the defined interface contract.
func RunStepperCacheContract(t *testing.T, cache StepperCache) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	t.Run("Save and Load State", func(t *testing.T) {
		state := domain.NewStepperState()
		state = domain.Reduce(state, domain.SetStepStatus{Status: domain.StatusComplete})
		state = domain.Reduce(state, domain.IncrementStep{})
		state = domain.Reduce(state, domain.SetIsDirty{IsDirty: true})
		state = domain.Reduce(state, domain.SetStepMissingFields{Fields: []string{"entity"}})

		require.NoError(t, cache.SaveState(ctx, sessionID, state), "SaveState should not return error")

		loaded, err := cache.LoadState(ctx, sessionID)
		require.NoError(t, err, "LoadState should not return error")
		assert.Equal(t, state, loaded, "round trip must be the identity")
	})

	t.Run("Save and Load Form", func(t *testing.T) {
		form := registration.NewForm()
		form.OrganizationName = "Contract VASP"
		form.Trixo.KYCThreshold = 12.5
		form.Testnet.DNSNames = []string{"a.example.com"}

		require.NoError(t, cache.SaveForm(ctx, sessionID, form), "SaveForm should not return error")

		loaded, err := cache.LoadForm(ctx, sessionID)
		require.NoError(t, err, "LoadForm should not return error")
		assert.Equal(t, form, loaded, "round trip must be the identity")

		// Mutating the loaded copy must not leak back into the cache
		loaded.OrganizationName = "changed"
		again, err := cache.LoadForm(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, "Contract VASP", again.OrganizationName)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := cache.LoadState(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrStateNotFound)

		_, err = cache.LoadForm(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrStateNotFound)
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		require.NoError(t, cache.SaveState(ctx, id1, domain.NewStepperState()))
		require.NoError(t, cache.SaveForm(ctx, id2, registration.NewForm()))

		defer func() {
			_ = cache.Clear(ctx, id1)
			_ = cache.Clear(ctx, id2)
		}()

		sessions, err := cache.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})

	t.Run("Clear", func(t *testing.T) {
		require.NoError(t, cache.SaveState(ctx, sessionID, domain.NewStepperState()))
		require.NoError(t, cache.SaveForm(ctx, sessionID, registration.NewForm()))

		require.NoError(t, cache.Clear(ctx, sessionID), "Clear should not return error")

		_, err := cache.LoadState(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrStateNotFound, "LoadState after Clear should return ErrStateNotFound")
		_, err = cache.LoadForm(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrStateNotFound, "LoadForm after Clear should return ErrStateNotFound")

		sessions, err := cache.List(ctx)
		require.NoError(t, err)
		assert.NotContains(t, sessions, sessionID)

		assert.NoError(t, cache.Clear(ctx, "never-saved-"+sessionID), "clearing an unknown session is a no-op")
	})
}
