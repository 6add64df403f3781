package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/stepper/internal/adapters/file"
	"github.com/aretw0/stepper/pkg/domain"
	"github.com/aretw0/stepper/pkg/ports"
	"github.com/aretw0/stepper/pkg/registration"
)

func TestFileCache_Contract(t *testing.T) {
	ports.RunStepperCacheContract(t, file.New(t.TempDir()))
}

func TestFileCache_Layout(t *testing.T) {
	dir := t.TempDir()
	cache := file.New(dir)
	ctx := context.Background()

	require.NoError(t, cache.SaveState(ctx, "s1", domain.NewStepperState()))
	require.NoError(t, cache.SaveForm(ctx, "s1", registration.NewForm()))

	assert.FileExists(t, filepath.Join(dir, "s1", domain.KeyStepper+".json"))
	assert.FileExists(t, filepath.Join(dir, "s1", domain.KeyForm+".json"))

	// Overwrites leave no temp files behind
	require.NoError(t, cache.SaveState(ctx, "s1", domain.NewStepperState()))
	entries, err := os.ReadDir(filepath.Join(dir, "s1"))
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestFileCache_RejectsUnsafeIDs(t *testing.T) {
	cache := file.New(t.TempDir())
	ctx := context.Background()

	for _, id := range []string{"", "..", "../escape", `a\b`} {
		err := cache.SaveState(ctx, id, domain.NewStepperState())
		assert.ErrorIs(t, err, file.ErrInvalidSessionID, "id %q", id)
	}
}

func TestFileCache_CorruptDocument(t *testing.T) {
	dir := t.TempDir()
	cache := file.New(dir)
	ctx := context.Background()

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "s1"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "s1", domain.KeyStepper+".json"), []byte("{not json"), 0644))

	_, err := cache.LoadState(ctx, "s1")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrStateNotFound)
}

func TestFileCache_ListMissingDir(t *testing.T) {
	cache := file.New(filepath.Join(t.TempDir(), "missing"))
	sessions, err := cache.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, sessions)
}
