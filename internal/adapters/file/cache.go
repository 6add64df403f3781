package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/stepper/pkg/domain"
	"github.com/aretw0/stepper/pkg/registration"
)

// ErrInvalidSessionID is returned for ids that cannot be used as a directory name.
var ErrInvalidSessionID = domain.ErrInvalidSessionID

// Cache implements ports.StepperCache using the local filesystem.
// Each session is a directory holding one JSON file per document key.
type Cache struct {
	BasePath string
}

// New creates a new Cache with the given base path.
// If basePath is empty, it defaults to ".stepper/sessions".
func New(basePath string) *Cache {
	if basePath == "" {
		basePath = filepath.Join(".stepper", "sessions")
	}
	return &Cache{BasePath: basePath}
}

func (c *Cache) dir(sessionID string) (string, error) {
	if sessionID == "" || sessionID == "." || sessionID == ".." ||
		strings.ContainsAny(sessionID, `/\`) || strings.HasPrefix(sessionID, "tmp-") {
		return "", fmt.Errorf("%w: %q", ErrInvalidSessionID, sessionID)
	}
	return filepath.Join(c.BasePath, sessionID), nil
}

// SaveState persists the stepper state of the session.
func (c *Cache) SaveState(ctx context.Context, sessionID string, state domain.StepperState) error {
	return c.save(sessionID, domain.KeyStepper, state)
}

// LoadState reads the stepper state of the session.
func (c *Cache) LoadState(ctx context.Context, sessionID string) (domain.StepperState, error) {
	var state domain.StepperState
	if err := c.load(sessionID, domain.KeyStepper, &state); err != nil {
		return domain.StepperState{}, err
	}
	return state, nil
}

// SaveForm persists the registration form of the session.
func (c *Cache) SaveForm(ctx context.Context, sessionID string, form *registration.RegistrationForm) error {
	return c.save(sessionID, domain.KeyForm, form)
}

// LoadForm reads the registration form of the session.
func (c *Cache) LoadForm(ctx context.Context, sessionID string) (*registration.RegistrationForm, error) {
	form := &registration.RegistrationForm{}
	if err := c.load(sessionID, domain.KeyForm, form); err != nil {
		return nil, err
	}
	return form.Normalize(), nil
}

// save writes the document to a JSON file atomically.
// It writes to a temporary file first, syncs via fsync, and then renames it to the destination.
func (c *Cache) save(sessionID, key string, v any) error {
	dir, err := c.dir(sessionID)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to ensure session directory: %w", err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}

	destPath := filepath.Join(dir, key+".json")

	// Same directory as the destination, so the rename stays on one filesystem
	tmpFile, err := os.CreateTemp(dir, "tmp-"+key+"-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath) // no-op once renamed
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}

	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}

	// Cannot rename an open file on Windows
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// On Windows, os.Rename fails if dest exists.
	if _, err := os.Stat(destPath); err == nil {
		if err := os.Remove(destPath); err != nil {
			return fmt.Errorf("failed to remove existing %s file for overwrite: %w", key, err)
		}
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file to %s: %w", key, err)
	}
	return nil
}

func (c *Cache) load(sessionID, key string, v any) error {
	dir, err := c.dir(sessionID)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(filepath.Join(dir, key+".json"))
	if err != nil {
		if os.IsNotExist(err) {
			return domain.ErrStateNotFound
		}
		return fmt.Errorf("failed to read %s file: %w", key, err)
	}

	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}
	return nil
}

// Clear removes the session directory.
func (c *Cache) Clear(ctx context.Context, sessionID string) error {
	dir, err := c.dir(sessionID)
	if err != nil {
		return err
	}

	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to delete session directory: %w", err)
	}
	return nil
}

// List returns all cached session IDs.
func (c *Cache) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(c.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	sessions := []string{}
	for _, entry := range entries {
		if entry.IsDir() {
			sessions = append(sessions, entry.Name())
		}
	}
	return sessions, nil
}
