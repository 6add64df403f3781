package process

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// HookConfig represents a command run when the stepper raises a notification.
type HookConfig struct {
	Name        string            `yaml:"name" json:"name"`
	Command     string            `yaml:"command" json:"command"`
	Args        []string          `yaml:"args" json:"args"`
	Environment map[string]string `yaml:"env" json:"env"`
	// Levels restricts the hook to notifications of these levels. Empty means all.
	Levels  []string      `yaml:"levels" json:"levels"`
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
}

// ConfigFile represents the structure of hooks.yaml
type ConfigFile struct {
	Hooks []HookConfig `yaml:"hooks" json:"hooks"`
}

// LoadHooks reads a configuration file (YAML or JSON). A missing file means no hooks.
func LoadHooks(path string) ([]HookConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read hooks config: %w", err)
	}

	var cfg ConfigFile
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	} else {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	hooks := make([]HookConfig, 0, len(cfg.Hooks))
	for _, hook := range cfg.Hooks {
		if hook.Name == "" || hook.Command == "" {
			continue
		}
		hooks = append(hooks, hook)
	}
	return hooks, nil
}
