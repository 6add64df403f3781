// Package process delivers stepper notifications to local commands, e.g. to page an
// operator when the registration backend keeps rejecting saves.
package process

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/stepper/internal/logging"
	"github.com/aretw0/stepper/pkg/ports"
)

// DefaultTimeout bounds a hook run when the hook does not set one.
const DefaultTimeout = 10 * time.Second

// Runner implements ports.Notifier by executing allow-listed processes.
// Notification fields are passed as STEPPER_NOTE_* environment variables, never as
// command arguments.
type Runner struct {
	hooks   []HookConfig
	baseDir string
	logger  *slog.Logger
	wg      sync.WaitGroup
}

// RunnerOption configures the runner.
type RunnerOption func(*Runner)

// WithHooks registers the hooks from a loaded config.
func WithHooks(hooks []HookConfig) RunnerOption {
	return func(r *Runner) {
		r.hooks = append(r.hooks, hooks...)
	}
}

// WithBaseDir sets the working directory for executed processes.
func WithBaseDir(dir string) RunnerOption {
	return func(r *Runner) {
		r.baseDir = dir
	}
}

// WithLogger sets the logger hook failures are reported to.
func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

// NewRunner creates a new Process Runner.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a trusted command to the allow-list.
func (r *Runner) Register(name string, command string, args ...string) {
	r.hooks = append(r.hooks, HookConfig{Name: name, Command: command, Args: args})
}

// Notify starts the matching hooks in the background and returns immediately.
func (r *Runner) Notify(ctx context.Context, n ports.Notification) {
	ctx = context.WithoutCancel(ctx)
	for _, hook := range r.hooks {
		if !hook.accepts(n.Level) {
			continue
		}
		hook := hook
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			if err := r.run(ctx, hook, n); err != nil {
				r.logger.Warn("notification hook failed", "hook", hook.Name, "error", err)
			}
		}()
	}
}

// Wait blocks until the hooks started so far have finished.
func (r *Runner) Wait() {
	r.wg.Wait()
}

// Run executes the matching hooks one after the other and returns the first failure.
func (r *Runner) Run(ctx context.Context, n ports.Notification) error {
	for _, hook := range r.hooks {
		if !hook.accepts(n.Level) {
			continue
		}
		if err := r.run(ctx, hook, n); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) run(ctx context.Context, hook HookConfig, n ports.Notification) error {
	timeout := hook.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, hook.Command, hook.Args...)
	cmd.Dir = r.baseDir
	cmd.Env = append(cmd.Environ(), environment(hook, n)...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("hook %s: execution failed: %w. Stderr: %s", hook.Name, err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

func (h HookConfig) accepts(level ports.Level) bool {
	return len(h.Levels) == 0 || slices.Contains(h.Levels, string(level))
}

func environment(hook HookConfig, n ports.Notification) []string {
	env := make([]string, 0, len(hook.Environment)+4)
	for k, v := range hook.Environment {
		env = append(env, fmt.Sprintf("%s=%s", k, v))
	}

	env = append(env,
		"STEPPER_NOTE_LEVEL="+string(n.Level),
		"STEPPER_NOTE_TITLE="+n.Title,
		"STEPPER_NOTE_MESSAGE="+n.Message,
	)
	if n.Err != nil {
		env = append(env, "STEPPER_NOTE_ERROR="+n.Err.Error())
	}
	return env
}
