package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/stepper"
	"github.com/aretw0/stepper/internal/adapters/file"
	"github.com/aretw0/stepper/internal/config"
	"github.com/aretw0/stepper/internal/logging"
	"github.com/aretw0/stepper/internal/metrics"
	"github.com/aretw0/stepper/pkg/adapters/bff"
	"github.com/aretw0/stepper/pkg/adapters/memory"
	"github.com/aretw0/stepper/pkg/adapters/process"
	"github.com/aretw0/stepper/pkg/adapters/redis"
	"github.com/aretw0/stepper/pkg/domain"
	"github.com/aretw0/stepper/pkg/persistence/middleware"
	"github.com/aretw0/stepper/pkg/ports"
)

// CreateLogger configures the application logger from the config.
// It writes to Stderr (to separate from Stdout flow UI).
func CreateLogger(cfg config.LogConfig) *slog.Logger {
	level, err := cfg.SlogLevel()
	if err != nil {
		level = slog.LevelInfo
	}
	return logging.NewWithFormat(os.Stderr, level, logging.Format(cfg.Format))
}

// Cache is the local recovery cache selected by the config.
type Cache struct {
	ports.StepperCache
	// Locker is set for caches shared between replicas.
	Locker ports.DistributedLocker
	close  func() error
}

// Close releases the connections of the cache.
func (c *Cache) Close() error {
	if c.close == nil {
		return nil
	}
	return c.close()
}

// OpenCache builds the cache backend, sealing personal data when a key is configured.
func OpenCache(cfg *config.Config) (*Cache, error) {
	out := &Cache{}

	switch cfg.Cache.Backend {
	case config.CacheMemory:
		out.StepperCache = memory.NewCache()
	case config.CacheRedis:
		rc := cfg.Cache.Redis
		cache := redis.New(rc.Addr, rc.Password, rc.DB, redis.WithPrefix(rc.Prefix), redis.WithTTL(rc.TTL))
		out.StepperCache = cache
		out.Locker = redis.NewLocker(cache.Client(), rc.Prefix)
		out.close = cache.Close
	default:
		out.StepperCache = file.New(cfg.Cache.Dir)
	}

	key, fallback, err := cfg.Cache.Keys()
	if err != nil {
		return nil, errors.Join(err, out.Close())
	}
	if key != nil {
		out.StepperCache = middleware.Chain(out.StepperCache, middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
			ActiveKey:    key,
			FallbackKeys: fallback,
		}))
	}
	return out, nil
}

// Stack is everything a command needs to drive the wizard.
type Stack struct {
	Engine  *stepper.Engine
	Cache   *Cache
	Backend *bff.Client
	Metrics *metrics.Metrics
	Hooks   *process.Runner
	Logger  *slog.Logger
}

// NewStack wires the engine from the config. The confirmer answers the navigation
// gates and the notifiers receive the non-fatal failures along with the configured
// hooks.
func NewStack(cfg *config.Config, logger *slog.Logger, confirmer ports.Confirmer, notifiers ...ports.Notifier) (*Stack, error) {
	cache, err := OpenCache(cfg)
	if err != nil {
		return nil, err
	}
	stack := &Stack{Cache: cache, Logger: logger}

	opts := []stepper.Option{
		stepper.WithCache(cache),
		stepper.WithConfirmer(confirmer),
		stepper.WithLocale(cfg.Locale),
		stepper.WithLogger(logger),
		stepper.WithLifecycleHooks(createDebugHooks(logger)),
	}

	if cfg.Backend.URL != "" {
		client, err := bff.New(cfg.Backend.URL, bff.WithToken(cfg.Backend.Token), bff.WithTimeout(cfg.Backend.Timeout))
		if err != nil {
			return nil, errors.Join(fmt.Errorf("backend: %w", err), cache.Close())
		}
		stack.Backend = client
		opts = append(opts, stepper.WithBackend(client))
	}

	if cfg.Metrics.Enabled {
		stack.Metrics = metrics.New()
		opts = append(opts, stepper.WithLifecycleHooks(stack.Metrics.Hooks()))
	}

	if cfg.Hooks != "" {
		hooks, err := process.LoadHooks(cfg.Hooks)
		if err != nil {
			return nil, errors.Join(err, cache.Close())
		}
		stack.Hooks = process.NewRunner(process.WithHooks(hooks), process.WithLogger(logger))
		notifiers = append(notifiers, stack.Hooks)
	}
	opts = append(opts, stepper.WithNotifier(fanOut(notifiers)))

	stack.Engine = stepper.New(opts...)
	return stack, nil
}

// Close waits for running hooks and closes the cache.
func (s *Stack) Close() error {
	if s.Hooks != nil {
		s.Hooks.Wait()
	}
	return s.Cache.Close()
}

func fanOut(notifiers []ports.Notifier) ports.Notifier {
	return ports.NotifyFunc(func(ctx context.Context, n ports.Notification) {
		for _, notifier := range notifiers {
			notifier.Notify(ctx, n)
		}
	})
}

func createDebugHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStepEnter: func(ctx context.Context, e *domain.StepEvent) {
			logger.Debug("Enter Step", "session_id", e.SessionID, "step", e.Step, "direction", e.Direction)
		},
		OnStepLeave: func(ctx context.Context, e *domain.StepEvent) {
			logger.Debug("Leave Step", "session_id", e.SessionID, "step", e.Step, "status", e.Status)
		},
		OnValidationFailed: func(ctx context.Context, e *domain.ValidationEvent) {
			logger.Debug("Validation Failed", "session_id", e.SessionID, "step", e.Step, "fields", e.Fields, "forced", e.Forced)
		},
		OnPersist: func(ctx context.Context, e *domain.PersistEvent) {
			if e.Err != nil {
				logger.Debug("Persist (Error)", "target", e.Target, "op", e.Op, "err", e.Err)
			} else {
				logger.Debug("Persist (Success)", "target", e.Target, "op", e.Op, "duration", e.Duration)
			}
		},
	}
}
