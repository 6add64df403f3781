package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	backend "github.com/redis/go-redis/v9"

	"github.com/aretw0/stepper/pkg/domain"
	"github.com/aretw0/stepper/pkg/registration"
)

// DefaultPrefix namespaces every key written by the cache.
const DefaultPrefix = "stepper:session:"

// Cache implements ports.StepperCache using Redis. It lets several replicas of the
// server share the recovery cache.
type Cache struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

type Option func(*Cache)

// WithTTL sets the expiration for cached sessions.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		c.ttl = ttl
	}
}

// WithPrefix sets the key prefix for cached sessions.
func WithPrefix(prefix string) Option {
	return func(c *Cache) {
		c.prefix = prefix
	}
}

// New creates a new Redis cache with options.
func New(address, password string, db int, opts ...Option) *Cache {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis cache from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Cache {
	cache := &Cache{
		client: client,
		prefix: DefaultPrefix,
		ttl:    0, // No expiration by default
	}

	for _, opt := range opts {
		opt(cache)
	}

	return cache
}

// Client exposes the underlying client, e.g. to share it with a Locker.
func (c *Cache) Client() *backend.Client {
	return c.client
}

func (c *Cache) key(sessionID, doc string) string {
	return c.prefix + sessionID + ":" + doc
}

func (c *Cache) indexKey() string {
	return c.prefix + "index"
}

// SaveState persists the stepper state to Redis.
func (c *Cache) SaveState(ctx context.Context, sessionID string, state domain.StepperState) error {
	return c.save(ctx, sessionID, domain.KeyStepper, state)
}

// LoadState retrieves the stepper state from Redis.
func (c *Cache) LoadState(ctx context.Context, sessionID string) (domain.StepperState, error) {
	var state domain.StepperState
	if err := c.load(ctx, sessionID, domain.KeyStepper, &state); err != nil {
		return domain.StepperState{}, err
	}
	return state, nil
}

// SaveForm persists the registration form to Redis.
func (c *Cache) SaveForm(ctx context.Context, sessionID string, form *registration.RegistrationForm) error {
	return c.save(ctx, sessionID, domain.KeyForm, form)
}

// LoadForm retrieves the registration form from Redis.
func (c *Cache) LoadForm(ctx context.Context, sessionID string) (*registration.RegistrationForm, error) {
	form := &registration.RegistrationForm{}
	if err := c.load(ctx, sessionID, domain.KeyForm, form); err != nil {
		return nil, err
	}
	return form.Normalize(), nil
}

func (c *Cache) save(ctx context.Context, sessionID, doc string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", doc, err)
	}

	pipe := c.client.Pipeline()

	// 1. Save JSON with TTL (0 means no expiration)
	pipe.Set(ctx, c.key(sessionID, doc), data, c.ttl)

	// 2. Add to Index (ZSET) scored by expiry
	score := float64(time.Now().Add(c.ttl).Unix())
	if c.ttl == 0 {
		score = 4102444800 // 2100-01-01
	}

	pipe.ZAdd(ctx, c.indexKey(), backend.Z{
		Score:  score,
		Member: sessionID,
	})

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

func (c *Cache) load(ctx context.Context, sessionID, doc string, v any) error {
	val, err := c.client.Get(ctx, c.key(sessionID, doc)).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return domain.ErrStateNotFound
		}
		return fmt.Errorf("failed to get from redis: %w", err)
	}

	if err := json.Unmarshal(val, v); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", doc, err)
	}
	return nil
}

// Clear removes both documents of the session.
func (c *Cache) Clear(ctx context.Context, sessionID string) error {
	pipe := c.client.Pipeline()

	pipe.Del(ctx, c.key(sessionID, domain.KeyStepper), c.key(sessionID, domain.KeyForm))
	pipe.ZRem(ctx, c.indexKey(), sessionID)

	_, err := pipe.Exec(ctx)
	return err
}

// List returns cached sessions, pruning expired ones from the index.
func (c *Cache) List(ctx context.Context) ([]string, error) {
	now := float64(time.Now().Unix())

	// ZREMRANGEBYSCORE key -inf (now)
	err := c.client.ZRemRangeByScore(ctx, c.indexKey(), "-inf", fmt.Sprintf("(%f", now)).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to prune expired sessions: %w", err)
	}

	sessions, err := c.client.ZRange(ctx, c.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return sessions, nil
}

// Close closes the redis client.
func (c *Cache) Close() error {
	return c.client.Close()
}
