package department

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// ErrNotFound is returned when a department id is unknown.
var ErrNotFound = errors.New("department: not found")

// Store resolves department configs, overlaying Redis-stored overrides on top
// of the built-in registry. A nil Redis client degrades to builtins only.
type Store struct {
	redis *redis.Client
}

// NewStore creates a department config store.
func NewStore(redisClient *redis.Client) *Store {
	return &Store{redis: redisClient}
}

func (s *Store) key(id string) string {
	return fmt.Sprintf("department:config:%s", id)
}

// Get retrieves the config for a department. Overrides stored in Redis take
// precedence over builtins; an unknown id returns ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (*Config, error) {
	if s.redis != nil {
		data, err := s.redis.Get(ctx, s.key(id)).Bytes()
		switch {
		case err == redis.Nil:
			// fall through to builtins
		case err != nil:
			return nil, fmt.Errorf("department: get config: %w", err)
		default:
			var cfg Config
			if err := json.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("department: unmarshal config: %w", err)
			}
			return &cfg, nil
		}
	}

	if cfg := Builtin(id); cfg != nil {
		return cfg, nil
	}
	return nil, ErrNotFound
}

// Set saves a department config override.
func (s *Store) Set(ctx context.Context, cfg *Config) error {
	if s.redis == nil {
		return errors.New("department: store is read-only without redis")
	}
	if cfg == nil || cfg.ID == "" {
		return errors.New("department: config id is required")
	}

	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("department: marshal config: %w", err)
	}
	if err := s.redis.Set(ctx, s.key(cfg.ID), data, 0).Err(); err != nil {
		return fmt.Errorf("department: set config: %w", err)
	}
	return nil
}
