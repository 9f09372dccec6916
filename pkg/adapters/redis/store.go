package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/cartwise/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces every key written by this package.
const DefaultPrefix = "cartwise:session:"

// Store implements ports.CheckpointStore using Redis.
// Compare-and-swap is enforced with WATCH/MULTI, so it holds across replicas.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

type Option func(*Store)

// WithTTL sets the expiration for sessions.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix for sessions.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a new Redis store with options.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: DefaultPrefix,
		ttl:    0, // No expiration by default
	}

	for _, opt := range opts {
		opt(store)
	}

	return store
}

// Client exposes the underlying client, e.g. to share it with a Locker.
func (s *Store) Client() *backend.Client {
	return s.client
}

// Key layout under the prefix. Session data, the index and locks live in
// disjoint namespaces, so no thread ID can address the index or a lock.
const (
	sessionSpace = "s:"
	indexName    = "index"
)

func (s *Store) key(threadID string) string {
	return s.prefix + sessionSpace + threadID
}

func (s *Store) indexKey() string {
	return s.prefix + indexName
}

// versionOnly decodes just the concurrency token of a stored checkpoint.
type versionOnly struct {
	Version int64 `json:"version"`
}

// Save persists the checkpoint to Redis with compare-and-swap on its version.
func (s *Store) Save(ctx context.Context, cp *domain.Checkpoint) error {
	key := s.key(cp.ThreadID)

	next := *cp
	next.Version++
	data, err := json.Marshal(&next)
	if err != nil {
		return fmt.Errorf("failed to marshal checkpoint: %w", err)
	}

	err = s.client.Watch(ctx, func(tx *backend.Tx) error {
		// 1. Compare
		raw, err := tx.Get(ctx, key).Bytes()
		switch {
		case errors.Is(err, backend.Nil):
			if cp.Version != 0 {
				return fmt.Errorf("checkpoint %s does not exist at version %d: %w", cp.ThreadID, cp.Version, domain.ErrConflict)
			}
		case err != nil:
			return fmt.Errorf("failed to get from redis: %w", err)
		default:
			var stored versionOnly
			if err := json.Unmarshal(raw, &stored); err != nil {
				return fmt.Errorf("failed to unmarshal checkpoint: %w", err)
			}
			if stored.Version != cp.Version {
				return fmt.Errorf("checkpoint %s at version %d, got %d: %w", cp.ThreadID, stored.Version, cp.Version, domain.ErrConflict)
			}
		}

		// 2. Swap: JSON with TTL plus the index entry (ZSET).
		// Score = Now + TTL. If TTL = 0, Score = far future.
		score := float64(time.Now().Add(s.ttl).Unix())
		if s.ttl == 0 {
			score = 4102444800 // 2100-01-01
		}
		_, err = tx.TxPipelined(ctx, func(pipe backend.Pipeliner) error {
			pipe.Set(ctx, key, data, s.ttl)
			pipe.ZAdd(ctx, s.indexKey(), backend.Z{
				Score:  score,
				Member: cp.ThreadID,
			})
			return nil
		})
		return err
	}, key)

	if errors.Is(err, backend.TxFailedErr) {
		return fmt.Errorf("checkpoint %s changed concurrently: %w", cp.ThreadID, domain.ErrConflict)
	}
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return err
		}
		return fmt.Errorf("failed to save to redis: %w", err)
	}

	cp.Version = next.Version
	return nil
}

// Load retrieves the checkpoint from Redis.
func (s *Store) Load(ctx context.Context, threadID string) (*domain.Checkpoint, error) {
	val, err := s.client.Get(ctx, s.key(threadID)).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}

	var cp domain.Checkpoint
	if err := json.Unmarshal(val, &cp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal checkpoint: %w", err)
	}

	return &cp, nil
}

// Delete removes the session.
func (s *Store) Delete(ctx context.Context, threadID string) error {
	pipe := s.client.Pipeline()

	pipe.Del(ctx, s.key(threadID))
	pipe.ZRem(ctx, s.indexKey(), threadID)

	_, err := pipe.Exec(ctx)
	return err
}

// List returns active sessions from the index, pruning expired entries lazily.
func (s *Store) List(ctx context.Context) ([]string, error) {
	now := float64(time.Now().Unix())

	// ZREMRANGEBYSCORE key -inf (now
	err := s.client.ZRemRangeByScore(ctx, s.indexKey(), "-inf", fmt.Sprintf("(%f", now)).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to prune expired sessions: %w", err)
	}

	sessions, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	return sessions, nil
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}
