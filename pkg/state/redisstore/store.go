// Package redisstore persists scope snapshots in Redis so several runners can
// share one set of browser settings. Records are CBOR encoded.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/redis/go-redis/v9"

	"github.com/goliatone/go-browser-opts/pkg/state"
)

// Client is the subset of the go-redis client used by Store.
type Client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

// Config controls key layout and expiry.
type Config struct {
	Prefix string
	TTL    time.Duration
}

// Store implements state.Store on top of Redis.
type Store[T any] struct {
	client Client
	prefix string
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time
}

type record[T any] struct {
	Snapshot T          `cbor:"snapshot"`
	Meta     state.Meta `cbor:"meta"`
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("redisstore: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic("redisstore: CBOR decoder initialization failed: " + err.Error())
	}
}

// New constructs a Store. A nil logger discards output.
func New[T any](client Client, cfg Config, logger *slog.Logger) *Store[T] {
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "browseropts"
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store[T]{
		client: client,
		prefix: prefix,
		ttl:    cfg.TTL,
		logger: logger.With("component", "redisstore"),
		now:    time.Now,
	}
}

// Key returns the Redis key used for ref.
func (s *Store[T]) Key(ref state.Ref) (string, error) {
	id, err := ref.Identifier()
	if err != nil {
		return "", err
	}
	return s.prefix + ":" + id, nil
}

func (s *Store[T]) Load(ctx context.Context, ref state.Ref) (T, state.Meta, bool, error) {
	var zero T
	key, err := s.Key(ref)
	if err != nil {
		return zero, state.Meta{}, false, err
	}

	payload, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		s.logger.Debug("snapshot not found", "key", key)
		return zero, state.Meta{}, false, nil
	}
	if err != nil {
		return zero, state.Meta{}, false, fmt.Errorf("redisstore: get %s: %w", key, err)
	}

	var rec record[T]
	if err := decMode.Unmarshal(payload, &rec); err != nil {
		return zero, state.Meta{}, false, fmt.Errorf("redisstore: decode %s: %w", key, err)
	}
	return rec.Snapshot, rec.Meta, true, nil
}

func (s *Store[T]) Save(ctx context.Context, ref state.Ref, snapshot T, meta state.Meta) (state.Meta, error) {
	key, err := s.Key(ref)
	if err != nil {
		return state.Meta{}, err
	}

	stored := state.StampMeta(meta, s.now())
	payload, err := encMode.Marshal(record[T]{Snapshot: snapshot, Meta: stored})
	if err != nil {
		return state.Meta{}, fmt.Errorf("redisstore: encode %s: %w", key, err)
	}
	if err := s.client.Set(ctx, key, payload, s.ttl).Err(); err != nil {
		return state.Meta{}, fmt.Errorf("redisstore: set %s: %w", key, err)
	}
	s.logger.Debug("snapshot saved", "key", key, "snapshot_id", stored.SnapshotID, "bytes", len(payload))
	return stored, nil
}
