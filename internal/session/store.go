package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/wolfman30/sitequote/internal/quote"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// ErrSnapshotNotFound is returned by a SnapshotStore with nothing stored for an id.
var ErrSnapshotNotFound = errors.New("session: snapshot not found")

// SnapshotStore persists workflow snapshots so a session survives eviction
// from memory or a process restart.
type SnapshotStore interface {
	Load(ctx context.Context, id string) (quote.Snapshot, error)
	Save(ctx context.Context, id string, snap quote.Snapshot, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
}

// NopStore keeps nothing. Sessions then live only as long as the process.
type NopStore struct{}

func (NopStore) Load(context.Context, string) (quote.Snapshot, error) {
	return quote.Snapshot{}, ErrSnapshotNotFound
}

func (NopStore) Save(context.Context, string, quote.Snapshot, time.Duration) error { return nil }

func (NopStore) Delete(context.Context, string) error { return nil }

// RedisSnapshotStore keeps snapshots as JSON under quote:session:<id>.
type RedisSnapshotStore struct {
	redis  *redis.Client
	tracer trace.Tracer
}

func NewRedisSnapshotStore(client *redis.Client, tracer trace.Tracer) *RedisSnapshotStore {
	if client == nil {
		panic("session: redis client cannot be nil")
	}
	if tracer == nil {
		tracer = otel.Tracer("sitequote.internal.session.store")
	}
	return &RedisSnapshotStore{
		redis:  client,
		tracer: tracer,
	}
}

func (s *RedisSnapshotStore) Save(ctx context.Context, id string, snap quote.Snapshot, ttl time.Duration) error {
	ctx, span := s.tracer.Start(ctx, "session.save_snapshot")
	defer span.End()

	data, err := json.Marshal(snap)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("session: failed to marshal snapshot: %w", err)
	}
	if err := s.redis.Set(ctx, snapshotKey(id), data, ttl).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("session: failed to persist snapshot: %w", err)
	}
	return nil
}

func (s *RedisSnapshotStore) Load(ctx context.Context, id string) (quote.Snapshot, error) {
	ctx, span := s.tracer.Start(ctx, "session.load_snapshot")
	defer span.End()

	data, err := s.redis.Get(ctx, snapshotKey(id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return quote.Snapshot{}, ErrSnapshotNotFound
		}
		span.RecordError(err)
		return quote.Snapshot{}, fmt.Errorf("session: failed to load snapshot: %w", err)
	}

	var snap quote.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		span.RecordError(err)
		return quote.Snapshot{}, fmt.Errorf("session: failed to decode snapshot: %w", err)
	}
	return snap, nil
}

func (s *RedisSnapshotStore) Delete(ctx context.Context, id string) error {
	ctx, span := s.tracer.Start(ctx, "session.delete_snapshot")
	defer span.End()

	if err := s.redis.Del(ctx, snapshotKey(id)).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("session: failed to delete snapshot: %w", err)
	}
	return nil
}

func snapshotKey(id string) string {
	return fmt.Sprintf("quote:session:%s", id)
}

var (
	_ SnapshotStore = NopStore{}
	_ SnapshotStore = (*RedisSnapshotStore)(nil)
)
