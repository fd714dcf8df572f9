// Package session is the server-side store backing anonymous visitors. Each
// session value lives under its own redis key as a JSON blob with a sliding
// TTL; every mutation is an explicit Save, never an implicit write-through.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "session:"

// Store reads and writes per-session values in redis.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

func New(client *redis.Client, ttl time.Duration) *Store {
	return &Store{
		client: client,
		ttl:    ttl,
	}
}

func (s *Store) key(sid, field string) string {
	return keyPrefix + sid + ":" + field
}

// Get unmarshals the stored value for (sid, field) into dst. The returned
// bool reports whether the value existed.
func (s *Store) Get(ctx context.Context, sid, field string, dst any) (bool, error) {
	data, err := s.client.Get(ctx, s.key(sid, field)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("redis get session %s: %w", field, err)
	}

	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("unmarshal session %s: %w", field, err)
	}
	return true, nil
}

// Save marshals v and commits it under (sid, field), refreshing the TTL.
func (s *Store) Save(ctx context.Context, sid, field string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal session %s: %w", field, err)
	}

	if err := s.client.Set(ctx, s.key(sid, field), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set session %s: %w", field, err)
	}
	return nil
}

// Delete removes the value for (sid, field). Deleting an absent value is a
// no-op.
func (s *Store) Delete(ctx context.Context, sid, field string) error {
	if err := s.client.Del(ctx, s.key(sid, field)).Err(); err != nil {
		return fmt.Errorf("redis del session %s: %w", field, err)
	}
	return nil
}
