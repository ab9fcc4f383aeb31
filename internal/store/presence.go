package store

import (
	"context"
	"fmt"
	"time"
)

// Presence keys are a TTL backstop for idle detection: every inbound event
// refreshes them, and a connection whose key has expired is considered
// inactive even if this process never saw it go quiet.

func (s *Store) TouchPresence(ctx context.Context, connID string, ttl time.Duration) error {
	if err := s.rdb.Set(ctx, presenceKey(connID), time.Now().UnixMilli(), ttl).Err(); err != nil {
		return fmt.Errorf("touch presence: %w", err)
	}
	return nil
}

func (s *Store) PresenceAlive(ctx context.Context, connID string) (bool, error) {
	n, err := s.rdb.Exists(ctx, presenceKey(connID)).Result()
	if err != nil {
		return false, fmt.Errorf("presence alive: %w", err)
	}
	return n > 0, nil
}

func (s *Store) DropPresence(ctx context.Context, connID string) error {
	if err := s.rdb.Del(ctx, presenceKey(connID)).Err(); err != nil {
		return fmt.Errorf("drop presence: %w", err)
	}
	return nil
}
