package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/liviocandman/interative-whiteboard-sub000/internal/domain"
)

// Snapshots are opaque raster blobs: a compaction point that keeps the
// stroke log from growing unbounded. The engine stores what clients hand it
// and never looks inside.

func (s *Store) SaveSnapshot(ctx context.Context, roomID domain.RoomID, blob []byte) error {
	if err := s.rdb.Set(ctx, snapshotKey(roomID), blob, s.roomTTL).Err(); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// Snapshot returns nil with no error when the room has no snapshot yet.
func (s *Store) Snapshot(ctx context.Context, roomID domain.RoomID) ([]byte, error) {
	blob, err := s.rdb.Get(ctx, snapshotKey(roomID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	return blob, nil
}

func (s *Store) DeleteSnapshot(ctx context.Context, roomID domain.RoomID) error {
	if err := s.rdb.Del(ctx, snapshotKey(roomID)).Err(); err != nil {
		return fmt.Errorf("delete snapshot: %w", err)
	}
	return nil
}
