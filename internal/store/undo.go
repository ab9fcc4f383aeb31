package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/liviocandman/interative-whiteboard-sub000/internal/domain"
)

// Undo stacks live in the shared store, keyed by (room, user), so any
// process handling that user's request sees the same history. Each stack is
// a bounded Redis list of serialized batches, TTL-matched to the room.

// PushUndo pushes a removed batch onto the user's redo stack and trims the
// stack to depth.
func (s *Store) PushUndo(ctx context.Context, roomID domain.RoomID, userID domain.UserID, batch []domain.Stroke, depth int64) error {
	data, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("encode undo batch: %w", err)
	}
	key := undoKey(roomID, userID)
	pipe := s.rdb.TxPipeline()
	pipe.LPush(ctx, key, data)
	pipe.LTrim(ctx, key, 0, depth-1)
	pipe.Expire(ctx, key, s.roomTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("push undo: %w", err)
	}
	return nil
}

// PopUndo pops the most recently undone batch. Nil with no error means the
// stack is empty.
func (s *Store) PopUndo(ctx context.Context, roomID domain.RoomID, userID domain.UserID) ([]domain.Stroke, error) {
	raw, err := s.rdb.LPop(ctx, undoKey(roomID, userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("pop undo: %w", err)
	}
	var batch []domain.Stroke
	if err := json.Unmarshal(raw, &batch); err != nil {
		return nil, fmt.Errorf("decode undo batch: %w", err)
	}
	return batch, nil
}

// ClearUndo drops a user's redo history. New work invalidates old redo
// history, standard editor semantics.
func (s *Store) ClearUndo(ctx context.Context, roomID domain.RoomID, userID domain.UserID) error {
	if err := s.rdb.Del(ctx, undoKey(roomID, userID)).Err(); err != nil {
		return fmt.Errorf("clear undo: %w", err)
	}
	return nil
}

// ClearRoomUndo drops every user's redo history for the room.
func (s *Store) ClearRoomUndo(ctx context.Context, roomID domain.RoomID) error {
	match := fmt.Sprintf("undo:%s:*", roomID)
	iter := s.rdb.Scan(ctx, 0, match, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("clear room undo scan: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("clear room undo: %w", err)
	}
	return nil
}
