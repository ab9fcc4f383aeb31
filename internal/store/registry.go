package store

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/liviocandman/interative-whiteboard-sub000/internal/domain"
)

// AddMember adds a connection to the room's membership set and returns the
// resulting member count. A room exists iff its members key does, so the
// first join creates the room; there is no separate create step and no
// check-then-create race. SADD, EXPIRE and SCARD run in one MULTI/EXEC.
func (s *Store) AddMember(ctx context.Context, roomID domain.RoomID, connID string) (int64, error) {
	key := membersKey(roomID)
	pipe := s.rdb.TxPipeline()
	pipe.SAdd(ctx, key, connID)
	pipe.Expire(ctx, key, s.roomTTL)
	card := pipe.SCard(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("add member: %w", err)
	}
	return card.Val(), nil
}

// RemoveMember removes a connection and returns the remaining count. Remove
// and count are one atomic MULTI/EXEC so two concurrent leaves can never
// both observe a stale "still has members" result.
func (s *Store) RemoveMember(ctx context.Context, roomID domain.RoomID, connID string) (int64, error) {
	key := membersKey(roomID)
	pipe := s.rdb.TxPipeline()
	pipe.SRem(ctx, key, connID)
	card := pipe.SCard(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("remove member: %w", err)
	}
	return card.Val(), nil
}

func (s *Store) RoomExists(ctx context.Context, roomID domain.RoomID) (bool, error) {
	n, err := s.rdb.Exists(ctx, membersKey(roomID)).Result()
	if err != nil {
		return false, fmt.Errorf("room exists: %w", err)
	}
	return n > 0, nil
}

func (s *Store) MemberCount(ctx context.Context, roomID domain.RoomID) (int64, error) {
	n, err := s.rdb.SCard(ctx, membersKey(roomID)).Result()
	if err != nil {
		return 0, fmt.Errorf("member count: %w", err)
	}
	return n, nil
}

// DeleteRoom purges every key derived from the room id: membership set,
// stroke log, snapshot and all per-user undo stacks.
func (s *Store) DeleteRoom(ctx context.Context, roomID domain.RoomID) error {
	keys := []string{membersKey(roomID), strokesKey(roomID), snapshotKey(roomID)}

	match := fmt.Sprintf("undo:%s:*", roomID)
	iter := s.rdb.Scan(ctx, 0, match, 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("delete room scan: %w", err)
	}

	if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("delete room: %w", err)
	}
	log.Info().Str("module", "store").Str("room", string(roomID)).Msg("room state purged")
	return nil
}
