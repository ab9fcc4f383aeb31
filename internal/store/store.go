// Package store wraps the shared Redis datastore. It is the only
// cross-process coordination point: membership sets, stroke logs,
// snapshots, undo stacks, presence keys and the room pub/sub channels all
// live here. Every key carries a TTL as a backstop against orphaned rooms
// if explicit cleanup never fires.
package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/liviocandman/interative-whiteboard-sub000/internal/domain"
)

const channelPrefix = "room:"

// ChannelPattern is the wildcard the fan-out bridge subscribes to once per
// process, instead of one subscription per room.
const ChannelPattern = channelPrefix + "*"

type Store struct {
	rdb     redis.UniversalClient
	roomTTL time.Duration
}

func New(rdb redis.UniversalClient, roomTTL time.Duration) *Store {
	return &Store{rdb: rdb, roomTTL: roomTTL}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func membersKey(roomID domain.RoomID) string {
	return fmt.Sprintf("room:%s:members", roomID)
}

func strokesKey(roomID domain.RoomID) string {
	return fmt.Sprintf("room:%s:strokes", roomID)
}

func snapshotKey(roomID domain.RoomID) string {
	return fmt.Sprintf("room:%s:snapshot", roomID)
}

func undoKey(roomID domain.RoomID, userID domain.UserID) string {
	return fmt.Sprintf("undo:%s:%s", roomID, userID)
}

func presenceKey(connID string) string {
	return fmt.Sprintf("presence:%s", connID)
}

func Channel(roomID domain.RoomID) string {
	return channelPrefix + string(roomID)
}

// RoomFromChannel recovers the room id from a pub/sub channel name.
func RoomFromChannel(channel string) (domain.RoomID, bool) {
	id, ok := strings.CutPrefix(channel, channelPrefix)
	if !ok || id == "" || strings.Contains(id, ":") {
		return "", false
	}
	return domain.RoomID(id), true
}
