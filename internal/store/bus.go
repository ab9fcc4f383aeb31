package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/liviocandman/interative-whiteboard-sub000/internal/domain"
)

// Envelope is the message carried on a room's pub/sub channel. Exactly one
// of Strokes, Reset or State is set. Origin is the connection that produced
// the event; receivers exclude it from stroke delivery so the originator
// never sees an echo of its own drawing.
type Envelope struct {
	Origin  string              `json:"origin"`
	Strokes []domain.Stroke     `json:"strokes,omitempty"`
	Reset   bool                `json:"reset,omitempty"`
	State   *domain.CanvasState `json:"state,omitempty"`
}

// PublishRoom fans an envelope out to every process subscribed to the
// room's channel, this one included.
func (s *Store) PublishRoom(ctx context.Context, roomID domain.RoomID, env Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}
	if err := s.rdb.Publish(ctx, Channel(roomID), data).Err(); err != nil {
		return fmt.Errorf("publish room event: %w", err)
	}
	return nil
}

// SubscribeRooms opens the single wildcard subscription covering all room
// channels. The caller owns the returned PubSub and must Close it.
func (s *Store) SubscribeRooms(ctx context.Context) *redis.PubSub {
	return s.rdb.PSubscribe(ctx, ChannelPattern)
}
