package app

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/liviocandman/interative-whiteboard-sub000/internal/core"
	"github.com/liviocandman/interative-whiteboard-sub000/internal/store"
)

// Bridge is the cross-process fan-out: one wildcard subscription per
// process covering all room channels. Every process independently
// re-derives "who in this room is mine" from its local groups and forwards
// accordingly; the shared store is the only synchronization point between
// processes.
type Bridge struct {
	Store  *store.Store
	Groups *core.GroupManager

	done chan struct{}
}

func NewBridge(st *store.Store, groups *core.GroupManager) *Bridge {
	return &Bridge{Store: st, Groups: groups, done: make(chan struct{})}
}

// Run consumes the room channels until ctx is canceled. The go-redis
// PubSub reconnects on its own; the loop just drains its channel.
func (b *Bridge) Run(ctx context.Context) {
	defer close(b.done)

	sub := b.Store.SubscribeRooms(ctx)
	defer sub.Close()

	log.Info().Str("module", "app.bridge").Str("pattern", store.ChannelPattern).Msg("fan-out bridge subscribed")

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "app.bridge").Msg("fan-out bridge stopped")
			return
		case msg, ok := <-ch:
			if !ok {
				log.Warn().Str("module", "app.bridge").Msg("subscription channel closed")
				return
			}
			b.dispatch(msg.Channel, []byte(msg.Payload))
		}
	}
}

// Done is closed once Run has returned.
func (b *Bridge) Done() <-chan struct{} { return b.done }

func (b *Bridge) dispatch(channel string, payload []byte) {
	roomID, ok := store.RoomFromChannel(channel)
	if !ok {
		log.Warn().Str("module", "app.bridge").Str("channel", channel).Msg("unparsable channel name")
		return
	}

	group := b.Groups.Get(roomID)
	if group == nil {
		// No local members; nothing to deliver here.
		return
	}

	var env store.Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		log.Error().Err(err).Str("module", "app.bridge").Str("room", string(roomID)).Msg("bad envelope")
		return
	}

	origin := core.SessionID(env.Origin)
	switch {
	case len(env.Strokes) > 0:
		frame, err := core.EncodeFrame(core.NewStrokeEvent(env.Strokes))
		if err != nil {
			log.Error().Err(err).Str("module", "app.bridge").Msg("encode stroke event")
			return
		}
		// The originator applied its stroke locally already; no echo.
		group.Broadcast(origin, frame)

	case env.Reset:
		frame, err := core.EncodeFrame(core.NewClearBoardEvent())
		if err != nil {
			log.Error().Err(err).Str("module", "app.bridge").Msg("encode clear event")
			return
		}
		// The originator gets its ack on its own connection.
		group.Broadcast(origin, frame)

	case env.State != nil:
		// Post-undo/redo resync: everyone converges on the full state,
		// the originator included.
		clear, err := core.EncodeFrame(core.NewClearBoardEvent())
		if err != nil {
			log.Error().Err(err).Str("module", "app.bridge").Msg("encode clear event")
			return
		}
		state, err := core.EncodeFrame(core.NewRoomStateEvent(roomID, *env.State))
		if err != nil {
			log.Error().Err(err).Str("module", "app.bridge").Msg("encode state event")
			return
		}
		group.BroadcastAll(clear)
		group.BroadcastAll(state)

	default:
		log.Warn().Str("module", "app.bridge").Str("room", string(roomID)).Msg("empty envelope")
	}
}
