package app

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/liviocandman/interative-whiteboard-sub000/internal/core"
	"github.com/liviocandman/interative-whiteboard-sub000/internal/domain"
	"github.com/liviocandman/interative-whiteboard-sub000/internal/store"
)

// Pipeline coordinates the stroke event flow: validate, persist, fan out.
// Local delivery happens when this process's bridge receives the published
// envelope back from the bus, same as every other process, so there is a
// single delivery path regardless of where the originator is connected.
type Pipeline struct {
	Store     *store.Store
	Registry  *Registry
	Groups    *core.GroupManager
	Cleanup   *CleanupScheduler
	Validate  *domain.Validator
	UndoDepth int64
}

// JoinResult is what a joiner needs to render the board and the roster.
type JoinResult struct {
	RoomID  domain.RoomID
	State   domain.CanvasState
	Members int64
}

// Join adds the connection to the room, creating the room implicitly on
// first join. A session already bound to another room leaves it first; a
// pending cleanup job for the target room is canceled.
func (p *Pipeline) Join(ctx context.Context, sid core.SessionID, roomID domain.RoomID) (*JoinResult, error) {
	if err := p.Validate.RoomID(roomID); err != nil {
		return nil, err
	}
	sess, ok := p.Registry.GetSession(sid)
	if !ok {
		return nil, domain.ErrNotInRoom
	}

	if current, bound := p.Registry.RoomOf(sid); bound {
		if current == roomID {
			state, err := p.CurrentState(ctx, roomID)
			if err != nil {
				return nil, err
			}
			count, err := p.Store.MemberCount(ctx, roomID)
			if err != nil {
				return nil, err
			}
			return &JoinResult{RoomID: roomID, State: *state, Members: count}, nil
		}
		if err := p.Leave(ctx, sid); err != nil {
			return nil, err
		}
	}

	count, err := p.Store.AddMember(ctx, roomID, string(sid))
	if err != nil {
		return nil, err
	}
	p.Cleanup.Cancel(roomID)
	p.Groups.GetOrCreate(roomID).AddMember(sid, sess)
	p.Registry.SetRoom(sid, roomID)

	state, err := p.CurrentState(ctx, roomID)
	if err != nil {
		return nil, err
	}
	log.Info().Str("module", "app.pipeline").Str("sid", string(sid)).Str("room", string(roomID)).Int64("members", count).Msg("joined room")
	return &JoinResult{RoomID: roomID, State: *state, Members: count}, nil
}

// Leave removes the connection from its current room. When the atomic
// remove-and-count reports zero members, a deferred cleanup is scheduled.
func (p *Pipeline) Leave(ctx context.Context, sid core.SessionID) error {
	roomID, ok := p.Registry.RoomOf(sid)
	if !ok {
		return domain.ErrNotInRoom
	}

	if g := p.Groups.Get(roomID); g != nil {
		g.RemoveMember(sid)
		p.Groups.Drop(roomID)
	}
	p.Registry.ClearRoom(sid)

	count, err := p.Store.RemoveMember(ctx, roomID, string(sid))
	if err != nil {
		return err
	}
	if count == 0 {
		p.Cleanup.Schedule(roomID)
	}
	log.Info().Str("module", "app.pipeline").Str("sid", string(sid)).Str("room", string(roomID)).Int64("members", count).Msg("left room")
	return nil
}

// Disconnect is the terminal transition: implicit leave, then the session
// and its presence record are gone.
func (p *Pipeline) Disconnect(ctx context.Context, sid core.SessionID) {
	if _, ok := p.Registry.RoomOf(sid); ok {
		if err := p.Leave(ctx, sid); err != nil {
			log.Error().Err(err).Str("module", "app.pipeline").Str("sid", string(sid)).Msg("leave on disconnect failed")
		}
	}
	p.Registry.Unbind(sid)
	if err := p.Store.DropPresence(ctx, string(sid)); err != nil {
		log.Warn().Err(err).Str("module", "app.pipeline").Str("sid", string(sid)).Msg("presence drop failed")
	}
}

// HandleStroke validates a gesture, appends it to the room's log, clears
// the author's redo history and publishes it on the room channel. The
// returned error is the sender's signal; a stroke is never dropped
// silently.
func (p *Pipeline) HandleStroke(ctx context.Context, sid core.SessionID, strokes []domain.Stroke) error {
	roomID, ok := p.Registry.RoomOf(sid)
	if !ok {
		return domain.ErrNotInRoom
	}
	if err := p.Validate.Batch(strokes); err != nil {
		return err
	}

	user := p.Registry.GetOrCreateUser(sid)
	now := time.Now().UnixMilli()
	for i := range strokes {
		strokes[i].UserID = user.ID
		if strokes[i].Timestamp == 0 {
			strokes[i].Timestamp = now
		}
	}

	if err := p.Store.AppendBatch(ctx, roomID, strokes); err != nil {
		return err
	}
	// New work invalidates old redo history.
	if err := p.Store.ClearUndo(ctx, roomID, user.ID); err != nil {
		log.Warn().Err(err).Str("module", "app.pipeline").Str("room", string(roomID)).Msg("redo stack clear failed")
	}
	return p.Store.PublishRoom(ctx, roomID, store.Envelope{
		Origin:  string(sid),
		Strokes: strokes,
	})
}

// UndoResult reports whether there was anything to undo and which gesture
// was removed.
type UndoResult struct {
	OK       bool
	StrokeID string
}

// Undo removes the caller's most recent gesture from the log atomically,
// parks it on the redo stack and pushes a full-state resync to the room.
// Full state instead of a diff: undo is rare, simplicity wins.
func (p *Pipeline) Undo(ctx context.Context, sid core.SessionID) (UndoResult, error) {
	roomID, ok := p.Registry.RoomOf(sid)
	if !ok {
		return UndoResult{}, domain.ErrNotInRoom
	}
	user := p.Registry.GetOrCreateUser(sid)

	removed, err := p.Store.RemoveLastBatch(ctx, roomID, user.ID)
	if err != nil {
		return UndoResult{}, err
	}
	if len(removed) == 0 {
		return UndoResult{OK: false}, nil
	}
	if err := p.Store.PushUndo(ctx, roomID, user.ID, removed, p.UndoDepth); err != nil {
		return UndoResult{}, err
	}
	if err := p.resync(ctx, sid, roomID); err != nil {
		return UndoResult{}, err
	}
	log.Info().Str("module", "app.pipeline").Str("room", string(roomID)).Str("user", string(user.ID)).Int("strokes", len(removed)).Msg("undo")
	return UndoResult{OK: true, StrokeID: removed[0].StrokeID}, nil
}

// Redo re-appends the caller's most recently undone gesture through the
// normal append path and resyncs the room.
func (p *Pipeline) Redo(ctx context.Context, sid core.SessionID) (bool, error) {
	roomID, ok := p.Registry.RoomOf(sid)
	if !ok {
		return false, domain.ErrNotInRoom
	}
	user := p.Registry.GetOrCreateUser(sid)

	batch, err := p.Store.PopUndo(ctx, roomID, user.ID)
	if err != nil {
		return false, err
	}
	if batch == nil {
		return false, nil
	}
	if err := p.Store.AppendBatch(ctx, roomID, batch); err != nil {
		return false, err
	}
	if err := p.resync(ctx, sid, roomID); err != nil {
		return false, err
	}
	log.Info().Str("module", "app.pipeline").Str("room", string(roomID)).Str("user", string(user.ID)).Int("strokes", len(batch)).Msg("redo")
	return true, nil
}

// ClearBoard wipes the room's log, snapshot and every redo stack, then
// publishes a reset. The originator's ack travels on its own connection;
// everyone else learns of the reset from the fan-out.
func (p *Pipeline) ClearBoard(ctx context.Context, sid core.SessionID) error {
	roomID, ok := p.Registry.RoomOf(sid)
	if !ok {
		return domain.ErrNotInRoom
	}
	if err := p.Store.ClearStrokes(ctx, roomID); err != nil {
		return err
	}
	if err := p.Store.DeleteSnapshot(ctx, roomID); err != nil {
		return err
	}
	if err := p.Store.ClearRoomUndo(ctx, roomID); err != nil {
		return err
	}
	log.Info().Str("module", "app.pipeline").Str("room", string(roomID)).Str("sid", string(sid)).Msg("board cleared")
	return p.Store.PublishRoom(ctx, roomID, store.Envelope{
		Origin: string(sid),
		Reset:  true,
	})
}

// SaveSnapshot stores a compaction point handed to us by a client. The
// engine does not decide when to snapshot, it only keeps what it is given.
func (p *Pipeline) SaveSnapshot(ctx context.Context, sid core.SessionID, blob []byte, maxBytes int) error {
	roomID, ok := p.Registry.RoomOf(sid)
	if !ok {
		return domain.ErrNotInRoom
	}
	if err := p.Validate.Snapshot(blob, maxBytes); err != nil {
		return err
	}
	return p.Store.SaveSnapshot(ctx, roomID, blob)
}

// CurrentState assembles the snapshot + stroke log a renderer replays.
func (p *Pipeline) CurrentState(ctx context.Context, roomID domain.RoomID) (*domain.CanvasState, error) {
	snapshot, err := p.Store.Snapshot(ctx, roomID)
	if err != nil {
		return nil, err
	}
	strokes, err := p.Store.Strokes(ctx, roomID)
	if err != nil {
		return nil, err
	}
	return &domain.CanvasState{Snapshot: snapshot, Strokes: strokes}, nil
}

func (p *Pipeline) resync(ctx context.Context, sid core.SessionID, roomID domain.RoomID) error {
	state, err := p.CurrentState(ctx, roomID)
	if err != nil {
		return err
	}
	return p.Store.PublishRoom(ctx, roomID, store.Envelope{
		Origin: string(sid),
		State:  state,
	})
}
