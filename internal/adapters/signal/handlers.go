package signal

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/liviocandman/interative-whiteboard-sub000/internal/core"
	"github.com/liviocandman/interative-whiteboard-sub000/internal/domain"
)

func (ctl *Controller) handleJoin(
	ctx context.Context,
	sid core.SessionID,
	conn *WsSignalConn,
	data []byte,
) {
	type joinPayload struct {
		Type string `json:"type"`
		Room string `json:"room"`
		Name string `json:"name,omitempty"`
	}
	var p joinPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad join payload")
		ctl.sendError(conn, "join", "bad_payload")
		return
	}

	if p.Name != "" {
		ctl.Registry.UpdateUsername(sid, p.Name)
	}

	res, err := ctl.Pipeline.Join(ctx, sid, domain.RoomID(p.Room))
	if err != nil {
		ctl.reportError(conn, "join", err)
		return
	}

	resp := core.NewRoomStateEvent(res.RoomID, res.State)
	resp.Count = res.Members
	if g := ctl.Pipeline.Groups.Get(res.RoomID); g != nil {
		resp.Members = g.MembersSnapshot()
	}
	ctl.sendJSON(conn, resp)
}

func (ctl *Controller) handleStroke(
	ctx context.Context,
	sid core.SessionID,
	conn *WsSignalConn,
	data []byte,
) {
	// A single stroke or a whole gesture; both land as one log batch.
	type strokePayload struct {
		Type    string          `json:"type"`
		Stroke  *domain.Stroke  `json:"stroke,omitempty"`
		Strokes []domain.Stroke `json:"strokes,omitempty"`
	}
	var p strokePayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad stroke payload")
		ctl.sendError(conn, "stroke", "bad_payload")
		return
	}

	batch := p.Strokes
	if p.Stroke != nil {
		batch = append([]domain.Stroke{*p.Stroke}, batch...)
	}

	// No ack on success; the sender already rendered its own stroke.
	if err := ctl.Pipeline.HandleStroke(ctx, sid, batch); err != nil {
		ctl.reportError(conn, "stroke", err)
	}
}

func (ctl *Controller) handleSaveSnapshot(
	ctx context.Context,
	sid core.SessionID,
	conn *WsSignalConn,
	data []byte,
) {
	type snapshotPayload struct {
		Type     string `json:"type"`
		Snapshot []byte `json:"snapshot"`
	}
	var p snapshotPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad snapshot payload")
		ctl.sendError(conn, "save_snapshot", "bad_payload")
		return
	}

	if err := ctl.Pipeline.SaveSnapshot(ctx, sid, p.Snapshot, ctl.SnapshotMaxBytes); err != nil {
		ctl.reportError(conn, "save_snapshot", err)
		return
	}
	ctl.sendJSON(conn, map[string]any{"type": "snapshot_saved"})
}

// handleLeave leaves the current room; the connection itself stays open.
func (ctl *Controller) handleLeave(
	ctx context.Context,
	sid core.SessionID,
	conn *WsSignalConn,
) {
	if err := ctl.Pipeline.Leave(ctx, sid); err != nil {
		ctl.reportError(conn, "leave", err)
		return
	}
	ctl.sendJSON(conn, map[string]any{"type": "left"})
}

func (ctl *Controller) handleResetBoard(
	ctx context.Context,
	sid core.SessionID,
	conn *WsSignalConn,
) {
	if err := ctl.Pipeline.ClearBoard(ctx, sid); err != nil {
		ctl.reportError(conn, "reset_board", err)
		return
	}
	// The fan-out excludes the originator, so the reliable ack goes here.
	ctl.sendJSON(conn, core.NewClearBoardEvent())
}

func (ctl *Controller) handleUndo(
	ctx context.Context,
	sid core.SessionID,
	conn *WsSignalConn,
) {
	res, err := ctl.Pipeline.Undo(ctx, sid)
	if err != nil {
		ctl.reportError(conn, "undo", err)
		return
	}
	resp := struct {
		Type     string `json:"type"`
		Success  bool   `json:"success"`
		StrokeID string `json:"strokeId,omitempty"`
	}{
		Type:     "undo_result",
		Success:  res.OK,
		StrokeID: res.StrokeID,
	}
	ctl.sendJSON(conn, resp)
}

func (ctl *Controller) handleRedo(
	ctx context.Context,
	sid core.SessionID,
	conn *WsSignalConn,
) {
	ok, err := ctl.Pipeline.Redo(ctx, sid)
	if err != nil {
		ctl.reportError(conn, "redo", err)
		return
	}
	resp := struct {
		Type    string `json:"type"`
		Success bool   `json:"success"`
	}{
		Type:    "redo_result",
		Success: ok,
	}
	ctl.sendJSON(conn, resp)
}

func (ctl *Controller) handlePing(conn *WsSignalConn) {
	ctl.sendJSON(conn, map[string]any{"type": "pong"})
}

// reportError maps pipeline errors onto the wire. Validation and
// not-in-room failures carry their own message; anything else is a store
// problem and is logged with full detail but reported generically.
func (ctl *Controller) reportError(conn *WsSignalConn, event string, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidStroke),
		errors.Is(err, domain.ErrInvalidRoomID),
		errors.Is(err, domain.ErrInvalidSnapshot),
		errors.Is(err, domain.ErrNotInRoom):
		ctl.sendError(conn, event, err.Error())
	default:
		log.Error().Err(err).Str("module", "signal").Str("event", event).Msg("operation failed")
		ctl.sendError(conn, event, "store unavailable")
	}
}
