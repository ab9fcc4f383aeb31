package signal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/liviocandman/interative-whiteboard-sub000/internal/core"
)

const writeWait = 5 * time.Second

func (ctl *Controller) writePump(ctx context.Context, c *WsSignalConn) {
	ticker := time.NewTicker(ctl.PingPeriod)
	// Closing the conn here is what unblocks the read pump's ReadMessage;
	// every writePump exit path ends the whole connection.
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "signal").Msg("writePump ctx done")
			c.flush()
			return
		case data, ok := <-c.send:
			if !ok {
				log.Info().Str("module", "signal").Msg("writePump channel closed")
				c.writeClose()
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// flush writes any frames still queued, then the close frame, so a final
// notice (inactivity, shutdown) reaches the peer before the socket closes.
// Best effort: the peer may already be gone.
func (c *WsSignalConn) flush() {
	for {
		select {
		case data, ok := <-c.send:
			if !ok {
				c.writeClose()
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		default:
			c.writeClose()
			return
		}
	}
}

func (c *WsSignalConn) writeClose() {
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

func (ctl *Controller) readPump(ctx context.Context, sid core.SessionID, c *WsSignalConn) {
	defer func() {
		log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("readPump closing")
		// The connection ctx is canceled by now; cleanup gets its own.
		cleanupCtx, cancel := context.WithTimeout(context.Background(), writeWait)
		defer cancel()
		ctl.Pipeline.Disconnect(cleanupCtx, sid)
		ctl.Limiter.Forget(sid)
		c.Close()
	}()

	c.conn.SetReadLimit(ctl.ReadLimit)

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("readPump ctx done")
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Error().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("readPump read error")
				}
				return
			}
			if !ctl.Limiter.Allow(sid) {
				log.Warn().Str("module", "signal").Str("sid", string(sid)).Msg("rate limit exceeded, dropping event")
				continue
			}
			ctl.touch(ctx, sid)
			ctl.handleEvent(ctx, sid, c, data)
		}
	}
}

func (ctl *Controller) handleEvent(ctx context.Context, sid core.SessionID, c *WsSignalConn, data []byte) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad json")
		ctl.sendError(c, "", "bad_payload")
		return
	}

	switch env.Type {
	case "join":
		ctl.handleJoin(ctx, sid, c, data)
	case "stroke":
		ctl.handleStroke(ctx, sid, c, data)
	case "save_snapshot":
		ctl.handleSaveSnapshot(ctx, sid, c, data)
	case "leave":
		ctl.handleLeave(ctx, sid, c)
	case "reset_board":
		ctl.handleResetBoard(ctx, sid, c)
	case "undo":
		ctl.handleUndo(ctx, sid, c)
	case "redo":
		ctl.handleRedo(ctx, sid, c)
	case "ping":
		ctl.handlePing(c)
	default:
		log.Warn().Str("module", "signal").Str("type", env.Type).Msg("unknown event")
		ctl.sendError(c, env.Type, "unknown event")
	}
}

func (ctl *Controller) sendJSON(c *WsSignalConn, v any) {
	frame, err := core.EncodeFrame(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("sendJSON marshal")
		return
	}
	_ = c.TrySend(frame)
}

func (ctl *Controller) sendError(c *WsSignalConn, event, message string) {
	ctl.sendJSON(c, core.NewErrorEvent(event, message))
}
