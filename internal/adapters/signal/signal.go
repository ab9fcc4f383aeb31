// Package signal is the websocket adapter: it owns the connections, decodes
// inbound events and hands them to the drawing pipeline. Everything here is
// transport; no board semantics.
package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/liviocandman/interative-whiteboard-sub000/internal/app"
	"github.com/liviocandman/interative-whiteboard-sub000/internal/core"
)

var ErrBackpressure = errors.New("backpressure")

type Controller struct {
	Pipeline *app.Pipeline
	Registry *app.Registry

	ReadLimit        int64
	PingPeriod       time.Duration
	IdleTimeout      time.Duration
	SnapshotMaxBytes int

	Limiter *RateLimiter
}

type WsSignalConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *WsSignalConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

// Close stops accepting frames and closes the send channel. The write pump
// owns the underlying conn: it flushes whatever is still queued, writes a
// close frame and closes the socket, which in turn unblocks the read pump.
func (c *WsSignalConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	c.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

func (ctl *Controller) HandleBoard(ctx context.Context, c *gin.Context) {
	sid := core.SessionID(c.GetString("client_token"))
	log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("new WS connection")

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}

	conn := &WsSignalConn{
		conn: ws,
		send: make(chan core.Frame, 64),
	}

	user := ctl.Registry.GetOrCreateUser(sid)
	sess := core.NewMemberSession(user, conn)
	ctx, cancel := context.WithCancel(ctx)
	ctl.Registry.Bind(sid, sess, cancel)
	ctl.touch(ctx, sid)

	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, sid, conn)
}

// touch refreshes both the in-process activity record and the TTL backstop
// in the shared store.
func (ctl *Controller) touch(ctx context.Context, sid core.SessionID) {
	ctl.Registry.Touch(sid)
	if err := ctl.Pipeline.Store.TouchPresence(ctx, string(sid), ctl.IdleTimeout); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("presence touch failed")
	}
}
