package app

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/liviocandman/interative-whiteboard-sub000/internal/core"
)

// IdleWatcher sweeps the registry and disconnects sessions that have been
// quiet past the timeout. The presence TTL in the shared store is the
// backstop; this sweep is what actually tells the client why it was
// dropped.
type IdleWatcher struct {
	Registry *Registry
	Pipeline *Pipeline
	Timeout  time.Duration
	Interval time.Duration
}

func (w *IdleWatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "app.idle").Msg("idle watcher stopped")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *IdleWatcher) sweep(ctx context.Context) {
	cutoff := time.Now().Add(-w.Timeout)
	for _, sid := range w.Registry.IdleSince(cutoff) {
		log.Info().Str("module", "app.idle").Str("sid", string(sid)).Msg("dropping idle session")
		if sess, ok := w.Registry.GetSession(sid); ok {
			if frame, err := core.EncodeFrame(core.NewInactivityEvent()); err == nil {
				_ = sess.Signal().TrySend(frame)
			}
			// Closing the transport is what ends the connection: the write
			// pump flushes the notice and closes the socket, which unblocks
			// the read pump. Canceling the context alone would leave it
			// parked in ReadMessage.
			sess.Signal().Close()
		}
		w.Registry.CancelSession(sid)
		// Idempotent backstop in case the read pump already cleaned up.
		w.Pipeline.Disconnect(ctx, sid)
	}
}
