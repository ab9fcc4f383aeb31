package app

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/liviocandman/interative-whiteboard-sub000/internal/core"
	"github.com/liviocandman/interative-whiteboard-sub000/internal/domain"
	"github.com/liviocandman/interative-whiteboard-sub000/internal/store"
)

const testCleanupDelay = 50 * time.Millisecond

type fakeConn struct {
	mu     sync.Mutex
	frames []core.Frame
	closed bool
}

func (f *fakeConn) TrySend(fr core.Frame) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames = append(f.frames, fr)
	return nil
}

func (f *fakeConn) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

func (f *fakeConn) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// typeCount counts received events of one wire type.
func (f *fakeConn) typeCount(eventType string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, fr := range f.frames {
		var env struct {
			Type string `json:"type"`
		}
		if json.Unmarshal(fr, &env) == nil && env.Type == eventType {
			n++
		}
	}
	return n
}

// lastOfType decodes the most recent event of one wire type into out.
func (f *fakeConn) lastOfType(eventType string, out any) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.frames) - 1; i >= 0; i-- {
		var env struct {
			Type string `json:"type"`
		}
		if json.Unmarshal(f.frames[i], &env) == nil && env.Type == eventType {
			return json.Unmarshal(f.frames[i], out) == nil
		}
	}
	return false
}

type harness struct {
	store    *store.Store
	registry *Registry
	groups   *core.GroupManager
	cleanup  *CleanupScheduler
	pipeline *Pipeline
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	st := store.New(rdb, time.Hour)
	registry := NewRegistry()
	groups := core.NewGroupManager()
	cleanup := NewCleanupScheduler(st, testCleanupDelay)
	t.Cleanup(cleanup.Shutdown)

	pipeline := &Pipeline{
		Store:     st,
		Registry:  registry,
		Groups:    groups,
		Cleanup:   cleanup,
		Validate:  domain.NewValidator(),
		UndoDepth: 8,
	}

	ctx, cancel := context.WithCancel(context.Background())
	bridge := NewBridge(st, groups)
	go bridge.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-bridge.Done()
	})

	return &harness{
		store:    st,
		registry: registry,
		groups:   groups,
		cleanup:  cleanup,
		pipeline: pipeline,
	}
}

// connect binds a fresh session the way the ws adapter would.
func (h *harness) connect(sid core.SessionID) *fakeConn {
	conn := &fakeConn{}
	user := h.registry.GetOrCreateUser(sid)
	h.registry.Bind(sid, core.NewMemberSession(user, conn), nil)
	return conn
}

func pen(x, y float64, strokeID string) domain.Stroke {
	return domain.Stroke{
		From:      domain.Point{X: x, Y: y},
		To:        domain.Point{X: x + 10, Y: y + 10},
		Color:     "#000000",
		LineWidth: 2,
		Tool:      domain.ToolPen,
		StrokeID:  strokeID,
	}
}
