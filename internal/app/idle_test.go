package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liviocandman/interative-whiteboard-sub000/internal/core"
)

func TestIdleSweepDisconnectsQuietSessions(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	conn := &fakeConn{}
	var canceled bool
	user := h.registry.GetOrCreateUser("a")
	h.registry.Bind("a", core.NewMemberSession(user, conn), func() { canceled = true })

	_, err := h.pipeline.Join(ctx, "a", "r1")
	require.NoError(t, err)

	w := &IdleWatcher{
		Registry: h.registry,
		Pipeline: h.pipeline,
		Timeout:  0,
		Interval: time.Minute,
	}
	time.Sleep(5 * time.Millisecond)
	w.sweep(ctx)

	assert.Equal(t, 1, conn.typeCount("removed_due_to_inactivity"))
	assert.True(t, conn.isClosed(), "sweep must close the transport, not just cancel")
	assert.True(t, canceled)

	_, ok := h.registry.GetSession("a")
	assert.False(t, ok)

	n, err := h.store.MemberCount(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
	assert.True(t, h.cleanup.Pending("r1"))
}

func TestIdleSweepSparesActiveSessions(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	conn := h.connect("a")
	_, err := h.pipeline.Join(ctx, "a", "r1")
	require.NoError(t, err)

	w := &IdleWatcher{
		Registry: h.registry,
		Pipeline: h.pipeline,
		Timeout:  time.Hour,
		Interval: time.Minute,
	}
	w.sweep(ctx)

	assert.False(t, conn.isClosed())
	assert.Equal(t, 0, conn.typeCount("removed_due_to_inactivity"))
	_, ok := h.registry.GetSession("a")
	assert.True(t, ok)

	n, err := h.store.MemberCount(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
