package app

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liviocandman/interative-whiteboard-sub000/internal/domain"
	"github.com/liviocandman/interative-whiteboard-sub000/internal/store"
)

func newCleanupFixture(t *testing.T) (*CleanupScheduler, *store.Store) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	st := store.New(rdb, time.Hour)
	sched := NewCleanupScheduler(st, testCleanupDelay)
	t.Cleanup(sched.Shutdown)
	return sched, st
}

func TestScheduleAtMostOnePerRoom(t *testing.T) {
	sched, _ := newCleanupFixture(t)

	assert.True(t, sched.Schedule("r1"))
	assert.False(t, sched.Schedule("r1"))
	assert.True(t, sched.Pending("r1"))
}

func TestCancelIsIdempotent(t *testing.T) {
	sched, _ := newCleanupFixture(t)

	sched.Schedule("r1")
	assert.True(t, sched.Cancel("r1"))
	assert.False(t, sched.Cancel("r1"))
	assert.False(t, sched.Pending("r1"))

	// A canceled room can be scheduled again.
	assert.True(t, sched.Schedule("r1"))
}

func TestFireDeletesEmptyRoom(t *testing.T) {
	sched, st := newCleanupFixture(t)
	ctx := context.Background()

	_, err := st.AddMember(ctx, "r1", "u1")
	require.NoError(t, err)
	_, err = st.RemoveMember(ctx, "r1", "u1")
	require.NoError(t, err)
	require.NoError(t, st.AppendStroke(ctx, "r1", pen(0, 0, "")))

	sched.Schedule("r1")

	require.Eventually(t, func() bool {
		exists, err := st.RoomExists(ctx, "r1")
		return err == nil && !exists
	}, 2*time.Second, 10*time.Millisecond)
	assert.False(t, sched.Pending("r1"))
}

func TestFireAbortsWhenRoomRepopulated(t *testing.T) {
	sched, st := newCleanupFixture(t)
	ctx := context.Background()

	require.NoError(t, st.AppendStroke(ctx, "r1", pen(0, 0, "")))

	// A join lands before the timer fires.
	_, err := st.AddMember(ctx, "r1", "u2")
	require.NoError(t, err)
	sched.Schedule("r1")

	require.Eventually(t, func() bool {
		return !sched.Pending("r1")
	}, 2*time.Second, 10*time.Millisecond)

	strokes, err := st.Strokes(ctx, "r1")
	require.NoError(t, err)
	assert.Len(t, strokes, 1, "occupied room survives the timer")
}

func TestShutdownReturnsAfterCanceledAndFiredJobs(t *testing.T) {
	sched, st := newCleanupFixture(t)
	ctx := context.Background()

	require.NoError(t, st.AppendStroke(ctx, "r1", pen(0, 0, "")))
	sched.Schedule("r1")
	require.True(t, sched.Cancel("r1"))

	sched.Schedule("r2")
	require.Eventually(t, func() bool {
		return !sched.Pending("r2")
	}, 2*time.Second, 10*time.Millisecond)

	done := make(chan struct{})
	go func() {
		sched.Shutdown()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("shutdown did not return, job accounting is unbalanced")
	}

	exists, err := st.RoomExists(ctx, "r1")
	require.NoError(t, err)
	assert.True(t, exists, "canceled job must not delete the room")
}

func TestShutdownCancelsPendingJobs(t *testing.T) {
	sched, st := newCleanupFixture(t)
	ctx := context.Background()

	require.NoError(t, st.AppendStroke(ctx, "r1", pen(0, 0, "")))
	require.NoError(t, st.AppendStroke(ctx, "r2", pen(0, 0, "")))
	sched.Schedule("r1")
	sched.Schedule("r2")

	sched.Shutdown()
	assert.False(t, sched.Pending("r1"))
	assert.False(t, sched.Pending("r2"))

	time.Sleep(2 * testCleanupDelay)
	for _, room := range []domain.RoomID{"r1", "r2"} {
		exists, err := st.RoomExists(ctx, room)
		require.NoError(t, err)
		assert.True(t, exists, "shutdown must not delete rooms")
	}
}
