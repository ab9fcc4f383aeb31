package app

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/liviocandman/interative-whiteboard-sub000/internal/domain"
	"github.com/liviocandman/interative-whiteboard-sub000/internal/store"
)

const cleanupFireTimeout = 10 * time.Second

// CleanupScheduler defers deletion of a room's shared state after its
// membership reaches zero. At most one pending job per room; a rejoin
// before the delay elapses cancels the job. When a job fires it re-checks
// membership first, so a join that raced the timer silently aborts the
// deletion. That abort is expected behavior, not a fault.
type CleanupScheduler struct {
	store *store.Store
	delay time.Duration

	mu   sync.Mutex
	jobs map[domain.RoomID]*time.Timer
	wg   sync.WaitGroup
}

func NewCleanupScheduler(st *store.Store, delay time.Duration) *CleanupScheduler {
	return &CleanupScheduler{
		store: st,
		delay: delay,
		jobs:  make(map[domain.RoomID]*time.Timer),
	}
}

// Schedule queues a deferred deletion. Returns false when a job is already
// pending for the room. The wg entry is taken here, before the timer is
// armed, so Shutdown's Wait can never slip in between the timer firing and
// the job announcing itself.
func (c *CleanupScheduler) Schedule(roomID domain.RoomID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.jobs[roomID]; ok {
		return false
	}
	c.wg.Add(1)
	c.jobs[roomID] = time.AfterFunc(c.delay, func() { c.fire(roomID) })
	log.Info().Str("module", "app.cleanup").Str("room", string(roomID)).Dur("delay", c.delay).Msg("cleanup scheduled")
	return true
}

// Cancel removes a pending job. Canceling a non-existent job is a no-op.
// When Stop loses the race with the timer, fire already owns the wg entry
// and its membership re-check makes the late run harmless.
func (c *CleanupScheduler) Cancel(roomID domain.RoomID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.jobs[roomID]
	if !ok {
		return false
	}
	if t.Stop() {
		c.wg.Done()
	}
	delete(c.jobs, roomID)
	log.Info().Str("module", "app.cleanup").Str("room", string(roomID)).Msg("cleanup canceled")
	return true
}

func (c *CleanupScheduler) Pending(roomID domain.RoomID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.jobs[roomID]
	return ok
}

func (c *CleanupScheduler) fire(roomID domain.RoomID) {
	defer c.wg.Done()

	c.mu.Lock()
	delete(c.jobs, roomID)
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), cleanupFireTimeout)
	defer cancel()

	count, err := c.store.MemberCount(ctx, roomID)
	if err != nil {
		log.Error().Err(err).Str("module", "app.cleanup").Str("room", string(roomID)).Msg("membership re-check failed, leaving TTL backstop to expire the room")
		return
	}
	if count > 0 {
		// A join raced the timer.
		log.Info().Str("module", "app.cleanup").Str("room", string(roomID)).Int64("members", count).Msg("cleanup aborted, room no longer empty")
		return
	}

	if err := c.store.DeleteRoom(ctx, roomID); err != nil {
		log.Error().Err(err).Str("module", "app.cleanup").Str("room", string(roomID)).Msg("room deletion failed")
		return
	}
	log.Info().Str("module", "app.cleanup").Str("room", string(roomID)).Msg("room deleted")
}

// Shutdown cancels every pending job so a restart does not lose rooms
// prematurely, and waits for any in-flight deletion to finish.
func (c *CleanupScheduler) Shutdown() {
	c.mu.Lock()
	for roomID, t := range c.jobs {
		if t.Stop() {
			c.wg.Done()
		}
		delete(c.jobs, roomID)
	}
	c.mu.Unlock()
	c.wg.Wait()
	log.Info().Str("module", "app.cleanup").Msg("cleanup scheduler stopped")
}
