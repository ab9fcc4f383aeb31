package app

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/liviocandman/interative-whiteboard-sub000/internal/core"
	"github.com/liviocandman/interative-whiteboard-sub000/internal/domain"
)

type sessionEntry struct {
	RoomID       domain.RoomID
	Session      core.MemberSession
	Cancel       context.CancelFunc
	LastActivity time.Time
}

// Registry is the per-process session and presence record: which room each
// connection is bound to and when it was last heard from. One instance is
// constructed at startup and passed to everything that needs it.
type Registry struct {
	mu       sync.RWMutex
	sessions map[core.SessionID]*sessionEntry
	users    map[core.SessionID]*domain.User
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[core.SessionID]*sessionEntry),
		users:    make(map[core.SessionID]*domain.User),
	}
}

func (r *Registry) GetOrCreateUser(sid core.SessionID) *domain.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[sid]; ok {
		return u
	}
	u := domain.NewUser(domain.UserID(sid))
	r.users[sid] = u
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("created new user")
	return u
}

func (r *Registry) UpdateUsername(sid core.SessionID, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[sid]; ok {
		if err := u.SetUsername(name); err != nil {
			log.Warn().Err(err).Str("module", "app.registry").Str("sid", string(sid)).Msg("rejected username")
			return
		}
		log.Info().Str("module", "app.registry").Str("sid", string(sid)).Str("username", name).Msg("updated username")
	}
}

// Bind registers a freshly connected session, unbound from any room.
func (r *Registry) Bind(sid core.SessionID, sess core.MemberSession, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sid] = &sessionEntry{
		Session:      sess,
		Cancel:       cancel,
		LastActivity: time.Now(),
	}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("bound session")
}

func (r *Registry) GetSession(sid core.SessionID) (core.MemberSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.sessions[sid]; ok {
		return e.Session, true
	}
	return nil, false
}

// Unbind removes the session record entirely. Terminal: used on disconnect.
func (r *Registry) Unbind(sid core.SessionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sid)
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("unbound session")
}

// RoomOf reports the room the connection is currently a member of, if any.
func (r *Registry) RoomOf(sid core.SessionID) (domain.RoomID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.sessions[sid]
	if !ok || e.RoomID == "" {
		return "", false
	}
	return e.RoomID, true
}

// SetRoom binds the session to a room. A connection is a member of at most
// one room; the pipeline leaves the old room before calling this.
func (r *Registry) SetRoom(sid core.SessionID, roomID domain.RoomID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[sid]
	if !ok {
		return false
	}
	e.RoomID = roomID
	e.LastActivity = time.Now()
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Str("room", string(roomID)).Msg("session joined room")
	return true
}

func (r *Registry) ClearRoom(sid core.SessionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.sessions[sid]; ok {
		e.RoomID = ""
	}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("session left room")
}

// Touch refreshes the session's last-activity timestamp.
func (r *Registry) Touch(sid core.SessionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.sessions[sid]; ok {
		e.LastActivity = time.Now()
	}
}

type MemberSnap struct {
	SID     core.SessionID
	Session core.MemberSession
}

// MembersOfRoom lists the sessions of a room connected to this process.
func (r *Registry) MembersOfRoom(roomID domain.RoomID) []MemberSnap {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]MemberSnap, 0, len(r.sessions))
	for sid, e := range r.sessions {
		if e.RoomID == roomID {
			out = append(out, MemberSnap{SID: sid, Session: e.Session})
		}
	}
	return out
}

// IdleSince returns sessions whose last activity is older than the cutoff.
func (r *Registry) IdleSince(cutoff time.Time) []core.SessionID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []core.SessionID
	for sid, e := range r.sessions {
		if e.LastActivity.Before(cutoff) {
			out = append(out, sid)
		}
	}
	return out
}

// CancelSession fires the session's cancel func, tearing down its pumps.
func (r *Registry) CancelSession(sid core.SessionID) bool {
	r.mu.RLock()
	e, ok := r.sessions[sid]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	if e.Cancel != nil {
		e.Cancel()
	}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("canceled session")
	return true
}
