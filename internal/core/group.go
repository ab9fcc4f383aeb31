package core

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/liviocandman/interative-whiteboard-sub000/internal/domain"
)

// Group is the threadsafe set of connections in one room that are attached
// to *this* process. The authoritative cross-process membership lives in
// the shared store; the group only answers "who in this room is mine" for
// local fan-out. It never closes adapter-owned connections.
type Group struct {
	roomID domain.RoomID
	mu     sync.RWMutex
	bySID  map[SessionID]MemberSession
}

func NewGroup(roomID domain.RoomID) *Group {
	return &Group{
		roomID: roomID,
		bySID:  make(map[SessionID]MemberSession),
	}
}

func (g *Group) RoomID() domain.RoomID { return g.roomID }

func (g *Group) MemberCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.bySID)
}

func (g *Group) AddMember(sid SessionID, ms MemberSession) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.bySID[sid] = ms
	log.Info().Str("module", "core.group").Str("room", string(g.roomID)).Str("sid", string(sid)).Msg("local member added")
}

func (g *Group) RemoveMember(sid SessionID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.bySID, sid)
	log.Info().Str("module", "core.group").Str("room", string(g.roomID)).Str("sid", string(sid)).Msg("local member removed")
}

// Broadcast delivers a frame to every local member except from. Sends are
// non-blocking; slow consumers are reported, not waited for.
func (g *Group) Broadcast(from SessionID, data Frame) PublishResult {
	res := g.deliver(data, true, from)
	log.Debug().Str("module", "core.group").Str("room", string(g.roomID)).Str("from", string(from)).Int("sent_to", res.SentTo).Int("dropped", len(res.Dropped)).Msg("broadcast result")
	return res
}

// BroadcastAll delivers to every local member, the originator included,
// used for full-state resyncs where everyone must converge. No session id
// is treated as a sentinel; delivery is unconditional.
func (g *Group) BroadcastAll(data Frame) PublishResult {
	res := g.deliver(data, false, "")
	log.Debug().Str("module", "core.group").Str("room", string(g.roomID)).Int("sent_to", res.SentTo).Int("dropped", len(res.Dropped)).Msg("broadcast result")
	return res
}

func (g *Group) deliver(data Frame, excludeFrom bool, from SessionID) PublishResult {
	g.mu.RLock()
	defer g.mu.RUnlock()
	res := PublishResult{}
	for sid, m := range g.bySID {
		if excludeFrom && sid == from {
			continue
		}
		if err := m.Signal().TrySend(data); err != nil {
			res.Dropped = append(res.Dropped, sid)
			continue
		}
		res.SentTo++
	}
	return res
}

func (g *Group) MembersSnapshot() []MemberDTO {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]MemberDTO, 0, len(g.bySID))
	for _, ms := range g.bySID {
		u := ms.User()
		out = append(out, MemberDTO{ID: u.ID, Username: u.Username})
	}
	return out
}
