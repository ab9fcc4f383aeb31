package core

import (
	"sync"

	"github.com/liviocandman/interative-whiteboard-sub000/internal/domain"
)

// GroupManager owns this process's local room groups.
type GroupManager struct {
	mu     sync.RWMutex
	groups map[domain.RoomID]*Group
}

func NewGroupManager() *GroupManager {
	return &GroupManager{groups: make(map[domain.RoomID]*Group)}
}

func (gm *GroupManager) GetOrCreate(roomID domain.RoomID) *Group {
	gm.mu.RLock()
	g, ok := gm.groups[roomID]
	gm.mu.RUnlock()
	if ok {
		return g
	}

	gm.mu.Lock()
	defer gm.mu.Unlock()
	if g, ok = gm.groups[roomID]; !ok {
		g = NewGroup(roomID)
		gm.groups[roomID] = g
	}
	return g
}

// Get returns nil when no local member has touched the room.
func (gm *GroupManager) Get(roomID domain.RoomID) *Group {
	gm.mu.RLock()
	defer gm.mu.RUnlock()
	return gm.groups[roomID]
}

// Drop removes the group when its last local member is gone.
func (gm *GroupManager) Drop(roomID domain.RoomID) {
	gm.mu.Lock()
	defer gm.mu.Unlock()
	if g, ok := gm.groups[roomID]; ok && g.MemberCount() == 0 {
		delete(gm.groups, roomID)
	}
}

func (gm *GroupManager) List() []domain.RoomID {
	gm.mu.RLock()
	defer gm.mu.RUnlock()
	out := make([]domain.RoomID, 0, len(gm.groups))
	for id := range gm.groups {
		out = append(out, id)
	}
	return out
}
