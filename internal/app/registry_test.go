package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liviocandman/interative-whiteboard-sub000/internal/core"
	"github.com/liviocandman/interative-whiteboard-sub000/internal/domain"
)

func TestRegistryUserIdentity(t *testing.T) {
	r := NewRegistry()

	u := r.GetOrCreateUser("s1")
	assert.Equal(t, domain.UserID("s1"), u.ID)
	assert.Equal(t, "guest", u.Username)
	assert.Same(t, u, r.GetOrCreateUser("s1"))

	r.UpdateUsername("s1", "alice")
	assert.Equal(t, "alice", r.GetOrCreateUser("s1").Username)

	// Oversized names are rejected, the previous one survives.
	r.UpdateUsername("s1", string(make([]byte, domain.MaxUsernameLen+1)))
	assert.Equal(t, "alice", r.GetOrCreateUser("s1").Username)
}

func TestRegistryBindAndRoomBinding(t *testing.T) {
	r := NewRegistry()
	sess := core.NewMemberSession(domain.NewUser("s1"), &fakeConn{})

	_, ok := r.GetSession("s1")
	assert.False(t, ok)

	r.Bind("s1", sess, nil)
	got, ok := r.GetSession("s1")
	require.True(t, ok)
	assert.Equal(t, sess, got)

	_, bound := r.RoomOf("s1")
	assert.False(t, bound, "fresh session is unbound")

	assert.True(t, r.SetRoom("s1", "r1"))
	roomID, bound := r.RoomOf("s1")
	require.True(t, bound)
	assert.Equal(t, domain.RoomID("r1"), roomID)

	r.ClearRoom("s1")
	_, bound = r.RoomOf("s1")
	assert.False(t, bound)

	r.Unbind("s1")
	_, ok = r.GetSession("s1")
	assert.False(t, ok)
	assert.False(t, r.SetRoom("s1", "r1"))
}

func TestRegistryMembersOfRoom(t *testing.T) {
	r := NewRegistry()
	for _, sid := range []core.SessionID{"a", "b", "c"} {
		r.Bind(sid, core.NewMemberSession(domain.NewUser(domain.UserID(sid)), &fakeConn{}), nil)
	}
	r.SetRoom("a", "r1")
	r.SetRoom("b", "r1")
	r.SetRoom("c", "r2")

	members := r.MembersOfRoom("r1")
	require.Len(t, members, 2)
	sids := []core.SessionID{members[0].SID, members[1].SID}
	assert.ElementsMatch(t, []core.SessionID{"a", "b"}, sids)
}

func TestRegistryIdleSince(t *testing.T) {
	r := NewRegistry()
	r.Bind("stale", core.NewMemberSession(domain.NewUser("stale"), &fakeConn{}), nil)
	r.Bind("fresh", core.NewMemberSession(domain.NewUser("fresh"), &fakeConn{}), nil)

	time.Sleep(20 * time.Millisecond)
	cutoff := time.Now()
	r.Touch("fresh")

	idle := r.IdleSince(cutoff)
	assert.Equal(t, []core.SessionID{"stale"}, idle)
}

func TestRegistryCancelSession(t *testing.T) {
	r := NewRegistry()

	var canceled bool
	r.Bind("s1", core.NewMemberSession(domain.NewUser("s1"), &fakeConn{}), func() { canceled = true })

	assert.True(t, r.CancelSession("s1"))
	assert.True(t, canceled)
	assert.False(t, r.CancelSession("nope"))
}
