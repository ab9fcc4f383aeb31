package core

import "github.com/liviocandman/interative-whiteboard-sub000/internal/domain"

// memberSession implements MemberSession by pairing user meta + transport.
type memberSession struct {
	user *domain.User
	conn SignalConnection
}

func NewMemberSession(user *domain.User, conn SignalConnection) MemberSession {
	return &memberSession{user: user, conn: conn}
}

func (m *memberSession) User() *domain.User       { return m.user }
func (m *memberSession) Signal() SignalConnection { return m.conn }
