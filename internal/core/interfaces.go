package core

import "github.com/liviocandman/interative-whiteboard-sub000/internal/domain"

// Frame is an encoded outbound event ready for the transport.
type Frame []byte

// SessionID identifies one connection. A user may reconnect with the same
// client token, so SessionID doubles as the user identity.
type SessionID string

// SignalConnection abstracts the event transport for one connection.
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}

// MemberSession binds a user's meta to its transport endpoint.
// This is what a room group stores and fans out to.
type MemberSession interface {
	User() *domain.User
	Signal() SignalConnection
}

// PublishResult reports delivery stats and backpressure to the caller.
type PublishResult struct {
	SentTo  int
	Dropped []SessionID
}

// MemberDTO is a read-only view for responses (no transport fields).
type MemberDTO struct {
	ID       domain.UserID `json:"id"`
	Username string        `json:"username"`
}
