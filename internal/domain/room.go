// Package domain contains the whiteboard entities and their validation
// rules. No transport or storage logic here.
package domain

import "errors"

const MaxRoomIDLen = 64

var (
	ErrInvalidRoomID   = errors.New("invalid room id")
	ErrInvalidStroke   = errors.New("invalid stroke")
	ErrInvalidSnapshot = errors.New("invalid snapshot")
	ErrNotInRoom       = errors.New("not in a room")
)

type RoomID string
