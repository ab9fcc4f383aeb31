package core

import (
	"encoding/json"

	"github.com/liviocandman/interative-whiteboard-sub000/internal/domain"
)

// Outbound event types shared by the ws adapter and the fan-out bridge.

type StrokeEvent struct {
	Type    string          `json:"type"`
	Strokes []domain.Stroke `json:"strokes"`
}

type ClearBoardEvent struct {
	Type string `json:"type"`
}

// RoomStateEvent carries the full canvas state: sent on join and on the
// full resync that follows undo/redo.
type RoomStateEvent struct {
	Type    string             `json:"type"`
	Room    domain.RoomID      `json:"room"`
	State   domain.CanvasState `json:"state"`
	Members []MemberDTO        `json:"members,omitempty"`
	Count   int64              `json:"count,omitempty"`
}

type ErrorEvent struct {
	Type    string `json:"type"`
	Event   string `json:"event"`
	Message string `json:"message"`
}

func NewStrokeEvent(strokes []domain.Stroke) StrokeEvent {
	return StrokeEvent{Type: "stroke", Strokes: strokes}
}

func NewClearBoardEvent() ClearBoardEvent {
	return ClearBoardEvent{Type: "clear_board"}
}

func NewRoomStateEvent(roomID domain.RoomID, state domain.CanvasState) RoomStateEvent {
	return RoomStateEvent{Type: "room_state", Room: roomID, State: state}
}

func NewErrorEvent(event, message string) ErrorEvent {
	return ErrorEvent{Type: "error", Event: event, Message: message}
}

// InactivityEvent tells a connection it is being dropped for idling.
type InactivityEvent struct {
	Type string `json:"type"`
}

func NewInactivityEvent() InactivityEvent {
	return InactivityEvent{Type: "removed_due_to_inactivity"}
}

// EncodeFrame is the one place outbound events become transport frames.
func EncodeFrame(v any) (Frame, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return Frame(b), nil
}
