package domain

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validStroke() Stroke {
	return Stroke{
		From:      Point{X: 0, Y: 0},
		To:        Point{X: 10, Y: 10},
		Color:     "#000000",
		LineWidth: 2,
		Tool:      ToolPen,
	}
}

func TestValidatorStroke(t *testing.T) {
	val := NewValidator()

	s := validStroke()
	require.NoError(t, val.Stroke(&s))

	cases := map[string]func(*Stroke){
		"nan coordinate":      func(s *Stroke) { s.From.X = math.NaN() },
		"inf coordinate":      func(s *Stroke) { s.To.Y = math.Inf(1) },
		"empty color":         func(s *Stroke) { s.Color = "" },
		"bad hex color":       func(s *Stroke) { s.Color = "#zzz" },
		"bare word color":     func(s *Stroke) { s.Color = "black" },
		"zero line width":     func(s *Stroke) { s.LineWidth = 0 },
		"negative line width": func(s *Stroke) { s.LineWidth = -3 },
		"huge line width":     func(s *Stroke) { s.LineWidth = MaxLineWidth + 1 },
		"nan line width":      func(s *Stroke) { s.LineWidth = math.NaN() },
		"unknown tool":        func(s *Stroke) { s.Tool = "spraycan" },
		"empty tool":          func(s *Stroke) { s.Tool = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			s := validStroke()
			mutate(&s)
			err := val.Stroke(&s)
			assert.ErrorIs(t, err, ErrInvalidStroke)
		})
	}
}

func TestValidatorStrokeColorForms(t *testing.T) {
	val := NewValidator()

	for _, color := range []string{"#000", "#A1B2C3", "rgb(255, 0, 0)", "rgba(0, 0, 0, 0.5)"} {
		s := validStroke()
		s.Color = color
		assert.NoError(t, val.Stroke(&s), color)
	}
}

func TestValidatorNilAndEmptyBatch(t *testing.T) {
	val := NewValidator()

	assert.ErrorIs(t, val.Stroke(nil), ErrInvalidStroke)
	assert.ErrorIs(t, val.Batch(nil), ErrInvalidStroke)

	bad := validStroke()
	bad.Tool = "nope"
	assert.ErrorIs(t, val.Batch([]Stroke{validStroke(), bad}), ErrInvalidStroke)
}

func TestValidatorRoomID(t *testing.T) {
	val := NewValidator()

	assert.NoError(t, val.RoomID("room-1"))
	assert.NoError(t, val.RoomID("A_b-9"))

	for _, id := range []RoomID{
		"",
		"has space",
		"semi;colon",
		"colon:room",
		RoomID(strings.Repeat("x", MaxRoomIDLen+1)),
	} {
		assert.ErrorIs(t, val.RoomID(id), ErrInvalidRoomID, string(id))
	}
}

func TestValidatorSnapshot(t *testing.T) {
	val := NewValidator()

	assert.NoError(t, val.Snapshot([]byte("blob"), 16))
	assert.ErrorIs(t, val.Snapshot(nil, 16), ErrInvalidSnapshot)
	assert.ErrorIs(t, val.Snapshot([]byte("way too large blob"), 4), ErrInvalidSnapshot)
}
