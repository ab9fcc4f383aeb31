package domain

import (
	"fmt"
	"math"
	"regexp"

	"github.com/go-playground/validator/v10"
)

// Room ids are a shared namespace, so the charset stays URL- and
// channel-name-safe.
var roomIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Validator performs the stateless payload checks. Any failure is reported
// as an error value, never a panic; callers treat invalid input as a
// first-class outcome and keep the connection alive.
type Validator struct {
	v *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New()

	// hexcolor/rgb/rgba are built in; finite and tool are ours.
	_ = v.RegisterValidation("finite", func(fl validator.FieldLevel) bool {
		f := fl.Field().Float()
		return !math.IsNaN(f) && !math.IsInf(f, 0)
	})
	_ = v.RegisterValidation("tool", func(fl validator.FieldLevel) bool {
		return KnownTool(Tool(fl.Field().String()))
	})

	return &Validator{v: v}
}

func (val *Validator) RoomID(id RoomID) error {
	if len(id) == 0 || len(id) > MaxRoomIDLen || !roomIDPattern.MatchString(string(id)) {
		return fmt.Errorf("%w: %q", ErrInvalidRoomID, id)
	}
	return nil
}

func (val *Validator) Stroke(s *Stroke) error {
	if s == nil {
		return fmt.Errorf("%w: nil", ErrInvalidStroke)
	}
	if err := val.v.Struct(s); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidStroke, err)
	}
	return nil
}

// Batch checks every segment of a multi-segment gesture.
func (val *Validator) Batch(strokes []Stroke) error {
	if len(strokes) == 0 {
		return fmt.Errorf("%w: empty batch", ErrInvalidStroke)
	}
	for i := range strokes {
		if err := val.Stroke(&strokes[i]); err != nil {
			return err
		}
	}
	return nil
}

func (val *Validator) Snapshot(blob []byte, maxBytes int) error {
	if len(blob) == 0 {
		return fmt.Errorf("%w: empty", ErrInvalidSnapshot)
	}
	if maxBytes > 0 && len(blob) > maxBytes {
		return fmt.Errorf("%w: %d bytes over limit", ErrInvalidSnapshot, len(blob))
	}
	return nil
}
