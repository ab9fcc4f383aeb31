package domain

// MaxLineWidth bounds the lineWidth accepted from clients.
// Keep in sync with the lte tag on Stroke.LineWidth.
const MaxLineWidth = 200

type Tool string

const (
	ToolPen     Tool = "pen"
	ToolEraser  Tool = "eraser"
	ToolBucket  Tool = "bucket"
	ToolLine    Tool = "line"
	ToolRect    Tool = "rect"
	ToolEllipse Tool = "ellipse"
)

func KnownTool(t Tool) bool {
	switch t {
	case ToolPen, ToolEraser, ToolBucket, ToolLine, ToolRect, ToolEllipse:
		return true
	}
	return false
}

type Point struct {
	X float64 `json:"x" validate:"finite"`
	Y float64 `json:"y" validate:"finite"`
}

// Stroke is one atomic drawing operation with enough data to replay it.
// Immutable once appended to a room's log; undo removes it, redo re-appends
// it. StrokeID groups segment-strokes into one logical gesture so undo can
// pull the whole gesture at once.
type Stroke struct {
	From      Point   `json:"from"`
	To        Point   `json:"to"`
	Color     string  `json:"color" validate:"required,hexcolor|rgb|rgba"`
	LineWidth float64 `json:"lineWidth" validate:"finite,gt=0,lte=200"`
	Tool      Tool    `json:"tool" validate:"tool"`
	Timestamp int64   `json:"timestamp,omitempty"`
	UserID    UserID  `json:"userId,omitempty"`
	StrokeID  string  `json:"strokeId,omitempty"`
}

// CanvasState is what a joiner needs to reconstruct the board: replay
// Strokes onto Snapshot (blank canvas when nil). The engine never
// interprets the snapshot bytes, it only stores and hands them back.
type CanvasState struct {
	Snapshot []byte   `json:"snapshot,omitempty"`
	Strokes  []Stroke `json:"strokes"`
}
