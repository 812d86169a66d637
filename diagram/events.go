package diagram

// Model is anything the diagram can dispatch an input event against.
// A nil Model means the canvas background.
type Model interface {
	ID() string
}

// PointerEvent is the library representation of a pointer (mouse, pen,
// touch) event.
type PointerEvent struct {
	ClientX   float64
	ClientY   float64
	Button    int
	Buttons   int
	CtrlKey   bool
	ShiftKey  bool
	AltKey    bool
	MetaKey   bool
	PointerID int
	Type      string
	IsPrimary bool
}

// Position returns the client position of the pointer.
func (e PointerEvent) Position() Point {
	return Point{X: e.ClientX, Y: e.ClientY}
}

// WheelEvent is a pointer event with scroll deltas.
type WheelEvent struct {
	PointerEvent
	DeltaX    float64
	DeltaY    float64
	DeltaZ    float64
	DeltaMode int
}

// KeyboardEvent is the library representation of a key press.
type KeyboardEvent struct {
	Key      string
	Code     string
	Location int
	CtrlKey  bool
	ShiftKey bool
	AltKey   bool
	MetaKey  bool
	Repeat   bool
}
