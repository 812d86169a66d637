// Package events holds the browser-shaped event payloads handed to
// component handlers, and their conversion into diagram events.
// The JSON names match the DOM event properties so payloads forwarded by
// the remote client decode directly.
package events

import "github.com/vcrobe/nojs-diagrams/diagram"

// PointerEventArgs mirrors the DOM PointerEvent.
type PointerEventArgs struct {
	ClientX     float64 `json:"clientX"`
	ClientY     float64 `json:"clientY"`
	Button      int     `json:"button"`
	Buttons     int     `json:"buttons"`
	CtrlKey     bool    `json:"ctrlKey"`
	ShiftKey    bool    `json:"shiftKey"`
	AltKey      bool    `json:"altKey"`
	MetaKey     bool    `json:"metaKey"`
	PointerID   int     `json:"pointerId"`
	PointerType string  `json:"pointerType"`
	IsPrimary   bool    `json:"isPrimary"`
}

// ToCore converts the payload into the diagram representation.
func (e PointerEventArgs) ToCore() diagram.PointerEvent {
	return diagram.PointerEvent{
		ClientX:   e.ClientX,
		ClientY:   e.ClientY,
		Button:    e.Button,
		Buttons:   e.Buttons,
		CtrlKey:   e.CtrlKey,
		ShiftKey:  e.ShiftKey,
		AltKey:    e.AltKey,
		MetaKey:   e.MetaKey,
		PointerID: e.PointerID,
		Type:      e.PointerType,
		IsPrimary: e.IsPrimary,
	}
}

// WheelEventArgs mirrors the DOM WheelEvent.
type WheelEventArgs struct {
	PointerEventArgs
	DeltaX    float64 `json:"deltaX"`
	DeltaY    float64 `json:"deltaY"`
	DeltaZ    float64 `json:"deltaZ"`
	DeltaMode int     `json:"deltaMode"`
}

// ToCore converts the payload into the diagram representation.
func (e WheelEventArgs) ToCore() diagram.WheelEvent {
	return diagram.WheelEvent{
		PointerEvent: e.PointerEventArgs.ToCore(),
		DeltaX:       e.DeltaX,
		DeltaY:       e.DeltaY,
		DeltaZ:       e.DeltaZ,
		DeltaMode:    e.DeltaMode,
	}
}

// KeyboardEventArgs mirrors the DOM KeyboardEvent.
type KeyboardEventArgs struct {
	Key      string `json:"key"`
	Code     string `json:"code"`
	Location int    `json:"location"`
	CtrlKey  bool   `json:"ctrlKey"`
	ShiftKey bool   `json:"shiftKey"`
	AltKey   bool   `json:"altKey"`
	MetaKey  bool   `json:"metaKey"`
	Repeat   bool   `json:"repeat"`
}

// ToCore converts the payload into the diagram representation.
func (e KeyboardEventArgs) ToCore() diagram.KeyboardEvent {
	return diagram.KeyboardEvent{
		Key:      e.Key,
		Code:     e.Code,
		Location: e.Location,
		CtrlKey:  e.CtrlKey,
		ShiftKey: e.ShiftKey,
		AltKey:   e.AltKey,
		MetaKey:  e.MetaKey,
		Repeat:   e.Repeat,
	}
}

// Handler names as they appear in vdom attributes.
const (
	PointerDown = "onPointerdown"
	PointerMove = "onPointermove"
	PointerUp   = "onPointerup"
	Wheel       = "onWheel"
	KeyDown     = "onKeydown"
)
