package vdom

import (
	"errors"
	"fmt"

	"github.com/vcrobe/nojs-diagrams/events"
)

// ErrNoHandler is returned when an event targets an element without a
// handler for it.
var ErrNoHandler = errors.New("vdom: no handler for event")

// Dispatch finds the element carrying ref id under root and calls its
// handler for event. decode fills the typed payload the handler expects.
func Dispatch(root *VNode, id, event string, decode func(any) error) error {
	n := Find(root, id)
	if n == nil {
		return fmt.Errorf("%w: %s on unknown element %q", ErrNoHandler, event, id)
	}
	h, ok := n.Handlers()[event]
	if !ok {
		return fmt.Errorf("%w: %s on %q", ErrNoHandler, event, id)
	}
	return Invoke(h, decode)
}

// Invoke calls a typed handler after decoding its payload.
func Invoke(handler any, decode func(any) error) error {
	switch h := handler.(type) {
	case func():
		h()
	case func(events.PointerEventArgs):
		var args events.PointerEventArgs
		if err := decode(&args); err != nil {
			return fmt.Errorf("decode pointer event: %w", err)
		}
		h(args)
	case func(events.WheelEventArgs):
		var args events.WheelEventArgs
		if err := decode(&args); err != nil {
			return fmt.Errorf("decode wheel event: %w", err)
		}
		h(args)
	case func(events.KeyboardEventArgs):
		var args events.KeyboardEventArgs
		if err := decode(&args); err != nil {
			return fmt.Errorf("decode keyboard event: %w", err)
		}
		h(args)
	default:
		return fmt.Errorf("unsupported handler type %T", handler)
	}
	return nil
}
