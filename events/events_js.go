//go:build js || wasm

package events

import (
	"fmt"
	"syscall/js"

	"github.com/hack-pad/safejs"
)

// PointerFromJS reads a DOM PointerEvent.
func PointerFromJS(v js.Value) (PointerEventArgs, error) {
	r := &reader{v: safejs.Safe(v)}
	e := r.pointer()
	return e, r.err
}

// WheelFromJS reads a DOM WheelEvent.
func WheelFromJS(v js.Value) (WheelEventArgs, error) {
	r := &reader{v: safejs.Safe(v)}
	e := WheelEventArgs{
		PointerEventArgs: r.pointer(),
		DeltaX:           r.float("deltaX"),
		DeltaY:           r.float("deltaY"),
		DeltaZ:           r.float("deltaZ"),
		DeltaMode:        r.int("deltaMode"),
	}
	return e, r.err
}

// KeyboardFromJS reads a DOM KeyboardEvent.
func KeyboardFromJS(v js.Value) (KeyboardEventArgs, error) {
	r := &reader{v: safejs.Safe(v)}
	e := KeyboardEventArgs{
		Key:      r.string("key"),
		Code:     r.string("code"),
		Location: r.int("location"),
		CtrlKey:  r.bool("ctrlKey"),
		ShiftKey: r.bool("shiftKey"),
		AltKey:   r.bool("altKey"),
		MetaKey:  r.bool("metaKey"),
		Repeat:   r.bool("repeat"),
	}
	return e, r.err
}

// reader keeps the first error and turns every later read into a no-op.
type reader struct {
	v   safejs.Value
	err error
}

func (r *reader) pointer() PointerEventArgs {
	return PointerEventArgs{
		ClientX:     r.float("clientX"),
		ClientY:     r.float("clientY"),
		Button:      r.int("button"),
		Buttons:     r.int("buttons"),
		CtrlKey:     r.bool("ctrlKey"),
		ShiftKey:    r.bool("shiftKey"),
		AltKey:      r.bool("altKey"),
		MetaKey:     r.bool("metaKey"),
		PointerID:   r.int("pointerId"),
		PointerType: r.string("pointerType"),
		IsPrimary:   r.bool("isPrimary"),
	}
}

func (r *reader) prop(name string) (safejs.Value, bool) {
	if r.err != nil {
		return safejs.Value{}, false
	}
	p, err := r.v.Get(name)
	if err != nil {
		r.err = fmt.Errorf("read event.%s: %w", name, err)
		return safejs.Value{}, false
	}
	if p.IsUndefined() || p.IsNull() {
		return safejs.Value{}, false
	}
	return p, true
}

func (r *reader) float(name string) float64 {
	p, ok := r.prop(name)
	if !ok {
		return 0
	}
	f, err := p.Float()
	if err != nil {
		r.err = fmt.Errorf("read event.%s: %w", name, err)
	}
	return f
}

func (r *reader) int(name string) int {
	return int(r.float(name))
}

func (r *reader) bool(name string) bool {
	p, ok := r.prop(name)
	if !ok {
		return false
	}
	b, err := p.Truthy()
	if err != nil {
		r.err = fmt.Errorf("read event.%s: %w", name, err)
	}
	return b
}

func (r *reader) string(name string) string {
	p, ok := r.prop(name)
	if !ok {
		return ""
	}
	s, err := p.String()
	if err != nil {
		r.err = fmt.Errorf("read event.%s: %w", name, err)
	}
	return s
}
