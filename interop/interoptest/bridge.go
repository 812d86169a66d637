// Package interoptest provides an in-memory interop.Bridge for tests.
package interoptest

import (
	"context"
	"fmt"
	"sync"

	"github.com/vcrobe/nojs-diagrams/diagram"
	"github.com/vcrobe/nojs-diagrams/interop"
	"github.com/vcrobe/nojs-diagrams/vdom"
)

// Call is one recorded bridge call.
type Call struct {
	Method  string
	Element vdom.ElementRef
	Ref     *interop.ObjectRef
}

// Outcome scripts the result of a method.
type Outcome struct {
	Status interop.Status
	Err    error
}

// Bridge records calls and answers them from a script. Calls made with a
// done context are answered with StatusCancelled and not recorded, the
// same as a real bridge.
type Bridge struct {
	mu       sync.Mutex
	registry *interop.Registry
	rect     diagram.Rect
	script   map[string]Outcome
	calls    []Call
}

var _ interop.Bridge = (*Bridge)(nil)

// New creates a fake whose element measures rect. registry receives the
// bindings made by ObserveResizes.
func New(registry *interop.Registry, rect diagram.Rect) *Bridge {
	return &Bridge{
		registry: registry,
		rect:     rect,
		script:   make(map[string]Outcome),
	}
}

// Script makes every later call of method return out.
func (b *Bridge) Script(method string, out Outcome) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.script[method] = out
}

// SetRect changes what GetBoundingClientRect reports.
func (b *Bridge) SetRect(rect diagram.Rect) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rect = rect
}

// Calls returns a copy of the recorded calls.
func (b *Bridge) Calls() []Call {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Call(nil), b.calls...)
}

// Count returns how many times method was called.
func (b *Bridge) Count(method string) int {
	n := 0
	for _, c := range b.Calls() {
		if c.Method == method {
			n++
		}
	}
	return n
}

func (b *Bridge) record(ctx context.Context, c Call) (Outcome, bool) {
	if st := interop.Precheck(ctx); st != interop.StatusOK {
		return Outcome{Status: st}, false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, c)
	return b.script[c.Method], true
}

// GetBoundingClientRect implements interop.Bridge.
func (b *Bridge) GetBoundingClientRect(ctx context.Context, el vdom.ElementRef) (diagram.Rect, interop.Status, error) {
	out, ok := b.record(ctx, Call{Method: interop.MethodGetBoundingClientRect, Element: el})
	if !ok || out.Status != interop.StatusOK || out.Err != nil {
		return diagram.Rect{}, out.Status, out.Err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.rect, interop.StatusOK, nil
}

// ObserveResizes implements interop.Bridge.
func (b *Bridge) ObserveResizes(ctx context.Context, el vdom.ElementRef, ref *interop.ObjectRef) (interop.Status, error) {
	out, ok := b.record(ctx, Call{Method: interop.MethodObserveResizes, Element: el, Ref: ref})
	if ok && out.Status == interop.StatusOK && out.Err == nil {
		b.registry.Bind(el, ref)
	}
	return out.Status, out.Err
}

// UnobserveResizes implements interop.Bridge.
func (b *Bridge) UnobserveResizes(ctx context.Context, el vdom.ElementRef) (interop.Status, error) {
	out, ok := b.record(ctx, Call{Method: interop.MethodUnobserveResizes, Element: el})
	if ok && out.Status == interop.StatusOK && out.Err == nil {
		b.registry.Unbind(el)
	}
	return out.Status, out.Err
}

// Resize plays the host: it calls the reference observing el, the way a
// ResizeObserver callback would.
func (b *Bridge) Resize(el vdom.ElementRef, rect diagram.Rect) error {
	ref, ok := b.registry.ForElement(el)
	if !ok {
		return fmt.Errorf("element %s is not observed", el)
	}
	return ref.OnResize(rect)
}
