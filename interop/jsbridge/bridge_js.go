//go:build js || wasm

// Package jsbridge implements interop.Bridge against the page the
// WebAssembly module runs in.
package jsbridge

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/hack-pad/safejs"

	"github.com/vcrobe/nojs-diagrams/console"
	"github.com/vcrobe/nojs-diagrams/diagram"
	"github.com/vcrobe/nojs-diagrams/interop"
	"github.com/vcrobe/nojs-diagrams/vdom"
)

// ErrNotFound is returned when a referenced element is not in the page.
var ErrNotFound = errors.New("jsbridge: element not found")

type observer struct {
	ro safejs.Value
	cb safejs.Func
}

// Bridge talks to the DOM directly. The page never disconnects, so calls
// only ever return StatusOK or StatusCancelled.
type Bridge struct {
	registry *interop.Registry

	mu        sync.Mutex
	observers map[string]observer
}

var _ interop.Bridge = (*Bridge)(nil)

// New creates a bridge that records resize bindings in registry.
func New(registry *interop.Registry) *Bridge {
	return &Bridge{
		registry:  registry,
		observers: make(map[string]observer),
	}
}

func (b *Bridge) element(el vdom.ElementRef) (safejs.Value, error) {
	doc, err := safejs.Global().Get("document")
	if err != nil {
		return safejs.Value{}, err
	}
	node, err := doc.Call("querySelector", el.Selector())
	if err != nil {
		return safejs.Value{}, err
	}
	if node.IsNull() || node.IsUndefined() {
		return safejs.Value{}, fmt.Errorf("%w: %s", ErrNotFound, el)
	}
	return node, nil
}

// GetBoundingClientRect implements interop.Bridge.
func (b *Bridge) GetBoundingClientRect(ctx context.Context, el vdom.ElementRef) (diagram.Rect, interop.Status, error) {
	if st := interop.Precheck(ctx); st != interop.StatusOK {
		return diagram.Rect{}, st, ctx.Err()
	}
	node, err := b.element(el)
	if err != nil {
		return diagram.Rect{}, interop.StatusOK, err
	}
	rect, err := measure(node)
	return rect, interop.StatusOK, err
}

func measure(node safejs.Value) (diagram.Rect, error) {
	r, err := node.Call("getBoundingClientRect")
	if err != nil {
		return diagram.Rect{}, err
	}
	var rect diagram.Rect
	for _, f := range []struct {
		name string
		dst  *float64
	}{
		{"x", &rect.X},
		{"y", &rect.Y},
		{"width", &rect.Width},
		{"height", &rect.Height},
	} {
		v, err := r.Get(f.name)
		if err != nil {
			return diagram.Rect{}, err
		}
		if *f.dst, err = v.Float(); err != nil {
			return diagram.Rect{}, fmt.Errorf("read rect.%s: %w", f.name, err)
		}
	}
	return rect, nil
}

// ObserveResizes implements interop.Bridge with a ResizeObserver. The
// element is measured again on every notification so the reported rect is
// in client coordinates, like GetBoundingClientRect.
func (b *Bridge) ObserveResizes(ctx context.Context, el vdom.ElementRef, ref *interop.ObjectRef) (interop.Status, error) {
	if st := interop.Precheck(ctx); st != interop.StatusOK {
		return st, ctx.Err()
	}
	node, err := b.element(el)
	if err != nil {
		return interop.StatusOK, err
	}

	cb, err := safejs.FuncOf(func(safejs.Value, []safejs.Value) any {
		rect, err := measure(node)
		if err != nil {
			console.Error("jsbridge: measure", el.String(), "failed:", err.Error())
			return nil
		}
		if err := ref.OnResize(rect); err != nil {
			console.Warn("jsbridge: resize dropped:", err.Error())
		}
		return nil
	})
	if err != nil {
		return interop.StatusOK, err
	}

	ctor, err := safejs.Global().Get("ResizeObserver")
	if err != nil {
		cb.Release()
		return interop.StatusOK, err
	}
	ro, err := ctor.New(safejs.Unsafe(cb.Value()))
	if err != nil {
		cb.Release()
		return interop.StatusOK, err
	}
	if _, err := ro.Call("observe", safejs.Unsafe(node)); err != nil {
		cb.Release()
		return interop.StatusOK, err
	}

	b.mu.Lock()
	prev, had := b.observers[el.ID]
	b.observers[el.ID] = observer{ro: ro, cb: cb}
	b.mu.Unlock()
	if had {
		disconnect(prev)
	}
	b.registry.Bind(el, ref)
	return interop.StatusOK, nil
}

// UnobserveResizes implements interop.Bridge.
func (b *Bridge) UnobserveResizes(ctx context.Context, el vdom.ElementRef) (interop.Status, error) {
	b.registry.Unbind(el)
	b.mu.Lock()
	obs, ok := b.observers[el.ID]
	delete(b.observers, el.ID)
	b.mu.Unlock()
	if !ok {
		return interop.Precheck(ctx), nil
	}
	return interop.StatusOK, disconnect(obs)
}

func disconnect(obs observer) error {
	defer obs.cb.Release()
	_, err := obs.ro.Call("disconnect")
	return err
}
