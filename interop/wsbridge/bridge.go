package wsbridge

import (
	"context"

	"github.com/vcrobe/nojs-diagrams/diagram"
	"github.com/vcrobe/nojs-diagrams/interop"
	"github.com/vcrobe/nojs-diagrams/vdom"
)

// ElementArgs addresses an element on the client.
type ElementArgs struct {
	Selector string `json:"selector"`
	Ref      string `json:"ref,omitempty"`
}

// GetBoundingClientRect implements interop.Bridge.
func (c *Conn) GetBoundingClientRect(ctx context.Context, el vdom.ElementRef) (diagram.Rect, interop.Status, error) {
	var rect diagram.Rect
	st, err := c.Invoke(ctx, interop.MethodGetBoundingClientRect, ElementArgs{Selector: el.Selector()}, &rect)
	return rect, st, err
}

// ObserveResizes implements interop.Bridge. The client calls ref's
// OnResize through a callback frame whenever the element changes size.
func (c *Conn) ObserveResizes(ctx context.Context, el vdom.ElementRef, ref *interop.ObjectRef) (interop.Status, error) {
	st, err := c.Invoke(ctx, interop.MethodObserveResizes, ElementArgs{Selector: el.Selector(), Ref: ref.ID()}, nil)
	if st == interop.StatusOK && err == nil {
		c.registry.Bind(el, ref)
	}
	return st, err
}

// UnobserveResizes implements interop.Bridge. The local binding is dropped
// whatever the client answers.
func (c *Conn) UnobserveResizes(ctx context.Context, el vdom.ElementRef) (interop.Status, error) {
	c.registry.Unbind(el)
	return c.Invoke(ctx, interop.MethodUnobserveResizes, ElementArgs{Selector: el.Selector()}, nil)
}
