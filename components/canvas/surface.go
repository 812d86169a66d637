// Package canvas provides the diagram canvas: the layered surface that
// shows a diagram at its current pan and zoom, feeds raw input back into
// it, and keeps the diagram's container rectangle in sync with the page.
package canvas

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"

	"github.com/vcrobe/nojs-diagrams/console"
	"github.com/vcrobe/nojs-diagrams/diagram"
	"github.com/vcrobe/nojs-diagrams/events"
	"github.com/vcrobe/nojs-diagrams/interop"
	"github.com/vcrobe/nojs-diagrams/runtime"
	"github.com/vcrobe/nojs-diagrams/vdom"
)

// State is the lifecycle position of a Surface.
type State int

const (
	Uninitialized State = iota
	Initialized         // subscribed to diagram changes, handle created
	Mounted             // container measured, resize observation requested
	Disposed            // every subscription released; terminal
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Initialized:
		return "initialized"
	case Mounted:
		return "mounted"
	case Disposed:
		return "disposed"
	default:
		return "State(" + strconv.Itoa(int(s)) + ")"
	}
}

// Surface is the diagram canvas component.
type Surface struct {
	runtime.ComponentBase

	// --- PROPS ---

	// Diagram is the shared state this canvas shows and feeds. Required.
	Diagram *diagram.Diagram

	// Bridge reaches the host page. Without one the canvas renders and
	// forwards input but never learns its on-screen size.
	Bridge interop.Bridge

	// Registry issues the handle the host calls back through. Defaults to
	// interop.Default.
	Registry *interop.Registry

	// Widgets, AdditionalSvg and AdditionalHTML are slots rendered after
	// the layers, inside the SVG layer, and inside the HTML layer.
	Widgets        []*vdom.VNode
	AdditionalSvg  []*vdom.VNode
	AdditionalHTML []*vdom.VNode

	// Class is appended to the root element's class list.
	Class string

	// --- INTERNAL STATE ---

	state       State
	element     vdom.ElementRef
	ref         *interop.ObjectRef
	unsubscribe func()
	dirty       atomic.Bool
}

var (
	_ runtime.Initializer    = (*Surface)(nil)
	_ runtime.AfterRenderer  = (*Surface)(nil)
	_ runtime.RenderGate     = (*Surface)(nil)
	_ runtime.Disposer       = (*Surface)(nil)
	_ interop.ResizeReceiver = (*Surface)(nil)
)

// State returns the current lifecycle state.
func (c *Surface) State() State {
	return c.state
}

// Element returns the reference of the root element.
func (c *Surface) Element() vdom.ElementRef {
	return c.element
}

// Ref returns the handle the host calls back through, or nil before
// OnInit.
func (c *Surface) Ref() *interop.ObjectRef {
	return c.ref
}

// OnInit creates the host handle and subscribes to diagram changes.
func (c *Surface) OnInit() {
	if c.state != Uninitialized {
		console.Warn("canvas: OnInit in state", c.state.String())
		return
	}
	if c.Diagram == nil {
		console.Error("canvas: OnInit without a Diagram")
		return
	}
	if c.Registry == nil {
		c.Registry = interop.Default
	}

	c.element = vdom.NewElementRef()
	c.ref = c.Registry.Create(c)
	c.unsubscribe = c.Diagram.Changed.Subscribe(c.onDiagramChanged)
	c.state = Initialized
}

func (c *Surface) onDiagramChanged() {
	c.dirty.Store(true)
	c.InvokeAsync(c.StateHasChanged)
}

// ShouldRender reports whether the diagram changed since the last check,
// and clears the flag.
func (c *Surface) ShouldRender() bool {
	return c.dirty.Swap(false)
}

// OnAfterRender measures the element and starts resize observation the
// first time the canvas reaches the page. The state machine, not
// firstRender, decides: this runs at most once per instance.
func (c *Surface) OnAfterRender(ctx context.Context, _ bool) error {
	if c.state != Initialized {
		return nil
	}
	c.state = Mounted
	return c.mount(ctx)
}

func (c *Surface) mount(ctx context.Context) error {
	if c.Bridge == nil {
		return nil
	}

	rect, st, err := c.Bridge.GetBoundingClientRect(ctx, c.element)
	if stop, err := settle("measure canvas", st, err); stop {
		return err
	}
	c.Diagram.SetContainer(rect)

	st, err = c.Bridge.ObserveResizes(ctx, c.element, c.ref)
	_, err = settle("observe canvas resizes", st, err)
	return err
}

// settle turns a host call outcome into control flow: interrupted calls
// stop quietly, failures stop with an error.
func settle(op string, st interop.Status, err error) (stop bool, _ error) {
	if st.Interrupted() {
		console.Log("canvas:", op, "skipped:", st.String())
		return true, nil
	}
	if err != nil {
		return true, fmt.Errorf("%s: %w", op, err)
	}
	return false, nil
}

// OnResize is called by the host when the element's size changes.
func (c *Surface) OnResize(rect diagram.Rect) {
	c.Diagram.SetContainer(rect)
}

// LayerStyle returns the inline style of the layer at the given stacking
// order. Numbers never depend on the host locale.
func (c *Surface) LayerStyle(order int) string {
	pan, zoom := diagram.Point{}, 1.0
	if c.Diagram != nil {
		pan, zoom = c.Diagram.Pan(), c.Diagram.Zoom()
	}
	return "transform: translate(" + formatNumber(pan.X) + "px, " + formatNumber(pan.Y) + "px) " +
		"scale(" + formatNumber(zoom) + "); z-index: " + strconv.Itoa(order) + ";"
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// OnPointerDown forwards to the diagram with no target: the canvas is the
// background, not an element of the diagram.
func (c *Surface) OnPointerDown(e events.PointerEventArgs) {
	c.Diagram.TriggerPointerDown(nil, e.ToCore())
}

// OnPointerMove forwards to the diagram.
func (c *Surface) OnPointerMove(e events.PointerEventArgs) {
	c.Diagram.TriggerPointerMove(nil, e.ToCore())
}

// OnPointerUp forwards to the diagram.
func (c *Surface) OnPointerUp(e events.PointerEventArgs) {
	c.Diagram.TriggerPointerUp(nil, e.ToCore())
}

// OnKeyDown forwards to the diagram.
func (c *Surface) OnKeyDown(e events.KeyboardEventArgs) {
	c.Diagram.TriggerKeyDown(e.ToCore())
}

// OnWheel forwards to the diagram.
func (c *Surface) OnWheel(e events.WheelEventArgs) {
	c.Diagram.TriggerWheel(e.ToCore())
}

// Dispose releases the change subscription, resize observation and host
// handle. Interrupted host calls are not errors here: they are what a page
// going away looks like. Calling Dispose again does nothing.
func (c *Surface) Dispose(ctx context.Context) error {
	if c.state == Disposed {
		return nil
	}
	c.state = Disposed

	if c.unsubscribe != nil {
		c.unsubscribe()
	}
	if c.ref == nil {
		return nil
	}
	defer c.ref.Release()

	if !c.element.Valid() || c.Bridge == nil {
		return nil
	}
	st, err := c.Bridge.UnobserveResizes(ctx, c.element)
	_, err = settle("unobserve canvas resizes", st, err)
	return err
}

// Render implements runtime.Component.
func (c *Surface) Render(runtime.Renderer) *vdom.VNode {
	class := "diagram-canvas"
	if c.Class != "" {
		class += " " + c.Class
	}

	children := make([]*vdom.VNode, 0, 2+len(c.Widgets))
	children = append(children,
		vdom.SVG(map[string]any{
			"class": "diagram-svg-layer",
			"style": c.LayerStyle(0),
		}, c.AdditionalSvg...),
		vdom.Div(map[string]any{
			"class": "diagram-html-layer",
			"style": c.LayerStyle(1),
		}, c.AdditionalHTML...),
	)
	children = append(children, c.Widgets...)

	return vdom.Div(map[string]any{
		"class":            class,
		"tabindex":         -1,
		events.PointerDown: c.OnPointerDown,
		events.PointerMove: c.OnPointerMove,
		events.PointerUp:   c.OnPointerUp,
		events.KeyDown:     c.OnKeyDown,
		events.Wheel:       c.OnWheel,
	}, children...).WithRef(c.element)
}
