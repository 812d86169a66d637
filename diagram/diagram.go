// Package diagram holds the shared diagram state: pan, zoom, the container
// rectangle, and the input-event fan-out that behaviors and components
// subscribe to.
package diagram

import (
	"errors"
	"fmt"
	"sync"

	"github.com/vcrobe/nojs-diagrams/signals"
)

// ErrInvalidZoom is returned by SetZoom for non-positive zoom factors.
var ErrInvalidZoom = errors.New("diagram: zoom must be positive")

// ZoomOptions controls wheel zooming.
type ZoomOptions struct {
	Enabled     bool    `toml:"enabled"`
	Inverse     bool    `toml:"inverse"`
	Minimum     float64 `toml:"minimum"`
	Maximum     float64 `toml:"maximum"`
	ScaleFactor float64 `toml:"scale_factor"`
}

// Options configures diagram behaviors.
type Options struct {
	AllowPanning bool        `toml:"allow_panning"`
	Zoom         ZoomOptions `toml:"zoom"`
}

// DefaultOptions returns the options a new Diagram starts with.
func DefaultOptions() Options {
	return Options{
		AllowPanning: true,
		Zoom: ZoomOptions{
			Enabled:     true,
			Minimum:     0.1,
			Maximum:     2,
			ScaleFactor: 1.05,
		},
	}
}

// Validate checks the options for values that would break zooming.
func (o Options) Validate() error {
	z := o.Zoom
	if z.Minimum <= 0 || z.Maximum <= 0 {
		return fmt.Errorf("zoom bounds must be positive (min %g, max %g)", z.Minimum, z.Maximum)
	}
	if z.Minimum > z.Maximum {
		return fmt.Errorf("zoom minimum %g exceeds maximum %g", z.Minimum, z.Maximum)
	}
	if z.ScaleFactor <= 1 {
		return fmt.Errorf("zoom scale factor must be greater than 1, got %g", z.ScaleFactor)
	}
	return nil
}

type pointerInput struct {
	target Model
	event  PointerEvent
}

// Diagram is the hub every canvas component reads from and pushes input
// into. It neither knows nor cares which component is attached.
type Diagram struct {
	mu      sync.RWMutex
	pan     Point
	zoom    float64
	options Options
	batch   int
	pending bool

	container *signals.Signal[*Rect]

	// Changed fires after any visible state change (pan, zoom, container,
	// options, or an explicit Refresh).
	Changed *signals.Event

	pointerDown signals.Topic[pointerInput]
	pointerMove signals.Topic[pointerInput]
	pointerUp   signals.Topic[pointerInput]
	wheel       signals.Topic[WheelEvent]
	keyDown     signals.Topic[KeyboardEvent]
}

// New creates a Diagram with the given options and registers the pan and
// zoom behaviors.
func New(opts Options) *Diagram {
	d := &Diagram{
		zoom:      1,
		options:   opts,
		container: signals.NewSignal[*Rect](nil, sameRect),
		Changed:   signals.NewEvent(),
	}
	registerPan(d)
	registerZoom(d)
	return d
}

func sameRect(a, b *Rect) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

// Pan returns the current pan offset in pixels.
func (d *Diagram) Pan() Point {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.pan
}

// Zoom returns the current zoom factor.
func (d *Diagram) Zoom() float64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.zoom
}

// Options returns a copy of the current options.
func (d *Diagram) Options() Options {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.options
}

// SetOptions replaces the options. The current zoom is re-clamped to the
// new bounds.
func (d *Diagram) SetOptions(opts Options) {
	d.mu.Lock()
	d.options = opts
	d.zoom = clamp(d.zoom, opts.Zoom.Minimum, opts.Zoom.Maximum)
	d.mu.Unlock()
	d.notify()
}

// Container returns the on-screen rectangle pan and zoom are computed
// against, or nil before the canvas has been mounted.
func (d *Diagram) Container() *Rect {
	r := d.container.Get()
	if r == nil {
		return nil
	}
	c := *r
	return &c
}

// SetContainer records the canvas rectangle. Setting an identical
// rectangle is a no-op.
func (d *Diagram) SetContainer(r Rect) {
	if d.container.Set(&r) {
		d.notify()
	}
}

// OnContainerChanged registers fn to be called when the container changes.
func (d *Diagram) OnContainerChanged(fn func(Rect)) (unsubscribe func()) {
	return d.container.Subscribe(func(r *Rect) {
		if r != nil {
			fn(*r)
		}
	})
}

// SetPan moves the diagram to the given offset.
func (d *Diagram) SetPan(x, y float64) {
	d.mu.Lock()
	if d.pan.X == x && d.pan.Y == y {
		d.mu.Unlock()
		return
	}
	d.pan = Point{X: x, Y: y}
	d.mu.Unlock()
	d.notify()
}

// UpdatePan moves the diagram by the given delta.
func (d *Diagram) UpdatePan(dx, dy float64) {
	p := d.Pan()
	d.SetPan(p.X+dx, p.Y+dy)
}

// SetZoom sets the zoom factor, clamped to the configured bounds.
func (d *Diagram) SetZoom(z float64) error {
	if z <= 0 {
		return fmt.Errorf("%w: %g", ErrInvalidZoom, z)
	}
	d.mu.Lock()
	z = clamp(z, d.options.Zoom.Minimum, d.options.Zoom.Maximum)
	if d.zoom == z {
		d.mu.Unlock()
		return nil
	}
	d.zoom = z
	d.mu.Unlock()
	d.notify()
	return nil
}

// Refresh fires Changed without modifying anything.
func (d *Diagram) Refresh() {
	d.notify()
}

// Batch runs fn and fires Changed at most once at the end, no matter how
// many changes fn makes.
func (d *Diagram) Batch(fn func()) {
	d.mu.Lock()
	d.batch++
	d.mu.Unlock()

	defer func() {
		d.mu.Lock()
		d.batch--
		fire := d.batch == 0 && d.pending
		if fire {
			d.pending = false
		}
		d.mu.Unlock()
		if fire {
			d.Changed.Fire()
		}
	}()

	fn()
}

func (d *Diagram) notify() {
	d.mu.Lock()
	if d.batch > 0 {
		d.pending = true
		d.mu.Unlock()
		return
	}
	d.mu.Unlock()
	d.Changed.Fire()
}

// TriggerPointerDown dispatches a pointer-down against target.
// A nil target means the canvas background.
func (d *Diagram) TriggerPointerDown(target Model, e PointerEvent) {
	d.pointerDown.Publish(pointerInput{target: target, event: e})
}

// TriggerPointerMove dispatches a pointer-move against target.
func (d *Diagram) TriggerPointerMove(target Model, e PointerEvent) {
	d.pointerMove.Publish(pointerInput{target: target, event: e})
}

// TriggerPointerUp dispatches a pointer-up against target.
func (d *Diagram) TriggerPointerUp(target Model, e PointerEvent) {
	d.pointerUp.Publish(pointerInput{target: target, event: e})
}

// TriggerWheel dispatches a wheel event.
func (d *Diagram) TriggerWheel(e WheelEvent) {
	d.wheel.Publish(e)
}

// TriggerKeyDown dispatches a key press.
func (d *Diagram) TriggerKeyDown(e KeyboardEvent) {
	d.keyDown.Publish(e)
}

// OnPointerDown registers a pointer-down listener.
func (d *Diagram) OnPointerDown(fn func(Model, PointerEvent)) (unsubscribe func()) {
	return d.pointerDown.Subscribe(func(in pointerInput) { fn(in.target, in.event) })
}

// OnPointerMove registers a pointer-move listener.
func (d *Diagram) OnPointerMove(fn func(Model, PointerEvent)) (unsubscribe func()) {
	return d.pointerMove.Subscribe(func(in pointerInput) { fn(in.target, in.event) })
}

// OnPointerUp registers a pointer-up listener.
func (d *Diagram) OnPointerUp(fn func(Model, PointerEvent)) (unsubscribe func()) {
	return d.pointerUp.Subscribe(func(in pointerInput) { fn(in.target, in.event) })
}

// OnWheel registers a wheel listener.
func (d *Diagram) OnWheel(fn func(WheelEvent)) (unsubscribe func()) {
	return d.wheel.Subscribe(fn)
}

// OnKeyDown registers a key-down listener.
func (d *Diagram) OnKeyDown(fn func(KeyboardEvent)) (unsubscribe func()) {
	return d.keyDown.Subscribe(fn)
}

func clamp(v, lo, hi float64) float64 {
	if lo > 0 && v < lo {
		return lo
	}
	if hi > 0 && v > hi {
		return hi
	}
	return v
}
