//go:build !wasm

package canvas

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/vcrobe/nojs-diagrams/diagram"
	"github.com/vcrobe/nojs-diagrams/events"
	"github.com/vcrobe/nojs-diagrams/interop"
	"github.com/vcrobe/nojs-diagrams/interop/interoptest"
	"github.com/vcrobe/nojs-diagrams/runtime"
	"github.com/vcrobe/nojs-diagrams/vdom"
)

var screen = diagram.Rect{X: 10, Y: 20, Width: 800, Height: 600}

// queueRenderer holds InvokeAsync work instead of running it.
type queueRenderer struct {
	queued    []func()
	rerenders int
}

func (q *queueRenderer) RenderChild(string, runtime.Component) *vdom.VNode { return nil }
func (q *queueRenderer) ReRender()                                         { q.rerenders++ }
func (q *queueRenderer) InvokeAsync(fn func())                             { q.queued = append(q.queued, fn) }

func (q *queueRenderer) drain() {
	queued := q.queued
	q.queued = nil
	for _, fn := range queued {
		fn()
	}
}

type fixture struct {
	diagram  *diagram.Diagram
	registry *interop.Registry
	bridge   *interoptest.Bridge
	surface  *Surface
	host     *runtime.Host
}

func newFixture(t *testing.T, opts diagram.Options) *fixture {
	t.Helper()
	f := &fixture{
		diagram:  diagram.New(opts),
		registry: interop.NewRegistry(),
	}
	f.bridge = interoptest.New(f.registry, screen)
	f.surface = &Surface{
		Diagram:  f.diagram,
		Bridge:   f.bridge,
		Registry: f.registry,
	}
	f.host = runtime.NewHost(f.surface)
	return f
}

func (f *fixture) start(t *testing.T) {
	t.Helper()
	require.NoError(t, f.host.Start(context.Background()))
}

func TestSurface_ChangeNotificationsCoalesce(t *testing.T) {
	d := diagram.New(diagram.DefaultOptions())
	q := &queueRenderer{}
	c := &Surface{Diagram: d, Registry: interop.NewRegistry()}
	c.SetRenderer(q)
	c.OnInit()

	assert.False(t, c.ShouldRender())

	d.Refresh()
	d.Refresh()
	d.Refresh()
	assert.Len(t, q.queued, 3)

	assert.True(t, c.ShouldRender())
	assert.False(t, c.ShouldRender())
	assert.False(t, c.ShouldRender())

	d.Refresh()
	assert.True(t, c.ShouldRender())

	q.drain()
	assert.Equal(t, 4, q.rerenders)
}

func TestSurface_LayerStyle(t *testing.T) {
	d := diagram.New(diagram.DefaultOptions())
	d.SetPan(12.5, -3)
	require.NoError(t, d.SetZoom(1.25))
	c := &Surface{Diagram: d}

	assert.Equal(t, "transform: translate(12.5px, -3px) scale(1.25); z-index: 4;", c.LayerStyle(4))
	assert.Equal(t, "transform: translate(12.5px, -3px) scale(1.25); z-index: 0;", c.LayerStyle(0))
}

func TestSurface_LayerStyleIgnoresLocale(t *testing.T) {
	d := diagram.New(diagram.DefaultOptions())
	d.SetPan(12.5, 0.75)
	c := &Surface{Diagram: d}

	p := message.NewPrinter(language.German)
	require.Equal(t, "12,5", p.Sprintf("%v", number.Decimal(12.5)))

	style := c.LayerStyle(1)
	assert.Contains(t, style, "translate(12.5px, 0.75px)")
	assert.NotContains(t, style, ",5")
}

func TestSurface_LayerStyleWithoutDiagram(t *testing.T) {
	c := &Surface{}
	assert.Equal(t, "transform: translate(0px, 0px) scale(1); z-index: 2;", c.LayerStyle(2))
}

func TestSurface_RenderLayers(t *testing.T) {
	d := diagram.New(diagram.DefaultOptions())
	d.SetPan(5, 6)
	c := &Surface{
		Diagram:        d,
		Registry:       interop.NewRegistry(),
		Class:          "editor",
		AdditionalSvg:  []*vdom.VNode{vdom.Element("g", map[string]any{"class": "links"})},
		AdditionalHTML: []*vdom.VNode{vdom.Div(map[string]any{"class": "nodes"})},
		Widgets:        []*vdom.VNode{vdom.Div(map[string]any{"class": "minimap"}), nil},
	}
	c.OnInit()

	root := c.Render(nil)
	require.NotNil(t, root)
	assert.Equal(t, "div", root.Tag)
	assert.Equal(t, "diagram-canvas editor", root.Attributes["class"])
	assert.Equal(t, c.Element(), root.Ref)

	handlers := root.Handlers()
	for _, name := range []string{"pointerdown", "pointermove", "pointerup", "keydown", "wheel"} {
		assert.Contains(t, handlers, name)
	}

	require.Len(t, root.Children, 3)
	svg, htmlLayer, widget := root.Children[0], root.Children[1], root.Children[2]

	assert.Equal(t, "svg", svg.Tag)
	assert.Equal(t, vdom.SVGNamespace, svg.Namespace)
	assert.Equal(t, "diagram-svg-layer", svg.Attributes["class"])
	assert.Equal(t, c.LayerStyle(0), svg.Attributes["style"])
	require.Len(t, svg.Children, 1)
	assert.Equal(t, "links", svg.Children[0].Attributes["class"])

	assert.Equal(t, "diagram-html-layer", htmlLayer.Attributes["class"])
	assert.Equal(t, c.LayerStyle(1), htmlLayer.Attributes["style"])
	require.Len(t, htmlLayer.Children, 1)

	assert.Equal(t, "minimap", widget.Attributes["class"])
}

func TestSurface_MountMeasuresAndObserves(t *testing.T) {
	f := newFixture(t, diagram.DefaultOptions())
	f.start(t)

	assert.Equal(t, Mounted, f.surface.State())
	require.NotNil(t, f.diagram.Container())
	assert.Equal(t, screen, *f.diagram.Container())

	calls := f.bridge.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, interop.MethodGetBoundingClientRect, calls[0].Method)
	assert.Equal(t, interop.MethodObserveResizes, calls[1].Method)
	assert.Equal(t, f.surface.Element(), calls[1].Element)
	assert.Same(t, f.surface.Ref(), calls[1].Ref)
}

func TestSurface_MountsOnce(t *testing.T) {
	f := newFixture(t, diagram.DefaultOptions())
	f.start(t)

	for range 3 {
		f.diagram.SetPan(1, 1)
		f.diagram.Refresh()
		f.host.ReRender()
	}
	require.NoError(t, f.surface.OnAfterRender(context.Background(), true))

	assert.Equal(t, 1, f.bridge.Count(interop.MethodGetBoundingClientRect))
	assert.Equal(t, 1, f.bridge.Count(interop.MethodObserveResizes))
}

func TestSurface_ResizeUpdatesContainer(t *testing.T) {
	f := newFixture(t, diagram.DefaultOptions())
	f.start(t)

	var seen []diagram.Rect
	f.diagram.OnContainerChanged(func(r diagram.Rect) { seen = append(seen, r) })

	resized := diagram.Rect{X: 10, Y: 20, Width: 1024, Height: 768}
	require.NoError(t, f.bridge.Resize(f.surface.Element(), resized))

	assert.Equal(t, resized, *f.diagram.Container())
	assert.Equal(t, []diagram.Rect{resized}, seen)

	// Unchanged geometry is not a change.
	require.NoError(t, f.bridge.Resize(f.surface.Element(), resized))
	assert.Len(t, seen, 1)
}

func TestSurface_ResizeRerenders(t *testing.T) {
	f := newFixture(t, diagram.DefaultOptions())
	f.start(t)

	q := &queueRenderer{}
	f.surface.SetRenderer(q)

	require.NoError(t, f.bridge.Resize(f.surface.Element(), diagram.Rect{Width: 1, Height: 1}))
	require.Len(t, q.queued, 1)
	q.drain()
	assert.Equal(t, 1, q.rerenders)
	assert.True(t, f.surface.ShouldRender())
}

func TestSurface_MountInterruptionsAreQuiet(t *testing.T) {
	for _, st := range []interop.Status{interop.StatusDisconnected, interop.StatusCancelled} {
		t.Run(st.String(), func(t *testing.T) {
			f := newFixture(t, diagram.DefaultOptions())
			f.bridge.Script(interop.MethodGetBoundingClientRect, interoptest.Outcome{Status: st})
			f.start(t)

			assert.Equal(t, Mounted, f.surface.State())
			assert.Nil(t, f.diagram.Container())
			assert.Zero(t, f.bridge.Count(interop.MethodObserveResizes))
		})
	}
}

func TestSurface_MountWithCancelledContext(t *testing.T) {
	f := newFixture(t, diagram.DefaultOptions())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, f.host.Start(ctx))
	assert.Empty(t, f.bridge.Calls())
	assert.Nil(t, f.diagram.Container())
}

func TestSurface_MountFailurePropagates(t *testing.T) {
	boom := errors.New("element detached")
	f := newFixture(t, diagram.DefaultOptions())
	f.bridge.Script(interop.MethodObserveResizes, interoptest.Outcome{Err: boom})

	err := f.host.Start(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "observe canvas resizes")
	assert.Equal(t, screen, *f.diagram.Container())
}

func TestSurface_DisposeReleasesEverything(t *testing.T) {
	f := newFixture(t, diagram.DefaultOptions())
	f.start(t)
	ref := f.surface.Ref()
	require.Equal(t, 1, f.diagram.Changed.Len())

	require.NoError(t, f.host.Dispose(context.Background()))

	assert.Equal(t, Disposed, f.surface.State())
	assert.Zero(t, f.diagram.Changed.Len())
	assert.True(t, ref.Released())
	assert.Zero(t, f.registry.Len())
	assert.Equal(t, 1, f.bridge.Count(interop.MethodUnobserveResizes))
	assert.ErrorIs(t, ref.OnResize(screen), interop.ErrReleased)
	assert.Error(t, f.bridge.Resize(f.surface.Element(), screen))
}

func TestSurface_DisposeSwallowsInterruptions(t *testing.T) {
	for _, st := range []interop.Status{interop.StatusDisconnected, interop.StatusCancelled} {
		t.Run(st.String(), func(t *testing.T) {
			f := newFixture(t, diagram.DefaultOptions())
			f.start(t)
			f.bridge.Script(interop.MethodUnobserveResizes, interoptest.Outcome{Status: st})

			assert.NoError(t, f.surface.Dispose(context.Background()))
			assert.True(t, f.surface.Ref().Released())
		})
	}
}

func TestSurface_DisposeWithCancelledContext(t *testing.T) {
	f := newFixture(t, diagram.DefaultOptions())
	f.start(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.NoError(t, f.surface.Dispose(ctx))
	assert.Zero(t, f.bridge.Count(interop.MethodUnobserveResizes))
	assert.True(t, f.surface.Ref().Released())
}

func TestSurface_DisposeReportsOtherFailures(t *testing.T) {
	boom := errors.New("observer gone")
	f := newFixture(t, diagram.DefaultOptions())
	f.start(t)
	f.bridge.Script(interop.MethodUnobserveResizes, interoptest.Outcome{Err: boom})

	err := f.surface.Dispose(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.True(t, f.surface.Ref().Released())
	assert.Zero(t, f.diagram.Changed.Len())
}

func TestSurface_DisposeTwice(t *testing.T) {
	f := newFixture(t, diagram.DefaultOptions())
	f.start(t)

	require.NoError(t, f.surface.Dispose(context.Background()))
	require.NoError(t, f.surface.Dispose(context.Background()))
	require.NoError(t, f.host.Dispose(context.Background()))

	assert.Equal(t, 1, f.bridge.Count(interop.MethodUnobserveResizes))
	assert.Equal(t, Disposed, f.surface.State())
}

func TestSurface_DisposeBeforeInit(t *testing.T) {
	c := &Surface{Diagram: diagram.New(diagram.DefaultOptions())}
	assert.NoError(t, c.Dispose(context.Background()))
	assert.Equal(t, Disposed, c.State())

	// A disposed canvas never initializes.
	c.OnInit()
	assert.Equal(t, Disposed, c.State())
	assert.Nil(t, c.Ref())
}

func TestSurface_ChangesAfterDisposeAreIgnored(t *testing.T) {
	f := newFixture(t, diagram.DefaultOptions())
	f.start(t)
	require.NoError(t, f.surface.Dispose(context.Background()))

	f.diagram.Refresh()
	assert.False(t, f.surface.ShouldRender())
}

func TestSurface_ForwardsInputWithoutTarget(t *testing.T) {
	opts := diagram.DefaultOptions()
	opts.AllowPanning = false
	opts.Zoom.Enabled = false
	f := newFixture(t, opts)
	f.start(t)
	callsBefore := len(f.bridge.Calls())

	type pointerCall struct {
		target diagram.Model
		event  diagram.PointerEvent
	}
	var downs, moves, ups []pointerCall
	var wheels []diagram.WheelEvent
	var keys []diagram.KeyboardEvent
	f.diagram.OnPointerDown(func(m diagram.Model, e diagram.PointerEvent) { downs = append(downs, pointerCall{m, e}) })
	f.diagram.OnPointerMove(func(m diagram.Model, e diagram.PointerEvent) { moves = append(moves, pointerCall{m, e}) })
	f.diagram.OnPointerUp(func(m diagram.Model, e diagram.PointerEvent) { ups = append(ups, pointerCall{m, e}) })
	f.diagram.OnWheel(func(e diagram.WheelEvent) { wheels = append(wheels, e) })
	f.diagram.OnKeyDown(func(e diagram.KeyboardEvent) { keys = append(keys, e) })

	pointer := events.PointerEventArgs{ClientX: 40, ClientY: 50, PointerID: 7, PointerType: "mouse", IsPrimary: true}
	wheel := events.WheelEventArgs{PointerEventArgs: pointer, DeltaY: -120}
	key := events.KeyboardEventArgs{Key: "Delete", Code: "Delete", CtrlKey: true}

	f.surface.OnPointerDown(pointer)
	f.surface.OnPointerMove(pointer)
	f.surface.OnPointerUp(pointer)
	f.surface.OnWheel(wheel)
	f.surface.OnKeyDown(key)

	want := pointerCall{nil, pointer.ToCore()}
	assert.Equal(t, []pointerCall{want}, downs)
	assert.Equal(t, []pointerCall{want}, moves)
	assert.Equal(t, []pointerCall{want}, ups)
	assert.Equal(t, []diagram.WheelEvent{wheel.ToCore()}, wheels)
	assert.Equal(t, []diagram.KeyboardEvent{key.ToCore()}, keys)

	assert.Equal(t, Mounted, f.surface.State())
	assert.False(t, f.surface.ShouldRender())
	assert.Len(t, f.bridge.Calls(), callsBefore)
}

func TestSurface_WheelZoomRerenders(t *testing.T) {
	f := newFixture(t, diagram.DefaultOptions())
	f.start(t)
	before := f.host.Current()

	f.surface.OnWheel(events.WheelEventArgs{
		PointerEventArgs: events.PointerEventArgs{ClientX: 410, ClientY: 320},
		DeltaY:           100,
	})

	assert.InDelta(t, 1.05, f.diagram.Zoom(), 1e-9)
	after := f.host.Current()
	assert.NotSame(t, before, after)
	assert.Equal(t, f.surface.LayerStyle(0), after.Children[0].Attributes["style"])
}

func TestSurface_DispatchFromRenderedTree(t *testing.T) {
	f := newFixture(t, diagram.DefaultOptions())
	f.start(t)

	var got []diagram.PointerEvent
	f.diagram.OnPointerDown(func(_ diagram.Model, e diagram.PointerEvent) { got = append(got, e) })

	err := vdom.Dispatch(f.host.Current(), f.surface.Element().ID, "pointerdown", func(v any) error {
		v.(*events.PointerEventArgs).ClientX = 99
		return nil
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 99.0, got[0].ClientX)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "uninitialized", Uninitialized.String())
	assert.Equal(t, "mounted", Mounted.String())
	assert.Equal(t, "State(9)", State(9).String())
}
