package runtime

import (
	"context"
	"errors"
	"fmt"

	"github.com/vcrobe/nojs-diagrams/console"
	"github.com/vcrobe/nojs-diagrams/vdom"
)

// ErrAlreadyStarted is returned by a second call to Host.Start.
var ErrAlreadyStarted = errors.New("runtime: host already started")

const rootKey = "__root__"

// Compile-time assertion to ensure Host implements the Renderer interface.
var _ Renderer = (*Host)(nil)

// Host drives the component lifecycle without a browser: OnInit once,
// render (honouring RenderGate after the first pass), OnAfterRender with
// the first-render flag, and Dispose once. The browser renderer and the
// server sessions both sit on top of it; tests use it directly.
type Host struct {
	root       Component
	dispatcher *Dispatcher
	sink       func(*vdom.VNode)
	ctx        context.Context

	started  bool
	disposed bool
	current  *vdom.VNode

	instances  map[string]Component
	lastOutput map[string]*vdom.VNode
	rendered   map[string]bool // keys that completed their first render
	activeKeys map[string]bool // keys seen in the current pass
	pending    []afterRender

	rendering bool
	rerender  bool
	deferred  []func()
}

type afterRender struct {
	key   string
	comp  Component
	first bool
}

// HostOption configures a Host.
type HostOption func(*Host)

// WithDispatcher routes InvokeAsync through d instead of running work
// after the current render pass.
func WithDispatcher(d *Dispatcher) HostOption {
	return func(h *Host) { h.dispatcher = d }
}

// WithRenderSink receives the root VNode after every render pass.
func WithRenderSink(fn func(*vdom.VNode)) HostOption {
	return func(h *Host) { h.sink = fn }
}

// NewHost creates a host for root. Nothing happens until Start.
func NewHost(root Component, opts ...HostOption) *Host {
	h := &Host{
		root:       root,
		ctx:        context.Background(),
		instances:  make(map[string]Component),
		lastOutput: make(map[string]*vdom.VNode),
		rendered:   make(map[string]bool),
		activeKeys: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Start initializes the root and performs the first render. ctx is handed
// to every OnAfterRender and must outlive the host.
func (h *Host) Start(ctx context.Context) error {
	if h.started {
		return ErrAlreadyStarted
	}
	h.started = true
	h.ctx = ctx

	h.root.SetRenderer(h)
	if initializer, ok := h.root.(Initializer); ok {
		callHook("OnInit", rootKey, initializer.OnInit)
	}
	return h.run(true)
}

// Current returns the most recently rendered tree.
func (h *Host) Current() *vdom.VNode {
	return h.current
}

// Disposed reports whether Dispose has run.
func (h *Host) Disposed() bool {
	return h.disposed
}

// ReRender runs a render pass, unless the root's RenderGate vetoes it.
// Calls made during a pass, including from OnAfterRender, are coalesced
// into one follow-up pass.
func (h *Host) ReRender() {
	if !h.started || h.disposed {
		return
	}
	if err := h.run(false); err != nil {
		console.Error("render failed:", err.Error())
	}
}

// InvokeAsync implements Renderer.
func (h *Host) InvokeAsync(fn func()) {
	if h.dispatcher != nil {
		if !h.dispatcher.Invoke(fn) {
			console.Warn("InvokeAsync dropped: dispatcher stopped")
		}
		return
	}
	if h.rendering {
		h.deferred = append(h.deferred, fn)
		return
	}
	fn()
}

func (h *Host) run(force bool) error {
	if h.rendering {
		h.rerender = true
		return nil
	}
	err := h.render(force)
	for !h.disposed && (h.rerender || len(h.deferred) > 0) {
		deferred := h.deferred
		h.deferred = nil
		for _, fn := range deferred {
			fn()
		}
		if h.rerender {
			h.rerender = false
			err = errors.Join(err, h.render(false))
		}
	}
	return err
}

func (h *Host) render(force bool) error {
	if !force && h.rendered[rootKey] {
		if gate, ok := h.root.(RenderGate); ok && !gate.ShouldRender() {
			return nil
		}
	}

	h.rendering = true
	defer func() { h.rendering = false }()
	h.activeKeys = make(map[string]bool)
	h.pending = h.pending[:0]

	out := h.root.Render(h)
	first := !h.rendered[rootKey]
	h.rendered[rootKey] = true
	h.current = out
	if h.sink != nil {
		h.sink(out)
	}
	cleanupErr := h.cleanupUnmountedComponents()

	pending := append([]afterRender(nil), h.pending...)
	pending = append(pending, afterRender{key: rootKey, comp: h.root, first: first})

	errs := []error{cleanupErr}
	for _, p := range pending {
		if ar, ok := p.comp.(AfterRenderer); ok {
			if err := callErrHook("OnAfterRender", p.key, func() error {
				return ar.OnAfterRender(h.ctx, p.first)
			}); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", p.key, err))
			}
		}
	}
	return errors.Join(errs...)
}

// RenderChild renders a child component, reusing the instance stored under
// key. A child whose RenderGate vetoes the pass keeps its previous output.
func (h *Host) RenderChild(key string, childWithProps Component) *vdom.VNode {
	h.activeKeys[key] = true

	instance, exists := h.instances[key]
	if !exists {
		// First time seeing this component at this location, so store the new instance.
		instance = childWithProps
		h.instances[key] = instance
		instance.SetRenderer(h)
		if initializer, ok := instance.(Initializer); ok {
			callHook("OnInit", key, initializer.OnInit)
		}
	}

	first := !h.rendered[key]
	if !first {
		if gate, ok := instance.(RenderGate); ok && !gate.ShouldRender() {
			return h.lastOutput[key]
		}
	}

	out := instance.Render(h)
	h.lastOutput[key] = out
	h.rendered[key] = true
	h.pending = append(h.pending, afterRender{key: key, comp: instance, first: first})
	return out
}

// cleanupUnmountedComponents disposes children that were not rendered in
// this pass.
func (h *Host) cleanupUnmountedComponents() error {
	var errs []error
	for key, instance := range h.instances {
		if h.activeKeys[key] {
			continue
		}
		errs = append(errs, h.dispose(key, instance))
		delete(h.instances, key)
		delete(h.lastOutput, key)
		delete(h.rendered, key)
	}
	return errors.Join(errs...)
}

func (h *Host) dispose(key string, c Component) error {
	d, ok := c.(Disposer)
	if !ok {
		return nil
	}
	if err := callErrHook("Dispose", key, func() error { return d.Dispose(h.ctx) }); err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	return nil
}

// Dispose tears down every child and then the root. Later calls are
// no-ops.
func (h *Host) Dispose(ctx context.Context) error {
	if h.disposed {
		return nil
	}
	h.disposed = true
	h.ctx = ctx

	var errs []error
	for key, instance := range h.instances {
		errs = append(errs, h.dispose(key, instance))
	}
	h.instances = make(map[string]Component)
	errs = append(errs, h.dispose(rootKey, h.root))
	return errors.Join(errs...)
}
