//go:build !wasm

package runtime

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vcrobe/nojs-diagrams/vdom"
)

// probe records every lifecycle call it receives.
type probe struct {
	ComponentBase

	label     string
	allow     bool
	inits     int
	renders   int
	after     []bool
	disposals int
	afterErr  error
	onAfter   func(first bool)
}

func (p *probe) OnInit() { p.inits++ }

func (p *probe) Render(Renderer) *vdom.VNode {
	p.renders++
	return vdom.NewVNode("p", nil, nil, fmt.Sprintf("%s:%d", p.label, p.renders))
}

func (p *probe) ShouldRender() bool {
	ok := p.allow
	p.allow = false
	return ok
}

func (p *probe) OnAfterRender(_ context.Context, first bool) error {
	p.after = append(p.after, first)
	if p.onAfter != nil {
		p.onAfter(first)
	}
	return p.afterErr
}

func (p *probe) Dispose(context.Context) error {
	p.disposals++
	return nil
}

// page renders a probe child while showChild is set.
type page struct {
	ComponentBase
	child     *probe
	showChild bool
}

func (pg *page) Render(r Renderer) *vdom.VNode {
	var child *vdom.VNode
	if pg.showChild {
		child = r.RenderChild("child", pg.child)
	}
	return vdom.Div(nil, child)
}

func TestHost_FirstRenderIgnoresGate(t *testing.T) {
	p := &probe{label: "root"}
	h := NewHost(p)

	require.NoError(t, h.Start(context.Background()))

	assert.Equal(t, 1, p.inits)
	assert.Equal(t, 1, p.renders)
	assert.Equal(t, []bool{true}, p.after)
	assert.Equal(t, "root:1", h.Current().Content)
	assert.ErrorIs(t, h.Start(context.Background()), ErrAlreadyStarted)
}

func TestHost_ReRenderHonoursGate(t *testing.T) {
	p := &probe{label: "root"}
	h := NewHost(p)
	require.NoError(t, h.Start(context.Background()))

	p.StateHasChanged()
	assert.Equal(t, 1, p.renders, "gate closed: no render")

	p.allow = true
	p.StateHasChanged()
	assert.Equal(t, 2, p.renders)
	assert.Equal(t, []bool{true, false}, p.after)
}

func TestHost_StateHasChangedDuringAfterRenderIsCoalesced(t *testing.T) {
	p := &probe{label: "root"}
	p.onAfter = func(first bool) {
		if first {
			p.allow = true
			p.InvokeAsync(p.StateHasChanged)
			p.StateHasChanged()
		}
	}
	h := NewHost(p)

	require.NoError(t, h.Start(context.Background()))

	assert.Equal(t, 2, p.renders)
	assert.Equal(t, []bool{true, false}, p.after)
}

func TestHost_AfterRenderErrorIsReturned(t *testing.T) {
	boom := errors.New("boom")
	p := &probe{label: "root", afterErr: boom}

	err := NewHost(p).Start(context.Background())

	assert.ErrorIs(t, err, boom)
}

func TestHost_ChildLifecycle(t *testing.T) {
	child := &probe{label: "child"}
	pg := &page{child: child, showChild: true}
	var sunk []*vdom.VNode
	h := NewHost(pg, WithRenderSink(func(n *vdom.VNode) { sunk = append(sunk, n) }))

	require.NoError(t, h.Start(context.Background()))
	assert.Equal(t, 1, child.inits)
	assert.Equal(t, []bool{true}, child.after)

	// gate closed: the child's previous output is reused
	h.ReRender()
	require.Len(t, sunk, 2)
	assert.Equal(t, "child:1", sunk[1].Children[0].Content)
	assert.Equal(t, 1, child.renders)

	child.allow = true
	h.ReRender()
	assert.Equal(t, "child:2", h.Current().Children[0].Content)
	assert.Equal(t, []bool{true, false}, child.after)

	pg.showChild = false
	h.ReRender()
	assert.Equal(t, 1, child.disposals)
	assert.Empty(t, h.Current().Children)
}

func TestHost_DisposeIsIdempotent(t *testing.T) {
	child := &probe{label: "child"}
	pg := &page{child: child, showChild: true}
	h := NewHost(pg)
	require.NoError(t, h.Start(context.Background()))

	require.NoError(t, h.Dispose(context.Background()))
	require.NoError(t, h.Dispose(context.Background()))

	assert.Equal(t, 1, child.disposals)
	assert.True(t, h.Disposed())

	h.ReRender()
	assert.Equal(t, 1, child.renders, "no renders after dispose")
}

func TestHost_InvokeAsyncUsesDispatcher(t *testing.T) {
	d := NewDispatcher()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	p := &probe{label: "root"}
	h := NewHost(p, WithDispatcher(d))
	require.NoError(t, d.Call(ctx, func() { assert.NoError(t, h.Start(ctx)) }))

	ran := make(chan struct{})
	p.InvokeAsync(func() { close(ran) })

	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("dispatcher did not run the work")
	}
}

func TestDispatcher_StopRejectsWork(t *testing.T) {
	d := NewDispatcher()
	d.Stop()
	d.Stop()

	assert.False(t, d.Invoke(func() {}))
	assert.ErrorIs(t, d.Call(context.Background(), func() {}), ErrDispatcherStopped)
}

func TestDispatcher_RunsInOrderAndAllowsReentry(t *testing.T) {
	d := NewDispatcher()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	var order []int
	require.NoError(t, d.Call(ctx, func() {
		order = append(order, 1)
		d.Invoke(func() { order = append(order, 3) })
		order = append(order, 2)
	}))
	require.NoError(t, d.Call(ctx, func() {}))

	assert.Equal(t, []int{1, 2, 3}, order)
}

func TestStateHasChanged_WithoutRendererDoesNotPanic(t *testing.T) {
	p := &probe{}
	assert.NotPanics(t, p.StateHasChanged)
	assert.NotPanics(t, func() { p.InvokeAsync(func() {}) })
}
