package runtime

import "context"

// Initializer is implemented by components that need setup before their
// first render. OnInit runs exactly once.
type Initializer interface {
	OnInit()
}

// AfterRenderer is implemented by components that act on the rendered
// output, typically through host interop. firstRender is true only for the
// first completed render of the instance.
type AfterRenderer interface {
	OnAfterRender(ctx context.Context, firstRender bool) error
}

// RenderGate lets a component veto re-renders. The first render is never
// gated.
type RenderGate interface {
	ShouldRender() bool
}

// Disposer is implemented by components holding subscriptions or host
// resources. Dispose is called once, when the component leaves the tree or
// its host shuts down.
type Disposer interface {
	Dispose(ctx context.Context) error
}
