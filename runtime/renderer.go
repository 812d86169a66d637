package runtime

import "github.com/vcrobe/nojs-diagrams/vdom"

// Renderer defines the minimal set of runtime operations used by Render() code.
// This interface has NO build tags, making it available to both WASM and native builds.
type Renderer interface {
	// RenderChild is used to render child components.
	// The key parameter uniquely identifies the component instance for state preservation.
	RenderChild(key string, childWithProps Component) *vdom.VNode

	// ReRender requests that the renderer re-run the render cycle.
	// Used by StateHasChanged() when component state changes.
	ReRender()

	// InvokeAsync schedules fn on the renderer's single logical thread.
	InvokeAsync(fn func())
}
