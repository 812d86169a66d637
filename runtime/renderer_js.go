//go:build js || wasm
// +build js wasm

package runtime

import (
	"github.com/vcrobe/nojs-diagrams/vdom"
)

// RendererImpl mounts a Host's output into the browser DOM. The first pass
// renders fresh; later passes patch against the previous tree.
type RendererImpl struct {
	*Host
	mountID  string
	prevVDOM *vdom.VNode // Previous VDOM tree for patching
}

// NewRenderer creates a browser renderer for root, mounted under the
// element matching mountID (a CSS selector such as "#app").
func NewRenderer(root Component, mountID string, opts ...HostOption) *RendererImpl {
	r := &RendererImpl{mountID: mountID}
	opts = append(opts, WithRenderSink(r.paint))
	r.Host = NewHost(root, opts...)
	return r
}

func (r *RendererImpl) paint(newVDOM *vdom.VNode) {
	if r.prevVDOM == nil {
		// Initial render: clear and render fresh
		vdom.Clear(r.mountID, nil)
		vdom.RenderToSelector(r.mountID, newVDOM)
	} else {
		// Subsequent renders: patch the existing DOM
		vdom.Patch(r.mountID, r.prevVDOM, newVDOM)
	}
	r.prevVDOM = newVDOM
}
