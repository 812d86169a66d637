//go:build js || wasm
// +build js wasm

package vdom

import (
	"syscall/js"

	"github.com/vcrobe/nojs-diagrams/console"
	"github.com/vcrobe/nojs-diagrams/events"
)

// listener is a DOM listener attached for one handler of a VNode.
type listener struct {
	el   js.Value
	name string
	fn   js.Func
}

// releaseCallbacks detaches and releases every listener stored in a VNode.
func releaseCallbacks(v *VNode) {
	if v == nil {
		return
	}

	for _, cb := range v.GetEventCallbacks() {
		if l, ok := cb.(listener); ok {
			l.el.Call("removeEventListener", l.name, l.fn)
			l.fn.Release()
		}
	}
	v.ClearEventCallbacks()
}

// deepReleaseCallbacks recursively releases all callbacks in the entire VNode tree.
func deepReleaseCallbacks(v *VNode) {
	if v == nil {
		return
	}

	releaseCallbacks(v)

	for _, child := range v.Children {
		deepReleaseCallbacks(child)
	}
}

// Clear empties the mount element and releases every callback of prevVDOM.
func Clear(selector string, prevVDOM *VNode) {
	if selector == "" {
		return
	}

	if prevVDOM != nil {
		deepReleaseCallbacks(prevVDOM)
	}

	mount, ok := querySelector(selector)
	if !ok {
		return
	}

	// Set innerHTML to an empty string to clear all children.
	mount.Set("innerHTML", "")
}

// RenderToSelector mounts the VNode under the first element matching the CSS selector.
func RenderToSelector(selector string, n *VNode) {
	if n == nil || selector == "" {
		return
	}

	mount, ok := querySelector(selector)
	if !ok {
		return
	}

	RenderTo(mount, n)
}

// RenderTo appends the rendered node to a specific mount element.
func RenderTo(mount js.Value, n *VNode) {
	if n == nil {
		return
	}

	el := createElement(n, "")

	if el.Truthy() {
		mount.Call("appendChild", el)
	}
}

func querySelector(selector string) (js.Value, bool) {
	doc := js.Global().Get("document")
	if !doc.Truthy() {
		return js.Undefined(), false
	}

	mount := doc.Call("querySelector", selector)
	if !mount.Truthy() {
		console.Error("Mount element not found for selector:", selector)
		return js.Undefined(), false
	}
	return mount, true
}

// setAttributeValue sets an attribute on an element, handling boolean attributes correctly.
func setAttributeValue(el js.Value, key string, value any) {
	if IsHandlerKey(key) {
		// Event handlers are attached via addEventListener, not setAttribute
		return
	}

	if boolVal, ok := value.(bool); ok {
		if boolVal {
			el.Call("setAttribute", key, "")
		} else {
			el.Call("removeAttribute", key)
		}
		return
	}

	el.Call("setAttribute", key, FormatAttr(value))
}

// wrapHandler adapts a typed Go handler to a DOM listener. Events that fail
// to decode are logged and dropped.
func wrapHandler(handler any) (func(js.Value), bool) {
	switch h := handler.(type) {
	case func():
		return func(js.Value) { h() }, true
	case func(js.Value):
		return h, true
	case func(events.PointerEventArgs):
		return func(v js.Value) {
			args, err := events.PointerFromJS(v)
			if err != nil {
				console.Error("pointer event:", err.Error())
				return
			}
			h(args)
		}, true
	case func(events.WheelEventArgs):
		return func(v js.Value) {
			args, err := events.WheelFromJS(v)
			if err != nil {
				console.Error("wheel event:", err.Error())
				return
			}
			h(args)
		}, true
	case func(events.KeyboardEventArgs):
		return func(v js.Value) {
			args, err := events.KeyboardFromJS(v)
			if err != nil {
				console.Error("keyboard event:", err.Error())
				return
			}
			h(args)
		}, true
	}
	return nil, false
}

// attachEventListeners attaches every "on*" attribute as a DOM listener.
// The VNode stores the listeners so the next patch can detach them. Wheel
// listeners are not passive: the canvas owns the wheel and the page must
// not scroll under it.
func attachEventListeners(el js.Value, vnode *VNode) {
	for name, value := range vnode.Handlers() {
		handler, ok := wrapHandler(value)
		if !ok {
			console.Warn("Unsupported handler type for event", name)
			continue
		}

		wheel := name == "wheel"
		cb := js.FuncOf(func(this js.Value, args []js.Value) any {
			if len(args) > 0 {
				if wheel {
					args[0].Call("preventDefault")
				}
				handler(args[0])
			}
			return nil
		})

		if wheel {
			el.Call("addEventListener", name, cb, map[string]any{"passive": false})
		} else {
			el.Call("addEventListener", name, cb)
		}
		vnode.AddEventCallback(listener{el: el, name: name, fn: cb})
	}
}

func createElement(n *VNode, parentNS string) js.Value {
	doc := js.Global().Get("document")
	if !doc.Truthy() || n == nil {
		return js.Undefined()
	}

	if n.Tag == TextTag {
		if n.Content == "" {
			return js.Undefined()
		}
		return doc.Call("createTextNode", n.Content)
	}

	ns := n.Namespace
	if ns == "" {
		ns = parentNS
	}

	var el js.Value
	if ns != "" {
		el = doc.Call("createElementNS", ns, n.Tag)
	} else {
		el = doc.Call("createElement", n.Tag)
	}

	for k, v := range n.Attributes {
		setAttributeValue(el, k, v)
	}
	if n.Ref.Valid() {
		el.Call("setAttribute", RefAttr, n.Ref.ID)
	}
	attachEventListeners(el, n)

	if n.Content != "" && len(n.Children) == 0 {
		el.Set("textContent", n.Content)
	}

	for _, child := range n.Children {
		childEl := createElement(child, ns)
		if childEl.Truthy() {
			el.Call("appendChild", childEl)
		}
	}

	return el
}

// Patch updates the DOM by comparing old and new VDOM trees and applying minimal changes.
func Patch(mountSelector string, oldVNode, newVNode *VNode) {
	if oldVNode == nil || newVNode == nil {
		return
	}

	mount, ok := querySelector(mountSelector)
	if !ok {
		return
	}

	// Get the root DOM element (first child of mount point)
	rootElement := mount.Get("firstChild")
	if !rootElement.Truthy() {
		RenderToSelector(mountSelector, newVNode)
		return
	}

	patchElement(rootElement, oldVNode, newVNode, "")
}

func replaceElement(domElement js.Value, oldVNode, newVNode *VNode, parentNS string) {
	deepReleaseCallbacks(oldVNode)

	newElement := createElement(newVNode, parentNS)
	if newElement.Truthy() {
		parent := domElement.Get("parentNode")
		if parent.Truthy() {
			parent.Call("replaceChild", newElement, domElement)
		}
	}
}

// patchElement updates a single DOM element based on VDOM differences.
func patchElement(domElement js.Value, oldVNode, newVNode *VNode, parentNS string) {
	if !domElement.Truthy() || oldVNode == nil || newVNode == nil {
		return
	}

	if oldVNode.Key != newVNode.Key || oldVNode.Tag != newVNode.Tag || oldVNode.Namespace != newVNode.Namespace {
		replaceElement(domElement, oldVNode, newVNode, parentNS)
		return
	}

	if newVNode.Tag == TextTag {
		if oldVNode.Content != newVNode.Content {
			domElement.Set("nodeValue", newVNode.Content)
		}
		return
	}

	ns := newVNode.Namespace
	if ns == "" {
		ns = parentNS
	}

	patchAttributes(domElement, oldVNode.Attributes, newVNode.Attributes)
	if oldVNode.Ref != newVNode.Ref {
		if newVNode.Ref.Valid() {
			domElement.Call("setAttribute", RefAttr, newVNode.Ref.ID)
		} else {
			domElement.Call("removeAttribute", RefAttr)
		}
	}

	// Detach the old listeners before attaching the new ones
	releaseCallbacks(oldVNode)
	attachEventListeners(domElement, newVNode)

	// Setting textContent wipes out all child nodes, so only do it for leaves
	if len(newVNode.Children) == 0 && oldVNode.Content != newVNode.Content {
		domElement.Set("textContent", newVNode.Content)
	}

	patchChildren(domElement, oldVNode.Children, newVNode.Children, ns)
}

// patchAttributes updates the attributes of a DOM element.
func patchAttributes(domElement js.Value, oldAttrs, newAttrs map[string]any) {
	for key := range oldAttrs {
		if IsHandlerKey(key) {
			continue
		}
		if _, exists := newAttrs[key]; !exists {
			domElement.Call("removeAttribute", key)
		}
	}

	for key, value := range newAttrs {
		if IsHandlerKey(key) {
			continue
		}
		if old, ok := oldAttrs[key]; !ok || old != value {
			setAttributeValue(domElement, key, value)
		}
	}
}

// patchChildren updates the children of a DOM element.
func patchChildren(domElement js.Value, oldChildren, newChildren []*VNode, ns string) {
	oldLen := len(oldChildren)
	newLen := len(newChildren)
	minLen := min(oldLen, newLen)

	domChildren := domElement.Get("childNodes")

	for i := 0; i < minLen; i++ {
		childElement := domChildren.Call("item", i)
		if childElement.Truthy() {
			patchElement(childElement, oldChildren[i], newChildren[i], ns)
		}
	}

	for i := oldLen; i < newLen; i++ {
		newChild := createElement(newChildren[i], ns)
		if newChild.Truthy() {
			domElement.Call("appendChild", newChild)
		}
	}

	for i := oldLen - 1; i >= newLen; i-- {
		deepReleaseCallbacks(oldChildren[i])

		childElement := domChildren.Call("item", i)
		if childElement.Truthy() {
			domElement.Call("removeChild", childElement)
		}
	}
}
