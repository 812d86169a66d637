package vdom

import (
	"fmt"
	"strings"
	"sync/atomic"
)

// SVGNamespace is the namespace URI used for <svg> subtrees.
const SVGNamespace = "http://www.w3.org/2000/svg"

// RefAttr is the attribute that carries an ElementRef into the DOM.
const RefAttr = "data-nojs-ref"

// TextTag marks a pure text node.
const TextTag = "#text"

// VNode represents a virtual DOM node.
type VNode struct {
	Tag        string         // The HTML tag name
	Namespace  string         // Element namespace; empty for HTML
	Attributes map[string]any // The attributes of the node, including "on*" handlers
	Children   []*VNode       // The child nodes
	Content    string         // The content of the node
	Key        string         // Reconciliation key; differing keys replace the subtree
	Ref        ElementRef     // Optional identity the host can resolve back to the element

	eventCallbacks []any
}

// NewVNode creates a new VNode. Nil children are dropped.
func NewVNode(tag string, attributes map[string]any, children []*VNode, content string) *VNode {
	return &VNode{
		Tag:        tag,
		Attributes: attributes,
		Children:   compact(children),
		Content:    content,
	}
}

func compact(children []*VNode) []*VNode {
	var out []*VNode
	for _, c := range children {
		if c != nil {
			out = append(out, c)
		}
	}
	return out
}

// Element creates an HTML element with the given children.
func Element(tag string, attrs map[string]any, children ...*VNode) *VNode {
	return NewVNode(tag, attrs, children, "")
}

// Div creates a <div> VNode with the given children and allows passing attributes.
func Div(attrs map[string]any, children ...*VNode) *VNode {
	return NewVNode("div", attrs, children, "")
}

// SVG creates an <svg> VNode. The namespace is inherited by every
// descendant when rendered.
func SVG(attrs map[string]any, children ...*VNode) *VNode {
	n := NewVNode("svg", attrs, children, "")
	n.Namespace = SVGNamespace
	return n
}

// Text creates a bare text node.
func Text(content string) *VNode {
	return &VNode{Tag: TextTag, Content: content}
}

// WithRef attaches ref to the node and returns it.
func (v *VNode) WithRef(ref ElementRef) *VNode {
	v.Ref = ref
	return v
}

// SetContent updates the Content field of the VNode.
func (v *VNode) SetContent(content string) {
	v.Content = content
}

// Handlers returns the event handlers of the node keyed by DOM event name
// ("pointerdown", "wheel", ...).
func (v *VNode) Handlers() map[string]any {
	var out map[string]any
	for key, value := range v.Attributes {
		if !IsHandlerKey(key) || value == nil {
			continue
		}
		if out == nil {
			out = make(map[string]any)
		}
		out[EventName(key)] = value
	}
	return out
}

// AddEventCallback stores a host callback so it can be released later.
func (v *VNode) AddEventCallback(cb any) {
	v.eventCallbacks = append(v.eventCallbacks, cb)
}

// GetEventCallbacks returns the host callbacks stored on the node.
func (v *VNode) GetEventCallbacks() []any {
	return v.eventCallbacks
}

// ClearEventCallbacks forgets all stored host callbacks.
func (v *VNode) ClearEventCallbacks() {
	v.eventCallbacks = nil
}

// Find returns the first node in the tree carrying ref id, or nil.
func Find(root *VNode, id string) *VNode {
	if root == nil || id == "" {
		return nil
	}
	if root.Ref.ID == id {
		return root
	}
	for _, c := range root.Children {
		if n := Find(c, id); n != nil {
			return n
		}
	}
	return nil
}

// IsHandlerKey reports whether an attribute key names an event handler.
// Event attributes start with "on" (e.g., onClick, onPointerdown).
func IsHandlerKey(key string) bool {
	return len(key) > 2 && key[0] == 'o' && key[1] == 'n'
}

// EventName converts "onClick" -> "click", "onPointerdown" -> "pointerdown".
func EventName(key string) string {
	return strings.ToLower(key[2:])
}

// ElementRef identifies a rendered element across the host boundary.
// The zero value is not a valid reference.
type ElementRef struct {
	ID string
}

var refSeq atomic.Uint64

// NewElementRef returns a process-unique element reference.
func NewElementRef() ElementRef {
	return ElementRef{ID: fmt.Sprintf("nojs-ref-%d", refSeq.Add(1))}
}

// Valid reports whether the reference identifies an element.
func (r ElementRef) Valid() bool {
	return r.ID != ""
}

// Selector returns the CSS selector that matches the referenced element.
func (r ElementRef) Selector() string {
	return fmt.Sprintf("[%s=%q]", RefAttr, r.ID)
}

func (r ElementRef) String() string {
	if !r.Valid() {
		return "ElementRef(<none>)"
	}
	return "ElementRef(" + r.ID + ")"
}
