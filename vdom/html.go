package vdom

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// EventsAttr lists, space separated, the DOM events a server-rendered
// element wants forwarded.
const EventsAttr = "data-nojs-events"

// RenderHTML writes the tree as HTML. Handlers are not serialized; elements
// that have them get EventsAttr so a remote client knows what to forward.
func RenderHTML(w io.Writer, n *VNode) error {
	if n == nil {
		return nil
	}
	return html.Render(w, toHTML(n, ""))
}

// HTML renders the tree to a string.
func HTML(n *VNode) (string, error) {
	var sb strings.Builder
	if err := RenderHTML(&sb, n); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func toHTML(n *VNode, parentNS string) *html.Node {
	if n.Tag == TextTag {
		return &html.Node{Type: html.TextNode, Data: n.Content}
	}

	ns := n.Namespace
	if ns == "" {
		ns = parentNS
	}
	el := &html.Node{
		Type:     html.ElementNode,
		Data:     n.Tag,
		DataAtom: atom.Lookup([]byte(n.Tag)),
		Attr:     htmlAttrs(n),
	}
	if ns == SVGNamespace {
		el.Namespace = "svg"
	}

	if n.Content != "" && len(n.Children) == 0 {
		el.AppendChild(&html.Node{Type: html.TextNode, Data: n.Content})
	}
	for _, c := range n.Children {
		el.AppendChild(toHTML(c, ns))
	}
	return el
}

func htmlAttrs(n *VNode) []html.Attribute {
	keys := make([]string, 0, len(n.Attributes))
	for k := range n.Attributes {
		if !IsHandlerKey(k) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	attrs := make([]html.Attribute, 0, len(keys)+2)
	for _, k := range keys {
		v := n.Attributes[k]
		if b, ok := v.(bool); ok {
			if b {
				attrs = append(attrs, html.Attribute{Key: k})
			}
			continue
		}
		attrs = append(attrs, html.Attribute{Key: k, Val: FormatAttr(v)})
	}

	if n.Ref.Valid() {
		attrs = append(attrs, html.Attribute{Key: RefAttr, Val: n.Ref.ID})
	}
	if hs := n.Handlers(); len(hs) > 0 {
		names := make([]string, 0, len(hs))
		for name := range hs {
			names = append(names, name)
		}
		sort.Strings(names)
		attrs = append(attrs, html.Attribute{Key: EventsAttr, Val: strings.Join(names, " ")})
	}
	return attrs
}

// FormatAttr converts an attribute value to its string form. Numbers are
// formatted without locale and without exponent notation.
func FormatAttr(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case int:
		return strconv.Itoa(x)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(v)
	}
}
