// Package demo holds the sample content shown by the demo canvases.
package demo

import "github.com/vcrobe/nojs-diagrams/vdom"

// Shapes is the static content drawn in the SVG layer so panning and
// zooming have something to move.
func Shapes() []*vdom.VNode {
	return []*vdom.VNode{
		vdom.Element("path", map[string]any{
			"class":  "demo-link",
			"d":      "M 180 130 C 260 130, 260 290, 340 290",
			"fill":   "none",
			"stroke": "#888",
		}),
		vdom.Element("rect", map[string]any{
			"class":  "demo-node",
			"x":      60,
			"y":      90,
			"width":  120,
			"height": 80,
			"rx":     6,
		}),
		vdom.Element("rect", map[string]any{
			"class":  "demo-node",
			"x":      340,
			"y":      250,
			"width":  120,
			"height": 80,
			"rx":     6,
		}),
	}
}

// Labels sit in the HTML layer on top of the shapes.
func Labels() []*vdom.VNode {
	label := func(text string, x, y int) *vdom.VNode {
		n := vdom.Div(map[string]any{
			"class": "demo-label",
			"style": "left: " + vdom.FormatAttr(x) + "px; top: " + vdom.FormatAttr(y) + "px;",
		})
		n.SetContent(text)
		return n
	}
	return []*vdom.VNode{
		label("Source", 60, 90),
		label("Target", 340, 250),
	}
}

func Hint() *vdom.VNode {
	n := vdom.Div(map[string]any{"class": "demo-hint"})
	n.SetContent("Drag the background to pan, scroll to zoom.")
	return n
}
