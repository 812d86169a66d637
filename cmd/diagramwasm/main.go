//go:build js || wasm
// +build js wasm

// Command diagramwasm runs the diagram canvas inside the browser.
package main

import (
	"context"

	"github.com/vcrobe/nojs-diagrams/components/canvas"
	"github.com/vcrobe/nojs-diagrams/console"
	"github.com/vcrobe/nojs-diagrams/diagram"
	"github.com/vcrobe/nojs-diagrams/internal/demo"
	"github.com/vcrobe/nojs-diagrams/interop"
	"github.com/vcrobe/nojs-diagrams/interop/jsbridge"
	"github.com/vcrobe/nojs-diagrams/runtime"
	"github.com/vcrobe/nojs-diagrams/vdom"
)

func main() {
	// 1. The shared diagram state and the page bridge
	d := diagram.New(diagram.DefaultOptions())
	bridge := jsbridge.New(interop.Default)

	// 2. The canvas, filled with the demo content
	surface := &canvas.Surface{
		Diagram:        d,
		Bridge:         bridge,
		Class:          "diagram-demo",
		AdditionalSvg:  demo.Shapes(),
		AdditionalHTML: demo.Labels(),
		Widgets:        []*vdom.VNode{demo.Hint()},
	}

	// 3. Create the Renderer and perform the first render
	renderer := runtime.NewRenderer(surface, "#app")
	if err := renderer.Start(context.Background()); err != nil {
		console.Error("Error starting canvas:", err.Error())
	}

	// Keep the Go program running
	select {}
}
