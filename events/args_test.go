//go:build !wasm

package events

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vcrobe/nojs-diagrams/diagram"
)

// TestWheelEventArgs_DecodesDOMPayload verifies that a payload shaped like
// the browser's WheelEvent decodes and converts without losing fields.
func TestWheelEventArgs_DecodesDOMPayload(t *testing.T) {
	payload := `{"clientX":12.5,"clientY":40,"button":0,"buttons":1,"ctrlKey":true,
		"pointerId":3,"pointerType":"mouse","isPrimary":true,
		"deltaX":0,"deltaY":-120,"deltaMode":0}`

	var args WheelEventArgs
	require.NoError(t, json.Unmarshal([]byte(payload), &args))

	want := diagram.WheelEvent{
		PointerEvent: diagram.PointerEvent{
			ClientX:   12.5,
			ClientY:   40,
			Buttons:   1,
			CtrlKey:   true,
			PointerID: 3,
			Type:      "mouse",
			IsPrimary: true,
		},
		DeltaY: -120,
	}
	assert.Equal(t, want, args.ToCore())
}

func TestKeyboardEventArgs_ToCore(t *testing.T) {
	args := KeyboardEventArgs{Key: "z", Code: "KeyZ", CtrlKey: true, Repeat: true}

	assert.Equal(t, diagram.KeyboardEvent{Key: "z", Code: "KeyZ", CtrlKey: true, Repeat: true}, args.ToCore())
}
