//go:build !(js || wasm)

package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vcrobe/nojs-diagrams/config"
)

func TestOverrideFlags_SurviveReload(t *testing.T) {
	args := []string{"-config", "diagrams.toml", "-zoom-inverse", "-allow-panning=false", "-zoom=false"}

	reloaded := config.Default()
	require.NoError(t, config.Decode(strings.NewReader(`
[diagram]
allow_panning = true

[diagram.zoom]
enabled = true
inverse = false
minimum = 0.5
`), &reloaded))

	got, err := overrideFlags(reloaded, args)
	require.NoError(t, err)
	assert.True(t, got.Diagram.Zoom.Inverse)
	assert.False(t, got.Diagram.AllowPanning)
	assert.False(t, got.Diagram.Zoom.Enabled)
	assert.Equal(t, 0.5, got.Diagram.Zoom.Minimum, "file values without a flag stay")
}

func TestOverrideFlags_NoFlagsKeepsFile(t *testing.T) {
	reloaded := config.Default()
	reloaded.Diagram.Zoom.Inverse = true

	got, err := overrideFlags(reloaded, nil)
	require.NoError(t, err)
	assert.Equal(t, reloaded, got)
}

func TestOverrideFlags_RejectsBadFlags(t *testing.T) {
	_, err := overrideFlags(config.Default(), []string{"-log-format", "xml"})
	assert.Error(t, err)

	_, err = overrideFlags(config.Default(), []string{"-no-such-flag"})
	assert.Error(t, err)
}
