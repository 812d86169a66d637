//go:build !wasm

package config

import (
	"bytes"
	"context"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
addr = ":9000"
log_level = "debug"
log_format = "json"

[diagram]
allow_panning = false

[diagram.zoom]
enabled = true
inverse = true
minimum = 0.5
maximum = 4
scale_factor = 1.1
`

func TestDecode(t *testing.T) {
	cfg := Default()
	require.NoError(t, Decode(strings.NewReader(sample), &cfg))

	assert.Equal(t, ":9000", cfg.Addr)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.False(t, cfg.Diagram.AllowPanning)
	assert.True(t, cfg.Diagram.Zoom.Inverse)
	assert.Equal(t, 0.5, cfg.Diagram.Zoom.Minimum)
	assert.Equal(t, 4.0, cfg.Diagram.Zoom.Maximum)
	assert.Equal(t, 1.1, cfg.Diagram.Zoom.ScaleFactor)
}

func TestDecode_KeepsDefaultsForMissingKeys(t *testing.T) {
	cfg := Default()
	require.NoError(t, Decode(strings.NewReader(`addr = ":1"`), &cfg))
	assert.Equal(t, Default().Diagram, cfg.Diagram)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestDecode_Rejects(t *testing.T) {
	tests := []struct {
		name string
		toml string
		want string
	}{
		{"unknown key", `colour = "red"`, "colour"},
		{"bad level", `log_level = "loud"`, "log_level"},
		{"bad format", `log_format = "xml"`, "log_format"},
		{"inverted bounds", "[diagram.zoom]\nminimum = 3\nmaximum = 1", "diagram"},
		{"empty addr", `addr = ""`, "addr"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			err := Decode(strings.NewReader(tt.toml), &cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_MissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestEncode_RoundTrips(t *testing.T) {
	want := Default()
	want.Diagram.Zoom.Inverse = true

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, want))

	got := Default()
	require.NoError(t, Decode(&buf, &got))
	assert.Equal(t, want, got)
}

func TestRegisterFlags_Overrides(t *testing.T) {
	cfg := Default()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	RegisterFlags(fs, &cfg)
	require.NoError(t, fs.Parse([]string{"-addr", ":7000", "-zoom=false", "-dev"}))

	assert.Equal(t, ":7000", cfg.Addr)
	assert.False(t, cfg.Diagram.Zoom.Enabled)
	assert.True(t, cfg.Dev)
	assert.True(t, cfg.Diagram.AllowPanning)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := Default()
	cfg.LogFormat = "json"
	log := cfg.NewLogger(&buf)

	log.Debug("hidden")
	log.Info("shown", "zoom", 1.5)
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)

	buf.Reset()
	cfg.Dev = true
	cfg.NewLogger(&buf).Debug("visible")
	assert.Contains(t, buf.String(), "visible")
}

func TestWatch_ReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`addr = ":1"`), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	got := make(chan Config, 4)
	require.NoError(t, Watch(ctx, path, func(c Config) { got <- c }))

	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))

	deadline := time.After(5 * time.Second)
	for {
		select {
		case c := <-got:
			if c.Addr == ":9000" {
				assert.False(t, c.Diagram.AllowPanning)
				return
			}
		case <-deadline:
			t.Fatal("no reload observed")
		}
	}
}
