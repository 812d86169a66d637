// Package config loads the diagram server configuration from TOML, with
// command-line overrides and live reload of the diagram options.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/pelletier/go-toml/v2"

	"github.com/vcrobe/nojs-diagrams/diagram"
)

// DefaultPath is where the server looks for its configuration.
const DefaultPath = "~/.config/nojs-diagrams/config.toml"

// Config is the server configuration.
type Config struct {
	Addr      string          `toml:"addr"`
	LogLevel  string          `toml:"log_level"`
	LogFormat string          `toml:"log_format"`
	Dev       bool            `toml:"dev"`
	Diagram   diagram.Options `toml:"diagram"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Addr:      "localhost:8080",
		LogLevel:  "info",
		LogFormat: "text",
		Diagram:   diagram.DefaultOptions(),
	}
}

// Load reads path over the defaults. A leading ~ is expanded. A missing
// file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	full, err := homedir.Expand(path)
	if err != nil {
		return cfg, fmt.Errorf("expand %s: %w", path, err)
	}

	f, err := os.Open(full)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}
	defer f.Close()

	if err := Decode(f, &cfg); err != nil {
		return cfg, fmt.Errorf("%s: %w", full, err)
	}
	return cfg, nil
}

// Decode reads TOML from r into cfg and validates the result. Unknown keys
// are rejected.
func Decode(r io.Reader, cfg *Config) error {
	dec := toml.NewDecoder(r).DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			keys := make([]string, 0, len(strict.Errors))
			for _, e := range strict.Errors {
				keys = append(keys, strings.Join(e.Key(), "."))
			}
			return fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
		}
		return err
	}
	return cfg.Validate()
}

// Encode writes cfg as TOML.
func Encode(w io.Writer, cfg Config) error {
	return toml.NewEncoder(w).Encode(cfg)
}

// Validate checks every field.
func (c Config) Validate() error {
	if c.Addr == "" {
		return errors.New("addr is empty")
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log_format %q (want text or json)", c.LogFormat)
	}
	if err := c.Diagram.Validate(); err != nil {
		return fmt.Errorf("diagram: %w", err)
	}
	return nil
}

func parseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return 0, fmt.Errorf("unknown log_level %q", s)
	}
	return l, nil
}

// NewLogger builds the logger described by the configuration.
func (c Config) NewLogger(w io.Writer) *slog.Logger {
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	if c.Dev {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// RegisterFlags binds command-line overrides to cfg. Call it after Load
// and before flag parsing.
func RegisterFlags(fs *flag.FlagSet, cfg *Config) {
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "The address to listen on.")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "The log level (debug, info, warn, error).")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "The log format (text or json).")
	fs.BoolVar(&cfg.Dev, "dev", cfg.Dev, "Log at debug level.")
	fs.BoolVar(&cfg.Diagram.AllowPanning, "allow-panning", cfg.Diagram.AllowPanning, "Pan by dragging the canvas background.")
	fs.BoolVar(&cfg.Diagram.Zoom.Enabled, "zoom", cfg.Diagram.Zoom.Enabled, "Zoom with the mouse wheel.")
	fs.BoolVar(&cfg.Diagram.Zoom.Inverse, "zoom-inverse", cfg.Diagram.Zoom.Inverse, "Invert the wheel zoom direction.")
}
