//go:build !(js || wasm)

package console

import (
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
)

// The actual browser implementation is in console.go with js/wasm build tags.
// Native builds log through slog so the same calls work in servers and tests.

var logger atomic.Pointer[slog.Logger]

// SetLogger replaces the logger used by native builds. A nil logger
// restores slog.Default().
func SetLogger(l *slog.Logger) {
	logger.Store(l)
}

func current() *slog.Logger {
	if l := logger.Load(); l != nil {
		return l
	}
	return slog.Default()
}

// Log writes args at info level.
func Log(args ...any) {
	current().Info(join(args))
}

// Warn writes args at warn level.
func Warn(args ...any) {
	current().Warn(join(args))
}

// Error writes args at error level.
func Error(args ...any) {
	current().Error(join(args))
}

// join mimics the browser console: arguments separated by spaces.
func join(args []any) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = strings.TrimSpace(fmt.Sprint(a))
	}
	return strings.Join(parts, " ")
}
