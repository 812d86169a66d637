//go:build !dev

package runtime

import (
	"fmt"

	"github.com/vcrobe/nojs-diagrams/console"
)

// callHook invokes a lifecycle method in production mode.
// In production mode, panics are recovered and logged to prevent application crashes.
func callHook(name, key string, fn func()) {
	defer func() {
		if rec := recover(); rec != nil {
			console.Error(fmt.Sprintf("ERROR: %s panic in component %s: %v", name, key, rec))
		}
	}()
	fn()
}

// callErrHook invokes an error-returning lifecycle method in production mode.
// A panic is recovered and returned as an error.
func callErrHook(name, key string, fn func() error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%s panic in component %s: %v", name, key, rec)
		}
	}()
	return fn()
}
