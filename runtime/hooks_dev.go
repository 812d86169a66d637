//go:build dev

package runtime

// callHook invokes a lifecycle method in development mode.
// In dev mode, panics propagate to aid debugging and fast failure.
func callHook(name, key string, fn func()) {
	fn()
}

// callErrHook invokes an error-returning lifecycle method in development mode.
func callErrHook(name, key string, fn func() error) error {
	return fn()
}
