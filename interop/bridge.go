// Package interop is the boundary between Go components and the host
// page: bounding-rect queries, resize observation, and object references
// the host can call back into.
//
// Every host call returns a Status next to its error. Disconnected and
// Cancelled are ordinary outcomes of a page going away; callers branch on
// them instead of inspecting errors.
package interop

import (
	"context"

	"github.com/vcrobe/nojs-diagrams/diagram"
	"github.com/vcrobe/nojs-diagrams/vdom"
)

// Host-side method names.
const (
	MethodGetBoundingClientRect = "getBoundingClientRect"
	MethodObserveResizes        = "observeResizes"
	MethodUnobserveResizes      = "unobserveResizes"
)

// Status is the outcome class of a host call.
type Status int

const (
	// StatusOK means the call reached the host. The error may still be set
	// if the host reported a failure.
	StatusOK Status = iota
	// StatusDisconnected means the channel to the host is gone.
	StatusDisconnected
	// StatusCancelled means the caller's context ended before or during
	// the call.
	StatusCancelled
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusDisconnected:
		return "disconnected"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Interrupted reports whether the call was cut short by teardown.
func (s Status) Interrupted() bool {
	return s == StatusDisconnected || s == StatusCancelled
}

// Bridge is the host page as seen from a component.
type Bridge interface {
	GetBoundingClientRect(ctx context.Context, el vdom.ElementRef) (diagram.Rect, Status, error)
	ObserveResizes(ctx context.Context, el vdom.ElementRef, ref *ObjectRef) (Status, error)
	UnobserveResizes(ctx context.Context, el vdom.ElementRef) (Status, error)
}

// Precheck returns StatusCancelled if ctx is already done. Bridges call it
// before touching the host.
func Precheck(ctx context.Context) Status {
	if ctx.Err() != nil {
		return StatusCancelled
	}
	return StatusOK
}
