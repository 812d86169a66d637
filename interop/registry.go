package interop

import (
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/vcrobe/nojs-diagrams/diagram"
	"github.com/vcrobe/nojs-diagrams/vdom"
)

// MethodOnResize is the only method the host may invoke on an ObjectRef.
const MethodOnResize = "OnResize"

var (
	// ErrReleased is returned when the host calls a released reference.
	ErrReleased = errors.New("interop: object reference released")
	// ErrUnknownRef is returned for ids the registry never issued or has
	// already dropped.
	ErrUnknownRef = errors.New("interop: unknown object reference")
	// ErrUnknownMethod is returned for methods a reference does not expose.
	ErrUnknownMethod = errors.New("interop: unknown method")
)

// ResizeReceiver is implemented by components that want resize callbacks.
type ResizeReceiver interface {
	OnResize(rect diagram.Rect)
}

// Registry is the callback table the host addresses by reference id.
// References observing an element are also indexed by element identity.
type Registry struct {
	mu        sync.RWMutex
	next      uint64
	refs      map[string]*ObjectRef
	byElement map[string]*ObjectRef
}

// Default is the process-wide registry, used by components that are not
// given one. Browser builds have a single host and use it throughout.
var Default = NewRegistry()

// NewRegistry creates an empty registry. Use one per host connection.
func NewRegistry() *Registry {
	return &Registry{
		refs:      make(map[string]*ObjectRef),
		byElement: make(map[string]*ObjectRef),
	}
}

// Create issues a reference for target.
func (r *Registry) Create(target ResizeReceiver) *ObjectRef {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next++
	ref := &ObjectRef{
		id:       strconv.FormatUint(r.next, 10),
		registry: r,
		target:   target,
	}
	r.refs[ref.id] = ref
	return ref
}

// Lookup returns the live reference with the given id.
func (r *Registry) Lookup(id string) (*ObjectRef, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ref, ok := r.refs[id]
	return ref, ok
}

// Bind records that ref observes el, replacing any previous observer.
func (r *Registry) Bind(el vdom.ElementRef, ref *ObjectRef) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byElement[el.ID] = ref
}

// Unbind forgets the observer of el and returns it, if any.
func (r *Registry) Unbind(el vdom.ElementRef) *ObjectRef {
	r.mu.Lock()
	defer r.mu.Unlock()
	ref := r.byElement[el.ID]
	delete(r.byElement, el.ID)
	return ref
}

// ForElement returns the reference observing el.
func (r *Registry) ForElement(el vdom.ElementRef) (*ObjectRef, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ref, ok := r.byElement[el.ID]
	return ref, ok
}

// Len returns the number of live references.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.refs)
}

// Invoke dispatches a host call to the reference with the given id.
// decode fills the method's argument.
func (r *Registry) Invoke(id, method string, decode func(any) error) error {
	ref, ok := r.Lookup(id)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownRef, id)
	}
	switch method {
	case MethodOnResize:
		var rect diagram.Rect
		if err := decode(&rect); err != nil {
			return fmt.Errorf("decode %s argument: %w", method, err)
		}
		return ref.OnResize(rect)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownMethod, method)
	}
}

func (r *Registry) release(ref *ObjectRef) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.refs, ref.id)
	for el, bound := range r.byElement {
		if bound == ref {
			delete(r.byElement, el)
		}
	}
}

// ObjectRef is a handle the host can call back through.
type ObjectRef struct {
	id       string
	registry *Registry
	target   ResizeReceiver
	released atomic.Bool
}

// ID returns the identifier sent to the host.
func (o *ObjectRef) ID() string {
	return o.id
}

// OnResize forwards a resize to the target.
func (o *ObjectRef) OnResize(rect diagram.Rect) error {
	if o.released.Load() {
		return ErrReleased
	}
	o.target.OnResize(rect)
	return nil
}

// Release drops the reference from its registry. Safe to call more than
// once.
func (o *ObjectRef) Release() {
	if o.released.Swap(true) {
		return
	}
	o.registry.release(o)
}

// Released reports whether Release has been called.
func (o *ObjectRef) Released() bool {
	return o.released.Load()
}
