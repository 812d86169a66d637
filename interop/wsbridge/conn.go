// Package wsbridge implements interop.Bridge over a WebSocket, for pages
// rendered on the server. The browser runs a small client script that
// answers invokes, forwards DOM events and calls object references back.
package wsbridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vcrobe/nojs-diagrams/console"
	"github.com/vcrobe/nojs-diagrams/interop"
)

// Message types.
const (
	TypeInvoke   = "invoke"   // server to client: call a host method
	TypeResult   = "result"   // client to server: outcome of an invoke
	TypeCallback = "callback" // client to server: call an object reference
	TypeEvent    = "event"    // client to server: DOM event on a referenced element
	TypeRender   = "render"   // server to client: replace the mount's markup
)

const writeWait = 10 * time.Second

// ErrClosed is returned by calls made on, or interrupted by, a closed
// connection.
var ErrClosed = errors.New("wsbridge: connection closed")

// Message is the single frame type exchanged with the client.
type Message struct {
	Type   string          `json:"type"`
	ID     uint64          `json:"id,omitempty"`
	Method string          `json:"method,omitempty"`
	Args   json.RawMessage `json:"args,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
	Ref    string          `json:"ref,omitempty"`
	Event  string          `json:"event,omitempty"`
	HTML   string          `json:"html,omitempty"`
}

// RemoteError is a failure reported by the client script.
type RemoteError struct {
	Method  string
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("wsbridge: %s failed on client: %s", e.Method, e.Message)
}

// EventHandler receives DOM events forwarded by the client. ref is the
// element reference id, payload the JSON-encoded event.
type EventHandler func(ref, event string, payload json.RawMessage)

// Option configures a Conn.
type Option func(*Conn)

// WithScheduler runs callbacks and events through schedule instead of on
// the read goroutine. Pass runtime.Dispatcher.Invoke to keep them on the
// session's logical thread.
func WithScheduler(schedule func(func()) bool) Option {
	return func(c *Conn) { c.schedule = schedule }
}

// WithEventHandler sets the receiver of forwarded DOM events.
func WithEventHandler(h EventHandler) Option {
	return func(c *Conn) { c.onEvent = h }
}

// Conn is one client connection. It is safe for concurrent use.
type Conn struct {
	ws       *websocket.Conn
	registry *interop.Registry
	schedule func(func()) bool
	onEvent  EventHandler

	writeMu sync.Mutex

	mu      sync.Mutex
	nextID  uint64
	pending map[uint64]chan Message

	closed    chan struct{}
	closeOnce sync.Once
}

var _ interop.Bridge = (*Conn)(nil)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Upgrade upgrades an HTTP request and wraps the connection. Host calls
// from the client are resolved in registry.
func Upgrade(w http.ResponseWriter, r *http.Request, registry *interop.Registry, opts ...Option) (*Conn, error) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, err
	}
	return New(ws, registry, opts...), nil
}

// New wraps an established WebSocket.
func New(ws *websocket.Conn, registry *interop.Registry, opts ...Option) *Conn {
	c := &Conn{
		ws:       ws,
		registry: registry,
		schedule: func(fn func()) bool { fn(); return true },
		pending:  make(map[uint64]chan Message),
		closed:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Done is closed once the connection is gone.
func (c *Conn) Done() <-chan struct{} {
	return c.closed
}

// Serve reads frames until the client disconnects, ctx ends or Close is
// called. A normal close returns nil.
func (c *Conn) Serve(ctx context.Context) error {
	defer c.shutdown()

	go func() {
		select {
		case <-ctx.Done():
			c.shutdown()
		case <-c.closed:
		}
	}()

	for {
		var m Message
		if err := c.ws.ReadJSON(&m); err != nil {
			select {
			case <-c.closed:
				return nil
			default:
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("wsbridge: read: %w", err)
		}
		c.handle(m)
	}
}

func (c *Conn) handle(m Message) {
	switch m.Type {
	case TypeResult:
		c.mu.Lock()
		ch, ok := c.pending[m.ID]
		delete(c.pending, m.ID)
		c.mu.Unlock()
		if ok {
			ch <- m
		}
	case TypeCallback:
		c.dispatch(func() {
			if err := c.registry.Invoke(m.Ref, m.Method, decoder(m.Args)); err != nil {
				console.Warn("wsbridge: callback", m.Method, "on", m.Ref, "failed:", err.Error())
			}
		})
	case TypeEvent:
		if c.onEvent == nil {
			return
		}
		c.dispatch(func() { c.onEvent(m.Ref, m.Event, m.Args) })
	default:
		console.Warn("wsbridge: unexpected message type", m.Type)
	}
}

func (c *Conn) dispatch(fn func()) {
	if !c.schedule(fn) {
		console.Warn("wsbridge: dropped client message: scheduler stopped")
	}
}

func decoder(raw json.RawMessage) func(any) error {
	return func(v any) error {
		if len(raw) == 0 {
			return errors.New("missing arguments")
		}
		return json.Unmarshal(raw, v)
	}
}

// Invoke calls method on the client and decodes its result into result,
// which may be nil.
func (c *Conn) Invoke(ctx context.Context, method string, args, result any) (interop.Status, error) {
	if st := interop.Precheck(ctx); st != interop.StatusOK {
		return st, ctx.Err()
	}
	select {
	case <-c.closed:
		return interop.StatusDisconnected, ErrClosed
	default:
	}

	raw, err := json.Marshal(args)
	if err != nil {
		return interop.StatusOK, fmt.Errorf("wsbridge: encode %s arguments: %w", method, err)
	}

	id, ch := c.register()
	defer c.unregister(id)

	if err := c.write(Message{Type: TypeInvoke, ID: id, Method: method, Args: raw}); err != nil {
		c.shutdown()
		return interop.StatusDisconnected, err
	}

	select {
	case m := <-ch:
		if m.Error != "" {
			return interop.StatusOK, &RemoteError{Method: method, Message: m.Error}
		}
		if result != nil && len(m.Result) > 0 {
			if err := json.Unmarshal(m.Result, result); err != nil {
				return interop.StatusOK, fmt.Errorf("wsbridge: decode %s result: %w", method, err)
			}
		}
		return interop.StatusOK, nil
	case <-ctx.Done():
		return interop.StatusCancelled, ctx.Err()
	case <-c.closed:
		return interop.StatusDisconnected, ErrClosed
	}
}

func (c *Conn) register() (uint64, chan Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	ch := make(chan Message, 1)
	c.pending[c.nextID] = ch
	return c.nextID, ch
}

func (c *Conn) unregister(id uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.pending, id)
}

func (c *Conn) write(m Message) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.ws.WriteJSON(m)
}

// Render sends new markup for the page's mount element.
func (c *Conn) Render(html string) error {
	select {
	case <-c.closed:
		return ErrClosed
	default:
	}
	return c.write(Message{Type: TypeRender, HTML: html})
}

// Close says goodbye to the client and tears the connection down.
// Pending calls fail with StatusDisconnected.
func (c *Conn) Close() error {
	c.writeMu.Lock()
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	err := c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
	c.writeMu.Unlock()
	c.shutdown()
	if errors.Is(err, websocket.ErrCloseSent) {
		return nil
	}
	return err
}

func (c *Conn) shutdown() {
	c.closeOnce.Do(func() {
		close(c.closed)
		c.ws.Close()
	})
}
