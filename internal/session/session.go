// Package session serves diagram canvases rendered on the server. Each
// WebSocket connection gets its own diagram, canvas, host and dispatcher;
// the browser only paints markup and forwards input.
package session

import (
	"context"
	"embed"
	"encoding/json"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/vcrobe/nojs-diagrams/components/canvas"
	"github.com/vcrobe/nojs-diagrams/console"
	"github.com/vcrobe/nojs-diagrams/diagram"
	"github.com/vcrobe/nojs-diagrams/internal/demo"
	"github.com/vcrobe/nojs-diagrams/interop"
	"github.com/vcrobe/nojs-diagrams/interop/wsbridge"
	"github.com/vcrobe/nojs-diagrams/runtime"
	"github.com/vcrobe/nojs-diagrams/vdom"
)

//go:embed static
var static embed.FS

const disposeTimeout = 2 * time.Second

// Server accepts canvas sessions.
type Server struct {
	mux *http.ServeMux

	mu       sync.Mutex
	options  diagram.Options
	sessions map[*Session]struct{}
}

// NewServer creates a server whose new sessions start with opts.
func NewServer(opts diagram.Options) *Server {
	s := &Server{
		mux:      http.NewServeMux(),
		options:  opts,
		sessions: make(map[*Session]struct{}),
	}
	files, err := fs.Sub(static, "static")
	if err != nil {
		panic(err)
	}
	s.mux.Handle("GET /", http.FileServerFS(files))
	s.mux.HandleFunc("GET /ws", s.serveWS)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Options returns the options new sessions start with.
func (s *Server) Options() diagram.Options {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.options
}

// SetOptions changes the options of new sessions and applies them to the
// live ones.
func (s *Server) SetOptions(opts diagram.Options) {
	s.mu.Lock()
	s.options = opts
	live := make([]*Session, 0, len(s.sessions))
	for sess := range s.sessions {
		live = append(live, sess)
	}
	s.mu.Unlock()

	for _, sess := range live {
		sess.dispatcher.Invoke(func() { sess.diagram.SetOptions(opts) })
	}
}

// Len returns the number of live sessions.
func (s *Server) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Close disconnects every live session.
func (s *Server) Close() {
	s.mu.Lock()
	live := make([]*Session, 0, len(s.sessions))
	for sess := range s.sessions {
		live = append(live, sess)
	}
	s.mu.Unlock()

	for _, sess := range live {
		if err := sess.conn.Close(); err != nil {
			console.Warn("session close:", err.Error())
		}
	}
}

func (s *Server) add(sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess] = struct{}{}
}

func (s *Server) remove(sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sess)
}

// Session is one connected page.
type Session struct {
	diagram    *diagram.Diagram
	canvas     *canvas.Surface
	host       *runtime.Host
	dispatcher *runtime.Dispatcher
	conn       *wsbridge.Conn
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	registry := interop.NewRegistry()
	sess := &Session{
		diagram:    diagram.New(s.Options()),
		dispatcher: runtime.NewDispatcher(),
	}

	conn, err := wsbridge.Upgrade(w, r, registry,
		wsbridge.WithScheduler(sess.dispatcher.Invoke),
		wsbridge.WithEventHandler(sess.handleEvent),
	)
	if err != nil {
		console.Warn("websocket upgrade failed:", err.Error())
		return
	}
	sess.conn = conn
	sess.canvas = &canvas.Surface{
		Diagram:        sess.diagram,
		Bridge:         conn,
		Registry:       registry,
		Class:          "diagram-demo",
		AdditionalSvg:  demo.Shapes(),
		AdditionalHTML: demo.Labels(),
		Widgets:        []*vdom.VNode{demo.Hint()},
	}
	sess.host = runtime.NewHost(sess.canvas,
		runtime.WithDispatcher(sess.dispatcher),
		runtime.WithRenderSink(sess.paint),
	)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	s.add(sess)
	defer s.remove(sess)
	console.Log("session opened:", r.RemoteAddr)

	go sess.dispatcher.Run(ctx)
	sess.dispatcher.Invoke(func() {
		if err := sess.host.Start(ctx); err != nil {
			console.Error("session start:", err.Error())
		}
	})

	if err := conn.Serve(ctx); err != nil {
		console.Warn("session read:", err.Error())
	}
	sess.teardown()
	console.Log("session closed:", r.RemoteAddr)
}

// teardown disposes the component tree on the session's thread. The
// connection is already gone, so host calls made while disposing report
// StatusDisconnected and are ignored by the canvas.
func (sess *Session) teardown() {
	defer sess.dispatcher.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), disposeTimeout)
	defer cancel()
	err := sess.dispatcher.Call(ctx, func() {
		if err := sess.host.Dispose(ctx); err != nil {
			console.Error("session dispose:", err.Error())
		}
	})
	if err != nil {
		console.Warn("session dispose skipped:", err.Error())
	}
}

func (sess *Session) paint(root *vdom.VNode) {
	markup, err := vdom.HTML(root)
	if err != nil {
		console.Error("render html:", err.Error())
		return
	}
	if err := sess.conn.Render(markup); err != nil {
		console.Warn("send render:", err.Error())
	}
}

func (sess *Session) handleEvent(ref, event string, payload json.RawMessage) {
	err := vdom.Dispatch(sess.host.Current(), ref, event, func(v any) error {
		return json.Unmarshal(payload, v)
	})
	if err != nil {
		console.Warn("event dropped:", err.Error())
	}
}
