// Package debug serves a read-only HTTP view of live sessions: their
// scene trees, their current frames and a timeline of recent ticks.
//
// Sessions are single-goroutine objects, so every handler that touches one
// dispatches onto the frame loop and waits for the tick to run it.
package debug

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-drift/stage/pkg/errors"
	"github.com/go-drift/stage/pkg/frame"
	"github.com/go-drift/stage/pkg/render"
	"github.com/go-drift/stage/pkg/scene"
	"github.com/go-drift/stage/pkg/stage"
)

// DefaultTimeout bounds how long a handler waits for the loop to pick up
// its request.
const DefaultTimeout = 2 * time.Second

// maxTreeDepth limits recursion depth when serializing malformed trees.
const maxTreeDepth = 500

var errLoopTimeout = errors.New("frame loop did not run the request in time")

// Server inspects the sessions of a registry that tick on one loop.
type Server struct {
	// Timeout overrides DefaultTimeout when positive.
	Timeout time.Duration

	registry *stage.Registry
	loop     *frame.Loop
	trace    *FrameTraceBuffer

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
	handle   frame.Handle
	last     time.Time
}

// New creates a server for the sessions of registry. A nil registry uses
// stage.DefaultRegistry.
func New(loop *frame.Loop, registry *stage.Registry) *Server {
	if registry == nil {
		registry = stage.DefaultRegistry
	}
	return &Server{
		registry: registry,
		loop:     loop,
		trace:    NewFrameTraceBuffer(0, 0),
	}
}

// Trace returns the frame trace buffer filled while the server runs.
func (s *Server) Trace() *FrameTraceBuffer {
	return s.trace
}

// Handler returns the HTTP handler serving the debug endpoints.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/sessions", s.handleSessions)
	mux.HandleFunc("/scene", s.handleScene)
	mux.HandleFunc("/frame", s.handleFrame)
	mux.HandleFunc("/frames", s.handleFrames)
	return mux
}

// Start listens on addr and serves in the background. It returns the
// bound port, which is useful when addr asks for an ephemeral one. If the
// server is already running the current port is returned.
func (s *Server) Start(addr string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server != nil {
		return s.listener.Addr().(*net.TCPAddr).Port, nil
	}

	// Bind first to fail fast on port conflicts
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return 0, fmt.Errorf("debug server listen: %w", err)
	}

	server := &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}
	s.server = server
	s.listener = listener
	s.last = time.Time{}
	s.handle = s.loop.Register(s.sample)

	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.mu.Lock()
			if s.server == server {
				s.server = nil
				s.listener = nil
			}
			s.mu.Unlock()
			errors.Logger().Error("debug server stopped", "err", err)
		}
	}()

	port := listener.Addr().(*net.TCPAddr).Port
	errors.Logger().Info("debug server listening", "port", port)
	return port, nil
}

// Stop gracefully shuts the server down. It is a no-op when not running.
func (s *Server) Stop() {
	s.mu.Lock()
	server := s.server
	s.server = nil
	s.listener = nil
	if server != nil {
		s.loop.Unregister(s.handle)
	}
	s.mu.Unlock()

	if server == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	server.Shutdown(ctx)
}

// sample runs on the loop goroutine once per tick.
func (s *Server) sample(now time.Time) {
	var delta time.Duration
	if !s.last.IsZero() {
		delta = now.Sub(s.last)
	}
	s.last = now

	fs := FrameSample{
		Timestamp: now.UnixMilli(),
		FrameMs:   durationToMillis(delta),
	}
	for _, id := range s.registry.IDs() {
		sess, ok := s.registry.Get(id)
		if !ok || sess.Disposed() {
			continue
		}
		fs.Sessions++
		fs.Elements += sess.Len()
		if sess.Animating() {
			fs.Animating++
		}
	}
	s.trace.Add(fs, delta)
}

// onLoop runs fn on the frame loop and waits for it. A panic inside fn is
// returned as an error.
func (s *Server) onLoop(ctx context.Context, fn func()) error {
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	done := make(chan any, 1)
	s.loop.Dispatch(func() {
		defer func() { done <- recover() }()
		fn()
	})

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case rec := <-done:
		if rec == nil {
			return nil
		}
		if e, ok := rec.(error); ok {
			return e
		}
		return &errors.PanicError{Op: "debug.Server", Value: rec, Timestamp: time.Now()}
	case <-timer.C:
		return errLoopTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}

// lookup finds the session named by the "id" query parameter.
func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*stage.Session, bool) {
	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "missing id", http.StatusBadRequest)
		return nil, false
	}
	sess, ok := s.registry.Get(id)
	if !ok {
		http.Error(w, fmt.Sprintf("no session %q", id), http.StatusNotFound)
		return nil, false
	}
	return sess, true
}

func loopError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errLoopTimeout):
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	case errors.KindOf(err) == errors.KindDisposed:
		http.Error(w, "session disposed", http.StatusGone)
	case errors.Is(err, errors.ErrUnsupportedFormat):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	// Encode to buffer first so we can catch errors
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		http.Error(w, fmt.Sprintf("json encode error: %v", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

func allowGet(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// SessionInfo summarizes one session for /sessions.
type SessionInfo struct {
	ID           string `json:"id"`
	Backend      string `json:"backend"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	Elements     int    `json:"elements"`
	Hovers       int    `json:"hovers"`
	Animating    bool   `json:"animating"`
	NeedsRefresh bool   `json:"needsRefresh"`
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}
	infos := []SessionInfo{}
	err := s.onLoop(r.Context(), func() {
		for _, id := range s.registry.IDs() {
			sess, ok := s.registry.Get(id)
			if !ok || sess.Disposed() {
				continue
			}
			infos = append(infos, SessionInfo{
				ID:           id,
				Backend:      sess.Backend(),
				Width:        sess.Width(),
				Height:       sess.Height(),
				Elements:     sess.Len(),
				Hovers:       len(sess.Hovers()),
				Animating:    sess.Animating(),
				NeedsRefresh: sess.NeedsRefresh(),
			})
		}
	})
	if err != nil {
		loopError(w, err)
		return
	}
	writeJSON(w, infos)
}

// SafeFloat wraps a float64 to handle Inf/NaN in JSON encoding.
type SafeFloat float64

func (f SafeFloat) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsInf(v, 1) {
		return []byte(`"Infinity"`), nil
	}
	if math.IsInf(v, -1) {
		return []byte(`"-Infinity"`), nil
	}
	if math.IsNaN(v) {
		return []byte(`"NaN"`), nil
	}
	return json.Marshal(v)
}

// SceneNode is one element of the serialized scene tree.
type SceneNode struct {
	ID        string        `json:"id"`
	Kind      string        `json:"kind"`
	Z         int           `json:"z"`
	ZLevel    int           `json:"zlevel"`
	Position  [2]SafeFloat  `json:"position"`
	Scale     [2]SafeFloat  `json:"scale"`
	Rotation  SafeFloat     `json:"rotation"`
	Invisible bool          `json:"invisible,omitempty"`
	Silent    bool          `json:"silent,omitempty"`
	Animators int           `json:"animators,omitempty"`
	Bounds    *[4]SafeFloat `json:"bounds,omitempty"`
	Children  []SceneNode   `json:"children,omitempty"`
}

// SceneTree is the /scene response shape.
type SceneTree struct {
	ID    string      `json:"id"`
	Roots []SceneNode `json:"roots"`
	Hover []SceneNode `json:"hover,omitempty"`
}

func serializeElement(el *scene.Element, depth int) SceneNode {
	node := SceneNode{
		ID:        el.ID,
		Kind:      el.Kind,
		Z:         el.Z,
		ZLevel:    el.ZLevel,
		Position:  [2]SafeFloat{SafeFloat(el.Position[0]), SafeFloat(el.Position[1])},
		Scale:     [2]SafeFloat{SafeFloat(el.Scale[0]), SafeFloat(el.Scale[1])},
		Rotation:  SafeFloat(el.Rotation),
		Invisible: el.Invisible,
		Silent:    el.Silent,
		Animators: len(el.Animators()),
	}
	if !el.IsGroup() {
		if path, err := el.GlobalPath(); err == nil {
			b := path.Bounds()
			node.Bounds = &[4]SafeFloat{SafeFloat(b.Left), SafeFloat(b.Top), SafeFloat(b.Right), SafeFloat(b.Bottom)}
		}
	}
	if depth >= maxTreeDepth {
		return node
	}
	for _, child := range el.Children() {
		node.Children = append(node.Children, serializeElement(child, depth+1))
	}
	return node
}

func (s *Server) handleScene(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	tree := SceneTree{ID: sess.ID(), Roots: []SceneNode{}}
	err := s.onLoop(r.Context(), func() {
		for _, root := range sess.Roots() {
			tree.Roots = append(tree.Roots, serializeElement(root, 0))
		}
		for _, el := range sess.Hovers() {
			tree.Hover = append(tree.Hover, serializeElement(el, 0))
		}
	})
	if err != nil {
		loopError(w, err)
		return
	}
	writeJSON(w, tree)
}

// handleFrame exports the session's current frame. The optional "format"
// and "bg" parameters are passed to Session.ToDataURL.
func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	format := r.URL.Query().Get("format")
	if format == "" {
		format = render.FormatPNG
	}
	bg := r.URL.Query().Get("bg")

	var url string
	var exportErr error
	err := s.onLoop(r.Context(), func() {
		url, exportErr = sess.ToDataURL(format, bg)
	})
	if err == nil {
		err = exportErr
	}
	if err != nil {
		loopError(w, err)
		return
	}

	mediaType, data, err := render.DecodeDataURL(url)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", mediaType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Write(data)
}

// handleFrames returns the recent frame timeline. "last" keeps only the
// newest samples and "minMs" keeps frames at least that long.
func (s *Server) handleFrames(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}
	resp := s.trace.Snapshot()
	applyFrameFilters(r, &resp)
	writeJSON(w, resp)
}

func applyFrameFilters(r *http.Request, resp *FrameTimeline) {
	if v := parseFloatQuery(r, "minMs"); v > 0 {
		filtered := make([]FrameSample, 0, len(resp.Samples))
		for _, sample := range resp.Samples {
			if sample.FrameMs >= v {
				filtered = append(filtered, sample)
			}
		}
		resp.Samples = filtered
	}
	if value := r.URL.Query().Get("last"); value != "" {
		if n, err := strconv.Atoi(value); err == nil && n > 0 && len(resp.Samples) > n {
			resp.Samples = resp.Samples[len(resp.Samples)-n:]
		}
	}
	if resp.Samples == nil {
		resp.Samples = []FrameSample{}
	}
}

func parseFloatQuery(r *http.Request, key string) float64 {
	value := r.URL.Query().Get(key)
	if value == "" {
		return 0
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0
	}
	return parsed
}
