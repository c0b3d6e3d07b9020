package server

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jpalmerr/walkin/directory"
	"github.com/jpalmerr/walkin/internal/store"
)

const (
	// sseWriteTimeout is the maximum time allowed for a single SSE write.
	// Must be <= shutdown timeout to ensure clean shutdown.
	sseWriteTimeout = 5 * time.Second

	// sseBuffer is how many transitions a slow SSE client may lag behind
	// before further transitions are dropped for it.
	sseBuffer = 16

	defaultTitle     = "Find a walk-in"
	titlePlaceholder = "{{.Title}}"
)

// RefreshFunc starts a new directory fetch.
type RefreshFunc func(ctx context.Context)

// Server handles HTTP requests for the walk-in page and API.
type Server struct {
	store      store.Store
	refresh    RefreshFunc
	port       int
	httpServer *http.Server
	assets     fs.FS
	title      string
	logger     *slog.Logger
}

// resultView is the JSON representation of a directory.Result.
type resultView struct {
	State     string               `json:"state"`
	Count     int                  `json:"count"`
	Locations []directory.Location `json:"locations"`
	Error     *string              `json:"error"`
}

func newResultView(r directory.Result) resultView {
	view := resultView{
		State:     r.State.String(),
		Locations: r.LocationsOrEmpty(),
	}
	view.Count = len(view.Locations)
	if r.Err != nil {
		msg := r.Err.Error()
		view.Error = &msg
	}
	return view
}

// NewServer creates a new HTTP [Server].
//
// Parameters:
//   - st: the shared location store
//   - refresh: called by POST /api/refresh (may be nil to disable it)
//   - port: TCP port to listen on
//   - assets: embedded filesystem containing page assets (may be nil)
//   - title: page title (defaults to "Find a walk-in" if empty)
//   - logger: logger for server events
//
// The server is not started until [Server.Start] is called.
func NewServer(st store.Store, refresh RefreshFunc, port int, assets fs.FS, title string, logger *slog.Logger) *Server {
	return &Server{
		store:   st,
		refresh: refresh,
		port:    port,
		assets:  assets,
		title:   title,
		logger:  logger,
	}
}

// Handler returns the request multiplexer with all routes registered.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/locations", s.handleLocations)
	mux.HandleFunc("/api/walkins", s.handleWalkIns)
	mux.HandleFunc("/api/sse", s.handleSSE)
	mux.HandleFunc("/api/refresh", s.handleRefresh)
	mux.HandleFunc("/healthz", s.handleHealth)

	if s.assets != nil {
		mux.HandleFunc("/", s.handlePage)
	}
	return mux
}

// Start begins serving HTTP requests in a background goroutine.
//
// Start returns once the listener is bound. The server runs until the
// context is cancelled, then shuts down gracefully with a 5-second timeout.
// Returns an error if the server fails to bind to the configured port.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to bind to port %d: %w", s.port, err)
	}

	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		// request contexts derive from ctx so SSE handlers end on shutdown
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error("http server error", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("http server shutdown error", "error", err)
		}
	}()

	return nil
}

// handlePage serves the walk-in page.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	content, err := fs.ReadFile(s.assets, "assets/index.html")
	if err != nil {
		http.Error(w, "Page not found", http.StatusInternalServerError)
		return
	}

	title := s.title
	if title == "" {
		title = defaultTitle
	}
	rendered := strings.ReplaceAll(string(content), titlePlaceholder, html.EscapeString(title))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err = w.Write([]byte(rendered)); err != nil {
		s.logger.Error("failed to write page response", "error", err)
	}
}

// handleLocations returns the unfiltered shared result.
func (s *Server) handleLocations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.writeJSON(w, http.StatusOK, newResultView(s.store.Read()))
}

// handleWalkIns returns the walk-in eligible subset, optionally ordered by
// distance from the lat/lng query parameters.
func (s *Server) handleWalkIns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	result := s.store.Read().WalkIns()

	q := r.URL.Query()
	if q.Has("lat") || q.Has("lng") {
		lat, errLat := strconv.ParseFloat(q.Get("lat"), 64)
		lng, errLng := strconv.ParseFloat(q.Get("lng"), 64)
		if errLat != nil || errLng != nil || lat < -90 || lat > 90 || lng < -180 || lng > 180 {
			http.Error(w, "lat and lng must both be valid coordinates", http.StatusBadRequest)
			return
		}
		if result.State == directory.StateSucceeded {
			result = directory.Succeeded(directory.SortByDistance(result.Locations, lat, lng))
		}
	}

	s.writeJSON(w, http.StatusOK, newResultView(result))
}

// handleRefresh starts a new directory fetch and returns the (loading) result.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.refresh == nil {
		http.Error(w, "Refresh not available", http.StatusNotImplemented)
		return
	}

	s.refresh(r.Context())
	s.writeJSON(w, http.StatusAccepted, newResultView(s.store.Read()))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

// handleSSE streams result transitions via Server-Sent Events.
//
// The current result is sent first. With ?filter=walkins every event
// carries the walk-in subset instead of the full directory. Writes use
// deadlines so a stalled client cannot pin the handler.
func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	if _, ok := w.(http.Flusher); !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	walkInsOnly := r.URL.Query().Get("filter") == "walkins"
	connID := uuid.NewString()

	rc := http.NewResponseController(w)
	deadlinesSupported := true

	writeAndFlush := func(result directory.Result) error {
		if walkInsOnly {
			result = result.WalkIns()
		}
		data, err := json.Marshal(newResultView(result))
		if err != nil {
			// nothing in a result fails to marshal; skip rather than drop the client
			s.logger.Error("failed to encode sse event", "conn_id", connID, "error", err)
			return nil
		}

		if deadlinesSupported {
			if err := rc.SetWriteDeadline(time.Now().Add(sseWriteTimeout)); err != nil {
				s.logger.Warn("sse write deadlines not supported", "error", err)
				deadlinesSupported = false
			}
		}

		if _, err := fmt.Fprintf(w, "event: result\ndata: %s\n\n", data); err != nil {
			return err
		}
		return rc.Flush()
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	// subscribe before the snapshot so no transition falls between them
	ch := make(chan directory.Result, sseBuffer)
	unsubscribe := s.store.Subscribe(func(result directory.Result) {
		select {
		case ch <- result:
		default:
			// slow client, drop the transition
		}
	})
	defer unsubscribe()

	s.logger.Debug("sse client connected", "conn_id", connID, "walkins_only", walkInsOnly)
	defer s.logger.Debug("sse client disconnected", "conn_id", connID)

	if err := writeAndFlush(s.store.Read()); err != nil {
		return
	}

	for {
		select {
		case result := <-ch:
			if err := writeAndFlush(result); err != nil {
				return
			}
		case <-r.Context().Done():
			return
		}
	}
}
