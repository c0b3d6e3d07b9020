package server

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"testing/fstest"
	"time"

	"github.com/jpalmerr/walkin/directory"
	"github.com/jpalmerr/walkin/internal/store"
)

// testLogger returns a logger that discards all output for clean test output.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testLocations() []directory.Location {
	return []directory.Location{
		directory.Tag(directory.RawLocation{
			Name: "Far Walk-in", Lat: -43.53, Lng: 172.63, IsOpenToday: true,
			Instructions: []directory.Instruction{directory.WalkIn},
		}),
		directory.Tag(directory.RawLocation{
			Name: "Closed", Lat: -36.85, Lng: 174.76, IsOpenToday: false,
			Instructions: []directory.Instruction{directory.WalkIn},
		}),
		directory.Tag(directory.RawLocation{
			Name: "Near Drive-through", Lat: -36.86, Lng: 174.77, IsOpenToday: true,
			Instructions: []directory.Instruction{directory.DriveThrough},
		}),
	}
}

func newTestServer(st store.Store, refresh RefreshFunc) *Server {
	return NewServer(st, refresh, 0, nil, "", testLogger())
}

func decodeView(t *testing.T, body io.Reader) resultView {
	t.Helper()
	var view resultView
	if err := json.NewDecoder(body).Decode(&view); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return view
}

func TestHandleLocations(t *testing.T) {
	st := store.NewMemoryStore(testLogger())
	st.Publish(directory.Succeeded(testLocations()))
	srv := newTestServer(st, nil)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/locations", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	view := decodeView(t, rec.Body)
	if view.State != "succeeded" {
		t.Errorf("state = %q, want succeeded", view.State)
	}
	if view.Count != 3 || len(view.Locations) != 3 {
		t.Errorf("count = %d, len = %d, want 3", view.Count, len(view.Locations))
	}
	if !view.Locations[0].IsHealthpoint {
		t.Error("isHealthpoint = false, want true")
	}
	if view.Error != nil {
		t.Errorf("error = %q, want nil", *view.Error)
	}
}

func TestHandleLocations_Loading(t *testing.T) {
	srv := newTestServer(store.NewMemoryStore(testLogger()), nil)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/locations", nil))

	view := decodeView(t, rec.Body)
	if view.State != "loading" {
		t.Errorf("state = %q, want loading", view.State)
	}
	if view.Locations == nil || len(view.Locations) != 0 {
		t.Errorf("locations = %v, want empty list", view.Locations)
	}
}

func TestHandleLocations_Failed(t *testing.T) {
	st := store.NewMemoryStore(testLogger())
	st.Publish(directory.Failed(errors.New("directory request failed: connection refused")))
	srv := newTestServer(st, nil)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/locations", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 (failure is reported in the body)", rec.Code)
	}

	view := decodeView(t, rec.Body)
	if view.State != "failed" {
		t.Errorf("state = %q, want failed", view.State)
	}
	if view.Error == nil || !strings.Contains(*view.Error, "connection refused") {
		t.Errorf("error = %v, want message", view.Error)
	}
	if len(view.Locations) != 0 {
		t.Errorf("len(locations) = %d, want 0", len(view.Locations))
	}
}

func TestHandleLocations_MethodNotAllowed(t *testing.T) {
	srv := newTestServer(store.NewMemoryStore(testLogger()), nil)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/locations", nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestHandleWalkIns(t *testing.T) {
	st := store.NewMemoryStore(testLogger())
	st.Publish(directory.Succeeded(testLocations()))
	srv := newTestServer(st, nil)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/walkins", nil))

	view := decodeView(t, rec.Body)
	if view.Count != 2 {
		t.Fatalf("count = %d, want 2", view.Count)
	}
	if view.Locations[0].Name != "Far Walk-in" || view.Locations[1].Name != "Near Drive-through" {
		t.Errorf("order = %s, %s, want directory order", view.Locations[0].Name, view.Locations[1].Name)
	}
}

func TestHandleWalkIns_SortedByDistance(t *testing.T) {
	st := store.NewMemoryStore(testLogger())
	st.Publish(directory.Succeeded(testLocations()))
	srv := newTestServer(st, nil)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/walkins?lat=-36.85&lng=174.76", nil))

	view := decodeView(t, rec.Body)
	if view.Count != 2 {
		t.Fatalf("count = %d, want 2", view.Count)
	}
	if view.Locations[0].Name != "Near Drive-through" {
		t.Errorf("first = %q, want nearest first", view.Locations[0].Name)
	}
}

func TestHandleWalkIns_BadCoordinates(t *testing.T) {
	srv := newTestServer(store.NewMemoryStore(testLogger()), nil)

	for _, query := range []string{"?lat=abc&lng=1", "?lat=1", "?lat=91&lng=0", "?lat=0&lng=181"} {
		t.Run(query, func(t *testing.T) {
			rec := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/walkins"+query, nil))
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestHandleRefresh(t *testing.T) {
	st := store.NewMemoryStore(testLogger())
	st.Publish(directory.Failed(errors.New("down")))

	var calls atomic.Int32
	refresh := func(ctx context.Context) {
		calls.Add(1)
		st.Publish(directory.Loading())
	}
	srv := newTestServer(st, refresh)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/refresh", nil))

	if rec.Code != http.StatusAccepted {
		t.Errorf("status = %d, want 202", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
	if calls.Load() != 1 {
		t.Errorf("refresh called %d times, want 1", calls.Load())
	}
	if view := decodeView(t, rec.Body); view.State != "loading" {
		t.Errorf("state = %q, want loading", view.State)
	}
}

func TestHandleRefresh_Errors(t *testing.T) {
	srv := newTestServer(store.NewMemoryStore(testLogger()), func(context.Context) {})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/refresh", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET status = %d, want 405", rec.Code)
	}

	disabled := newTestServer(store.NewMemoryStore(testLogger()), nil)
	rec = httptest.NewRecorder()
	disabled.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/refresh", nil))
	if rec.Code != http.StatusNotImplemented {
		t.Errorf("disabled status = %d, want 501", rec.Code)
	}
}

func TestHandlePage_TitleEscaped(t *testing.T) {
	assets := fstest.MapFS{
		"assets/index.html": &fstest.MapFile{Data: []byte("<title>{{.Title}}</title>")},
	}
	srv := NewServer(store.NewMemoryStore(testLogger()), nil, 0, assets, `<script>alert(1)</script>`, testLogger())

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	body := rec.Body.String()
	if strings.Contains(body, "<script>") {
		t.Errorf("title not escaped: %s", body)
	}
	if !strings.Contains(body, "&lt;script&gt;") {
		t.Errorf("escaped title missing: %s", body)
	}

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown path status = %d, want 404", rec.Code)
	}
}

func TestHandlePage_DefaultTitle(t *testing.T) {
	assets := fstest.MapFS{
		"assets/index.html": &fstest.MapFile{Data: []byte("<title>{{.Title}}</title>")},
	}
	srv := NewServer(store.NewMemoryStore(testLogger()), nil, 0, assets, "", testLogger())

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if !strings.Contains(rec.Body.String(), "<title>Find a walk-in</title>") {
		t.Errorf("body = %q, want default title", rec.Body.String())
	}
}

func TestHandleSSE_SnapshotThenTransitions(t *testing.T) {
	st := store.NewMemoryStore(testLogger())
	srv := newTestServer(st, nil)

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/sse?filter=walkins", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET /api/sse error = %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q, want text/event-stream", ct)
	}

	events := make(chan resultView, 4)
	go func() {
		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 64<<10), 1<<20)
		for scanner.Scan() {
			line := scanner.Text()
			if !strings.HasPrefix(line, "data: ") {
				continue
			}
			var view resultView
			if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &view); err == nil {
				events <- view
			}
		}
	}()

	next := func() resultView {
		t.Helper()
		select {
		case v := <-events:
			return v
		case <-ctx.Done():
			t.Fatal("timed out waiting for sse event")
			return resultView{}
		}
	}

	if first := next(); first.State != "loading" {
		t.Errorf("first event state = %q, want loading", first.State)
	}

	// wait until the handler has subscribed before publishing
	deadline := time.Now().Add(2 * time.Second)
	for st.Subscribers() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	st.Publish(directory.Succeeded(testLocations()))

	second := next()
	if second.State != "succeeded" {
		t.Errorf("second event state = %q, want succeeded", second.State)
	}
	if second.Count != 2 {
		t.Errorf("second event count = %d, want 2 walk-ins", second.Count)
	}
}

func TestHandleSSE_UnsubscribesOnDisconnect(t *testing.T) {
	st := store.NewMemoryStore(testLogger())
	srv := newTestServer(st, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/api/sse", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	// blocks until the context expires
	srv.handleSSE(rec, req)

	if got := st.Subscribers(); got != 0 {
		t.Errorf("Subscribers() after disconnect = %d, want 0", got)
	}
	if !strings.Contains(rec.Body.String(), `"state":"loading"`) {
		t.Errorf("body = %q, want initial snapshot", rec.Body.String())
	}
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(store.NewMemoryStore(testLogger()), nil)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK || rec.Body.String() != "ok\n" {
		t.Errorf("healthz = %d %q", rec.Code, rec.Body.String())
	}
}

func TestServer_StartAndShutdown(t *testing.T) {
	srv := NewServer(store.NewMemoryStore(testLogger()), nil, 19101, nil, "", testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	if err := srv.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	resp, err := http.Get("http://localhost:19101/healthz")
	if err != nil {
		cancel()
		t.Fatalf("GET /healthz error = %v", err)
	}
	_ = resp.Body.Close()

	cancel()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := http.Get("http://localhost:19101/healthz"); err != nil {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Error("server still serving after context cancellation")
}
