package walkin

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jpalmerr/walkin/directory"
)

func TestWithResultCallback_InvokedOnResult(t *testing.T) {
	ts, _ := directoryServer(t, testDirectory, http.StatusOK, nil)

	var got directory.Result
	var mu sync.Mutex
	cb := func(r directory.Result) {
		mu.Lock()
		got = r
		mu.Unlock()
	}

	f := newTestFinder(t, ts.URL, WithResultCallback(cb))
	loadResult(t, f)

	mu.Lock()
	defer mu.Unlock()
	if got.State != directory.StateSucceeded {
		t.Errorf("callback State = %q, want succeeded", got.State)
	}
	if len(got.Locations) != 3 {
		t.Errorf("callback len(Locations) = %d, want 3", len(got.Locations))
	}
}

func TestWithResultCallback_ExecutionOrder(t *testing.T) {
	ts, _ := directoryServer(t, testDirectory, http.StatusOK, nil)

	var order []int
	var mu sync.Mutex
	record := func(n int) func(directory.Result) {
		return func(directory.Result) {
			mu.Lock()
			order = append(order, n)
			mu.Unlock()
		}
	}

	f := newTestFinder(t, ts.URL,
		WithResultCallback(record(1)),
		WithResultCallback(record(2)),
		WithResultCallback(record(3)),
	)
	loadResult(t, f)

	mu.Lock()
	defer mu.Unlock()
	if len(order) != 3 || order[0] != 1 || order[1] != 2 || order[2] != 3 {
		t.Errorf("callback order = %v, want [1 2 3]", order)
	}
}

func TestWithResultCallback_PanicRecovery(t *testing.T) {
	ts, _ := directoryServer(t, testDirectory, http.StatusOK, nil)

	var buf bytes.Buffer
	var bufMu sync.Mutex
	logger := slog.New(slog.NewTextHandler(&lockedWriter{w: &buf, mu: &bufMu}, nil))

	var after atomic.Int32
	f, err := New(
		WithDirectoryURL(ts.URL),
		WithLogger(logger),
		WithResultCallback(func(directory.Result) { panic("callback exploded") }),
		WithResultCallback(func(directory.Result) { after.Add(1) }),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer f.Close()

	if result := loadResult(t, f); result.State != directory.StateSucceeded {
		t.Fatalf("State = %q, want succeeded", result.State)
	}

	if after.Load() != 1 {
		t.Errorf("callback after panicking one called %d times, want 1", after.Load())
	}

	bufMu.Lock()
	defer bufMu.Unlock()
	logs := buf.String()
	if !strings.Contains(logs, "store subscriber panicked") {
		t.Errorf("log output missing panic entry: %s", logs)
	}
	if !strings.Contains(logs, "correlation_id=") {
		t.Errorf("log output missing correlation id: %s", logs)
	}
}

func TestWithResultCallback_FailedResult(t *testing.T) {
	ts, _ := directoryServer(t, "nope", http.StatusInternalServerError, nil)

	var failed atomic.Int32
	f := newTestFinder(t, ts.URL, WithResultCallback(func(r directory.Result) {
		if r.State == directory.StateFailed && r.Err != nil {
			failed.Add(1)
		}
	}))

	loadResult(t, f)
	time.Sleep(20 * time.Millisecond)

	if failed.Load() != 1 {
		t.Errorf("failed callbacks = %d, want 1", failed.Load())
	}
}

func TestWithResultCallback_ReceivesLoadingOnRefresh(t *testing.T) {
	ts, _ := directoryServer(t, testDirectory, http.StatusOK, nil)

	var states []directory.State
	var mu sync.Mutex
	f := newTestFinder(t, ts.URL, WithResultCallback(func(r directory.Result) {
		mu.Lock()
		states = append(states, r.State)
		mu.Unlock()
	}))

	loadResult(t, f)
	f.Refresh(context.Background())
	loadResult(t, f)

	mu.Lock()
	defer mu.Unlock()
	want := []directory.State{directory.StateSucceeded, directory.StateLoading, directory.StateSucceeded}
	if len(states) != len(want) {
		t.Fatalf("states = %v, want %v", states, want)
	}
	for i := range want {
		if states[i] != want[i] {
			t.Errorf("states[%d] = %q, want %q", i, states[i], want[i])
		}
	}
}

// lockedWriter serializes writes so the log buffer can be read while
// callbacks are still logging.
type lockedWriter struct {
	w  *bytes.Buffer
	mu *sync.Mutex
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
