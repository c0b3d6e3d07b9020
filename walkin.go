package walkin

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jpalmerr/walkin/dashboard"
	"github.com/jpalmerr/walkin/directory"
	"github.com/jpalmerr/walkin/internal/fetcher"
	"github.com/jpalmerr/walkin/internal/server"
	"github.com/jpalmerr/walkin/internal/store"
)

// DefaultDirectoryURL is the published Healthpoint clinic directory.
const DefaultDirectoryURL = "https://raw.githubusercontent.com/CovidEngine/vaxxnzlocations/main/healthpointLocations.json"

const (
	defaultTimeout = 30 * time.Second
	defaultPort    = 8080
)

// Finder owns the shared location store and the directory fetcher.
//
// A Finder starts in the loading state. The first [Finder.Mount] (or
// [Finder.Load], or [Finder.Start]) fetches the directory once and publishes
// the outcome to every subscriber. Later mounts reuse the published result,
// including a failure, until [Finder.Refresh] or [Finder.Reset] is called.
//
// The typical lifecycle is:
//
//	f, err := walkin.New(walkin.WithPort(9090))
//	if err != nil {
//	    slog.Error("failed to create finder", "error", err)
//	    os.Exit(1)
//	}
//
//	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer cancel()
//
//	f.Start(ctx) // blocks until context cancelled
type Finder struct {
	title        string
	directoryURL string
	timeout      time.Duration
	port         int
	logger       *slog.Logger

	dir   *fetcher.Directory
	store *store.MemoryStore

	// mu guards the fetch state of the current generation. It is never held
	// while subscribers run.
	mu         sync.Mutex
	fetching   bool
	loaded     bool
	generation uint64
}

// New creates a new [Finder] with the given options.
//
// Defaults:
//   - Directory URL: [DefaultDirectoryURL]
//   - Timeout: 30 seconds
//   - Port: 8080
//
// Returns an error if any option is invalid.
func New(opts ...Option) (*Finder, error) {
	cfg := &finderConfig{
		directoryURL: DefaultDirectoryURL,
		timeout:      defaultTimeout,
		port:         defaultPort,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	var client *fetcher.Client
	if cfg.httpClient != nil {
		client = fetcher.NewClientWith(cfg.httpClient)
	}

	f := &Finder{
		title:        cfg.title,
		directoryURL: cfg.directoryURL,
		timeout:      cfg.timeout,
		port:         cfg.port,
		logger:       logger,
		dir:          fetcher.NewDirectory(cfg.directoryURL, cfg.timeout, client, logger),
		store:        store.NewMemoryStore(logger),
	}

	for _, cb := range cfg.resultCallbacks {
		f.store.Subscribe(cb)
	}

	return f, nil
}

// Mount triggers the directory fetch if the current generation has no
// result yet and no fetch is in flight. It returns immediately; the outcome
// is published to subscribers when the fetch completes.
//
// A failed fetch is logged and published as a failed result. Mounting after
// a result has been published does nothing until [Finder.Reset] or
// [Finder.Refresh].
func (f *Finder) Mount(ctx context.Context) {
	f.mu.Lock()
	if f.fetching || f.loaded {
		f.mu.Unlock()
		return
	}
	f.fetching = true
	gen := f.generation
	f.mu.Unlock()

	go f.fetch(ctx, gen)
}

func (f *Finder) fetch(ctx context.Context, gen uint64) {
	locs, err := f.dir.Fetch(ctx)

	f.mu.Lock()
	if gen != f.generation {
		// reset while in flight; the newer generation owns the store
		f.mu.Unlock()
		return
	}
	f.fetching = false
	f.loaded = true
	f.mu.Unlock()

	if err != nil {
		f.logger.Error("directory fetch failed", "url", f.directoryURL, "error", err)
		f.publish(gen, directory.Failed(err))
		return
	}
	f.publish(gen, directory.Succeeded(locs))
}

// publish hands result to the store unless a reset has moved past gen by
// the time the store accepts it.
func (f *Finder) publish(gen uint64, result directory.Result) bool {
	return f.store.PublishIf(result, func() bool {
		f.mu.Lock()
		defer f.mu.Unlock()
		return f.generation == gen
	})
}

// Load mounts the finder and waits until the result is no longer loading.
//
// The returned error is only the context's error; a failed fetch is
// reported as a failed [directory.Result].
func (f *Finder) Load(ctx context.Context) (directory.Result, error) {
	f.Mount(ctx)
	return store.Await(ctx, f.store)
}

// Locations returns the current shared result.
func (f *Finder) Locations() directory.Result {
	return f.store.Read()
}

// WalkIns returns the current shared result restricted to walk-in eligible
// locations. Loading and failed results are returned unchanged.
func (f *Finder) WalkIns() directory.Result {
	return f.store.Read().WalkIns()
}

// Subscribe registers fn for every change of the shared result and returns
// a function that removes the subscription.
func (f *Finder) Subscribe(fn func(directory.Result)) (unsubscribe func()) {
	return f.store.Subscribe(fn)
}

// Reset forgets the memoized directory and returns the shared result to
// loading. A fetch in flight is not aborted, but its outcome is discarded.
func (f *Finder) Reset() {
	f.mu.Lock()
	gen := f.newGeneration()
	f.mu.Unlock()

	f.publish(gen, directory.Loading())
}

// Refresh resets the finder and starts a new fetch. A refresh that arrives
// while a fetch of the current generation is in flight joins that fetch
// instead of starting another one.
func (f *Finder) Refresh(ctx context.Context) {
	f.mu.Lock()
	if f.fetching {
		f.mu.Unlock()
		f.logger.Debug("directory refresh joined fetch in flight", "url", f.directoryURL)
		return
	}
	gen := f.newGeneration()
	f.fetching = true
	f.mu.Unlock()

	f.logger.Info("directory refresh requested", "url", f.directoryURL)
	f.publish(gen, directory.Loading())
	go f.fetch(ctx, gen)
}

// newGeneration discards the current generation's fetch state and memoized
// directory. Callers must hold f.mu.
func (f *Finder) newGeneration() uint64 {
	f.generation++
	f.fetching = false
	f.loaded = false
	f.dir.Reset()
	return f.generation
}

// Close tears down the shared store. Results of fetches still in flight are
// discarded. Safe to call multiple times.
func (f *Finder) Close() {
	f.store.Close()
	f.dir.Close()
}

// Start mounts the finder and serves the walk-in page and API.
//
// Start is a blocking call that runs until the provided context is
// cancelled, then closes the finder. Returns nil on graceful shutdown and an
// error if the HTTP server fails to start.
func (f *Finder) Start(ctx context.Context) error {
	f.logger.Info("walkin starting", "directory_url", f.directoryURL)
	f.logger.Info("page available", "url", fmt.Sprintf("http://localhost:%d", f.port))

	if ctx.Err() != nil {
		return nil
	}
	defer f.Close()

	f.Mount(ctx)

	httpServer := server.NewServer(f.store, f.Refresh, f.port, dashboard.Assets, f.title, f.logger)
	if err := httpServer.Start(ctx); err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	<-ctx.Done()
	f.logger.Info("walkin stopped")
	return nil
}

// DirectoryURL returns the configured directory URL.
func (f *Finder) DirectoryURL() string {
	return f.directoryURL
}

// Timeout returns the configured directory request timeout.
func (f *Finder) Timeout() time.Duration {
	return f.timeout
}

// Port returns the configured HTTP port.
func (f *Finder) Port() int {
	return f.port
}

// Requests reports how many directory fetches have gone to the network.
func (f *Finder) Requests() int64 {
	return f.dir.Requests()
}
