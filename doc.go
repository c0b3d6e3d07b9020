// Package walkin finds vaccination clinics that accept walk-in or
// drive-through visits today.
//
// walkin fetches the Healthpoint clinic directory once, keeps the outcome in
// a shared store that any number of consumers can read and subscribe to, and
// filters it down to locations that are open today, take walk-in or
// drive-through visits, and are not restricted to enrolled or invited
// patients.
//
// # Quick Start
//
//	f, _ := walkin.New()
//	defer f.Close()
//
//	result, _ := f.Load(ctx)
//	for _, loc := range result.WalkIns().LocationsOrEmpty() {
//	    fmt.Println(loc.Name, loc.OpenTodayHours)
//	}
//
// # Serving
//
// [Finder.Start] serves a small web page and a JSON API until its context is
// cancelled:
//
//	f, _ := walkin.New(walkin.WithPort(9090), walkin.WithTitle("Walk-ins near you"))
//
//	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer stop()
//
//	f.Start(ctx) // blocks until context is cancelled
//
// # Fetching and Caching
//
// The directory is requested at most once per [Finder]: concurrent mounts
// share one in-flight request and later mounts read the published result.
// Only successes are memoized by the fetcher; a failure is published to the
// store as a failed result and is not retried until [Finder.Refresh] or
// [Finder.Reset] is called.
//
// # Architecture
//
//   - directory: data model, walk-in filter and distance ordering (public)
//   - internal/fetcher: HTTP client and fetch-once memoization
//   - internal/store: shared result slot with publish/subscribe
//   - internal/server: web page, REST API and Server-Sent Events
//   - dashboard: embedded page assets
//   - config: YAML configuration for the walkin binary
package walkin
