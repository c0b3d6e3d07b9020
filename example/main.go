package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jpalmerr/walkin"
	"github.com/jpalmerr/walkin/directory"
)

func main() {
	// start mock directory (see mock_server.go)
	go StartMockDirectoryServer(":9999")
	time.Sleep(100 * time.Millisecond)

	f, err := walkin.New(
		walkin.WithDirectoryURL("http://localhost:9999/healthpointLocations.json"),
		walkin.WithTitle("Walk-in Demo"),
		walkin.WithPort(8080),
		walkin.WithResultCallback(func(r directory.Result) {
			switch r.State {
			case directory.StateSucceeded:
				slog.Info("directory ready",
					"locations", len(r.Locations),
					"walkins", len(directory.FilterWalkInEligible(r.Locations)),
				)
			case directory.StateFailed:
				slog.Warn("directory unavailable", "error", r.Err)
			}
		}),
	)
	if err != nil {
		slog.Error("failed to create finder", "error", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println("  Walk-in Demo")
	fmt.Println()
	fmt.Println("  Open http://localhost:8080 in your browser")
	fmt.Println("  The mock directory has 16 clinics in 8 towns.")
	fmt.Println("  POST /api/refresh to fetch a new random directory.")
	fmt.Println()
	fmt.Println("  Press Ctrl+C to stop")
	fmt.Println()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := f.Start(ctx); err != nil {
		slog.Error("walkin error", "error", err)
		os.Exit(1)
	}
}
