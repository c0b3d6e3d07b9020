package walkin

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/jpalmerr/walkin/directory"
)

// finderConfig holds mutable state during Finder construction.
type finderConfig struct {
	title           string
	directoryURL    string
	timeout         time.Duration
	port            int
	logger          *slog.Logger
	httpClient      *http.Client
	resultCallbacks []func(directory.Result)
}

// Option is a function that configures a [Finder] instance during construction.
//
// Option implements the functional options pattern, allowing optional
// configuration to be passed to [New] in a type-safe, extensible way.
// Options return an error if validation fails.
type Option func(*finderConfig) error

// WithDirectoryURL sets the URL of the clinic directory.
//
// The URL must be absolute with an http or https scheme. Defaults to
// [DefaultDirectoryURL].
//
// Example:
//
//	f, err := walkin.New(
//	    walkin.WithDirectoryURL("https://mirror.example.org/healthpointLocations.json"),
//	)
func WithDirectoryURL(rawURL string) Option {
	return func(cfg *finderConfig) error {
		parsed, err := url.Parse(rawURL)
		if err != nil {
			return errors.New("invalid directory URL: " + err.Error())
		}
		if parsed.Scheme != "http" && parsed.Scheme != "https" {
			return errors.New("directory URL must have an http or https scheme")
		}
		if parsed.Host == "" {
			return errors.New("directory URL must have a host")
		}
		cfg.directoryURL = rawURL
		return nil
	}
}

// WithTimeout sets the timeout of the directory request.
//
// Defaults to 30 seconds. Returns an error if the duration is zero or
// negative.
func WithTimeout(d time.Duration) Option {
	return func(cfg *finderConfig) error {
		if d <= 0 {
			return errors.New("timeout must be positive")
		}
		cfg.timeout = d
		return nil
	}
}

// WithPort sets the HTTP port used by [Finder.Start].
//
// Defaults to 8080. Returns an error if the port is outside 1-65535.
func WithPort(port int) Option {
	return func(cfg *finderConfig) error {
		if port < 1 || port > 65535 {
			return errors.New("port must be between 1 and 65535")
		}
		cfg.port = port
		return nil
	}
}

// WithLogger sets a custom [slog.Logger] for the Finder.
//
// If not specified, [slog.Default] is used. Returns an error if the logger
// is nil.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *finderConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithHTTPClient sets the HTTP client used to fetch the directory, e.g. one
// with a custom transport. Returns an error if the client is nil.
func WithHTTPClient(hc *http.Client) Option {
	return func(cfg *finderConfig) error {
		if hc == nil {
			return errors.New("http client cannot be nil")
		}
		cfg.httpClient = hc
		return nil
	}
}

// WithTitle sets the page title shown by the embedded walk-in page.
//
// If not specified, defaults to "Find a walk-in".
func WithTitle(title string) Option {
	return func(cfg *finderConfig) error {
		cfg.title = title
		return nil
	}
}

// WithResultCallback registers a function called on every change of the
// shared result (loading, succeeded, failed).
//
// Callbacks run synchronously, in registration order, on the goroutine
// that published the result. They must not block. Panics are recovered and
// logged. Nil callbacks are ignored.
//
// Example:
//
//	f, err := walkin.New(
//	    walkin.WithResultCallback(func(r directory.Result) {
//	        if r.State == directory.StateFailed {
//	            log.Printf("directory unavailable: %v", r.Err)
//	        }
//	    }),
//	)
func WithResultCallback(cb func(directory.Result)) Option {
	return func(cfg *finderConfig) error {
		if cb == nil {
			return nil
		}
		cfg.resultCallbacks = append(cfg.resultCallbacks, cb)
		return nil
	}
}
