package config

import (
	"log/slog"

	"github.com/jpalmerr/walkin"
)

// BuildOptions converts parsed configuration into SDK options.
//
// The logger is passed through unchanged; a nil logger leaves the SDK
// default in place.
func BuildOptions(cfg *Config, logger *slog.Logger) []walkin.Option {
	opts := []walkin.Option{
		walkin.WithDirectoryURL(cfg.DirectoryURL),
		walkin.WithTimeout(cfg.Timeout.Duration()),
		walkin.WithPort(cfg.Port),
	}

	if cfg.Title != "" {
		opts = append(opts, walkin.WithTitle(cfg.Title))
	}
	if logger != nil {
		opts = append(opts, walkin.WithLogger(logger))
	}

	return opts
}

// Level returns the slog level named by LogLevel.
func (c *Config) Level() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
