// Package config provides YAML configuration parsing for the walkin binary.
//
// This package enables running walkin as a standalone binary with a
// configuration file, as an alternative to the programmatic SDK approach.
//
// Example configuration:
//
//	title: Walk-in vaccinations
//	port: 8080
//	directory_url: ${WALKIN_DIRECTORY_URL:-https://raw.githubusercontent.com/CovidEngine/vaxxnzlocations/main/healthpointLocations.json}
//	timeout: 30s
//	log_level: info
//
// Every field is optional.
package config

import (
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jpalmerr/walkin"
)

const (
	// minTimeout and maxTimeout bound the directory request timeout. The
	// directory is a single large JSON file, so very short timeouts fail
	// on slow links.
	minTimeout = 1 * time.Second
	maxTimeout = 5 * time.Minute

	defaultPort    = 8080
	defaultTimeout = 30 * time.Second
)

// Config is the root configuration structure for walkin.
//
// It maps directly to the YAML configuration file structure.
// Use [Load] or [Parse] to create a Config from YAML.
type Config struct {
	// Title is the page title. Defaults to "Find a walk-in" if not set.
	Title string `yaml:"title"`

	// Port is the HTTP server port. Defaults to 8080.
	Port int `yaml:"port"`

	// DirectoryURL is the clinic directory to fetch.
	// Supports environment variable substitution: ${VAR} or ${VAR:-default}
	// Defaults to [walkin.DefaultDirectoryURL].
	DirectoryURL string `yaml:"directory_url"`

	// Timeout is the directory request timeout.
	// Accepts duration strings like "10s", "1m". Defaults to 30s.
	Timeout Duration `yaml:"timeout"`

	// LogLevel is one of debug, info, warn or error. Defaults to info.
	LogLevel string `yaml:"log_level"`
}

// Duration wraps time.Duration for YAML unmarshalling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
// Group 1: variable name
// Group 2: the ":-default" part (if present, indicates a default was specified)
// Group 3: the default value (may be empty for ${VAR:-})
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with environment values.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if firstErr != nil {
			return match
		}

		submatches := envVarPattern.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		varName := submatches[1]
		hasDefault := len(submatches) > 2 && submatches[2] != ""
		defaultVal := ""
		if hasDefault && len(submatches) > 3 {
			defaultVal = submatches[3]
		}

		value, exists := os.LookupEnv(varName)
		if !exists {
			if hasDefault {
				return defaultVal
			}
			firstErr = fmt.Errorf("environment variable %q is not set", varName)
			return match
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// Load reads and parses a YAML configuration file.
//
// Environment variables in the file are expanded before parsing.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Port:         defaultPort,
		DirectoryURL: walkin.DefaultDirectoryURL,
		Timeout:      Duration(defaultTimeout),
		LogLevel:     "info",
	}
}

// Parse parses YAML configuration data.
//
// Environment variables are expanded in DirectoryURL and Title. Defaults are
// applied for Port (8080), DirectoryURL, Timeout (30s) and LogLevel (info).
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := cfg.expandAndValidate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// expandAndValidate expands environment variables, applies defaults and
// validates the config.
func (c *Config) expandAndValidate() error {
	expanded, err := expandEnvVars(c.Title)
	if err != nil {
		return fmt.Errorf("title: %w", err)
	}
	c.Title = expanded

	expanded, err = expandEnvVars(c.DirectoryURL)
	if err != nil {
		return fmt.Errorf("directory_url: %w", err)
	}
	c.DirectoryURL = strings.TrimSpace(expanded)

	if c.Port == 0 {
		c.Port = defaultPort
	}
	if c.DirectoryURL == "" {
		c.DirectoryURL = walkin.DefaultDirectoryURL
	}
	if c.Timeout == 0 {
		c.Timeout = Duration(defaultTimeout)
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}

	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}

	parsedURL, err := url.Parse(c.DirectoryURL)
	if err != nil {
		return fmt.Errorf("invalid directory_url: %w", err)
	}
	if parsedURL.Scheme == "" {
		return fmt.Errorf("directory_url must have a scheme (http:// or https://)")
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("directory_url scheme must be http or https, got %q", parsedURL.Scheme)
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("directory_url must have a host")
	}

	if c.Timeout.Duration() < minTimeout {
		return fmt.Errorf("timeout must be at least %s, got %s", minTimeout, c.Timeout.Duration())
	}
	if c.Timeout.Duration() > maxTimeout {
		return fmt.Errorf("timeout must not exceed %s, got %s", maxTimeout, c.Timeout.Duration())
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
		c.LogLevel = strings.ToLower(c.LogLevel)
	default:
		return fmt.Errorf("log_level must be debug, info, warn or error, got %q", c.LogLevel)
	}

	return nil
}
