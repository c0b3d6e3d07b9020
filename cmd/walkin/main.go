// Package main is the entry point for the walkin CLI.
//
// walkin can be used either as a library (SDK) or as a standalone binary
// with optional YAML configuration. This CLI provides the standalone binary.
//
// Usage:
//
//	walkin serve -c config.yaml    # Serve the walk-in page and API
//	walkin list --near -36.85,174.76
//	walkin validate -c config.yaml # Validate configuration
//	walkin version                 # Show version info
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information - set by GoReleaser at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCmd is the base command when called without subcommands.
var rootCmd = &cobra.Command{
	Use:   "walkin",
	Short: "Find vaccination clinics that accept walk-ins today",
	Long: `walkin finds vaccination clinics that are open today and accept walk-in
or drive-through visits, using the public Healthpoint clinic directory.

The directory is fetched once per run. Locations restricted to enrolled
patients or to invited people are left out.

Quick start:
  walkin list                        # print today's walk-in clinics
  walkin list --near -36.85,174.76   # nearest first
  walkin serve                       # web page on http://localhost:8080

Example config:
  title: Walk-in vaccinations
  port: 8080
  directory_url: https://raw.githubusercontent.com/CovidEngine/vaxxnzlocations/main/healthpointLocations.json
  timeout: 30s`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// Cobra already prints the error, just exit with code 1
		os.Exit(1)
	}
}

func main() {
	Execute()
}

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash, and build date of this walkin binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "walkin %s\n", version)
		fmt.Fprintf(out, "  commit: %s\n", commit)
		fmt.Fprintf(out, "  built:  %s\n", date)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
