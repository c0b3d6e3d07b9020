package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/walkin"
	"github.com/jpalmerr/walkin/config"
	"github.com/jpalmerr/walkin/directory"
)

// listGrace is added to the request timeout when waiting for the result, so
// the fetch reports its own timeout before the command gives up.
const listGrace = 5 * time.Second

// listCmd fetches the directory once and prints it.
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print today's walk-in clinics",
	Long: `Fetch the clinic directory once and print the locations that are open
today and accept walk-in or drive-through visits.

Example:
  walkin list
  walkin list --near -36.85,174.76
  walkin list --all --json`,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringP("config", "c", "", "path to config file")
	listCmd.Flags().Bool("all", false, "print every location, not only walk-ins")
	listCmd.Flags().Bool("json", false, "print locations as JSON")
	listCmd.Flags().String("near", "", "sort by distance from lat,lng")
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	all, _ := cmd.Flags().GetBool("all")
	asJSON, _ := cmd.Flags().GetBool("json")
	near, _ := cmd.Flags().GetString("near")

	var origin *[2]float64
	if near != "" {
		lat, lng, err := parseNear(near)
		if err != nil {
			return err
		}
		origin = &[2]float64{lat, lng}
	}

	f, err := walkin.New(config.BuildOptions(cfg, newLogger(cfg.Level()))...)
	if err != nil {
		return fmt.Errorf("failed to create finder: %w", err)
	}
	defer f.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Timeout.Duration()+listGrace)
	defer cancel()

	result, err := f.Load(ctx)
	if err != nil {
		return fmt.Errorf("timed out waiting for directory: %w", err)
	}
	if result.State == directory.StateFailed {
		return fmt.Errorf("failed to fetch directory: %w", result.Err)
	}

	if !all {
		result = result.WalkIns()
	}
	locs := result.LocationsOrEmpty()
	if origin != nil {
		locs = directory.SortByDistance(locs, origin[0], origin[1])
	}

	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(locs)
	}
	return printTable(out, locs, origin)
}

// parseNear parses "lat,lng".
func parseNear(s string) (float64, float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return 0, 0, errors.New("--near must be lat,lng")
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil || lat < -90 || lat > 90 {
		return 0, 0, fmt.Errorf("--near: invalid latitude %q", parts[0])
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil || lng < -180 || lng > 180 {
		return 0, 0, fmt.Errorf("--near: invalid longitude %q", parts[1])
	}
	return lat, lng, nil
}

func printTable(out io.Writer, locs []directory.Location, origin *[2]float64) error {
	if len(locs) == 0 {
		_, err := fmt.Fprintln(out, "No matching locations today.")
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	if origin != nil {
		fmt.Fprintln(tw, "NAME\tTODAY\tDISTANCE\tADDRESS")
	} else {
		fmt.Fprintln(tw, "NAME\tTODAY\tADDRESS")
	}
	for _, l := range locs {
		hours := l.OpenTodayHours
		if hours == "" {
			hours = "-"
		}
		if origin != nil {
			fmt.Fprintf(tw, "%s\t%s\t%.1f km\t%s\n", l.Name, hours, l.DistanceKm(origin[0], origin[1]), l.Address)
		} else {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", l.Name, hours, l.Address)
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(out, "\n%d locations\n", len(locs))
	return err
}
