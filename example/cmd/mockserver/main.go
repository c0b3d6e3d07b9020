// Standalone mock directory server for testing the CLI.
//
// Usage:
//
//	go run ./example/cmd/mockserver
//
// Then in another terminal:
//
//	go run ./cmd/walkin list -c example/config.yaml
//	go run ./cmd/walkin serve -c example/config.yaml
//
// Requests with ?status=503 fail with that status, for trying out the
// failed state.
package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"time"
)

func main() {
	fmt.Println("Mock directory server starting on :9999")
	fmt.Println("Directory: http://localhost:9999/healthpointLocations.json")
	fmt.Println("Press Ctrl+C to stop")
	fmt.Println()

	http.HandleFunc("/healthpointLocations.json", func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(time.Duration(200+rand.Intn(400)) * time.Millisecond)

		if s := r.URL.Query().Get("status"); s != "" {
			code, err := strconv.Atoi(s)
			if err == nil && code >= 400 && code <= 599 {
				slog.Info("failing request", "status", code)
				http.Error(w, http.StatusText(code), code)
				return
			}
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(directory())
	})

	if err := http.ListenAndServe(":9999", nil); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

// directory returns a small fixed directory covering each access rule.
func directory() []map[string]any {
	entry := func(name string, lat, lng float64, open bool, instructions ...string) map[string]any {
		hours := ""
		if open {
			hours = "9:00 AM - 5:00 PM"
		}
		return map[string]any{
			"lat":            lat,
			"lng":            lng,
			"name":           name,
			"branch":         "vaccination",
			"isOpenToday":    open,
			"openTodayHours": hours,
			"url":            "https://www.healthpoint.co.nz/",
			"instructionLis": instructions,
			"address":        name + ", New Zealand",
		}
	}

	return []map[string]any{
		entry("Ponsonby Pharmacy", -36.8560, 174.7460, true, "Walk in"),
		entry("Manukau Drive-through", -36.9928, 174.8799, true, "Drive through"),
		entry("Newtown Medical", -41.3127, 174.7790, true, "Walk in", "Eligible GP enrolled patients only"),
		entry("Riccarton Clinic", -43.5300, 172.5960, true, "By invitation only", "Drive through"),
		entry("Hamilton East Pharmacy", -37.7960, 175.2980, false, "Walk in"),
		entry("Dunedin Central", -45.8740, 170.5030, true, "Make an appointment"),
		entry("Tauranga Walk-in", -37.6860, 176.1670, true, "Walk in", "Make an appointment"),
	}
}
