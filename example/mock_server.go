package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"time"
)

var (
	mockTowns = []struct {
		name     string
		lat, lng float64
	}{
		{"Auckland", -36.8485, 174.7633},
		{"Hamilton", -37.7870, 175.2793},
		{"Tauranga", -37.6878, 176.1651},
		{"Napier", -39.4928, 176.9120},
		{"Wellington", -41.2865, 174.7762},
		{"Nelson", -41.2706, 173.2840},
		{"Christchurch", -43.5321, 172.6362},
		{"Dunedin", -45.8788, 170.5028},
	}

	mockInstructions = [][]string{
		{"Walk in"},
		{"Drive through"},
		{"Walk in", "Make an appointment"},
		{"Make an appointment"},
		{"Walk in", "Eligible GP enrolled patients only"},
		{"By invitation only"},
		{"Anyone currently eligible can access", "Allows bookings"},
	}
)

// mockDirectory builds a directory in the published healthpointLocations
// format: two clinics per town with random opening and access rules.
func mockDirectory() []map[string]any {
	locs := make([]map[string]any, 0, len(mockTowns)*2)
	for _, town := range mockTowns {
		for i, kind := range []string{"Pharmacy", "Medical Centre"} {
			open := rand.Intn(4) != 0
			hours := ""
			if open {
				hours = fmt.Sprintf("%d:00 AM - %d:00 PM", 8+rand.Intn(2), 4+rand.Intn(3))
			}
			locs = append(locs, map[string]any{
				"lat":            town.lat + float64(i)*0.01,
				"lng":            town.lng + float64(i)*0.01,
				"name":           town.name + " " + kind,
				"branch":         "vaccination",
				"isOpenToday":    open,
				"openTodayHours": hours,
				"url":            "https://www.healthpoint.co.nz/",
				"instructionLis": mockInstructions[rand.Intn(len(mockInstructions))],
				"address":        fmt.Sprintf("%d Main Street, %s", 10+rand.Intn(90), town.name),
				"telephone":      fmt.Sprintf("(0%d) %03d %04d", 3+rand.Intn(7), rand.Intn(1000), rand.Intn(10000)),
				"opennningHours": map[string]any{
					"schedule":   map[string]string{"Monday": hours},
					"exceptions": map[string]string{},
					"notesHtml":  []string{},
				},
			})
		}
	}
	return locs
}

// StartMockDirectoryServer serves a generated clinic directory at
// /healthpointLocations.json. Each request regenerates the directory after a
// short delay. Call this in a goroutine before creating the Finder.
func StartMockDirectoryServer(addr string) {
	http.HandleFunc("/healthpointLocations.json", func(w http.ResponseWriter, r *http.Request) {
		// simulate a slow download
		time.Sleep(time.Duration(200+rand.Intn(400)) * time.Millisecond)

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(mockDirectory()); err != nil {
			slog.Error("failed to encode mock directory", "error", err)
		}
	})

	if err := http.ListenAndServe(addr, nil); err != nil {
		slog.Error("mock server error", "error", err)
	}
}
