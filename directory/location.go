// Package directory defines the Healthpoint clinic directory data model and
// the pure functions that operate on it.
//
// The directory is a JSON array of clinic records published upstream. Each
// record is decoded into a [RawLocation] and tagged as a [Location] so that
// consumers merging several location sources can tell where it came from.
//
// Nothing in this package performs I/O beyond reading from a supplied
// [io.Reader]; fetching and caching live in the internal packages.
package directory

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// ErrDecode is returned (wrapped) when the directory body is not a valid
// JSON array of locations.
var ErrDecode = errors.New("malformed directory body")

// Instruction is an eligibility or access tag attached to a location.
//
// The values are the exact strings used by the upstream directory.
type Instruction string

const (
	AnyoneEligible  Instruction = "Anyone currently eligible can access"
	MakeAppointment Instruction = "Make an appointment"
	EnrolledOnly    Instruction = "Eligible GP enrolled patients only"
	WalkIn          Instruction = "Walk in"
	InvitationOnly  Instruction = "By invitation only"
	DriveThrough    Instruction = "Drive through"
	AllowsBookings  Instruction = "Allows bookings"
)

// Instructions lists every known instruction in declaration order.
var Instructions = []Instruction{
	AnyoneEligible,
	MakeAppointment,
	EnrolledOnly,
	WalkIn,
	InvitationOnly,
	DriveThrough,
	AllowsBookings,
}

// Valid reports whether i is one of the known instructions.
// Unknown values are kept when decoding so a new upstream tag does not
// invalidate the whole directory.
func (i Instruction) Valid() bool {
	for _, known := range Instructions {
		if i == known {
			return true
		}
	}
	return false
}

// String implements fmt.Stringer.
func (i Instruction) String() string {
	return string(i)
}

// OpeningHours is the structured opening-hours record of a location.
type OpeningHours struct {
	// Schedule maps a date label to the hours text for that date.
	Schedule map[string]string `json:"schedule"`

	// Exceptions maps a date label to an override of the regular schedule.
	Exceptions map[string]string `json:"exceptions"`

	// NotesHTML holds free-text notes, as HTML fragments.
	NotesHTML []string `json:"notesHtml"`
}

// RawLocation is a location exactly as received from the directory.
type RawLocation struct {
	Lat            float64       `json:"lat"`
	Lng            float64       `json:"lng"`
	Name           string        `json:"name"`
	Branch         string        `json:"branch"`
	IsOpenToday    bool          `json:"isOpenToday"`
	OpenTodayHours string        `json:"openTodayHours"`
	URL            string        `json:"url"`
	Instructions   []Instruction `json:"instructionLis"`
	Address        string        `json:"address"`
	FaxNumber      string        `json:"faxNumber"`
	Telephone      string        `json:"telephone"`

	// the upstream field name is misspelled; keep it for wire compatibility
	OpeningHours OpeningHours `json:"opennningHours"`
}

// Location is a [RawLocation] tagged as directory-sourced.
//
// IsHealthpoint is the only field added on top of the raw record and is
// always true for values produced by [Tag] or [Decode].
type Location struct {
	RawLocation
	IsHealthpoint bool `json:"isHealthpoint"`
}

// Tag marks a raw record as directory-sourced.
func Tag(raw RawLocation) Location {
	return Location{RawLocation: raw, IsHealthpoint: true}
}

// Untag returns the raw record, dropping the discriminant.
func (l Location) Untag() RawLocation {
	return l.RawLocation
}

// HasInstruction reports whether the location carries the instruction.
// Duplicates in the instruction list do not matter.
func (l Location) HasInstruction(want Instruction) bool {
	for _, i := range l.Instructions {
		if i == want {
			return true
		}
	}
	return false
}

// Decode parses a JSON array of raw locations from r and tags each element.
// Source ordering is preserved.
func Decode(r io.Reader) ([]Location, error) {
	var raws []RawLocation
	if err := json.NewDecoder(r).Decode(&raws); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	locs := make([]Location, len(raws))
	for i, raw := range raws {
		locs[i] = Tag(raw)
	}
	return locs, nil
}
