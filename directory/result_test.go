package directory

import (
	"errors"
	"testing"
)

func TestResultConstructors(t *testing.T) {
	if r := Loading(); r.State != StateLoading || !r.IsLoading() {
		t.Errorf("Loading() = %+v", r)
	}

	r := Succeeded(nil)
	if r.State != StateSucceeded {
		t.Errorf("Succeeded().State = %v, want %v", r.State, StateSucceeded)
	}
	if r.Locations == nil {
		t.Error("Succeeded(nil).Locations = nil, want empty slice")
	}

	errBoom := errors.New("boom")
	f := Failed(errBoom)
	if f.State != StateFailed || !errors.Is(f.Err, errBoom) {
		t.Errorf("Failed() = %+v", f)
	}
	if f.Locations != nil {
		t.Errorf("Failed().Locations = %v, want nil", f.Locations)
	}
}

func TestResult_LocationsOrEmpty(t *testing.T) {
	locs := []Location{loc("a", true, WalkIn)}

	if got := Succeeded(locs).LocationsOrEmpty(); len(got) != 1 {
		t.Errorf("succeeded LocationsOrEmpty() len = %d, want 1", len(got))
	}
	if got := Failed(errors.New("x")).LocationsOrEmpty(); got == nil || len(got) != 0 {
		t.Errorf("failed LocationsOrEmpty() = %v, want empty", got)
	}
	if got := Loading().LocationsOrEmpty(); got == nil || len(got) != 0 {
		t.Errorf("loading LocationsOrEmpty() = %v, want empty", got)
	}
}

func TestResult_WalkIns(t *testing.T) {
	all := Succeeded([]Location{
		loc("yes", true, WalkIn),
		loc("no", false, WalkIn),
	})

	got := all.WalkIns()
	if got.State != StateSucceeded {
		t.Fatalf("WalkIns().State = %v, want %v", got.State, StateSucceeded)
	}
	if len(got.Locations) != 1 || got.Locations[0].Name != "yes" {
		t.Errorf("WalkIns().Locations = %v, want [yes]", names(got.Locations))
	}

	// other variants pass through
	if got := Loading().WalkIns(); got.State != StateLoading {
		t.Errorf("Loading().WalkIns().State = %v", got.State)
	}
	errBoom := errors.New("boom")
	if got := Failed(errBoom).WalkIns(); got.State != StateFailed || !errors.Is(got.Err, errBoom) {
		t.Errorf("Failed().WalkIns() = %+v", got)
	}
}
