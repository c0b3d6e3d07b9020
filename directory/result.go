package directory

// State identifies which variant of a [Result] holds.
type State string

const (
	// StateLoading means the directory has not been fetched yet.
	StateLoading State = "loading"

	// StateSucceeded means Locations holds the fetched directory.
	StateSucceeded State = "succeeded"

	// StateFailed means the fetch failed and Err describes why.
	StateFailed State = "failed"
)

// String implements fmt.Stringer.
func (s State) String() string {
	return string(s)
}

// Result is the outcome of fetching the directory.
//
// Exactly one variant holds: loading, succeeded (Locations set) or failed
// (Err set). Build values with [Loading], [Succeeded] and [Failed] rather
// than by hand so the invariant stays intact.
type Result struct {
	State     State
	Locations []Location
	Err       error
}

// Loading returns the initial result.
func Loading() Result {
	return Result{State: StateLoading}
}

// Succeeded returns a result holding locs.
func Succeeded(locs []Location) Result {
	if locs == nil {
		locs = []Location{}
	}
	return Result{State: StateSucceeded, Locations: locs}
}

// Failed returns a result holding err.
func Failed(err error) Result {
	return Result{State: StateFailed, Err: err}
}

// IsLoading reports whether the result is still loading.
func (r Result) IsLoading() bool {
	return r.State == StateLoading
}

// LocationsOrEmpty returns the locations when the fetch succeeded and an
// empty slice otherwise, for consumers that render a list regardless.
func (r Result) LocationsOrEmpty() []Location {
	if r.State != StateSucceeded {
		return []Location{}
	}
	return r.Locations
}

// WalkIns applies [FilterWalkInEligible] to a succeeded result. Loading and
// failed results are returned unchanged.
func (r Result) WalkIns() Result {
	if r.State != StateSucceeded {
		return r
	}
	return Succeeded(FilterWalkInEligible(r.Locations))
}
