package directory

// IsWalkInEligible reports whether a location is open today, accepts walk-in
// or drive-through visits, and is not restricted to enrolled or invited
// patients. The restrictions win over the access tags.
func IsWalkInEligible(l Location) bool {
	access := l.HasInstruction(WalkIn) || l.HasInstruction(DriveThrough)
	restricted := l.HasInstruction(EnrolledOnly) || l.HasInstruction(InvitationOnly)
	return l.IsOpenToday && access && !restricted
}

// FilterWalkInEligible returns the locations for which [IsWalkInEligible]
// holds, in their original order. The input is not modified and the result
// is never nil.
func FilterWalkInEligible(locs []Location) []Location {
	matched := make([]Location, 0, len(locs))
	for _, l := range locs {
		if IsWalkInEligible(l) {
			matched = append(matched, l)
		}
	}
	return matched
}
