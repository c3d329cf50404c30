package availability

import (
	"sort"

	"bioprep/domain/core"
)

// Status messages surfaced with the combined result
const (
	StatusNoSubjects   = "no subjects selected"
	StatusSingle       = "showing availability for one subject"
	StatusIntersection = "showing options available for all selected subjects"
)

// Combine computes the availability visible for the current subject
// selection. Pure and idempotent: it never mutates the subject map and the
// same inputs always produce the same result.
//
//   - zero selected subjects: all sets empty
//   - one selected subject: that subject's sets verbatim
//   - two or more: set intersection, results sorted lexicographically
//
// The derived HRV metric is appended after sorting when its availability
// predicate holds, since it never appears in any per-subject metric list.
func Combine(subjects SubjectMap, selected []core.SubjectID, uploadPulseFlag bool) Combined {
	if len(selected) == 0 {
		return Combined{
			Metrics:      []string{},
			EventMarkers: []string{},
			Conditions:   []string{},
			Status:       StatusNoSubjects,
		}
	}

	present := make([]SubjectAvailability, 0, len(selected))
	for _, id := range selected {
		if avail, ok := subjects[id]; ok {
			present = append(present, avail)
		}
	}
	if len(present) == 0 {
		return Combined{
			Metrics:      []string{},
			EventMarkers: []string{},
			Conditions:   []string{},
			Status:       StatusNoSubjects,
		}
	}

	combined := Combined{Status: StatusSingle}
	if len(present) == 1 {
		combined.Metrics = copyStrings(present[0].Metrics)
		combined.EventMarkers = copyStrings(present[0].EventMarkers)
		combined.Conditions = copyStrings(present[0].Conditions)
	} else {
		combined.Status = StatusIntersection
		combined.Metrics = copyStrings(present[0].Metrics)
		combined.EventMarkers = copyStrings(present[0].EventMarkers)
		combined.Conditions = copyStrings(present[0].Conditions)
		for _, next := range present[1:] {
			combined.Metrics = intersect(combined.Metrics, next.Metrics)
			combined.EventMarkers = intersect(combined.EventMarkers, next.EventMarkers)
			combined.Conditions = intersect(combined.Conditions, next.Conditions)
		}
		sort.Strings(combined.Metrics)
		sort.Strings(combined.EventMarkers)
		sort.Strings(combined.Conditions)
	}

	// Derived metrics ride on top of the intersected file-backed metrics.
	// Appended after sorting: they are offered last, not alphabetized in.
	for _, derived := range DerivedMetrics {
		if derived.AvailabilityPredicate(present, uploadPulseFlag) && !contains(combined.Metrics, derived.Name) {
			combined.Metrics = append(combined.Metrics, derived.Name)
		}
	}

	return combined
}

// intersect keeps the elements of base that also appear in other, preserving
// base's order
func intersect(base, other []string) []string {
	kept := make([]string, 0, len(base))
	for _, v := range base {
		if contains(other, v) {
			kept = append(kept, v)
		}
	}
	return kept
}

func copyStrings(values []string) []string {
	copied := make([]string, len(values))
	copy(copied, values)
	return copied
}
