package availability

import (
	"bioprep/domain/core"
)

// SubjectAvailability is the per-subject scan result: what the analysis
// service found in that subject's files. Read-only to this core.
type SubjectAvailability struct {
	Metrics               []string `json:"metrics"`
	EventMarkers          []string `json:"event_markers"`
	Conditions            []string `json:"conditions"`
	HasHighFrequencyPulse bool     `json:"has_high_frequency_pulse"`
}

// HasMetric reports whether the subject's scan found the named metric
func (a SubjectAvailability) HasMetric(metric string) bool {
	return contains(a.Metrics, metric)
}

// HasEventMarker reports whether the subject's scan found the named marker
func (a SubjectAvailability) HasEventMarker(marker string) bool {
	return contains(a.EventMarkers, marker)
}

// HasCondition reports whether the subject's scan found the named condition
func (a SubjectAvailability) HasCondition(condition string) bool {
	return contains(a.Conditions, condition)
}

// Combined is the availability visible for the current subject selection
type Combined struct {
	Metrics      []string `json:"metrics"`
	EventMarkers []string `json:"event_markers"`
	Conditions   []string `json:"conditions"`
	Status       string   `json:"status"`
}

// DerivedMetric describes a metric that is not stored in any single file but
// computed from a combination of source files. All HRV special-casing
// (algebra injection, validator exemption, submission file resolution)
// consults this one definition.
type DerivedMetric struct {
	Name string
	// RequiredSourceFileSuffixes are the filename suffixes the submission
	// resolves this metric to instead of a _<METRIC>.csv file.
	RequiredSourceFileSuffixes []string
	// AvailabilityPredicate decides whether the metric is offered for a
	// subject selection.
	AvailabilityPredicate func(selected []SubjectAvailability, uploadPulseFlag bool) bool
}

// HRV is derived from the three wavelength-specific pulse channels. It is
// offered only when every selected subject has high-frequency pulse data (or
// the upload-time flag saw pulse files), and it is exempt from per-subject
// missing-metric checks because no subject's metric list ever contains it.
var HRV = DerivedMetric{
	Name:                       "HRV",
	RequiredSourceFileSuffixes: []string{"_PI.csv", "_PR.csv", "_PG.csv"},
	AvailabilityPredicate: func(selected []SubjectAvailability, uploadPulseFlag bool) bool {
		if uploadPulseFlag {
			return true
		}
		if len(selected) == 0 {
			return false
		}
		for _, s := range selected {
			if !s.HasHighFrequencyPulse {
				return false
			}
		}
		return true
	},
}

// DerivedMetrics lists every derived-metric definition known to the core
var DerivedMetrics = []DerivedMetric{HRV}

// IsDerivedMetric reports whether the named metric is derived rather than
// file-backed
func IsDerivedMetric(name string) bool {
	for _, d := range DerivedMetrics {
		if d.Name == name {
			return true
		}
	}
	return false
}

// SubjectMap maps subject to availability
type SubjectMap map[core.SubjectID]SubjectAvailability

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
