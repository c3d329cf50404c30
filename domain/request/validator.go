package request

import (
	"fmt"
	"sort"

	"bioprep/domain/availability"
	"bioprep/domain/core"
	"bioprep/domain/files"
)

// Issue is one human-readable validation failure. The set of current issues
// gates submission; it never blocks navigation.
type Issue string

// ValidationInput carries everything the validator cross-checks the draft
// against
type ValidationInput struct {
	Availability          availability.SubjectMap
	StimulusLogsBySubject map[core.SubjectID][]files.RawFile
	HasStimulusLogData    bool
}

// Validate cross-checks the draft configuration against availability and
// returns every applicable issue. It never stops at the first failure and it
// never returns an error: for any well-formed input the result is a (possibly
// empty) ordered issue list.
func Validate(config *Configuration, input ValidationInput) []Issue {
	issues := []Issue{}

	if len(config.SelectedSubjects) == 0 {
		issues = append(issues, "no subjects selected")
	}
	if len(config.SelectedMetrics) == 0 {
		issues = append(issues, "no metrics selected")
	}
	if !hasUsableEventWindow(config.EventWindows) {
		issues = append(issues, "at least one event window with an event marker is required")
	}

	if input.HasStimulusLogData {
		issues = append(issues, validateColumnMappings(config, input)...)
	}

	issues = append(issues, validatePerSubjectAvailability(config, input.Availability)...)

	return issues
}

// CanSubmit reports whether the draft passes every check
func CanSubmit(config *Configuration, input ValidationInput) bool {
	return len(Validate(config, input)) == 0
}

// hasUsableEventWindow checks that at least one window names a marker; the
// "all" sentinel counts as a valid selection
func hasUsableEventWindow(windows []EventWindow) bool {
	for _, w := range windows {
		if w.EventMarker != "" {
			return true
		}
	}
	return false
}

// validateColumnMappings requires, for every selected subject with stimulus
// files, a timestamp column and at least one complete data column per file
func validateColumnMappings(config *Configuration, input ValidationInput) []Issue {
	var issues []Issue

	subjects := make([]core.SubjectID, 0, len(input.StimulusLogsBySubject))
	for subject := range input.StimulusLogsBySubject {
		subjects = append(subjects, subject)
	}
	sort.Slice(subjects, func(i, j int) bool { return subjects[i] < subjects[j] })

	for _, subject := range subjects {
		if !config.HasSubject(subject) {
			continue
		}
		for _, f := range input.StimulusLogsBySubject[subject] {
			mapping, ok := config.MappingFor(subject, f.Name)
			if !ok {
				issues = append(issues,
					Issue(fmt.Sprintf("subject %s: no column mapping configured for %s", subject, f.Name)))
				continue
			}
			if mapping.TimestampColumn == "" {
				issues = append(issues,
					Issue(fmt.Sprintf("subject %s: %s is missing a timestamp column", subject, f.Name)))
			}
			if !mapping.HasCompleteDataColumn() {
				issues = append(issues,
					Issue(fmt.Sprintf("subject %s: %s needs at least one data column with a source and display name", subject, f.Name)))
			}
		}
	}

	return issues
}

// validatePerSubjectAvailability checks every selected metric, marker and
// condition against each selected subject present in the availability map.
// Derived metrics are exempt from the missing-metric check: they have no
// direct file mapping, so no subject's metric list ever contains them.
func validatePerSubjectAvailability(config *Configuration, subjects availability.SubjectMap) []Issue {
	var issues []Issue

	for _, subject := range config.SelectedSubjects {
		avail, ok := subjects[subject]
		if !ok {
			continue
		}

		for _, metric := range config.SelectedMetrics {
			if availability.IsDerivedMetric(metric) {
				continue
			}
			if !avail.HasMetric(metric) {
				issues = append(issues,
					Issue(fmt.Sprintf("subject %s: missing metric %s", subject, metric)))
			}
		}

		for _, window := range config.EventWindows {
			if window.EventMarker != "" && window.EventMarker != AllSentinel && !avail.HasEventMarker(window.EventMarker) {
				issues = append(issues,
					Issue(fmt.Sprintf("subject %s: missing event %s", subject, window.EventMarker)))
			}
			if window.Condition != "" && window.Condition != AllSentinel && !avail.HasCondition(window.Condition) {
				issues = append(issues,
					Issue(fmt.Sprintf("subject %s: missing condition %s", subject, window.Condition)))
			}
		}
	}

	return issues
}
