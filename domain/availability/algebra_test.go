package availability

import (
	"reflect"
	"testing"

	"bioprep/domain/core"
)

func twoSubjectMap() SubjectMap {
	return SubjectMap{
		"A": {
			Metrics:      []string{"HR", "EDA"},
			EventMarkers: []string{"task_start", "task_end"},
			Conditions:   []string{"calm", "stress"},
		},
		"B": {
			Metrics:      []string{"HR", "TEMP"},
			EventMarkers: []string{"task_start"},
			Conditions:   []string{"stress"},
		},
	}
}

func TestCombineZeroSubjects(t *testing.T) {
	combined := Combine(twoSubjectMap(), nil, true)

	if len(combined.Metrics) != 0 || len(combined.EventMarkers) != 0 || len(combined.Conditions) != 0 {
		t.Errorf("zero selected subjects must yield empty sets, got %+v", combined)
	}
	if combined.Status != StatusNoSubjects {
		t.Errorf("expected status %q, got %q", StatusNoSubjects, combined.Status)
	}
}

func TestCombineSingleSubjectVerbatim(t *testing.T) {
	subjects := twoSubjectMap()
	combined := Combine(subjects, []core.SubjectID{"A"}, false)

	if !reflect.DeepEqual(combined.Metrics, []string{"HR", "EDA"}) {
		t.Errorf("single-subject metrics should be verbatim, got %v", combined.Metrics)
	}
	if !reflect.DeepEqual(combined.Conditions, []string{"calm", "stress"}) {
		t.Errorf("single-subject conditions should be verbatim, got %v", combined.Conditions)
	}
}

func TestCombineIntersection(t *testing.T) {
	combined := Combine(twoSubjectMap(), []core.SubjectID{"A", "B"}, false)

	if !reflect.DeepEqual(combined.Metrics, []string{"HR"}) {
		t.Errorf("expected intersected metrics [HR], got %v", combined.Metrics)
	}
	if !reflect.DeepEqual(combined.EventMarkers, []string{"task_start"}) {
		t.Errorf("expected intersected markers [task_start], got %v", combined.EventMarkers)
	}
	if !reflect.DeepEqual(combined.Conditions, []string{"stress"}) {
		t.Errorf("expected intersected conditions [stress], got %v", combined.Conditions)
	}
}

func TestCombineIntersectionSorted(t *testing.T) {
	subjects := SubjectMap{
		"A": {Metrics: []string{"TEMP", "EDA", "HR"}},
		"B": {Metrics: []string{"HR", "TEMP", "EDA"}},
	}

	combined := Combine(subjects, []core.SubjectID{"A", "B"}, false)

	if !reflect.DeepEqual(combined.Metrics, []string{"EDA", "HR", "TEMP"}) {
		t.Errorf("intersected metrics must be sorted, got %v", combined.Metrics)
	}
}

func TestHRVInjectedAfterSortWhenAllSubjectsHavePulse(t *testing.T) {
	subjects := SubjectMap{
		"A": {Metrics: []string{"HR", "EDA"}, HasHighFrequencyPulse: true},
		"B": {Metrics: []string{"ZZ", "HR", "EDA"}, HasHighFrequencyPulse: true},
	}

	combined := Combine(subjects, []core.SubjectID{"A", "B"}, false)

	// Appended after sorting of the base list, so HRV trails despite H < Z.
	if !reflect.DeepEqual(combined.Metrics, []string{"EDA", "HR", "HRV"}) {
		t.Errorf("expected [EDA HR HRV], got %v", combined.Metrics)
	}
}

func TestHRVInjectedExactlyOnce(t *testing.T) {
	subjects := SubjectMap{
		"A": {Metrics: []string{"HRV", "HR"}, HasHighFrequencyPulse: true},
	}

	combined := Combine(subjects, []core.SubjectID{"A"}, true)

	count := 0
	for _, m := range combined.Metrics {
		if m == "HRV" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("HRV must appear exactly once, got %v", combined.Metrics)
	}
}

func TestHRVWithheldWhenAnySubjectLacksPulse(t *testing.T) {
	subjects := SubjectMap{
		"P01": {Metrics: []string{"HR", "EDA"}, HasHighFrequencyPulse: true},
		"P02": {Metrics: []string{"HR", "EDA", "TEMP"}, HasHighFrequencyPulse: false},
	}

	combined := Combine(subjects, []core.SubjectID{"P01", "P02"}, false)

	if !reflect.DeepEqual(combined.Metrics, []string{"EDA", "HR"}) {
		t.Errorf("expected [EDA HR] with HRV excluded, got %v", combined.Metrics)
	}
}

func TestHRVInjectedByUploadFlag(t *testing.T) {
	subjects := SubjectMap{
		"A": {Metrics: []string{"HR"}, HasHighFrequencyPulse: false},
	}

	combined := Combine(subjects, []core.SubjectID{"A"}, true)

	if !contains(combined.Metrics, "HRV") {
		t.Errorf("upload-time pulse flag must inject HRV, got %v", combined.Metrics)
	}
}

func TestCombinePureAndIdempotent(t *testing.T) {
	subjects := twoSubjectMap()
	selected := []core.SubjectID{"A", "B"}

	first := Combine(subjects, selected, false)
	second := Combine(subjects, selected, false)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("Combine is not idempotent: %+v vs %+v", first, second)
	}
	if !reflect.DeepEqual(subjects, twoSubjectMap()) {
		t.Errorf("Combine mutated the availability map: %+v", subjects)
	}
}

func TestIsDerivedMetric(t *testing.T) {
	if !IsDerivedMetric("HRV") {
		t.Errorf("HRV must be recognized as derived")
	}
	if IsDerivedMetric("HR") {
		t.Errorf("HR is file-backed, not derived")
	}
}
