package request

import (
	"strings"
	"testing"

	"bioprep/domain/availability"
	"bioprep/domain/core"
	"bioprep/domain/files"
)

func baseConfig() *Configuration {
	config := NewConfiguration()
	config.SelectedSubjects = []core.SubjectID{"P01"}
	config.SelectedMetrics = []string{"HR"}
	config.EventWindows = []EventWindow{{EventMarker: "task_start", Condition: AllSentinel}}
	return config
}

func baseInput() ValidationInput {
	return ValidationInput{
		Availability: availability.SubjectMap{
			"P01": {
				Metrics:      []string{"HR", "EDA"},
				EventMarkers: []string{"task_start"},
				Conditions:   []string{"stress"},
			},
		},
	}
}

func hasIssueContaining(issues []Issue, substr string) bool {
	for _, issue := range issues {
		if strings.Contains(string(issue), substr) {
			return true
		}
	}
	return false
}

func TestValidConfigurationYieldsNoIssues(t *testing.T) {
	issues := Validate(baseConfig(), baseInput())
	if len(issues) != 0 {
		t.Errorf("expected no issues, got %v", issues)
	}
}

func TestEmptySelectionsCollectAllIssues(t *testing.T) {
	config := NewConfiguration()

	issues := Validate(config, ValidationInput{})

	// Non-short-circuiting: all three base checks must be reported at once.
	if len(issues) != 3 {
		t.Fatalf("expected 3 issues, got %d: %v", len(issues), issues)
	}
	for _, want := range []string{"subjects", "metrics", "event window"} {
		if !hasIssueContaining(issues, want) {
			t.Errorf("expected an issue mentioning %q, got %v", want, issues)
		}
	}
}

func TestAllSentinelCountsAsValidMarker(t *testing.T) {
	config := baseConfig()
	config.EventWindows = []EventWindow{{EventMarker: AllSentinel}}

	issues := Validate(config, baseInput())

	if hasIssueContaining(issues, "event window") {
		t.Errorf("the all sentinel should satisfy the event window check, got %v", issues)
	}
	if hasIssueContaining(issues, "missing event") {
		t.Errorf("the all sentinel must not be checked against per-subject markers, got %v", issues)
	}
}

func TestMissingMetricPerSubject(t *testing.T) {
	config := baseConfig()
	config.SelectedMetrics = []string{"HR", "TEMP"}

	issues := Validate(config, baseInput())

	if !hasIssueContaining(issues, "missing metric TEMP") {
		t.Errorf("expected missing metric issue for TEMP, got %v", issues)
	}
	if hasIssueContaining(issues, "missing metric HR") {
		t.Errorf("HR is available and must not be flagged, got %v", issues)
	}
}

func TestHRVExemptFromMissingMetricCheck(t *testing.T) {
	config := baseConfig()
	config.SelectedMetrics = []string{"HRV"}

	issues := Validate(config, baseInput())

	if hasIssueContaining(issues, "missing metric") {
		t.Errorf("derived HRV must be exempt from the missing-metric check, got %v", issues)
	}
}

func TestMissingEventAndCondition(t *testing.T) {
	config := baseConfig()
	config.EventWindows = []EventWindow{{EventMarker: "nonexistent", Condition: "imaginary"}}

	issues := Validate(config, baseInput())

	if !hasIssueContaining(issues, "missing event nonexistent") {
		t.Errorf("expected missing event issue, got %v", issues)
	}
	if !hasIssueContaining(issues, "missing condition imaginary") {
		t.Errorf("expected missing condition issue, got %v", issues)
	}
}

func TestSubjectAbsentFromAvailabilityIsSkipped(t *testing.T) {
	config := baseConfig()
	config.SelectedSubjects = []core.SubjectID{"P01", "P99"}

	issues := Validate(config, baseInput())

	if hasIssueContaining(issues, "P99") {
		t.Errorf("subjects absent from the availability map are not checked, got %v", issues)
	}
}

func TestColumnMappingChecks(t *testing.T) {
	config := baseConfig()
	input := baseInput()
	input.HasStimulusLogData = true
	input.StimulusLogsBySubject = map[core.SubjectID][]files.RawFile{
		"P01": {{Name: "P01_s1_stroop.csv"}},
	}

	t.Run("missing mapping entirely", func(t *testing.T) {
		issues := Validate(config, input)
		if !hasIssueContaining(issues, "no column mapping configured for P01_s1_stroop.csv") {
			t.Errorf("expected missing mapping issue, got %v", issues)
		}
	})

	t.Run("missing timestamp and data column reported separately", func(t *testing.T) {
		config := baseConfig()
		config.SetMapping("P01", "P01_s1_stroop.csv", ColumnMapping{
			DataColumns: []DataColumn{{SourceColumn: "rt"}}, // display name missing
		})

		issues := Validate(config, input)

		if !hasIssueContaining(issues, "missing a timestamp column") {
			t.Errorf("expected timestamp issue, got %v", issues)
		}
		if !hasIssueContaining(issues, "at least one data column") {
			t.Errorf("expected data column issue, got %v", issues)
		}
	})

	t.Run("complete mapping passes", func(t *testing.T) {
		config := baseConfig()
		config.SetMapping("P01", "P01_s1_stroop.csv", ColumnMapping{
			TimestampColumn: "stim.t",
			TimestampUnit:   UnitSeconds,
			DataColumns:     []DataColumn{{SourceColumn: "rt", DisplayName: "Reaction Time"}},
		})

		issues := Validate(config, input)

		if len(issues) != 0 {
			t.Errorf("expected no issues for complete mapping, got %v", issues)
		}
	})

	t.Run("unselected subject's files are not checked", func(t *testing.T) {
		config := baseConfig()
		input := input
		input.StimulusLogsBySubject = map[core.SubjectID][]files.RawFile{
			"P02": {{Name: "P02_s1_stroop.csv"}},
		}

		issues := Validate(config, input)

		if hasIssueContaining(issues, "P02") {
			t.Errorf("unselected subject must not be mapping-checked, got %v", issues)
		}
	})
}

func TestValidateNeverPanics(t *testing.T) {
	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("Validate panicked: %v", r)
		}
	}()

	// nil maps, nil slices, absent availability
	config := &Configuration{}
	_ = Validate(config, ValidationInput{HasStimulusLogData: true})
}

func TestEndToEndTwoSubjectScenario(t *testing.T) {
	// P01 has pulse files, P02 does not: combined metrics are [EDA HR] with
	// HRV excluded, and selecting those validates cleanly.
	subjects := availability.SubjectMap{
		"P01": {Metrics: []string{"HR", "EDA"}, EventMarkers: []string{"go"}, HasHighFrequencyPulse: true},
		"P02": {Metrics: []string{"HR", "EDA", "TEMP"}, EventMarkers: []string{"go"}, HasHighFrequencyPulse: false},
	}
	selected := []core.SubjectID{"P01", "P02"}

	combined := availability.Combine(subjects, selected, false)
	if len(combined.Metrics) != 2 || combined.Metrics[0] != "EDA" || combined.Metrics[1] != "HR" {
		t.Fatalf("expected combined metrics [EDA HR], got %v", combined.Metrics)
	}

	config := NewConfiguration()
	config.SelectedSubjects = selected
	config.SelectedMetrics = combined.Metrics
	config.EventWindows = []EventWindow{{EventMarker: "go"}}

	issues := Validate(config, ValidationInput{Availability: subjects})
	if len(issues) != 0 {
		t.Errorf("expected clean validation, got %v", issues)
	}
}
