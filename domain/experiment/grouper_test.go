package experiment

import (
	"testing"

	"bioprep/domain/core"
	"bioprep/domain/table"
)

func sampledFile(filename, experimentName string) *table.SampledTable {
	return &table.SampledTable{Filename: filename, ExperimentName: experimentName}
}

func TestKeyRuleChain(t *testing.T) {
	grouper := NewGrouper(nil)

	tests := []struct {
		name     string
		file     *table.SampledTable
		expected core.ExperimentKey
	}{
		{
			name:     "explicit metadata name wins",
			file:     sampledFile("whatever.csv", "memory_task"),
			expected: "memory_task",
		},
		{
			name:     "Unknown placeholder metadata is skipped",
			file:     sampledFile("P01_s1_stroop_2025.csv", "Unknown"),
			expected: "stroop",
		},
		{
			name:     "known code substring",
			file:     sampledFile("p03-NBACK-run2.csv", ""),
			expected: "nback",
		},
		{
			name:     "filename token with three letters",
			file:     sampledFile("07_memory_2025.csv", ""),
			expected: "memory",
		},
		{
			name:     "last token fallback when no token has three letters",
			file:     sampledFile("01_a2.csv", ""),
			expected: "a2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := grouper.KeyFor(tt.file); got != tt.expected {
				t.Errorf("expected key %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestKeyForDeterministicAcrossSubjects(t *testing.T) {
	grouper := NewGrouper(nil)
	a := grouper.KeyFor(sampledFile("session_stroop_main.csv", ""))
	b := grouper.KeyFor(sampledFile("session_stroop_main.csv", ""))
	if a != b {
		t.Errorf("identical filenames must group identically, got %q and %q", a, b)
	}
}

func TestConventionalName(t *testing.T) {
	tests := []struct {
		filename string
		expected string
	}{
		{"P01_s1_stroop_2025-05-22.csv", "stroop"},
		{"P01_stroop.csv", "Unknown"},
		{"P01_s1__2025.csv", "Unknown"},
	}
	for _, tt := range tests {
		if got := ConventionalName(tt.filename); got != tt.expected {
			t.Errorf("ConventionalName(%q) = %q, want %q", tt.filename, got, tt.expected)
		}
	}
}

func TestGroupIntersectionMode(t *testing.T) {
	grouper := NewGrouper(nil)
	files := []SubjectFile{
		{Subject: "P01", Table: sampledFile("P01_s1_stroop_a.csv", "stroop")},
		{Subject: "P01", Table: sampledFile("P01_s1_rest_a.csv", "rest")},
		{Subject: "P02", Table: sampledFile("P02_s1_stroop_b.csv", "stroop")},
	}
	selected := []core.SubjectID{"P01", "P02"}

	types := grouper.Group(files, selected, ModeIntersection)

	if _, ok := types["stroop"]; !ok {
		t.Fatalf("stroop held by both subjects should survive intersection, got %v", keysOf(types))
	}
	if _, ok := types["rest"]; ok {
		t.Errorf("rest held only by P01 should be filtered under intersection")
	}
}

func TestGroupIntersectionIgnoresSubjectsWithoutStimulusData(t *testing.T) {
	grouper := NewGrouper(nil)
	files := []SubjectFile{
		{Subject: "P01", Table: sampledFile("P01_s1_stroop_a.csv", "stroop")},
	}
	// P03 is selected but has no stimulus-log data at all, so it must not
	// block the intersection.
	selected := []core.SubjectID{"P01", "P03"}

	types := grouper.Group(files, selected, ModeIntersection)

	if _, ok := types["stroop"]; !ok {
		t.Errorf("subject without any stimulus data must not veto intersection")
	}
}

func TestGroupUnionModeCoverage(t *testing.T) {
	grouper := NewGrouper(nil)
	files := []SubjectFile{
		{Subject: "P01", Table: sampledFile("P01_s1_stroop_a.csv", "stroop")},
		{Subject: "P01", Table: sampledFile("P01_s1_rest_a.csv", "rest")},
		{Subject: "P02", Table: sampledFile("P02_s1_stroop_b.csv", "stroop")},
	}
	selected := []core.SubjectID{"P01", "P02"}

	types := grouper.Group(files, selected, ModeUnion)

	if len(types) != 2 {
		t.Fatalf("union mode should keep all observed types, got %v", keysOf(types))
	}
	if types["stroop"].Coverage != 1.0 {
		t.Errorf("expected stroop coverage 1.0, got %f", types["stroop"].Coverage)
	}
	if types["rest"].Coverage != 0.5 {
		t.Errorf("expected rest coverage 0.5, got %f", types["rest"].Coverage)
	}
}

func TestGroupExcludesUnselectedSubjects(t *testing.T) {
	grouper := NewGrouper(nil)
	files := []SubjectFile{
		{Subject: "P01", Table: sampledFile("P01_s1_stroop_a.csv", "stroop")},
		{Subject: "P02", Table: sampledFile("P02_s1_stroop_b.csv", "stroop")},
	}

	types := grouper.Group(files, []core.SubjectID{"P01"}, ModeUnion)

	et := types["stroop"]
	if et == nil || len(et.Subjects) != 1 || et.Subjects[0] != "P01" {
		t.Errorf("unselected subject's files must be excluded, got %+v", et)
	}
}

func keysOf(types map[core.ExperimentKey]*Type) []core.ExperimentKey {
	keys := make([]core.ExperimentKey, 0, len(types))
	for k := range types {
		keys = append(keys, k)
	}
	return keys
}
