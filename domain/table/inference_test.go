package table

import (
	"reflect"
	"strings"
	"testing"
)

func TestInferColumnTypeFromValues(t *testing.T) {
	tests := []struct {
		name     string
		column   string
		values   []string // "" means absent
		expected ColumnType
	}{
		{
			name:     "all numeric values",
			column:   "response",
			values:   []string{"3.2", "4.1", "-1.0", "5.0"},
			expected: TypeNumeric,
		},
		{
			name:     "ISO dates",
			column:   "day",
			values:   []string{"2024-01-01", "2024-01-02"},
			expected: TypeDatetime,
		},
		{
			name:     "all absent with numeric-sounding name",
			column:   "trial_num",
			values:   []string{"", "", ""},
			expected: TypeNumeric,
		},
		{
			name:     "all absent with plain name",
			column:   "notes",
			values:   []string{"", ""},
			expected: TypeString,
		},
		{
			name:     "categorical strings",
			column:   "side",
			values:   []string{"left", "right", "left"},
			expected: TypeString,
		},
		{
			name:     "majority numeric with sparse garbage",
			column:   "score",
			values:   []string{"1.5", "2.0", "n/a", "3.5"},
			expected: TypeNumeric,
		},
		{
			name:     "exactly half numeric meets threshold",
			column:   "mixed",
			values:   []string{"1", "left"},
			expected: TypeNumeric,
		},
		{
			name:     "clock times",
			column:   "clock",
			values:   []string{"09:15:00", "09:16:30"},
			expected: TypeDatetime,
		},
		{
			name:     "slash dates",
			column:   "us_date",
			values:   []string{"5/22/2025", "5/23/2025"},
			expected: TypeDatetime,
		},
		{
			name:     "trailing t token name heuristic",
			column:   "stim.t",
			values:   []string{""},
			expected: TypeNumeric,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := make([]Row, 0, len(tt.values))
			for _, v := range tt.values {
				row := Row{}
				if v == "" {
					row[tt.column] = AbsentCell()
				} else {
					row[tt.column] = NewCell(v)
				}
				rows = append(rows, row)
			}
			if got := inferColumnType(tt.column, rows); got != tt.expected {
				t.Errorf("expected %s, got %s for values %v", tt.expected, got, tt.values)
			}
		})
	}
}

func TestInferTableDeterministic(t *testing.T) {
	raw := "trial,condition,rt\n1,congruent,0.52\n2,incongruent,0.61\n3,congruent,0.49\n"

	first := InferTable("P01_stroop.csv", raw)
	second := InferTable("P01_stroop.csv", raw)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("same input produced different tables:\n%+v\n%+v", first, second)
	}
	expected := []ColumnType{TypeNumeric, TypeString, TypeNumeric}
	if !reflect.DeepEqual(first.ColumnTypes, expected) {
		t.Errorf("expected column types %v, got %v", expected, first.ColumnTypes)
	}
}

func TestInferTableDropsPlaceholderHeaders(t *testing.T) {
	raw := "trial, ,Unnamed: 2,condition,\n1,x,y,congruent,z\n"

	sampled := InferTable("f.csv", raw)

	expected := []string{"trial", "condition"}
	if !reflect.DeepEqual(sampled.Columns, expected) {
		t.Errorf("expected columns %v, got %v", expected, sampled.Columns)
	}
}

func TestInferTableStripsByteOrderMark(t *testing.T) {
	raw := "\uFEFFtrial,condition\n1,congruent\n"

	sampled := InferTable("f.csv", raw)

	expected := []string{"trial", "condition"}
	if !reflect.DeepEqual(sampled.Columns, expected) {
		t.Errorf("expected columns %v, got %v", expected, sampled.Columns)
	}
}

func TestInferTableShortRowsBecomeAbsent(t *testing.T) {
	raw := "a,b,c\n1,2\n,3,4\n"

	sampled := InferTable("f.csv", raw)

	if len(sampled.SampleRows) != 2 {
		t.Fatalf("expected 2 sample rows, got %d", len(sampled.SampleRows))
	}
	if sampled.SampleRows[0]["c"].Present {
		t.Errorf("short row should pad column c with the absent marker")
	}
	if sampled.SampleRows[1]["a"].Present {
		t.Errorf("blank cell should map to the absent marker, not empty string")
	}
}

func TestInferTableBoundsSample(t *testing.T) {
	var b strings.Builder
	b.WriteString("v\n")
	for i := 0; i < 50; i++ {
		b.WriteString("1.0\n")
	}

	sampled := InferTable("f.csv", b.String())

	if len(sampled.SampleRows) != MaxSampleRows {
		t.Errorf("expected sample bounded at %d rows, got %d", MaxSampleRows, len(sampled.SampleRows))
	}
	if sampled.RowCountEstimate != 50 {
		t.Errorf("expected row count estimate 50, got %d", sampled.RowCountEstimate)
	}
}

func TestInferTableNeverFails(t *testing.T) {
	inputs := []string{
		"",
		"\n\n\n",
		",,,,",
		"just one weird line without commas maybe\x00binary",
		"a,b\n\"unclosed quote,1\n",
	}
	for _, raw := range inputs {
		sampled := InferTable("garbage.csv", raw)
		if sampled == nil {
			t.Fatalf("InferTable returned nil for %q", raw)
		}
		for _, ct := range sampled.ColumnTypes {
			if ct != TypeNumeric && ct != TypeDatetime && ct != TypeString {
				t.Errorf("invalid column type %q for input %q", ct, raw)
			}
		}
	}
}
