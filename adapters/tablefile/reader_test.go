package tablefile

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"bioprep/domain/core"
	"bioprep/domain/files"
	"bioprep/domain/table"
)

func writeTemp(t *testing.T, name, content string) files.RawFile {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return files.RawFile{Name: name, Path: path}
}

func TestSampleCSV(t *testing.T) {
	f := writeTemp(t, "P01_s1_stroop.csv",
		"stim.t,response,rt\n0.5,left,0.41\n1.5,right,0.39\n2.5,left,0.44\n")

	sampled, err := NewSampler().Sample(f)
	if err != nil {
		t.Fatalf("Sample failed: %v", err)
	}

	if len(sampled.Columns) != 3 {
		t.Fatalf("expected 3 columns, got %v", sampled.Columns)
	}
	if sampled.TypeOf("stim.t") != table.TypeNumeric || sampled.TypeOf("response") != table.TypeString {
		t.Errorf("unexpected column types %v", sampled.ColumnTypes)
	}
	if sampled.RowCountEstimate != 3 {
		t.Errorf("expected row count estimate 3, got %d", sampled.RowCountEstimate)
	}
	if sampled.ExperimentName != "stroop" {
		t.Errorf("expected conventional experiment name stroop, got %q", sampled.ExperimentName)
	}
}

func TestSampleXLSX(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "P02_s1_nback.xlsx")

	workbook := excelize.NewFile()
	sheet := workbook.GetSheetName(0)
	rows := [][]any{
		{"trial", "correct"},
		{1, "y"},
		{2, "n"},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := workbook.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatal(err)
		}
	}
	if err := workbook.SaveAs(path); err != nil {
		t.Fatal(err)
	}

	sampled, err := NewSampler().Sample(files.RawFile{Name: "P02_s1_nback.xlsx", Path: path})
	if err != nil {
		t.Fatalf("Sample failed: %v", err)
	}

	if len(sampled.Columns) != 2 || sampled.Columns[0] != "trial" {
		t.Fatalf("unexpected columns %v", sampled.Columns)
	}
	if sampled.TypeOf("trial") != table.TypeNumeric {
		t.Errorf("trial column should infer numeric, got %v", sampled.TypeOf("trial"))
	}
	if sampled.ExperimentName != "nback" {
		t.Errorf("expected experiment name nback, got %q", sampled.ExperimentName)
	}
}

func TestSampleUnsupportedExtension(t *testing.T) {
	f := writeTemp(t, "notes.pdf", "binary")

	_, err := NewSampler().Sample(f)
	if !errors.Is(err, core.ErrUnsupportedFile) {
		t.Errorf("expected ErrUnsupportedFile, got %v", err)
	}
}

func TestSampleMissingFileIsParseError(t *testing.T) {
	f := files.RawFile{Name: "gone.csv", Path: filepath.Join(t.TempDir(), "gone.csv")}

	_, err := NewSampler().Sample(f)
	if err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

func TestDescribeNumericSummaries(t *testing.T) {
	f := writeTemp(t, "P01_s1_stroop.csv",
		"rt,label\n0.2,a\n0.4,b\n0.6,c\n")
	sampled, err := NewSampler().Sample(f)
	if err != nil {
		t.Fatal(err)
	}

	summaries, _ := Describe(sampled)

	summary, ok := summaries["rt"]
	if !ok {
		t.Fatalf("expected a summary for rt, got %v", summaries)
	}
	if math.Abs(summary.Mean-0.4) > 1e-9 || summary.Min != 0.2 || summary.Max != 0.6 {
		t.Errorf("unexpected summary %+v", summary)
	}
	if _, ok := summaries["label"]; ok {
		t.Error("string columns must not be summarized")
	}
}

func TestDescribeSamplingRate(t *testing.T) {
	// 0.5s between samples -> 2 Hz
	f := writeTemp(t, "P01_s1_rest.csv",
		"time,hr\n0.0,60\n0.5,61\n1.0,62\n1.5,61\n")
	sampled, err := NewSampler().Sample(f)
	if err != nil {
		t.Fatal(err)
	}

	_, rate := Describe(sampled)
	if math.Abs(rate-2.0) > 1e-9 {
		t.Errorf("expected 2 Hz, got %v", rate)
	}
}

func TestDescribeNoTimingColumn(t *testing.T) {
	f := writeTemp(t, "P01_s1_rest.csv", "hr,label\n60,a\n61,b\n")
	sampled, err := NewSampler().Sample(f)
	if err != nil {
		t.Fatal(err)
	}

	_, rate := Describe(sampled)
	if rate != 0 {
		t.Errorf("expected no rate estimate without a timing column, got %v", rate)
	}
}
