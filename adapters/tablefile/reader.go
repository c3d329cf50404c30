package tablefile

import (
	"bufio"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/montanaflynn/stats"
	"github.com/xuri/excelize/v2"
	"gonum.org/v1/gonum/stat"

	"bioprep/domain/core"
	"bioprep/domain/experiment"
	"bioprep/domain/files"
	"bioprep/domain/table"
	"bioprep/internal/errors"
	"bioprep/ports"
)

// MaxScanLines bounds the head scan of a stimulus-log file. Enough lines to
// give a useful row-count estimate while never parsing the whole file.
const MaxScanLines = 1000

// Sampler reads the bounded head of stimulus-log files and turns them into
// typed sample metadata. Supports CSV exports and .xlsx workbooks.
type Sampler struct{}

// NewSampler creates a stimulus-log sampler
func NewSampler() *Sampler {
	return &Sampler{}
}

// Sample reads the head of one stimulus-log file and infers its table shape.
// Failures are per-file: callers log and skip, siblings are unaffected.
func (s *Sampler) Sample(f files.RawFile) (*table.SampledTable, error) {
	var rawText string
	var err error

	switch strings.ToLower(filepath.Ext(f.Name)) {
	case ".csv", ".tsv", ".txt", ".log":
		rawText, err = scanTextHead(f.Path)
	case ".xlsx":
		rawText, err = scanWorkbookHead(f.Path)
	default:
		return nil, core.NewUnsupportedFile(f.Name)
	}
	if err != nil {
		return nil, errors.ParseError(f.Name, err)
	}

	sampled := table.InferTable(f.Name, rawText)
	sampled.ExperimentName = experiment.ConventionalName(f.Name)
	return sampled, nil
}

// Describe computes sample statistics for the numeric columns of a sampled
// table plus a sampling-rate estimate when a timing column is present. The
// results ride along as scan metadata only.
func Describe(sampled *table.SampledTable) (map[string]ports.ColumnSummary, float64) {
	summaries := make(map[string]ports.ColumnSummary)

	for _, column := range sampled.NumericColumns() {
		values := numericValues(sampled, column)
		if len(values) == 0 {
			continue
		}
		data := stats.Float64Data(values)
		mean, _ := stats.Mean(data)
		median, _ := stats.Median(data)
		min, _ := stats.Min(data)
		max, _ := stats.Max(data)
		summaries[column] = ports.ColumnSummary{Mean: mean, Median: median, Min: min, Max: max}
	}

	return summaries, samplingRate(sampled)
}

// samplingRate estimates samples-per-second from successive diffs of the
// first timing column, or 0 when no timing column or too few samples exist
func samplingRate(sampled *table.SampledTable) float64 {
	column := timingColumn(sampled)
	if column == "" {
		return 0
	}
	values := numericValues(sampled, column)
	if len(values) < 2 {
		return 0
	}

	diffs := make([]float64, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		diffs = append(diffs, values[i]-values[i-1])
	}
	meanDiff := stat.Mean(diffs, nil)
	if meanDiff <= 0 {
		return 0
	}
	return 1 / meanDiff
}

// timingColumn picks the first numeric column that looks like a timestamp
func timingColumn(sampled *table.SampledTable) string {
	for _, column := range sampled.NumericColumns() {
		lower := strings.ToLower(column)
		if strings.Contains(lower, "time") || strings.HasSuffix(lower, ".t") || strings.HasSuffix(lower, "_t") {
			return column
		}
	}
	return ""
}

// numericValues collects the parseable sampled values of one column in row
// order, skipping absent cells
func numericValues(sampled *table.SampledTable, column string) []float64 {
	var values []float64
	for _, row := range sampled.SampleRows {
		cell, ok := row[column]
		if !ok || !cell.Present {
			continue
		}
		if v, err := strconv.ParseFloat(cell.Value, 64); err == nil {
			values = append(values, v)
		}
	}
	return values
}

// scanTextHead reads up to MaxScanLines lines of a delimited text file
func scanTextHead(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	var b strings.Builder
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for lines := 0; lines < MaxScanLines && scanner.Scan(); lines++ {
		b.WriteString(scanner.Text())
		b.WriteByte('\n')
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return b.String(), nil
}

// scanWorkbookHead reads up to MaxScanLines rows of the first sheet of an
// .xlsx workbook and renders them as comma-joined lines for inference
func scanWorkbookHead(path string) (string, error) {
	workbook, err := excelize.OpenFile(path)
	if err != nil {
		return "", err
	}
	defer workbook.Close()

	sheets := workbook.GetSheetList()
	if len(sheets) == 0 {
		return "", nil
	}

	rows, err := workbook.Rows(sheets[0])
	if err != nil {
		return "", err
	}
	defer rows.Close()

	var b strings.Builder
	for lines := 0; lines < MaxScanLines && rows.Next(); lines++ {
		cells, err := rows.Columns()
		if err != nil {
			return "", err
		}
		b.WriteString(strings.Join(cells, ","))
		b.WriteByte('\n')
	}
	return b.String(), rows.Error()
}
