package table

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// Inference thresholds and bounds. The sample is deliberately small: the
// point is to type columns without parsing the whole file.
const (
	MaxSampleRows = 10

	// A column is numeric/datetime when at least half of its sampled values
	// parse that way. The sample is tiny so majority vote beats strictness.
	typeRatioThreshold = 0.5
)

// The three strict textual shapes accepted as datetime values. Anything
// looser (month names, fractional epoch seconds) already parses as numeric
// or falls through to string.
var datetimePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\d{4}-\d{2}-\d{2}([ T]\d{2}:\d{2}(:\d{2}(\.\d+)?)?)?$`),
	regexp.MustCompile(`^\d{1,2}/\d{1,2}/\d{2,4}( \d{1,2}:\d{2}(:\d{2})?)?$`),
	regexp.MustCompile(`^\d{1,2}:\d{2}(:\d{2}(\.\d+)?)?$`),
}

// Headers pandas writes for unlabeled columns ("Unnamed: 3") and similar
// placeholder shapes are dropped from the header row.
var unnamedHeaderPattern = regexp.MustCompile(`(?i)^unnamed([:. _]+\d*)?$`)

// Header names that imply numeric content when a column has no sampled
// values to vote on.
var numericNameKeywords = []string{
	"time", "date", "trial", "session", "rating", "accuracy", "rt",
}

// InferTable builds a SampledTable from the raw text of one stimulus-log
// file. It never fails: unparseable input degrades to an all-string table
// (possibly with zero columns), not an error.
func InferTable(filename, rawText string) *SampledTable {
	lines := splitLines(rawText)

	sampled := &SampledTable{Filename: filename}
	if len(lines) == 0 {
		return sampled
	}

	sampled.Columns = parseHeader(lines[0])
	sampled.RowCountEstimate = len(lines) - 1

	rows := sampleRows(lines[1:], sampled.Columns)
	sampled.SampleRows = rows

	sampled.ColumnTypes = make([]ColumnType, len(sampled.Columns))
	for i, column := range sampled.Columns {
		sampled.ColumnTypes[i] = inferColumnType(column, rows)
	}

	return sampled
}

// parseHeader splits and trims the header line, dropping empty and
// placeholder-named columns
func parseHeader(headerLine string) []string {
	var columns []string
	seen := make(map[string]bool)
	for _, field := range strings.Split(headerLine, ",") {
		name := strings.TrimSpace(field)
		if name == "" || unnamedHeaderPattern.MatchString(name) {
			continue
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		columns = append(columns, name)
	}
	return columns
}

// sampleRows takes up to MaxSampleRows non-blank lines, padded or truncated
// to the header width, blank cells mapped to the explicit absent marker
func sampleRows(dataLines []string, columns []string) []Row {
	var rows []Row
	for _, line := range dataLines {
		if len(rows) >= MaxSampleRows {
			break
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Split(line, ",")
		row := make(Row, len(columns))
		for i, column := range columns {
			if i >= len(fields) {
				row[column] = AbsentCell()
				continue
			}
			value := strings.TrimSpace(fields[i])
			if value == "" {
				row[column] = AbsentCell()
			} else {
				row[column] = NewCell(value)
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// inferColumnType votes over the sampled values of one column. Each value is
// counted as numeric or (exclusively) datetime; the majority classifies the
// column, with the name heuristic as the zero-sample fallback.
func inferColumnType(column string, rows []Row) ColumnType {
	var present, numeric, datetime int
	for _, row := range rows {
		cell, ok := row[column]
		if !ok || !cell.Present {
			continue
		}
		present++
		if isFiniteNumber(cell.Value) {
			numeric++
		} else if isDatetimeText(cell.Value) {
			datetime++
		}
	}

	if present == 0 {
		if nameSuggestsNumeric(column) {
			return TypeNumeric
		}
		return TypeString
	}

	if float64(numeric)/float64(present) >= typeRatioThreshold {
		return TypeNumeric
	}
	if float64(datetime)/float64(present) >= typeRatioThreshold {
		return TypeDatetime
	}
	return TypeString
}

// isFiniteNumber reports whether the value parses as a finite decimal number
func isFiniteNumber(value string) bool {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return false
	}
	return !math.IsInf(v, 0) && !math.IsNaN(v)
}

// isDatetimeText reports whether the value matches one of the strict
// date/time shapes
func isDatetimeText(value string) bool {
	for _, pattern := range datetimePatterns {
		if pattern.MatchString(value) {
			return true
		}
	}
	return false
}

// nameSuggestsNumeric applies the header-name heuristic used when a column
// has no sampled values at all
func nameSuggestsNumeric(column string) bool {
	lower := strings.ToLower(column)

	for _, keyword := range numericNameKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	for _, r := range lower {
		if unicode.IsDigit(r) {
			return true
		}
	}
	// Columns like "stim.t" or "response_t" carry PsychoPy timing values
	tokens := strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if len(tokens) > 0 && tokens[len(tokens)-1] == "t" {
		return true
	}
	return false
}

// splitLines normalizes line endings and drops a UTF-8 BOM if present
func splitLines(rawText string) []string {
	rawText = strings.TrimPrefix(rawText, "\uFEFF")
	rawText = strings.ReplaceAll(rawText, "\r\n", "\n")
	lines := strings.Split(rawText, "\n")
	// Trailing newline produces one empty trailing element
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
