package request

import (
	"bioprep/domain/core"
)

// AllSentinel selects every marker/condition instead of one specific value
const AllSentinel = "all"

// TimestampUnit is the unit of a stimulus-log timestamp column
type TimestampUnit string

const (
	UnitSeconds      TimestampUnit = "seconds"
	UnitMilliseconds TimestampUnit = "milliseconds"
	UnitUnixEpoch    TimestampUnit = "unixEpoch"
)

// LabelMode decides how a source column's values become event labels
type LabelMode string

const (
	// LabelDirect uses the cell value as the label
	LabelDirect LabelMode = "direct"
	// LabelPrefixed prepends a fixed prefix to the cell value
	LabelPrefixed LabelMode = "prefixed"
)

// TimeWindowType selects how much signal around an event marker is analyzed
type TimeWindowType string

const (
	// WindowFull spans from the marker to the next marker (or end of data)
	WindowFull TimeWindowType = "full"
	// WindowCustom spans fixed offsets around the marker
	WindowCustom TimeWindowType = "custom"
)

// EventWindow is one marker/condition pair the analysis compares across
type EventWindow struct {
	EventMarker string         `json:"event_marker"`
	Condition   string         `json:"condition"`
	WindowType  TimeWindowType `json:"window_type"`
	// CustomStart/CustomEnd are offsets in seconds relative to the marker,
	// used only when WindowType is custom.
	CustomStart float64 `json:"custom_start,omitempty"`
	CustomEnd   float64 `json:"custom_end,omitempty"`
}

// SourceColumn maps one stimulus-log column into the analysis
type SourceColumn struct {
	SourceColumn string    `json:"source_column"`
	LabelMode    LabelMode `json:"label_mode"`
	Prefix       string    `json:"prefix,omitempty"`
}

// DataColumn maps one stimulus-log column to a display name
type DataColumn struct {
	SourceColumn string `json:"source_column"`
	DisplayName  string `json:"display_name"`
}

// ColumnMapping tells the analysis how to read one stimulus-log file
type ColumnMapping struct {
	TimestampColumn        string         `json:"timestamp_column"`
	TimestampUnit          TimestampUnit  `json:"timestamp_unit"`
	DataColumns            []DataColumn   `json:"data_columns"`
	EventSourceColumns     []SourceColumn `json:"event_source_columns"`
	ConditionSourceColumns []SourceColumn `json:"condition_source_columns"`
}

// HasCompleteDataColumn reports whether at least one data column has both a
// source column and a display name set
func (m ColumnMapping) HasCompleteDataColumn() bool {
	for _, dc := range m.DataColumns {
		if dc.SourceColumn != "" && dc.DisplayName != "" {
			return true
		}
	}
	return false
}

// MappingKey addresses one column mapping by subject and stimulus-log file.
// Explicit composite key: absence is a failed map lookup, never an implicit
// nil inside a nested structure.
type MappingKey struct {
	Subject  core.SubjectID `json:"subject"`
	Filename string         `json:"filename"`
}

// Configuration is the mutable draft assembled across the wizard steps. It
// lives for the wizard session only and is discarded on submit or cancel.
type Configuration struct {
	SelectedSubjects []core.SubjectID             `json:"selected_subjects"`
	SelectedMetrics  []string                     `json:"selected_metrics"`
	EventWindows     []EventWindow                `json:"event_windows"`
	AnalysisMethod   string                       `json:"analysis_method"`
	PlotType         string                       `json:"plot_type"`
	ColumnMappings   map[MappingKey]ColumnMapping `json:"-"`
}

// NewConfiguration creates an empty draft
func NewConfiguration() *Configuration {
	return &Configuration{
		ColumnMappings: make(map[MappingKey]ColumnMapping),
	}
}

// MappingFor looks up the column mapping for a subject's file. The second
// return value makes absence explicit.
func (c *Configuration) MappingFor(subject core.SubjectID, filename string) (ColumnMapping, bool) {
	m, ok := c.ColumnMappings[MappingKey{Subject: subject, Filename: filename}]
	return m, ok
}

// SetMapping stores the column mapping for a subject's file
func (c *Configuration) SetMapping(subject core.SubjectID, filename string, mapping ColumnMapping) {
	if c.ColumnMappings == nil {
		c.ColumnMappings = make(map[MappingKey]ColumnMapping)
	}
	c.ColumnMappings[MappingKey{Subject: subject, Filename: filename}] = mapping
}

// HasSubject reports whether the subject is part of the current selection
func (c *Configuration) HasSubject(subject core.SubjectID) bool {
	for _, s := range c.SelectedSubjects {
		if s == subject {
			return true
		}
	}
	return false
}
