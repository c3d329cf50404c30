package ports

import (
	"context"

	"bioprep/domain/availability"
	"bioprep/domain/core"
	"bioprep/domain/files"
	"bioprep/domain/request"
	"bioprep/domain/table"
)

// ScanService is the remote analysis collaborator. Scan happens once per
// selected folder; Submit happens once per finished configuration. Both are
// single sequential calls with no retry.
type ScanService interface {
	Scan(ctx context.Context, req ScanRequest) (*ScanResult, error)
	Submit(ctx context.Context, req SubmissionRequest) (*SubmissionResult, error)
}

// PlotFetcher downloads one generated plot by the URL the submission
// response handed back
type PlotFetcher interface {
	FetchPlot(ctx context.Context, url string) ([]byte, error)
}

// ColumnSummary is descriptive sample statistics for one numeric column,
// computed from the bounded sample only
type ColumnSummary struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// StimulusFileMetadata describes one stimulus-log file for the scan request.
// Only this metadata crosses the wire; the raw stimulus bytes stay local
// until submission.
type StimulusFileMetadata struct {
	Subject core.SubjectID     `json:"subject"`
	Table   table.SampledTable `json:"table"`
	// NumericSummaries keys are column names; only numeric columns appear
	NumericSummaries map[string]ColumnSummary `json:"numeric_summaries,omitempty"`
	// SamplingRateHz is estimated from timestamp diffs, 0 when unknown
	SamplingRateHz float64 `json:"sampling_rate_hz,omitempty"`
}

// ScanRequest is the initial discovery upload: biometric and respiration
// signal files, event-marker files, and stimulus-log metadata
type ScanRequest struct {
	BiometricFiles   []files.RawFile
	RespirationFiles []files.RawFile
	// EventMarkerFiles carries every marker file in batch (multi-subject)
	// mode, at most one otherwise
	EventMarkerFiles []files.RawFile
	// Subjects is set only when more than one subject folder was detected
	Subjects         []core.SubjectID
	StimulusMetadata []StimulusFileMetadata
	// UploadPulseFlag asserts high-frequency pulse channels are present even
	// when availability alone would not show it
	UploadPulseFlag bool
}

// StimulusLogData is the scan response's echo of stimulus-log discovery
type StimulusLogData struct {
	HasFiles         bool
	FilesBySubject   map[core.SubjectID][]string
	SubjectsWithData []core.SubjectID
}

// ScanResult is what the service learned from the uploaded files. The
// aggregate sets are always present; the per-subject map and batch flag only
// in multi-subject mode.
type ScanResult struct {
	Metrics      []string
	EventMarkers []string
	Conditions   []string

	Subjects            []core.SubjectID
	SubjectAvailability availability.SubjectMap
	BatchMode           bool

	StimulusLogs *StimulusLogData
}

// SubmissionRequest carries the final configuration plus the file structure
// the metric and stimulus files are resolved from
type SubmissionRequest struct {
	Structure     *files.FileStructure
	Configuration *request.Configuration
}

// PlotDescriptor names one generated figure and where to fetch it
type PlotDescriptor struct {
	Name     string `json:"name"`
	URL      string `json:"url"`
	Filename string `json:"filename"`
}

// SubmissionResult holds the analysis output. Results and the event-marker
// summary are consumed opaquely; only the plot descriptors are interpreted.
type SubmissionResult struct {
	Results            map[string]any
	Plots              []PlotDescriptor
	EventMarkerSummary string
}
