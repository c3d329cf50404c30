package api

import (
	"bioprep/domain/core"
	"bioprep/domain/request"
)

// Multipart field names shared with the analysis service
const (
	fieldBiometricPaths   = "biometric_paths"
	fieldSubjects         = "subjects"
	fieldEventMarkerFiles = "event_marker_files"
	fieldStimulusMetadata = "stimulus_metadata"
	fieldUploadPulseFlag  = "upload_pulse_flag"

	fieldMetricFiles     = "metric_files"
	fieldStimulusFiles   = "stimulus_files"
	fieldSelectedMetrics = "selected_metrics"
	fieldEventWindows    = "event_windows"
	fieldAnalysisMethod  = "analysis_method"
	fieldPlotType        = "plot_type"
	fieldColumnMappings  = "column_mappings"
	fieldAnalyzeHRV      = "analyze_hrv"
)

// mappingPayload flattens one composite-keyed column mapping for the wire
type mappingPayload struct {
	Subject  core.SubjectID        `json:"subject"`
	Filename string                `json:"filename"`
	Mapping  request.ColumnMapping `json:"mapping"`
}
