package files

import (
	"sort"
	"strings"

	"bioprep/domain/core"
)

// Category is the typed bucket a picked file is sorted into
type Category string

const (
	CategoryBiometric     Category = "biometric"
	CategoryRespiration   Category = "respiration"
	CategoryEventMarkers  Category = "event_markers"
	CategoryTranscription Category = "transcription"
	CategoryStimulusLog   Category = "stimulus_log"
	CategoryUnclassified  Category = "unclassified"
)

// RawFile is one file from the picked folder. Only the name and path travel
// through discovery; bytes are read lazily and only at submission time.
type RawFile struct {
	Name         string `json:"name"`
	RelativePath string `json:"relative_path"`
	// Path is the absolute location used to open the file later.
	Path string `json:"path,omitempty"`
}

// Subject returns the subject identifier derived from the second path segment
// of the relative path (root/<subject>/...), or "" when the path is too short.
func (f RawFile) Subject() core.SubjectID {
	segments := strings.Split(strings.Trim(f.RelativePath, "/"), "/")
	if len(segments) < 3 {
		// root/<subject>/<file> is the minimum shape with a subject folder
		return ""
	}
	return core.SubjectID(segments[1])
}

// FileStructure holds the categorized view of one folder selection. A new
// selection produces a new FileStructure; an existing one is never mutated.
type FileStructure struct {
	Biometric     []RawFile `json:"biometric"`
	Respiration   []RawFile `json:"respiration"`
	EventMarkers  []RawFile `json:"event_markers"`
	Transcription []RawFile `json:"transcription"`
	StimulusLogs  []RawFile `json:"stimulus_logs"`
	Unclassified  []RawFile `json:"unclassified"`

	// HasHighFrequencyPulseFiles is set when any biometric file carries one of
	// the pulse-channel suffixes. It later synthesizes the derived HRV metric.
	HasHighFrequencyPulseFiles bool `json:"has_high_frequency_pulse_files"`
}

// Subjects returns the sorted distinct subject identifiers observed across
// all categorized files (unclassified files excluded).
func (s *FileStructure) Subjects() []core.SubjectID {
	seen := make(map[core.SubjectID]bool)
	for _, bucket := range [][]RawFile{s.Biometric, s.Respiration, s.EventMarkers, s.Transcription, s.StimulusLogs} {
		for _, f := range bucket {
			if subject := f.Subject(); subject != "" {
				seen[subject] = true
			}
		}
	}
	subjects := make([]core.SubjectID, 0, len(seen))
	for subject := range seen {
		subjects = append(subjects, subject)
	}
	sort.Slice(subjects, func(i, j int) bool { return subjects[i] < subjects[j] })
	return subjects
}

// HasStimulusLogs reports whether any stimulus-log files were found
func (s *FileStructure) HasStimulusLogs() bool {
	return len(s.StimulusLogs) > 0
}

// StimulusLogsBySubject groups the stimulus-log files per subject
func (s *FileStructure) StimulusLogsBySubject() map[core.SubjectID][]RawFile {
	grouped := make(map[core.SubjectID][]RawFile)
	for _, f := range s.StimulusLogs {
		if subject := f.Subject(); subject != "" {
			grouped[subject] = append(grouped[subject], f)
		}
	}
	return grouped
}

// TotalClassified counts the files that landed in a non-unclassified bucket
func (s *FileStructure) TotalClassified() int {
	return len(s.Biometric) + len(s.Respiration) + len(s.EventMarkers) +
		len(s.Transcription) + len(s.StimulusLogs)
}
