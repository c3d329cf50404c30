package files

import (
	"strings"
)

// Folder-segment and filename conventions of the recording pipeline. These
// are an external contract shared with the analysis service.
const (
	BiometricFolderSegment   = "emotibit_data"
	RespirationFolderSegment = "respiration_data"
	StimulusLogFolderSegment = "psychopy"
	EventMarkerSuffix        = "_event_markers.csv"
)

// PulseChannelSuffixes are the three wavelength-specific photoplethysmography
// channel files (infrared, red, green) that HRV is derived from.
var PulseChannelSuffixes = []string{"_pi.csv", "_pr.csv", "_pg.csv"}

// Rule is one named classification rule. Rules are pure: they look at the
// lowercased name/path of a file and either claim it for a category or pass.
type Rule struct {
	Name  string
	Match func(lowerName, lowerPath string) (Category, bool)
}

// Classifier partitions a flat list of picked files into typed buckets.
// Rules apply in order, first match wins, so no file is double-counted.
type Classifier struct {
	rules []Rule
}

// ClassifierConfig allows the folder conventions to be overridden per deployment
type ClassifierConfig struct {
	BiometricFolder   string
	RespirationFolder string
	StimulusLogFolder string
	EventMarkerSuffix string
}

// DefaultClassifierConfig returns the recording pipeline's standard conventions
func DefaultClassifierConfig() ClassifierConfig {
	return ClassifierConfig{
		BiometricFolder:   BiometricFolderSegment,
		RespirationFolder: RespirationFolderSegment,
		StimulusLogFolder: StimulusLogFolderSegment,
		EventMarkerSuffix: EventMarkerSuffix,
	}
}

// NewClassifier creates a classifier with the standard rule order
func NewClassifier(config ClassifierConfig) *Classifier {
	return &Classifier{
		rules: []Rule{
			{
				Name: "biometric-signal",
				Match: func(name, path string) (Category, bool) {
					if hasFolderSegment(path, config.BiometricFolder) && strings.HasSuffix(name, ".csv") {
						return CategoryBiometric, true
					}
					return "", false
				},
			},
			{
				Name: "respiration",
				Match: func(name, path string) (Category, bool) {
					if hasFolderSegment(path, config.RespirationFolder) && strings.HasSuffix(name, ".csv") {
						return CategoryRespiration, true
					}
					return "", false
				},
			},
			{
				Name: "event-markers",
				Match: func(name, path string) (Category, bool) {
					if strings.HasSuffix(name, config.EventMarkerSuffix) {
						return CategoryEventMarkers, true
					}
					return "", false
				},
			},
			{
				Name: "speech-transcription",
				Match: func(name, path string) (Category, bool) {
					if strings.Contains(name, "ser") || strings.Contains(name, "transcription") {
						return CategoryTranscription, true
					}
					return "", false
				},
			},
			{
				Name: "stimulus-log",
				Match: func(name, path string) (Category, bool) {
					if hasFolderSegment(path, config.StimulusLogFolder) && strings.HasSuffix(name, ".csv") {
						return CategoryStimulusLog, true
					}
					return "", false
				},
			},
		},
	}
}

// Classify sorts every picked file into exactly one bucket and derives the
// pulse-channel flag. Unmatched files land in Unclassified and are ignored
// downstream.
func (c *Classifier) Classify(picked []RawFile) *FileStructure {
	structure := &FileStructure{}

	for _, f := range picked {
		lowerName := strings.ToLower(f.Name)
		lowerPath := strings.ToLower(f.RelativePath)

		category := CategoryUnclassified
		for _, rule := range c.rules {
			if matched, ok := rule.Match(lowerName, lowerPath); ok {
				category = matched
				break
			}
		}

		switch category {
		case CategoryBiometric:
			structure.Biometric = append(structure.Biometric, f)
			if isPulseChannel(lowerName) {
				structure.HasHighFrequencyPulseFiles = true
			}
		case CategoryRespiration:
			structure.Respiration = append(structure.Respiration, f)
		case CategoryEventMarkers:
			structure.EventMarkers = append(structure.EventMarkers, f)
		case CategoryTranscription:
			structure.Transcription = append(structure.Transcription, f)
		case CategoryStimulusLog:
			structure.StimulusLogs = append(structure.StimulusLogs, f)
		default:
			structure.Unclassified = append(structure.Unclassified, f)
		}
	}

	return structure
}

// ClassifyOne returns the category a single file would land in, for auditing
func (c *Classifier) ClassifyOne(f RawFile) (Category, string) {
	lowerName := strings.ToLower(f.Name)
	lowerPath := strings.ToLower(f.RelativePath)
	for _, rule := range c.rules {
		if category, ok := rule.Match(lowerName, lowerPath); ok {
			return category, rule.Name
		}
	}
	return CategoryUnclassified, ""
}

// isPulseChannel reports whether a lowercased biometric filename carries one
// of the three pulse-channel suffixes
func isPulseChannel(lowerName string) bool {
	for _, suffix := range PulseChannelSuffixes {
		if strings.HasSuffix(lowerName, suffix) {
			return true
		}
	}
	return false
}

// hasFolderSegment checks for an exact path segment, not a bare substring, so
// a folder named "my_emotibit_data_backup" does not match
func hasFolderSegment(lowerPath, segment string) bool {
	for _, part := range strings.Split(lowerPath, "/") {
		if part == segment {
			return true
		}
	}
	return false
}

// MetricNameFromFile derives the metric name a biometric-signal file backs,
// using the _<METRIC>.csv suffix convention ("..._HR.csv" -> "HR").
func MetricNameFromFile(name string) string {
	base := strings.TrimSuffix(name, ".csv")
	if base == name {
		base = strings.TrimSuffix(name, ".CSV")
	}
	idx := strings.LastIndex(base, "_")
	if idx < 0 || idx == len(base)-1 {
		return ""
	}
	return base[idx+1:]
}
