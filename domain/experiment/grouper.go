package experiment

import (
	"path"
	"sort"
	"strings"
	"unicode"

	"bioprep/domain/core"
	"bioprep/domain/table"
)

// UnknownExperiment is the placeholder key for files no rule could name
const UnknownExperiment core.ExperimentKey = "Unknown"

// DefaultExperimentCodes are the presentation-software task names recognized
// by substring match when the filename convention does not apply.
var DefaultExperimentCodes = []string{
	"stroop", "nback", "flanker", "baseline", "rest", "stress", "recovery",
}

// CombineMode decides how experiment types are filtered across the selected
// subjects.
type CombineMode string

const (
	// ModeIntersection keeps a type only when every selected subject that has
	// any stimulus-log data has a file of that type.
	ModeIntersection CombineMode = "intersection"
	// ModeUnion keeps every observed type, annotated with subject coverage.
	ModeUnion CombineMode = "union"
)

// SubjectFile pairs a sampled table with its owning subject
type SubjectFile struct {
	Subject core.SubjectID
	Table   *table.SampledTable
}

// Type is one derived experiment grouping across subjects
type Type struct {
	Key            core.ExperimentKey                       `json:"key"`
	Subjects       []core.SubjectID                         `json:"subjects"`
	FilesBySubject map[core.SubjectID][]*table.SampledTable `json:"files_by_subject"`

	// Coverage is the fraction of selected subjects that have this type.
	// Only meaningful under union mode; always 1.0 under intersection.
	Coverage float64 `json:"coverage"`
}

// KeyRule is one named inference rule in the key derivation chain: a pure
// function from a file to an optional experiment key.
type KeyRule struct {
	Name  string
	Apply func(t *table.SampledTable) (core.ExperimentKey, bool)
}

// Grouper clusters stimulus-log files into experiment types across subjects
type Grouper struct {
	rules []KeyRule
}

// NewGrouper builds a grouper with the standard rule chain. Rules apply in
// priority order until one matches, which keeps each heuristic independently
// testable.
func NewGrouper(knownCodes []string) *Grouper {
	if knownCodes == nil {
		knownCodes = DefaultExperimentCodes
	}
	return &Grouper{
		rules: []KeyRule{
			{
				Name: "explicit-metadata-name",
				Apply: func(t *table.SampledTable) (core.ExperimentKey, bool) {
					name := t.ExperimentName
					if name != "" && name != string(UnknownExperiment) {
						return core.ExperimentKey(name), true
					}
					return "", false
				},
			},
			{
				Name: "known-code-substring",
				Apply: func(t *table.SampledTable) (core.ExperimentKey, bool) {
					lower := strings.ToLower(t.Filename)
					for _, code := range knownCodes {
						if strings.Contains(lower, code) {
							return core.ExperimentKey(code), true
						}
					}
					return "", false
				},
			},
			{
				Name: "filename-token",
				Apply: func(t *table.SampledTable) (core.ExperimentKey, bool) {
					return tokenFromFilename(t.Filename), true
				},
			},
		},
	}
}

// KeyFor derives the experiment key for one sampled file. Deterministic:
// identical filenames and metadata yield identical keys across subjects.
func (g *Grouper) KeyFor(t *table.SampledTable) core.ExperimentKey {
	for _, rule := range g.rules {
		if key, ok := rule.Apply(t); ok {
			return key
		}
	}
	return UnknownExperiment
}

// ConventionalName extracts the experiment-name field from a convention-based
// filename: split on underscore, third token. Returns "Unknown" when the
// convention does not apply.
func ConventionalName(filename string) string {
	base := strings.TrimSuffix(filename, path.Ext(filename))
	tokens := strings.Split(base, "_")
	if len(tokens) < 3 || strings.TrimSpace(tokens[2]) == "" {
		return string(UnknownExperiment)
	}
	return tokens[2]
}

// Group clusters the selected subjects' files into experiment types and
// applies the union/intersection filter. Recomputed whenever the subject
// selection or the file set changes.
func (g *Grouper) Group(files []SubjectFile, selected []core.SubjectID, mode CombineMode) map[core.ExperimentKey]*Type {
	selectedSet := make(map[core.SubjectID]bool, len(selected))
	for _, s := range selected {
		selectedSet[s] = true
	}

	// Subjects among the selection that have stimulus-log data at all.
	// Intersection only requires coverage among those.
	subjectsWithData := make(map[core.SubjectID]bool)

	types := make(map[core.ExperimentKey]*Type)
	for _, sf := range files {
		if !selectedSet[sf.Subject] {
			continue
		}
		subjectsWithData[sf.Subject] = true

		key := g.KeyFor(sf.Table)
		et, ok := types[key]
		if !ok {
			et = &Type{
				Key:            key,
				FilesBySubject: make(map[core.SubjectID][]*table.SampledTable),
			}
			types[key] = et
		}
		if len(et.FilesBySubject[sf.Subject]) == 0 {
			et.Subjects = append(et.Subjects, sf.Subject)
		}
		et.FilesBySubject[sf.Subject] = append(et.FilesBySubject[sf.Subject], sf.Table)
	}

	for _, et := range types {
		sort.Slice(et.Subjects, func(i, j int) bool { return et.Subjects[i] < et.Subjects[j] })
		if len(subjectsWithData) > 0 {
			et.Coverage = float64(len(et.Subjects)) / float64(len(subjectsWithData))
		}
	}

	if mode == ModeIntersection {
		for key, et := range types {
			if len(et.Subjects) < len(subjectsWithData) {
				delete(types, key)
			} else {
				et.Coverage = 1.0
			}
		}
	}

	return types
}

// tokenFromFilename derives a fallback key from the filename alone: strip the
// extension, split on separators, prefer the first token holding at least
// three letters, else the last token, else Unknown.
func tokenFromFilename(filename string) core.ExperimentKey {
	base := strings.TrimSuffix(path.Base(filename), path.Ext(filename))
	tokens := strings.FieldsFunc(base, func(r rune) bool {
		return r == '_' || r == '-' || r == '.' || r == ' '
	})
	if len(tokens) == 0 {
		return UnknownExperiment
	}
	for _, token := range tokens {
		if letterCount(token) >= 3 {
			return core.ExperimentKey(token)
		}
	}
	return core.ExperimentKey(tokens[len(tokens)-1])
}

func letterCount(s string) int {
	count := 0
	for _, r := range s {
		if unicode.IsLetter(r) {
			count++
		}
	}
	return count
}
