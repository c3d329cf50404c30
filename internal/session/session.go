package session

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"bioprep/adapters/tablefile"
	"bioprep/domain/availability"
	"bioprep/domain/core"
	"bioprep/domain/experiment"
	"bioprep/domain/files"
	"bioprep/domain/request"
	"bioprep/domain/table"
	"bioprep/domain/wizard"
	"bioprep/internal"
	"bioprep/internal/config"
	"bioprep/ports"
)

// StimulusSampler reads the bounded head of one stimulus-log file
type StimulusSampler interface {
	Sample(f files.RawFile) (*table.SampledTable, error)
}

// Session owns the state of one request-assembly run: the classified folder,
// the sampled stimulus tables, the scan result, the configuration draft and
// the wizard position. All mutation goes through its methods; the UI layer
// holds exactly one Session at a time.
type Session struct {
	mu sync.Mutex

	cfg    *config.Config
	logger *internal.Logger

	source  ports.FolderSource
	sampler StimulusSampler
	service ports.ScanService
	fetcher ports.PlotFetcher

	id        core.SessionID
	structure *files.FileStructure
	sampled   []experiment.SubjectFile
	scan      *ports.ScanResult

	draft           *request.Configuration
	machine         *wizard.Machine
	combined        availability.Combined
	issues          []request.Issue
	uploadPulseFlag bool

	lastResult *ports.SubmissionResult
}

// New creates an empty session. Nothing happens until SelectFolder.
func New(cfg *config.Config, source ports.FolderSource, sampler StimulusSampler,
	service ports.ScanService, fetcher ports.PlotFetcher, logger *internal.Logger) *Session {
	return &Session{
		cfg:     cfg,
		logger:  logger.WithComponent("Session"),
		source:  source,
		sampler: sampler,
		service: service,
		fetcher: fetcher,
		id:      core.NewSessionID(),
		draft:   request.NewConfiguration(),
	}
}

// ID returns the session identifier
func (s *Session) ID() core.SessionID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// SelectFolder runs the full discovery pipeline for one picked folder:
// classification, concurrent stimulus-log sampling, then one sequential scan
// call. A previous selection is discarded wholesale.
func (s *Session) SelectFolder(ctx context.Context, root string) error {
	picked, err := s.source.List(root)
	if err != nil {
		return err
	}

	classifier := files.NewClassifier(files.ClassifierConfig{
		BiometricFolder:   s.cfg.Folders.BiometricFolder,
		RespirationFolder: s.cfg.Folders.RespirationFolder,
		StimulusLogFolder: s.cfg.Folders.StimulusLogFolder,
		EventMarkerSuffix: s.cfg.Folders.EventMarkerSuffix,
	})
	structure := classifier.Classify(picked)
	if structure.TotalClassified() == 0 {
		return core.ErrNoFilesFound
	}

	sampled := s.sampleStimulusLogs(ctx, structure.StimulusLogs)

	scan, err := s.runScan(ctx, structure, sampled)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.structure = structure
	s.sampled = sampled
	s.scan = scan
	s.draft = request.NewConfiguration()
	s.issues = nil
	// With per-subject availability the pulse predicate judges each subject
	// on its own files; the folder-wide flag only stands in when the scan
	// returned no map to judge from.
	s.uploadPulseFlag = scan.SubjectAvailability == nil && structure.HasHighFrequencyPulseFiles
	s.machine = wizard.NewMachine(structure.HasStimulusLogs(), s.runValidation)
	s.recombineLocked()

	s.logger.Info("folder selected: %d classified files, %d subjects, %d stimulus logs",
		structure.TotalClassified(), len(structure.Subjects()), len(structure.StimulusLogs))
	return nil
}

// sampleStimulusLogs issues every file read as an independent task and joins
// them, with a bounded fan-out. A failed read drops that file only.
func (s *Session) sampleStimulusLogs(ctx context.Context, logs []files.RawFile) []experiment.SubjectFile {
	var mu sync.Mutex
	var sampled []experiment.SubjectFile

	group, ctx := errgroup.WithContext(ctx)
	sem := semaphore.NewWeighted(int64(s.cfg.Sampling.MaxConcurrentReads))

	for _, f := range logs {
		f := f
		group.Go(func() error {
			if err := sem.Acquire(ctx, 1); err != nil {
				return err
			}
			defer sem.Release(1)

			tbl, err := s.sampler.Sample(f)
			if err != nil {
				s.logger.Warn("skipping stimulus log %s: %v", f.Name, err)
				return nil
			}
			mu.Lock()
			sampled = append(sampled, experiment.SubjectFile{Subject: f.Subject(), Table: tbl})
			mu.Unlock()
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		// Only context cancellation reaches here; per-file errors never abort
		s.logger.Warn("stimulus sampling interrupted: %v", err)
	}
	return sampled
}

// runScan builds and issues the single scan call
func (s *Session) runScan(ctx context.Context, structure *files.FileStructure, sampled []experiment.SubjectFile) (*ports.ScanResult, error) {
	subjects := structure.Subjects()

	markers := structure.EventMarkers
	if len(subjects) <= 1 && len(markers) > 1 {
		// Single-subject mode sends at most one marker file
		markers = markers[:1]
	}

	metadata := make([]ports.StimulusFileMetadata, 0, len(sampled))
	for _, sf := range sampled {
		summaries, rate := tablefile.Describe(sf.Table)
		metadata = append(metadata, ports.StimulusFileMetadata{
			Subject:          sf.Subject,
			Table:            *sf.Table,
			NumericSummaries: summaries,
			SamplingRateHz:   rate,
		})
	}

	return s.service.Scan(ctx, ports.ScanRequest{
		BiometricFiles:   structure.Biometric,
		RespirationFiles: structure.Respiration,
		EventMarkerFiles: markers,
		Subjects:         subjects,
		StimulusMetadata: metadata,
		UploadPulseFlag:  structure.HasHighFrequencyPulseFiles,
	})
}

// Structure returns the classified folder, or nil before any selection
func (s *Session) Structure() *files.FileStructure {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.structure
}

// Availability returns the combined availability for the current selection
func (s *Session) Availability() availability.Combined {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.combined
}

// SetSubjects replaces the subject selection and recombines availability
func (s *Session) SetSubjects(subjects []core.SubjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.scan == nil {
		return core.ErrScanRequired
	}
	s.draft.SelectedSubjects = subjects
	s.recombineLocked()
	return nil
}

// SetMetrics replaces the metric selection
func (s *Session) SetMetrics(metrics []string) error {
	return s.updateDraft(func(draft *request.Configuration) {
		draft.SelectedMetrics = metrics
	})
}

// SetEventWindows replaces the event window list
func (s *Session) SetEventWindows(windows []request.EventWindow) error {
	return s.updateDraft(func(draft *request.Configuration) {
		draft.EventWindows = windows
	})
}

// SetAnalysisMethod sets the analysis method
func (s *Session) SetAnalysisMethod(method string) error {
	return s.updateDraft(func(draft *request.Configuration) {
		draft.AnalysisMethod = method
	})
}

// SetPlotType sets the plot type
func (s *Session) SetPlotType(plotType string) error {
	return s.updateDraft(func(draft *request.Configuration) {
		draft.PlotType = plotType
	})
}

// SetColumnMapping stores the column mapping for one subject's stimulus file
func (s *Session) SetColumnMapping(subject core.SubjectID, filename string, mapping request.ColumnMapping) error {
	return s.updateDraft(func(draft *request.Configuration) {
		draft.SetMapping(subject, filename, mapping)
	})
}

// SetUploadPulseFlag overrides the pulse-channel assertion used for the
// derived HRV metric
func (s *Session) SetUploadPulseFlag(flag bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.scan == nil {
		return core.ErrScanRequired
	}
	s.uploadPulseFlag = flag
	s.recombineLocked()
	return nil
}

func (s *Session) updateDraft(apply func(*request.Configuration)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.scan == nil {
		return core.ErrScanRequired
	}
	apply(s.draft)
	return nil
}

// Draft returns the current configuration draft
func (s *Session) Draft() *request.Configuration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft
}

// ExperimentGroups clusters the sampled stimulus logs across the selected
// subjects under the given combine mode
func (s *Session) ExperimentGroups(mode experiment.CombineMode) map[core.ExperimentKey]*experiment.Type {
	s.mu.Lock()
	defer s.mu.Unlock()
	grouper := experiment.NewGrouper(nil)
	return grouper.Group(s.sampled, s.draft.SelectedSubjects, mode)
}

// GoNext advances the wizard one step
func (s *Session) GoNext() (wizard.Step, error) {
	return s.transition(func(m *wizard.Machine) wizard.Step { return m.Next() })
}

// GoPrevious moves the wizard back one step
func (s *Session) GoPrevious() (wizard.Step, error) {
	return s.transition(func(m *wizard.Machine) wizard.Step { return m.Previous() })
}

// JumpTo moves the wizard directly to a step index
func (s *Session) JumpTo(index int) (wizard.Step, error) {
	return s.transition(func(m *wizard.Machine) wizard.Step { return m.Jump(index) })
}

func (s *Session) transition(move func(*wizard.Machine) wizard.Step) (wizard.Step, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.machine == nil {
		return "", core.ErrScanRequired
	}
	return move(s.machine), nil
}

// Wizard returns the current step, index and step count
func (s *Session) Wizard() (wizard.Step, int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.machine == nil {
		return "", 0, 0
	}
	return s.machine.Current(), s.machine.Index(), s.machine.StepCount()
}

// Issues returns the findings of the latest validation run
func (s *Session) Issues() []request.Issue {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.issues
}

// SubmitAnalysis validates once more, refuses while issues remain, then
// issues the single submission call. The draft is discarded on success.
func (s *Session) SubmitAnalysis(ctx context.Context) (*ports.SubmissionResult, error) {
	s.mu.Lock()
	if s.scan == nil {
		s.mu.Unlock()
		return nil, core.ErrScanRequired
	}
	s.runValidation()
	if len(s.issues) > 0 {
		s.mu.Unlock()
		return nil, core.ErrConfigurationInvalid
	}
	req := ports.SubmissionRequest{Structure: s.structure, Configuration: s.draft}
	s.mu.Unlock()

	result, err := s.service.Submit(ctx, req)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.lastResult = result
	s.draft = request.NewConfiguration()
	s.machine = wizard.NewMachine(s.structure.HasStimulusLogs(), s.runValidation)
	s.issues = nil
	s.recombineLocked()
	s.mu.Unlock()

	s.logger.Info("analysis submitted: %d plots returned", len(result.Plots))
	return result, nil
}

// LastResult returns the most recent submission result, or nil
func (s *Session) LastResult() *ports.SubmissionResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastResult
}

// SaveFigures downloads the last result's plots into dir, sequentially with a
// fixed pause between downloads. One failed download skips that figure only.
// Returns the number of figures written.
func (s *Session) SaveFigures(ctx context.Context, dir string) (int, error) {
	s.mu.Lock()
	result := s.lastResult
	delay := s.cfg.Service.FigureSaveDelay
	s.mu.Unlock()

	if result == nil || len(result.Plots) == 0 {
		return 0, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, err
	}

	saved := 0
	for i, plot := range result.Plots {
		if i > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return saved, ctx.Err()
			}
		}

		data, err := s.fetcher.FetchPlot(ctx, plot.URL)
		if err != nil {
			s.logger.Warn("skipping figure %s: %v", plot.Name, err)
			continue
		}

		name := plot.Filename
		if name == "" {
			name = filepath.Base(plot.URL)
		}
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
			s.logger.Warn("cannot write figure %s: %v", name, err)
			continue
		}
		saved++
	}
	return saved, nil
}

// runValidation executes the validator against the current draft and caches
// the findings. Called with the lock held, either from the wizard's review
// hook or from SubmitAnalysis.
func (s *Session) runValidation() []string {
	input := request.ValidationInput{
		Availability:       s.availabilityMapLocked(),
		HasStimulusLogData: s.structure != nil && s.structure.HasStimulusLogs(),
	}
	if s.structure != nil {
		input.StimulusLogsBySubject = s.structure.StimulusLogsBySubject()
	}

	s.issues = request.Validate(s.draft, input)

	flat := make([]string, len(s.issues))
	for i, issue := range s.issues {
		flat[i] = string(issue)
	}
	return flat
}

// recombineLocked recomputes the combined availability for the current
// subject selection. Caller holds the lock.
func (s *Session) recombineLocked() {
	s.combined = availability.Combine(s.availabilityMapLocked(), s.draft.SelectedSubjects, s.uploadPulseFlag)
}

// availabilityMapLocked returns the per-subject availability, synthesizing a
// single-entry map from the aggregate sets when the service sent no
// per-subject breakdown
func (s *Session) availabilityMapLocked() availability.SubjectMap {
	if s.scan == nil {
		return nil
	}
	if s.scan.SubjectAvailability != nil {
		return s.scan.SubjectAvailability
	}

	pulse := s.structure != nil && s.structure.HasHighFrequencyPulseFiles
	synthesized := make(availability.SubjectMap)
	subjects := s.scan.Subjects
	if len(subjects) == 0 && s.structure != nil {
		subjects = s.structure.Subjects()
	}
	for _, subject := range subjects {
		synthesized[subject] = availability.SubjectAvailability{
			Metrics:               s.scan.Metrics,
			EventMarkers:          s.scan.EventMarkers,
			Conditions:            s.scan.Conditions,
			HasHighFrequencyPulse: pulse,
		}
	}
	return synthesized
}
