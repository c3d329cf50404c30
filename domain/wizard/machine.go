package wizard

// Step identifies one configuration step
type Step string

const (
	StepTypeAndSubjects   Step = "type_and_subjects"
	StepTags              Step = "tags"
	StepEvents            Step = "events"
	StepConditions        Step = "conditions"
	StepMethod            Step = "method"
	StepPlot              Step = "plot"
	StepStimulusLogConfig Step = "stimulus_log_config"
	// StepReview is the terminal step. It carries the run/submit action and
	// is the only step whose entry triggers a validation pass.
	StepReview Step = "review"
)

// Validator is run as a side effect of entering the review step
type Validator func() []string

// Machine sequences the wizard steps. The stimulus-log configuration step is
// present only when stimulus-log data was detected, which shifts the step
// count from 7 to 8 and the review index from 6 to 7.
type Machine struct {
	steps    []Step
	index    int
	validate Validator

	// issues from the most recent review-entry validation run
	issues []string
	// validated tracks whether review has been entered at least once
	validated bool
}

// NewMachine builds the step sequence for this session's data shape
func NewMachine(hasStimulusLogData bool, validate Validator) *Machine {
	steps := []Step{
		StepTypeAndSubjects,
		StepTags,
		StepEvents,
		StepConditions,
		StepMethod,
		StepPlot,
	}
	if hasStimulusLogData {
		steps = append(steps, StepStimulusLogConfig)
	}
	steps = append(steps, StepReview)

	return &Machine{steps: steps, validate: validate}
}

// StepCount returns the number of steps in this session
func (m *Machine) StepCount() int {
	return len(m.steps)
}

// Index returns the current step index
func (m *Machine) Index() int {
	return m.index
}

// Current returns the current step identity
func (m *Machine) Current() Step {
	return m.steps[m.index]
}

// StepAt returns the step identity at an index, or "" when out of range
func (m *Machine) StepAt(index int) Step {
	if index < 0 || index >= len(m.steps) {
		return ""
	}
	return m.steps[index]
}

// Next advances one step, saturating at the last step
func (m *Machine) Next() Step {
	return m.moveTo(m.index + 1)
}

// Previous moves back one step, saturating at the first step
func (m *Machine) Previous() Step {
	return m.moveTo(m.index - 1)
}

// Jump moves directly to any step index (breadcrumb navigation). Out-of-range
// indices are a no-op.
func (m *Machine) Jump(index int) Step {
	return m.moveTo(index)
}

// moveTo applies a transition with saturation and the review-entry side
// effect. Validation runs only when the review step is entered; no other
// transition validates.
func (m *Machine) moveTo(index int) Step {
	if index < 0 || index >= len(m.steps) {
		return m.Current()
	}
	entering := m.steps[index] == StepReview && m.steps[m.index] != StepReview
	m.index = index
	if entering && m.validate != nil {
		m.issues = m.validate()
		m.validated = true
	}
	return m.Current()
}

// Issues returns the result of the most recent review validation run
func (m *Machine) Issues() []string {
	return m.issues
}

// CanSubmit reports whether the run action is enabled: review must have been
// entered and the latest validation must have produced no issues
func (m *Machine) CanSubmit() bool {
	return m.validated && len(m.issues) == 0
}
