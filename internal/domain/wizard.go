package domain

// Step represents one screen of the send-money wizard
type Step string

const (
	StepRecipient    Step = "recipient"
	StepPayment      Step = "payment"
	StepConfirmation Step = "confirmation"
	StepComplete     Step = "complete"
)

// stepOrder is the fixed forward ordering of the wizard.
// StepRecipient is initial; StepComplete is terminal.
var stepOrder = []Step{StepRecipient, StepPayment, StepConfirmation, StepComplete}

// Valid reports whether s is one of the four known wizard steps.
func (s Step) Valid() bool {
	switch s {
	case StepRecipient, StepPayment, StepConfirmation, StepComplete:
		return true
	}
	return false
}

// Advance returns the step following current in the fixed ordering.
// Returns ok=false if current is terminal or unrecognized. Pure function:
// the caller is responsible for running step validators first and for
// refusing the transition while a submission is in flight.
func Advance(current Step) (Step, bool) {
	for i, s := range stepOrder {
		if s == current && i+1 < len(stepOrder) {
			return stepOrder[i+1], true
		}
	}
	return "", false
}

// Retreat returns the step preceding current in the fixed ordering.
// Returns ok=false if current is initial or unrecognized. There is no
// back-transition out of StepComplete: a finished transfer is final.
func Retreat(current Step) (Step, bool) {
	if current == StepComplete {
		return "", false
	}
	for i, s := range stepOrder {
		if s == current && i > 0 {
			return stepOrder[i-1], true
		}
	}
	return "", false
}

// WizardState holds the mutable state of one wizard session.
// It is owned exclusively by the wizard service and mutated only through
// its methods; a fresh session starts at StepRecipient with zero values.
type WizardState struct {
	CurrentStep  Step   `json:"currentStep"`
	IsSubmitting bool   `json:"isSubmitting"`
	Error        string `json:"error,omitempty"`
	RetryCount   int    `json:"retryCount"`
}

// NewWizardState returns the initial state of a fresh wizard session.
func NewWizardState() WizardState {
	return WizardState{CurrentStep: StepRecipient}
}
