package validator

import (
	"github.com/shopspring/decimal"

	"github.com/yumvipay/sendcore-backend/internal/domain"
)

// Validate reports whether the draft satisfies the requirements to advance
// out of the given step. It is total: a nil or empty draft fails closed,
// and no input can make it panic. Messaging around a failure is the
// caller's concern; the predicate itself has no side effects.
func Validate(step domain.Step, draft *domain.TransactionDraft) bool {
	if draft == nil {
		return false
	}

	switch step {
	case domain.StepRecipient, domain.StepPayment:
		// The user must have confirmed the recipient's registered name
		// before money can move toward them.
		return draft.NameMatchConfirmed
	case domain.StepConfirmation:
		return draft.NameMatchConfirmed && hasSubmittableFields(draft)
	case domain.StepComplete:
		// Terminal. Nothing left to gate; advancing is refused by the
		// state machine, not the validator.
		return true
	}
	return false
}

// FailureMessage returns the user-facing message for a validation failure
// at the given step.
func FailureMessage(step domain.Step, draft *domain.TransactionDraft) string {
	if draft == nil || !draft.NameMatchConfirmed {
		return "Please confirm the recipient's name before continuing"
	}
	if step == domain.StepConfirmation && !hasSubmittableFields(draft) {
		return "Please complete the transfer details before submitting"
	}
	return "Please complete this step before continuing"
}

func hasSubmittableFields(draft *domain.TransactionDraft) bool {
	if draft.SourceCurrency == "" || draft.TargetCurrency == "" {
		return false
	}
	if draft.RecipientName == "" || draft.Provider == "" {
		return false
	}
	amount, err := decimal.NewFromString(draft.Amount)
	if err != nil {
		return false
	}
	return amount.IsPositive()
}
