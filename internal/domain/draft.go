package domain

import "strings"

// TransactionDraft represents an in-progress, not-yet-submitted transfer.
// It is built incrementally across wizard steps; fields left empty by one
// step are filled in by later ones.
type TransactionDraft struct {
	Amount                string `json:"amount,omitempty"`
	SourceCurrency        string `json:"sourceCurrency,omitempty"`
	TargetCurrency        string `json:"targetCurrency,omitempty"`
	TargetCountry         string `json:"targetCountry,omitempty"`
	RecipientID           string `json:"recipientId,omitempty"`
	RecipientName         string `json:"recipientName,omitempty"`
	PaymentMethod         string `json:"paymentMethod,omitempty"`
	Provider              string `json:"provider,omitempty"`
	ConvertedAmount       string `json:"convertedAmount,omitempty"`
	NameMatchConfirmed    bool   `json:"nameMatchConfirmed"`
	SavePaymentPreference bool   `json:"savePaymentPreference"`
}

// Merge folds the non-empty fields of patch over d and returns the result.
// Neither receiver nor patch is mutated.
//
// CRITICAL: once NameMatchConfirmed is true it stays true for the lifetime
// of the draft; a patch cannot lower it back to false. Validators re-check
// the flag at every subsequent step, so letting a partial update drop it
// would silently invalidate an already-confirmed recipient.
func (d TransactionDraft) Merge(patch TransactionDraft) TransactionDraft {
	out := d

	if patch.Amount != "" {
		out.Amount = patch.Amount
	}
	if patch.SourceCurrency != "" {
		out.SourceCurrency = strings.ToUpper(patch.SourceCurrency)
	}
	if patch.TargetCurrency != "" {
		out.TargetCurrency = strings.ToUpper(patch.TargetCurrency)
	}
	if patch.TargetCountry != "" {
		out.TargetCountry = strings.ToUpper(patch.TargetCountry)
	}
	if patch.RecipientID != "" {
		out.RecipientID = patch.RecipientID
	}
	if patch.RecipientName != "" {
		out.RecipientName = patch.RecipientName
	}
	if patch.PaymentMethod != "" {
		out.PaymentMethod = patch.PaymentMethod
	}
	if patch.Provider != "" {
		out.Provider = patch.Provider
	}
	if patch.ConvertedAmount != "" {
		out.ConvertedAmount = patch.ConvertedAmount
	}
	if patch.NameMatchConfirmed {
		out.NameMatchConfirmed = true
	}
	if patch.SavePaymentPreference {
		out.SavePaymentPreference = true
	}

	return out
}

// IsEmpty reports whether the draft carries no user-entered data at all.
func (d TransactionDraft) IsEmpty() bool {
	return d == TransactionDraft{}
}
