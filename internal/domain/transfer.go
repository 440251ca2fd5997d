package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransferStatus represents the delivery status of a submitted transfer
type TransferStatus string

const (
	TransferStatusSubmitted TransferStatus = "SUBMITTED"
	TransferStatusQueued    TransferStatus = "QUEUED"
	TransferStatusFailed    TransferStatus = "FAILED"
)

// Transfer represents a submitted money transfer in the domain layer.
// It is built from a completed TransactionDraft at confirmation time and
// is the only entity that outlives the wizard session.
type Transfer struct {
	ID              uuid.UUID
	SessionID       string
	Amount          decimal.Decimal
	ConvertedAmount decimal.Decimal
	SourceCurrency  string
	TargetCurrency  string
	TargetCountry   string
	RecipientID     string
	RecipientName   string
	PaymentMethod   string
	Provider        string
	Status          TransferStatus
	CreatedAt       time.Time
}

// Validate ensures the transfer adheres to domain rules
// Returns an error if validation fails
func (t *Transfer) Validate() error {
	if t.Amount.LessThanOrEqual(decimal.Zero) {
		return errors.New("transfer amount must be positive")
	}
	if t.ConvertedAmount.LessThanOrEqual(decimal.Zero) {
		return errors.New("converted amount must be positive")
	}
	if t.SourceCurrency == "" || t.TargetCurrency == "" {
		return errors.New("transfer must have source and target currencies")
	}
	if t.RecipientName == "" {
		return errors.New("transfer must have a recipient name")
	}
	if t.Provider == "" {
		return errors.New("transfer must have a payout provider")
	}
	switch t.Status {
	case TransferStatusSubmitted, TransferStatusQueued, TransferStatusFailed:
	default:
		return errors.New("transfer status must be SUBMITTED, QUEUED, or FAILED")
	}
	return nil
}
