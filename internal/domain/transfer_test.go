package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func validTransfer() *Transfer {
	return &Transfer{
		ID:              uuid.New(),
		SessionID:       "session-1",
		Amount:          decimal.NewFromInt(100),
		ConvertedAmount: decimal.RequireFromString("61025.00"),
		SourceCurrency:  "USD",
		TargetCurrency:  "XAF",
		TargetCountry:   "CM",
		RecipientID:     uuid.NewString(),
		RecipientName:   "Marie Ngo",
		PaymentMethod:   "mobile_money",
		Provider:        "MTN_MOMO",
		Status:          TransferStatusSubmitted,
		CreatedAt:       time.Now(),
	}
}

func TestTransferValidate_Valid(t *testing.T) {
	assert.NoError(t, validTransfer().Validate())
}

func TestTransferValidate_RejectsNonPositiveAmount(t *testing.T) {
	tr := validTransfer()
	tr.Amount = decimal.Zero
	assert.Error(t, tr.Validate())

	tr.Amount = decimal.NewFromInt(-5)
	assert.Error(t, tr.Validate())
}

func TestTransferValidate_RejectsMissingCurrencies(t *testing.T) {
	tr := validTransfer()
	tr.TargetCurrency = ""
	assert.Error(t, tr.Validate())
}

func TestTransferValidate_RejectsMissingRecipientName(t *testing.T) {
	tr := validTransfer()
	tr.RecipientName = ""
	assert.Error(t, tr.Validate())
}

func TestTransferValidate_RejectsMissingProvider(t *testing.T) {
	tr := validTransfer()
	tr.Provider = ""
	assert.Error(t, tr.Validate())
}

func TestTransferValidate_RejectsUnknownStatus(t *testing.T) {
	tr := validTransfer()
	tr.Status = TransferStatus("DONE")
	assert.Error(t, tr.Validate())
}
