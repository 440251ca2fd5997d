package submit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/yumvipay/sendcore-backend/internal/domain"
	"github.com/yumvipay/sendcore-backend/internal/netmon"
	"github.com/yumvipay/sendcore-backend/internal/notify"
	"github.com/yumvipay/sendcore-backend/internal/usecase/rates"
)

// Wizard is the slice of the wizard service the submitter needs: claiming
// the submission slot and reporting its outcome.
type Wizard interface {
	BeginSubmit(ctx context.Context, sessionID string) (*domain.TransactionDraft, error)
	FinishSubmit(ctx context.Context, sessionID string, submitErr error)
}

// Outcome reports what happened to a submission request
type Outcome struct {
	Status   domain.TransferStatus
	Transfer *domain.Transfer
}

// Service turns a confirmed draft into a durable transfer record.
// While offline, the submission is deferred through the network monitor:
// the wizard stays in the submitting state until the flush settles it, so
// the user cannot double-submit in the meantime.
type Service struct {
	transfers domain.TransferRepository
	wizard    Wizard
	monitor   *netmon.Monitor
	rates     *rates.Service
	notifier  notify.Notifier
	logger    *slog.Logger
}

// NewService creates a new submit service
func NewService(
	transfers domain.TransferRepository,
	wizard Wizard,
	monitor *netmon.Monitor,
	rateService *rates.Service,
	notifier notify.Notifier,
	logger *slog.Logger,
) *Service {
	return &Service{
		transfers: transfers,
		wizard:    wizard,
		monitor:   monitor,
		rates:     rateService,
		notifier:  notifier,
		logger:    logger,
	}
}

// Submit claims the session's submission slot, builds the transfer, and
// persists it — immediately when online, deferred onto the monitor's queue
// when offline.
func (s *Service) Submit(ctx context.Context, sessionID string) (*Outcome, error) {
	draft, err := s.wizard.BeginSubmit(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	transfer, err := s.buildTransfer(sessionID, draft)
	if err != nil {
		s.wizard.FinishSubmit(ctx, sessionID, err)
		return nil, err
	}

	if s.monitor.IsOffline() {
		transfer.Status = domain.TransferStatusQueued
		s.monitor.Enqueue(func(taskCtx context.Context) error {
			return s.deliver(taskCtx, sessionID, transfer)
		})
		s.notifier.Notify(notify.KindInfo, "You're offline",
			"Your transfer will be sent as soon as the connection returns")
		s.logger.Info("submission deferred until online", "session", sessionID, "transfer", transfer.ID)
		return &Outcome{Status: domain.TransferStatusQueued, Transfer: transfer}, nil
	}

	if err := s.deliver(ctx, sessionID, transfer); err != nil {
		return nil, err
	}
	return &Outcome{Status: domain.TransferStatusSubmitted, Transfer: transfer}, nil
}

// deliver persists the transfer and settles the wizard state. It is called
// directly when online and from the monitor's flush when a deferred
// submission runs.
func (s *Service) deliver(ctx context.Context, sessionID string, transfer *domain.Transfer) error {
	transfer.Status = domain.TransferStatusSubmitted
	if err := s.transfers.Create(ctx, transfer); err != nil {
		s.logger.Error("transfer submission failed",
			"session", sessionID, "transfer", transfer.ID, "err", err)
		s.wizard.FinishSubmit(ctx, sessionID, errors.New("submission failed, please try again"))
		return fmt.Errorf("failed to submit transfer: %w", err)
	}

	s.wizard.FinishSubmit(ctx, sessionID, nil)
	s.notifier.Notify(notify.KindSuccess, "Transfer sent",
		fmt.Sprintf("%s %s is on its way to %s",
			transfer.Amount.String(), transfer.SourceCurrency, transfer.RecipientName))
	return nil
}

// buildTransfer assembles and validates the durable transfer record from a
// confirmed draft. The converted amount is recomputed from the rate table
// here; the draft's display value is advisory only.
func (s *Service) buildTransfer(sessionID string, draft *domain.TransactionDraft) (*domain.Transfer, error) {
	amount, err := decimal.NewFromString(draft.Amount)
	if err != nil {
		return nil, fmt.Errorf("invalid draft amount %q: %w", draft.Amount, err)
	}

	quote := s.rates.ResolveOrDefault(draft.SourceCurrency, draft.TargetCurrency)
	if quote.Source == rates.SourceDefault {
		s.logger.Warn("no exchange rate configured for pair",
			"source", draft.SourceCurrency, "target", draft.TargetCurrency)
	}

	transfer := &domain.Transfer{
		ID:              uuid.New(),
		SessionID:       sessionID,
		Amount:          amount,
		ConvertedAmount: rates.Convert(amount, quote.Rate),
		SourceCurrency:  draft.SourceCurrency,
		TargetCurrency:  draft.TargetCurrency,
		TargetCountry:   draft.TargetCountry,
		RecipientID:     draft.RecipientID,
		RecipientName:   draft.RecipientName,
		PaymentMethod:   draft.PaymentMethod,
		Provider:        draft.Provider,
		Status:          domain.TransferStatusSubmitted,
		CreatedAt:       time.Now(),
	}

	if err := transfer.Validate(); err != nil {
		return nil, err
	}
	return transfer, nil
}
