package recovery

import (
	"context"
	"errors"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/yumvipay/sendcore-backend/internal/domain"
	"github.com/yumvipay/sendcore-backend/internal/notify"
)

var recoveries = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "sendcore",
	Subsystem: "recovery",
	Name:      "attempts_total",
	Help:      "Draft recovery attempts by outcome source.",
}, []string{"source"})

// Source identifies which fallback produced a recovered draft
type Source string

const (
	SourceMemory      Source = "memory"       // in-memory cache reference
	SourceStep        Source = "step"         // current step's stored record
	SourceLastVisited Source = "last_visited" // most recently visited step's record
	SourcePending     Source = "pending"      // pending-transaction aggregate
	SourceNone        Source = "none"         // all four sources missed
)

// Result is the outcome of one recovery attempt. A miss is an expected
// outcome, never an error: the caller presents a fresh form.
type Result struct {
	Recovered bool
	Source    Source
	Draft     *domain.TransactionDraft
}

// Service reconstitutes a lost transaction draft from the available
// fallback sources in priority order, short-circuiting on the first hit.
// Recovery is one-shot and best-effort: no source is retried, and a read
// failure just moves the cascade to the next source.
type Service struct {
	drafts   domain.DraftRepository
	notifier notify.Notifier
	logger   *slog.Logger
}

// NewService creates a new recovery service
func NewService(drafts domain.DraftRepository, notifier notify.Notifier, logger *slog.Logger) *Service {
	return &Service{drafts: drafts, notifier: notifier, logger: logger}
}

// Recover attempts to repopulate the draft for a session at currentStep.
// Priority order: the in-memory cache reference, the current step's stored
// record, the most recently visited step's record, then the pending
// aggregate. A successful recovery surfaces a non-blocking notification so
// the user can tell restored data from silently empty forms.
func (s *Service) Recover(ctx context.Context, sessionID string, currentStep domain.Step, cached *domain.TransactionDraft) Result {
	if cached != nil && !cached.IsEmpty() {
		return s.hit(sessionID, SourceMemory, cached)
	}

	if draft := s.read(ctx, sessionID, currentStep); draft != nil {
		return s.hit(sessionID, SourceStep, draft)
	}

	if last, err := s.drafts.LastVisited(ctx, sessionID); err == nil && last != currentStep {
		if draft := s.read(ctx, sessionID, last); draft != nil {
			return s.hit(sessionID, SourceLastVisited, draft)
		}
	}

	if draft, err := s.drafts.ReadPending(ctx, sessionID); err == nil && !draft.IsEmpty() {
		return s.hit(sessionID, SourcePending, draft)
	}

	recoveries.WithLabelValues(string(SourceNone)).Inc()
	s.logger.Debug("no draft to recover", "session", sessionID, "step", currentStep)
	return Result{Recovered: false, Source: SourceNone}
}

func (s *Service) read(ctx context.Context, sessionID string, step domain.Step) *domain.TransactionDraft {
	draft, err := s.drafts.Read(ctx, sessionID, step)
	if err != nil {
		if !errors.Is(err, domain.ErrDraftNotFound) {
			// Unexpected store failure; the cascade carries on to the
			// next source rather than surfacing an error.
			s.logger.Warn("draft read failed during recovery",
				"session", sessionID, "step", step, "err", err)
		}
		return nil
	}
	if draft.IsEmpty() {
		return nil
	}
	return draft
}

func (s *Service) hit(sessionID string, source Source, draft *domain.TransactionDraft) Result {
	recoveries.WithLabelValues(string(source)).Inc()
	s.logger.Info("draft recovered", "session", sessionID, "source", source)
	s.notifier.Notify(notify.KindInfo, "Transfer restored",
		"We recovered your in-progress transfer details")
	return Result{Recovered: true, Source: source, Draft: draft}
}
