package wizard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/yumvipay/sendcore-backend/internal/domain"
	"github.com/yumvipay/sendcore-backend/internal/notify"
	"github.com/yumvipay/sendcore-backend/internal/usecase/validator"
)

var (
	// ErrSubmissionInFlight rejects navigation and duplicate submissions
	// while a submission is outstanding. The state machine itself does not
	// enforce mutual exclusion; this service does, on its behalf.
	ErrSubmissionInFlight = errors.New("submission already in progress")

	// ErrNoTransition is returned when the current step has no next
	// (or previous) step in the fixed ordering.
	ErrNoTransition = errors.New("no transition from current step")

	// ErrNotReady is returned when submission is requested away from the
	// confirmation step.
	ErrNotReady = errors.New("submission is only allowed from the confirmation step")
)

// ValidationError blocks a forward transition with a user-facing message.
// It is a blocked transition, not a fault: nothing is logged as an error
// and nothing escapes the wizard.
type ValidationError struct {
	Step    domain.Step
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed at %s step: %s", e.Step, e.Message)
}

// session pairs a wizard state with its in-memory draft cache. The cache
// is the fastest recovery source and keeps same-session reads independent
// of store latency.
type session struct {
	state  domain.WizardState
	cached *domain.TransactionDraft
}

// Service owns the wizard sessions: current step, submission flag, error
// message, retry counter, and the in-memory draft cache per session.
// Transitions go through the pure step functions in domain; this service
// layers on validator gating, error clearing, and draft persistence.
type Service struct {
	drafts   domain.DraftRepository
	notifier notify.Notifier
	logger   *slog.Logger

	mu       sync.Mutex
	sessions map[string]*session
}

// NewService creates a new wizard service
func NewService(drafts domain.DraftRepository, notifier notify.Notifier, logger *slog.Logger) *Service {
	return &Service{
		drafts:   drafts,
		notifier: notifier,
		logger:   logger,
		sessions: make(map[string]*session),
	}
}

// getSession returns the session for id, creating a fresh one if absent.
// Caller must hold s.mu.
func (s *Service) getSession(id string) *session {
	sess, ok := s.sessions[id]
	if !ok {
		sess = &session{state: domain.NewWizardState()}
		s.sessions[id] = sess
	}
	return sess
}

// State returns a snapshot of the session's wizard state.
func (s *Service) State(sessionID string) domain.WizardState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getSession(sessionID).state
}

// CachedDraft returns a copy of the session's in-memory draft, or nil if
// none is cached.
func (s *Service) CachedDraft(sessionID string) *domain.TransactionDraft {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.getSession(sessionID)
	if sess.cached == nil {
		return nil
	}
	snapshot := *sess.cached
	return &snapshot
}

// AttachDraft replaces the session's in-memory draft cache. Used by the
// recovery cascade after repopulating a lost draft.
func (s *Service) AttachDraft(sessionID string, draft *domain.TransactionDraft) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if draft == nil {
		s.getSession(sessionID).cached = nil
		return
	}
	snapshot := *draft
	s.getSession(sessionID).cached = &snapshot
}

// Reset destroys the session: the wizard is re-entered fresh at the
// recipient step. Persisted drafts are left in place for recovery.
func (s *Service) Reset(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
}

// SaveDraft merges a field patch into the session draft, refreshes the
// in-memory cache, and persists the result as the current step's record.
// The merge preserves the name-match confirmation latch.
func (s *Service) SaveDraft(ctx context.Context, sessionID string, patch domain.TransactionDraft) (*domain.TransactionDraft, error) {
	s.mu.Lock()
	sess := s.getSession(sessionID)
	base := domain.TransactionDraft{}
	if sess.cached != nil {
		base = *sess.cached
	}
	merged := base.Merge(patch)
	sess.cached = &merged
	step := sess.state.CurrentStep
	s.mu.Unlock()

	if err := s.drafts.Write(ctx, sessionID, step, &merged); err != nil {
		return nil, fmt.Errorf("failed to persist draft: %w", err)
	}
	if err := s.drafts.SetLastVisited(ctx, sessionID, step); err != nil {
		return nil, fmt.Errorf("failed to persist last visited step: %w", err)
	}

	return &merged, nil
}

// Prefill writes the pending-transaction aggregate, the last-known-good
// full draft used as the lowest-priority recovery source. Called when a
// session arrives with prefilled fields (e.g. from a marketing deep link).
// The in-memory cache is seeded only if still empty; prefill never
// clobbers data the user has already entered.
func (s *Service) Prefill(ctx context.Context, sessionID string, draft domain.TransactionDraft) error {
	if err := s.drafts.WritePending(ctx, sessionID, &draft); err != nil {
		return fmt.Errorf("failed to persist pending aggregate: %w", err)
	}

	s.mu.Lock()
	sess := s.getSession(sessionID)
	if sess.cached == nil {
		seed := draft
		sess.cached = &seed
	}
	s.mu.Unlock()

	return nil
}

// Advance moves the session to the next step. The transition is gated on
// the current step's validator and rejected outright while a submission is
// in flight; the error flag is cleared on every successful transition.
// The draft is persisted as a step record for the newly entered step
// before the state moves.
func (s *Service) Advance(ctx context.Context, sessionID string) (domain.Step, error) {
	s.mu.Lock()
	sess := s.getSession(sessionID)

	if sess.state.IsSubmitting {
		s.mu.Unlock()
		return "", ErrSubmissionInFlight
	}

	current := sess.state.CurrentStep
	if !validator.Validate(current, sess.cached) {
		msg := validator.FailureMessage(current, sess.cached)
		sess.state.Error = msg
		s.mu.Unlock()
		return "", &ValidationError{Step: current, Message: msg}
	}

	next, ok := domain.Advance(current)
	if !ok {
		s.mu.Unlock()
		return "", ErrNoTransition
	}

	var draft domain.TransactionDraft
	if sess.cached != nil {
		draft = *sess.cached
	}
	s.mu.Unlock()

	if err := s.drafts.Write(ctx, sessionID, next, &draft); err != nil {
		return "", fmt.Errorf("failed to persist step record: %w", err)
	}
	if err := s.drafts.SetLastVisited(ctx, sessionID, next); err != nil {
		return "", fmt.Errorf("failed to persist last visited step: %w", err)
	}

	s.mu.Lock()
	sess.state.CurrentStep = next
	sess.state.Error = ""
	s.mu.Unlock()

	s.logger.Debug("wizard advanced", "session", sessionID, "from", current, "to", next)
	return next, nil
}

// Retreat moves the session to the previous step. No validator runs on the
// way back; retreating is also rejected while a submission is in flight.
func (s *Service) Retreat(ctx context.Context, sessionID string) (domain.Step, error) {
	s.mu.Lock()
	sess := s.getSession(sessionID)

	if sess.state.IsSubmitting {
		s.mu.Unlock()
		return "", ErrSubmissionInFlight
	}

	previous, ok := domain.Retreat(sess.state.CurrentStep)
	if !ok {
		s.mu.Unlock()
		return "", ErrNoTransition
	}

	sess.state.CurrentStep = previous
	sess.state.Error = ""
	s.mu.Unlock()

	if err := s.drafts.SetLastVisited(ctx, sessionID, previous); err != nil {
		// Navigation already happened; a stale marker only degrades
		// recovery priority, so log instead of failing the step.
		s.logger.Warn("failed to persist last visited step", "session", sessionID, "err", err)
	}

	return previous, nil
}

// BeginSubmit marks the session as submitting and returns the draft to
// submit. It fails if the session is not at the confirmation step, if a
// submission is already in flight, or if the confirmation validator
// rejects the draft.
func (s *Service) BeginSubmit(ctx context.Context, sessionID string) (*domain.TransactionDraft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.getSession(sessionID)

	if sess.state.CurrentStep != domain.StepConfirmation {
		return nil, ErrNotReady
	}
	if sess.state.IsSubmitting {
		return nil, ErrSubmissionInFlight
	}
	if !validator.Validate(domain.StepConfirmation, sess.cached) {
		msg := validator.FailureMessage(domain.StepConfirmation, sess.cached)
		sess.state.Error = msg
		return nil, &ValidationError{Step: domain.StepConfirmation, Message: msg}
	}

	sess.state.IsSubmitting = true
	snapshot := *sess.cached
	return &snapshot, nil
}

// FinishSubmit records the outcome of a submission started with
// BeginSubmit. On success the wizard moves to the terminal complete step
// and every persisted record for the session is purged: step records, the
// pending aggregate, and the last-visited marker. On failure the error
// message is surfaced on the state and the retry counter is incremented;
// retries are user-triggered, never automatic.
func (s *Service) FinishSubmit(ctx context.Context, sessionID string, submitErr error) {
	s.mu.Lock()
	sess := s.getSession(sessionID)
	sess.state.IsSubmitting = false

	if submitErr != nil {
		sess.state.Error = submitErr.Error()
		sess.state.RetryCount++
		s.mu.Unlock()
		return
	}

	sess.state.CurrentStep = domain.StepComplete
	sess.state.Error = ""
	sess.cached = nil
	s.mu.Unlock()

	if err := s.drafts.ClearAll(ctx, sessionID); err != nil {
		// The transfer is already durable; leftover drafts are a storage
		// leak, not a correctness problem.
		s.logger.Warn("failed to purge session drafts", "session", sessionID, "err", err)
	}
}
