package wizard

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yumvipay/sendcore-backend/internal/adapter/repository/memory"
	"github.com/yumvipay/sendcore-backend/internal/domain"
	"github.com/yumvipay/sendcore-backend/internal/logging"
	"github.com/yumvipay/sendcore-backend/internal/notify"
)

func newTestService() (*Service, domain.DraftRepository) {
	drafts := memory.NewDraftRepository()
	return NewService(drafts, notify.Nop{}, logging.NewNop()), drafts
}

func confirmedDraft() domain.TransactionDraft {
	return domain.TransactionDraft{
		Amount:             "100",
		SourceCurrency:     "USD",
		TargetCurrency:     "XAF",
		TargetCountry:      "CM",
		RecipientName:      "Marie Ngo",
		Provider:           "MTN_MOMO",
		PaymentMethod:      "mobile_money",
		NameMatchConfirmed: true,
	}
}

func TestState_FreshSessionStartsAtRecipient(t *testing.T) {
	service, _ := newTestService()

	state := service.State("s1")
	assert.Equal(t, domain.StepRecipient, state.CurrentStep)
	assert.False(t, state.IsSubmitting)
}

func TestSaveDraft_PersistsStepRecordAndCache(t *testing.T) {
	service, drafts := newTestService()
	ctx := context.Background()

	saved, err := service.SaveDraft(ctx, "s1", domain.TransactionDraft{Amount: "100", SourceCurrency: "usd"})
	require.NoError(t, err)
	assert.Equal(t, "USD", saved.SourceCurrency)

	// Cache and step record both hold the merged draft.
	cached := service.CachedDraft("s1")
	require.NotNil(t, cached)
	assert.Equal(t, "100", cached.Amount)

	stored, err := drafts.Read(ctx, "s1", domain.StepRecipient)
	require.NoError(t, err)
	assert.Equal(t, "100", stored.Amount)

	last, err := drafts.LastVisited(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, domain.StepRecipient, last)
}

func TestSaveDraft_MergePreservesNameMatchLatch(t *testing.T) {
	service, _ := newTestService()
	ctx := context.Background()

	_, err := service.SaveDraft(ctx, "s1", domain.TransactionDraft{NameMatchConfirmed: true})
	require.NoError(t, err)

	saved, err := service.SaveDraft(ctx, "s1", domain.TransactionDraft{Amount: "50"})
	require.NoError(t, err)
	assert.True(t, saved.NameMatchConfirmed)
}

func TestAdvance_RejectedWithoutNameMatch(t *testing.T) {
	service, _ := newTestService()
	ctx := context.Background()

	_, err := service.SaveDraft(ctx, "s1", domain.TransactionDraft{Amount: "100"})
	require.NoError(t, err)

	_, err = service.Advance(ctx, "s1")
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, domain.StepRecipient, validationErr.Step)

	// The failure surfaces as an inline message on the state.
	state := service.State("s1")
	assert.Equal(t, domain.StepRecipient, state.CurrentStep)
	assert.NotEmpty(t, state.Error)
}

func TestAdvance_SucceedsAndClearsError(t *testing.T) {
	service, drafts := newTestService()
	ctx := context.Background()

	// Provoke a validation failure first so the error flag is set.
	_, err := service.Advance(ctx, "s1")
	require.Error(t, err)
	require.NotEmpty(t, service.State("s1").Error)

	_, err = service.SaveDraft(ctx, "s1", domain.TransactionDraft{NameMatchConfirmed: true})
	require.NoError(t, err)

	next, err := service.Advance(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, domain.StepPayment, next)

	state := service.State("s1")
	assert.Equal(t, domain.StepPayment, state.CurrentStep)
	assert.Empty(t, state.Error, "error flag is cleared on every successful transition")

	// Advancing persisted a step record for the newly entered step.
	stored, err := drafts.Read(ctx, "s1", domain.StepPayment)
	require.NoError(t, err)
	assert.True(t, stored.NameMatchConfirmed)
}

func TestAdvance_RejectedWhileSubmitting(t *testing.T) {
	service, _ := newTestService()
	ctx := context.Background()

	_, err := service.SaveDraft(ctx, "s1", confirmedDraft())
	require.NoError(t, err)
	_, err = service.Advance(ctx, "s1")
	require.NoError(t, err)
	_, err = service.Advance(ctx, "s1")
	require.NoError(t, err)

	_, err = service.BeginSubmit(ctx, "s1")
	require.NoError(t, err)

	_, err = service.Advance(ctx, "s1")
	assert.ErrorIs(t, err, ErrSubmissionInFlight)
	_, err = service.Retreat(ctx, "s1")
	assert.ErrorIs(t, err, ErrSubmissionInFlight)
}

func TestRetreat_FromInitialStepFails(t *testing.T) {
	service, _ := newTestService()

	_, err := service.Retreat(context.Background(), "s1")
	assert.ErrorIs(t, err, ErrNoTransition)
}

func TestAdvanceRetreat_RoundTrip(t *testing.T) {
	service, _ := newTestService()
	ctx := context.Background()

	_, err := service.SaveDraft(ctx, "s1", domain.TransactionDraft{NameMatchConfirmed: true})
	require.NoError(t, err)

	next, err := service.Advance(ctx, "s1")
	require.NoError(t, err)
	require.Equal(t, domain.StepPayment, next)

	previous, err := service.Retreat(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, domain.StepRecipient, previous)
}

func TestBeginSubmit_OnlyFromConfirmation(t *testing.T) {
	service, _ := newTestService()
	ctx := context.Background()

	_, err := service.SaveDraft(ctx, "s1", confirmedDraft())
	require.NoError(t, err)

	_, err = service.BeginSubmit(ctx, "s1")
	assert.ErrorIs(t, err, ErrNotReady)
}

func TestBeginSubmit_RejectsDoubleSubmission(t *testing.T) {
	service, _ := newTestService()
	ctx := context.Background()

	toConfirmation(t, service, "s1")

	_, err := service.BeginSubmit(ctx, "s1")
	require.NoError(t, err)

	_, err = service.BeginSubmit(ctx, "s1")
	assert.ErrorIs(t, err, ErrSubmissionInFlight)
}

func TestFinishSubmit_SuccessCompletesAndPurges(t *testing.T) {
	service, drafts := newTestService()
	ctx := context.Background()

	toConfirmation(t, service, "s1")
	_, err := service.BeginSubmit(ctx, "s1")
	require.NoError(t, err)

	service.FinishSubmit(ctx, "s1", nil)

	state := service.State("s1")
	assert.Equal(t, domain.StepComplete, state.CurrentStep)
	assert.False(t, state.IsSubmitting)
	assert.Empty(t, state.Error)

	// Every persisted record for the session is gone.
	for _, step := range []domain.Step{domain.StepRecipient, domain.StepPayment, domain.StepConfirmation} {
		_, err := drafts.Read(ctx, "s1", step)
		assert.ErrorIs(t, err, domain.ErrDraftNotFound, "step %s", step)
	}
	_, err = drafts.LastVisited(ctx, "s1")
	assert.ErrorIs(t, err, domain.ErrDraftNotFound)
	assert.Nil(t, service.CachedDraft("s1"))
}

func TestFinishSubmit_FailureIncrementsRetryCount(t *testing.T) {
	service, _ := newTestService()
	ctx := context.Background()

	toConfirmation(t, service, "s1")
	_, err := service.BeginSubmit(ctx, "s1")
	require.NoError(t, err)

	service.FinishSubmit(ctx, "s1", errors.New("submission failed, please try again"))

	state := service.State("s1")
	assert.Equal(t, domain.StepConfirmation, state.CurrentStep)
	assert.False(t, state.IsSubmitting)
	assert.Equal(t, 1, state.RetryCount)
	assert.Contains(t, state.Error, "submission failed")

	// The user can trigger another attempt.
	_, err = service.BeginSubmit(ctx, "s1")
	assert.NoError(t, err)
}

func TestPrefill_SeedsPendingAggregateWithoutClobbering(t *testing.T) {
	service, drafts := newTestService()
	ctx := context.Background()

	require.NoError(t, service.Prefill(ctx, "s1", domain.TransactionDraft{TargetCountry: "CM", Provider: "MTN_MOMO"}))

	pending, err := drafts.ReadPending(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "CM", pending.TargetCountry)

	// An empty cache is seeded from the prefill...
	cached := service.CachedDraft("s1")
	require.NotNil(t, cached)
	assert.Equal(t, "MTN_MOMO", cached.Provider)

	// ...but user-entered data is never overwritten by a later prefill.
	_, err = service.SaveDraft(ctx, "s1", domain.TransactionDraft{Amount: "500"})
	require.NoError(t, err)
	require.NoError(t, service.Prefill(ctx, "s1", domain.TransactionDraft{Amount: "999"}))
	assert.Equal(t, "500", service.CachedDraft("s1").Amount)
}

func TestReset_DestroysSessionButKeepsDrafts(t *testing.T) {
	service, drafts := newTestService()
	ctx := context.Background()

	_, err := service.SaveDraft(ctx, "s1", confirmedDraft())
	require.NoError(t, err)
	_, err = service.Advance(ctx, "s1")
	require.NoError(t, err)

	service.Reset("s1")

	state := service.State("s1")
	assert.Equal(t, domain.StepRecipient, state.CurrentStep)
	assert.Nil(t, service.CachedDraft("s1"))

	// Persisted records survive the reset for the recovery cascade.
	_, err = drafts.Read(ctx, "s1", domain.StepPayment)
	assert.NoError(t, err)
}

// toConfirmation walks a session with a complete draft up to the
// confirmation step.
func toConfirmation(t *testing.T, service *Service, sessionID string) {
	t.Helper()
	ctx := context.Background()

	_, err := service.SaveDraft(ctx, sessionID, confirmedDraft())
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		_, err = service.Advance(ctx, sessionID)
		require.NoError(t, err)
	}
	require.Equal(t, domain.StepConfirmation, service.State(sessionID).CurrentStep)
}
