package memory

import (
	"context"
	"sync"

	"github.com/yumvipay/sendcore-backend/internal/domain"
)

// draftRepository implements domain.DraftRepository in process memory.
// Used for local development and as a test fixture; nothing survives a
// restart.
type draftRepository struct {
	mu      sync.Mutex
	drafts  map[string]domain.TransactionDraft
	pending map[string]domain.TransactionDraft
	last    map[string]domain.Step
}

// NewDraftRepository creates an empty in-memory draft repository
func NewDraftRepository() domain.DraftRepository {
	return &draftRepository{
		drafts:  make(map[string]domain.TransactionDraft),
		pending: make(map[string]domain.TransactionDraft),
		last:    make(map[string]domain.Step),
	}
}

func stepKey(sessionID string, step domain.Step) string {
	return sessionID + "/" + string(step)
}

// Write implements domain.DraftRepository.
func (r *draftRepository) Write(ctx context.Context, sessionID string, step domain.Step, draft *domain.TransactionDraft) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.drafts[stepKey(sessionID, step)] = *draft
	return nil
}

// Read implements domain.DraftRepository.
func (r *draftRepository) Read(ctx context.Context, sessionID string, step domain.Step) (*domain.TransactionDraft, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	draft, ok := r.drafts[stepKey(sessionID, step)]
	if !ok {
		return nil, domain.ErrDraftNotFound
	}
	return &draft, nil
}

// WritePending implements domain.DraftRepository.
func (r *draftRepository) WritePending(ctx context.Context, sessionID string, draft *domain.TransactionDraft) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending[sessionID] = *draft
	return nil
}

// ReadPending implements domain.DraftRepository.
func (r *draftRepository) ReadPending(ctx context.Context, sessionID string) (*domain.TransactionDraft, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	draft, ok := r.pending[sessionID]
	if !ok {
		return nil, domain.ErrDraftNotFound
	}
	return &draft, nil
}

// SetLastVisited implements domain.DraftRepository.
func (r *draftRepository) SetLastVisited(ctx context.Context, sessionID string, step domain.Step) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.last[sessionID] = step
	return nil
}

// LastVisited implements domain.DraftRepository.
func (r *draftRepository) LastVisited(ctx context.Context, sessionID string) (domain.Step, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	step, ok := r.last[sessionID]
	if !ok {
		return "", domain.ErrDraftNotFound
	}
	return step, nil
}

// Clear implements domain.DraftRepository.
func (r *draftRepository) Clear(ctx context.Context, sessionID string, step domain.Step) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.drafts, stepKey(sessionID, step))
	return nil
}

// ClearAll implements domain.DraftRepository.
func (r *draftRepository) ClearAll(ctx context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, step := range []domain.Step{domain.StepRecipient, domain.StepPayment, domain.StepConfirmation, domain.StepComplete} {
		delete(r.drafts, stepKey(sessionID, step))
	}
	delete(r.pending, sessionID)
	delete(r.last, sessionID)
	return nil
}
