package domain

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrDraftNotFound is returned by DraftRepository reads when no record
// exists under the requested key, or when the persisted content is
// malformed. Corrupted storage is treated as "absent", never as a crash.
var ErrDraftNotFound = errors.New("draft not found")

// DraftRepository defines the interface for wizard draft persistence.
// All records are scoped to a wizard session; writes are last-writer-wins
// with no cross-session coordination.
type DraftRepository interface {
	// Write persists the draft as the step record for the given step,
	// overwriting any previous record for that step.
	Write(ctx context.Context, sessionID string, step Step, draft *TransactionDraft) error

	// Read retrieves the step record for the given step.
	// Returns ErrDraftNotFound when absent or unreadable.
	Read(ctx context.Context, sessionID string, step Step) (*TransactionDraft, error)

	// WritePending persists the pending-transaction aggregate, the
	// last-known-good full draft written opportunistically (e.g. from a
	// deep-link prefill). Lowest-priority recovery source.
	WritePending(ctx context.Context, sessionID string, draft *TransactionDraft) error

	// ReadPending retrieves the pending-transaction aggregate.
	// Returns ErrDraftNotFound when absent or unreadable.
	ReadPending(ctx context.Context, sessionID string) (*TransactionDraft, error)

	// SetLastVisited records the most recently visited step under a
	// well-known key, for recovery after the session state is lost.
	SetLastVisited(ctx context.Context, sessionID string, step Step) error

	// LastVisited retrieves the most recently visited step.
	// Returns ErrDraftNotFound when absent or unreadable.
	LastVisited(ctx context.Context, sessionID string) (Step, error)

	// Clear removes the step record for the given step.
	Clear(ctx context.Context, sessionID string, step Step) error

	// ClearAll purges every record belonging to the session: all step
	// records, the pending aggregate, and the last-visited marker.
	ClearAll(ctx context.Context, sessionID string) error
}

// TransferRepository defines the interface for submitted transfer persistence
type TransferRepository interface {
	// Create persists a new transfer
	Create(ctx context.Context, transfer *Transfer) error

	// List retrieves a paginated list of transfers, most recent first.
	// If sessionID is empty, returns transfers across all sessions.
	List(ctx context.Context, limit, offset int, sessionID string) ([]*Transfer, error)

	// Count returns the total number of transfers.
	// If sessionID is empty, counts transfers across all sessions.
	Count(ctx context.Context, sessionID string) (int, error)

	// GetByID retrieves a transfer by its ID
	GetByID(ctx context.Context, id uuid.UUID) (*Transfer, error)
}
