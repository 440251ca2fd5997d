package bolt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	bbolt "go.etcd.io/bbolt"

	"github.com/yumvipay/sendcore-backend/internal/domain"
)

var draftsBucket = []byte("drafts")

// DB wraps the embedded bbolt database
type DB struct {
	*bbolt.DB
}

// NewDB opens (creating if needed) the embedded draft database at path.
func NewDB(path string) (*DB, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open draft database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(draftsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create drafts bucket: %w", err)
	}

	return &DB{DB: db}, nil
}

// draftRepository implements domain.DraftRepository over bbolt.
// It owns key naming, serialization, and corruption handling in one place;
// a record that fails to decode reads as absent rather than crashing the
// wizard.
type draftRepository struct {
	db     *DB
	logger *slog.Logger
}

// NewDraftRepository creates a new embedded draft repository
func NewDraftRepository(db *DB, logger *slog.Logger) domain.DraftRepository {
	return &draftRepository{db: db, logger: logger}
}

func sessionPrefix(sessionID string) []byte {
	return []byte(sessionID + "/")
}

func stepKey(sessionID string, step domain.Step) []byte {
	return []byte(sessionID + "/step/" + string(step))
}

func pendingKey(sessionID string) []byte {
	return []byte(sessionID + "/pending")
}

func lastVisitedKey(sessionID string) []byte {
	return []byte(sessionID + "/last")
}

func (r *draftRepository) put(key []byte, value []byte) error {
	return r.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(draftsBucket).Put(key, value)
	})
}

func (r *draftRepository) get(key []byte) ([]byte, bool) {
	var value []byte
	_ = r.db.View(func(tx *bbolt.Tx) error {
		if raw := tx.Bucket(draftsBucket).Get(key); raw != nil {
			value = append([]byte(nil), raw...)
		}
		return nil
	})
	return value, value != nil
}

func (r *draftRepository) putDraft(key []byte, draft *domain.TransactionDraft) error {
	data, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("failed to marshal draft: %w", err)
	}
	if err := r.put(key, data); err != nil {
		return fmt.Errorf("failed to persist draft: %w", err)
	}
	return nil
}

func (r *draftRepository) getDraft(key []byte) (*domain.TransactionDraft, error) {
	raw, ok := r.get(key)
	if !ok {
		return nil, domain.ErrDraftNotFound
	}
	var draft domain.TransactionDraft
	if err := json.Unmarshal(raw, &draft); err != nil {
		// Corrupted storage reads as absent, not as a crash.
		r.logger.Warn("discarding unreadable draft record", "key", string(key), "err", err)
		return nil, domain.ErrDraftNotFound
	}
	return &draft, nil
}

// Write implements domain.DraftRepository.
func (r *draftRepository) Write(ctx context.Context, sessionID string, step domain.Step, draft *domain.TransactionDraft) error {
	return r.putDraft(stepKey(sessionID, step), draft)
}

// Read implements domain.DraftRepository.
func (r *draftRepository) Read(ctx context.Context, sessionID string, step domain.Step) (*domain.TransactionDraft, error) {
	return r.getDraft(stepKey(sessionID, step))
}

// WritePending implements domain.DraftRepository.
func (r *draftRepository) WritePending(ctx context.Context, sessionID string, draft *domain.TransactionDraft) error {
	return r.putDraft(pendingKey(sessionID), draft)
}

// ReadPending implements domain.DraftRepository.
func (r *draftRepository) ReadPending(ctx context.Context, sessionID string) (*domain.TransactionDraft, error) {
	return r.getDraft(pendingKey(sessionID))
}

// SetLastVisited implements domain.DraftRepository.
func (r *draftRepository) SetLastVisited(ctx context.Context, sessionID string, step domain.Step) error {
	if err := r.put(lastVisitedKey(sessionID), []byte(step)); err != nil {
		return fmt.Errorf("failed to persist last visited step: %w", err)
	}
	return nil
}

// LastVisited implements domain.DraftRepository.
func (r *draftRepository) LastVisited(ctx context.Context, sessionID string) (domain.Step, error) {
	raw, ok := r.get(lastVisitedKey(sessionID))
	if !ok {
		return "", domain.ErrDraftNotFound
	}
	step := domain.Step(raw)
	if !step.Valid() {
		r.logger.Warn("discarding unreadable last-visited marker", "session", sessionID)
		return "", domain.ErrDraftNotFound
	}
	return step, nil
}

// Clear implements domain.DraftRepository.
func (r *draftRepository) Clear(ctx context.Context, sessionID string, step domain.Step) error {
	return r.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(draftsBucket).Delete(stepKey(sessionID, step))
	})
}

// ClearAll implements domain.DraftRepository.
func (r *draftRepository) ClearAll(ctx context.Context, sessionID string) error {
	prefix := sessionPrefix(sessionID)
	return r.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(draftsBucket)
		c := b.Cursor()

		var keys [][]byte
		for k, _ := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = c.Next() {
			keys = append(keys, append([]byte(nil), k...))
		}
		for _, k := range keys {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}
