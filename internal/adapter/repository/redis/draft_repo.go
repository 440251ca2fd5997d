package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	backend "github.com/redis/go-redis/v9"

	"github.com/yumvipay/sendcore-backend/internal/domain"
)

const (
	fieldPending     = "pending"
	fieldLastVisited = "last"
)

// draftRepository implements domain.DraftRepository on Redis. Each session
// maps to one hash; purging a session is a single DEL. Suited to
// deployments where drafts live in a shared session cache instead of on
// the device.
type draftRepository struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
	logger *slog.Logger
}

// Option configures the repository
type Option func(*draftRepository)

// WithTTL sets an expiration on each session's drafts, refreshed on every
// write. Zero means no expiration.
func WithTTL(ttl time.Duration) Option {
	return func(r *draftRepository) {
		r.ttl = ttl
	}
}

// WithPrefix sets the key prefix for session hashes.
func WithPrefix(prefix string) Option {
	return func(r *draftRepository) {
		r.prefix = prefix
	}
}

// NewDraftRepository creates a Redis draft repository from an existing client.
func NewDraftRepository(client *backend.Client, logger *slog.Logger, opts ...Option) domain.DraftRepository {
	repo := &draftRepository{
		client: client,
		prefix: "sendcore:draft:",
		logger: logger,
	}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// New creates a Redis draft repository with its own client.
func New(addr, password string, db int, logger *slog.Logger, opts ...Option) domain.DraftRepository {
	client := backend.NewClient(&backend.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return NewDraftRepository(client, logger, opts...)
}

func (r *draftRepository) key(sessionID string) string {
	return r.prefix + sessionID
}

func stepField(step domain.Step) string {
	return "step/" + string(step)
}

func (r *draftRepository) set(ctx context.Context, sessionID, field, value string) error {
	key := r.key(sessionID)
	if err := r.client.HSet(ctx, key, field, value).Err(); err != nil {
		return fmt.Errorf("failed to write draft record: %w", err)
	}
	if r.ttl > 0 {
		if err := r.client.Expire(ctx, key, r.ttl).Err(); err != nil {
			return fmt.Errorf("failed to refresh draft ttl: %w", err)
		}
	}
	return nil
}

func (r *draftRepository) setDraft(ctx context.Context, sessionID, field string, draft *domain.TransactionDraft) error {
	data, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("failed to marshal draft: %w", err)
	}
	return r.set(ctx, sessionID, field, string(data))
}

func (r *draftRepository) getDraft(ctx context.Context, sessionID, field string) (*domain.TransactionDraft, error) {
	raw, err := r.client.HGet(ctx, r.key(sessionID), field).Result()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, domain.ErrDraftNotFound
		}
		return nil, fmt.Errorf("failed to read draft record: %w", err)
	}

	var draft domain.TransactionDraft
	if err := json.Unmarshal([]byte(raw), &draft); err != nil {
		r.logger.Warn("discarding unreadable draft record",
			"session", sessionID, "field", field, "err", err)
		return nil, domain.ErrDraftNotFound
	}
	return &draft, nil
}

// Write implements domain.DraftRepository.
func (r *draftRepository) Write(ctx context.Context, sessionID string, step domain.Step, draft *domain.TransactionDraft) error {
	return r.setDraft(ctx, sessionID, stepField(step), draft)
}

// Read implements domain.DraftRepository.
func (r *draftRepository) Read(ctx context.Context, sessionID string, step domain.Step) (*domain.TransactionDraft, error) {
	return r.getDraft(ctx, sessionID, stepField(step))
}

// WritePending implements domain.DraftRepository.
func (r *draftRepository) WritePending(ctx context.Context, sessionID string, draft *domain.TransactionDraft) error {
	return r.setDraft(ctx, sessionID, fieldPending, draft)
}

// ReadPending implements domain.DraftRepository.
func (r *draftRepository) ReadPending(ctx context.Context, sessionID string) (*domain.TransactionDraft, error) {
	return r.getDraft(ctx, sessionID, fieldPending)
}

// SetLastVisited implements domain.DraftRepository.
func (r *draftRepository) SetLastVisited(ctx context.Context, sessionID string, step domain.Step) error {
	return r.set(ctx, sessionID, fieldLastVisited, string(step))
}

// LastVisited implements domain.DraftRepository.
func (r *draftRepository) LastVisited(ctx context.Context, sessionID string) (domain.Step, error) {
	raw, err := r.client.HGet(ctx, r.key(sessionID), fieldLastVisited).Result()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return "", domain.ErrDraftNotFound
		}
		return "", fmt.Errorf("failed to read last visited step: %w", err)
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
	if err := r.client.HDel(ctx, r.key(sessionID), stepField(step)).Err(); err != nil {
		return fmt.Errorf("failed to clear draft record: %w", err)
	}
	return nil
}

// ClearAll implements domain.DraftRepository.
func (r *draftRepository) ClearAll(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, r.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to purge session drafts: %w", err)
	}
	return nil
}
