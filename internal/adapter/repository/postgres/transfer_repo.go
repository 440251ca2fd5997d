package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/yumvipay/sendcore-backend/internal/domain"
)

// ErrTransferNotFound is returned when no transfer exists with the given ID
var ErrTransferNotFound = errors.New("transfer not found")

// transferRepository implements domain.TransferRepository
type transferRepository struct {
	db *DB
}

// NewTransferRepository creates a new transfer repository
func NewTransferRepository(db *DB) domain.TransferRepository {
	return &transferRepository{db: db}
}

// Create persists a new transfer
func (r *transferRepository) Create(ctx context.Context, transfer *domain.Transfer) error {
	query := `
		INSERT INTO transfers (
			id, session_id, amount, converted_amount,
			source_currency, target_currency, target_country,
			recipient_id, recipient_name, payment_method, provider,
			status, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.db.ExecContext(ctx, query,
		transfer.ID,
		transfer.SessionID,
		transfer.Amount.String(),
		transfer.ConvertedAmount.String(),
		transfer.SourceCurrency,
		transfer.TargetCurrency,
		transfer.TargetCountry,
		transfer.RecipientID,
		transfer.RecipientName,
		transfer.PaymentMethod,
		transfer.Provider,
		string(transfer.Status),
		transfer.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert transfer: %w", err)
	}

	return nil
}

// List retrieves a paginated list of transfers, most recent first
func (r *transferRepository) List(ctx context.Context, limit, offset int, sessionID string) ([]*domain.Transfer, error) {
	query := `
		SELECT id, session_id, amount, converted_amount,
		       source_currency, target_currency, target_country,
		       recipient_id, recipient_name, payment_method, provider,
		       status, created_at
		FROM transfers
		WHERE ($3 = '' OR session_id = $3)
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.QueryContext(ctx, query, limit, offset, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query transfers: %w", err)
	}
	defer rows.Close()

	var transfers []*domain.Transfer
	for rows.Next() {
		transfer, err := scanTransfer(rows)
		if err != nil {
			return nil, err
		}
		transfers = append(transfers, transfer)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transfers: %w", err)
	}

	return transfers, nil
}

// Count returns the total number of transfers
func (r *transferRepository) Count(ctx context.Context, sessionID string) (int, error) {
	query := `SELECT COUNT(*) FROM transfers WHERE ($1 = '' OR session_id = $1)`

	var count int
	if err := r.db.QueryRowContext(ctx, query, sessionID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count transfers: %w", err)
	}
	return count, nil
}

// GetByID retrieves a transfer by its ID
func (r *transferRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transfer, error) {
	query := `
		SELECT id, session_id, amount, converted_amount,
		       source_currency, target_currency, target_country,
		       recipient_id, recipient_name, payment_method, provider,
		       status, created_at
		FROM transfers
		WHERE id = $1
	`

	transfer, err := scanTransfer(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTransferNotFound
		}
		return nil, err
	}
	return transfer, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTransfer(row scanner) (*domain.Transfer, error) {
	var (
		transfer        domain.Transfer
		amount          string
		convertedAmount string
		status          string
	)

	err := row.Scan(
		&transfer.ID,
		&transfer.SessionID,
		&amount,
		&convertedAmount,
		&transfer.SourceCurrency,
		&transfer.TargetCurrency,
		&transfer.TargetCountry,
		&transfer.RecipientID,
		&transfer.RecipientName,
		&transfer.PaymentMethod,
		&transfer.Provider,
		&status,
		&transfer.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan transfer: %w", err)
	}

	transfer.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("failed to parse transfer amount: %w", err)
	}
	transfer.ConvertedAmount, err = decimal.NewFromString(convertedAmount)
	if err != nil {
		return nil, fmt.Errorf("failed to parse converted amount: %w", err)
	}
	transfer.Status = domain.TransferStatus(status)

	return &transfer, nil
}
