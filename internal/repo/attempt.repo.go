package repo

import (
	"context"
	"database/sql"
	"errors"
	"storefront-checkout/internal/domain"
	"time"

	"github.com/google/uuid"
)

var ErrAttemptNotFound = errors.New("checkout attempt not found")

// AttemptRepo is the ledger of orders created by checkout and their payment outcome.
type AttemptRepo interface {
	Create(ctx context.Context, attempt *domain.Attempt) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.AttemptStatus, transactionID string) error
	// SettlePending sets status only while the attempt is still PENDING and
	// reports whether it did. Reconciliation uses it so it never overwrites
	// a result checkout recorded after the attempt was read.
	SettlePending(ctx context.Context, id uuid.UUID, status domain.AttemptStatus, transactionID string) (bool, error)
	// FindByOrderID returns nil, nil when no attempt references orderID.
	FindByOrderID(ctx context.Context, orderID int64) (*domain.Attempt, error)
	// FindStuck returns PENDING attempts not updated for olderThan.
	FindStuck(ctx context.Context, olderThan time.Duration) ([]domain.Attempt, error)
}

type attemptRepo struct {
	db *sql.DB
}

func NewAttemptRepo(db *sql.DB) AttemptRepo {
	return &attemptRepo{db: db}
}

const attemptColumns = `id, order_id, user_id, amount, idempotency_key, status, transaction_id, created_at, updated_at`

func (r *attemptRepo) Create(ctx context.Context, a *domain.Attempt) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO checkout_attempts (`+attemptColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		a.ID, a.OrderID, a.UserID, a.Amount, a.IdempotencyKey, a.Status, a.TransactionID, a.CreatedAt, a.UpdatedAt,
	)
	return err
}

func (r *attemptRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.AttemptStatus, transactionID string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE checkout_attempts
		SET status = $2,
		    transaction_id = COALESCE(NULLIF($3, ''), transaction_id),
		    updated_at = now()
		WHERE id = $1
	`, id, status, transactionID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrAttemptNotFound
	}
	return nil
}

func (r *attemptRepo) SettlePending(ctx context.Context, id uuid.UUID, status domain.AttemptStatus, transactionID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE checkout_attempts
		SET status = $2,
		    transaction_id = COALESCE(NULLIF($3, ''), transaction_id),
		    updated_at = now()
		WHERE id = $1 AND status = $4
	`, id, status, transactionID, domain.AttemptPending)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *attemptRepo) FindByOrderID(ctx context.Context, orderID int64) (*domain.Attempt, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+attemptColumns+` FROM checkout_attempts WHERE order_id = $1`, orderID)
	a, err := scanAttempt(row)
	if err == sql.ErrNoRows {
		return nil, nil // not found
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (r *attemptRepo) FindStuck(ctx context.Context, olderThan time.Duration) ([]domain.Attempt, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+attemptColumns+` FROM checkout_attempts WHERE status = $1 AND updated_at < $2 ORDER BY created_at`,
		domain.AttemptPending, time.Now().Add(-olderThan),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attempts []domain.Attempt
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		attempts = append(attempts, *a)
	}
	return attempts, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAttempt(s scanner) (*domain.Attempt, error) {
	var a domain.Attempt
	err := s.Scan(
		&a.ID,
		&a.OrderID,
		&a.UserID,
		&a.Amount,
		&a.IdempotencyKey,
		&a.Status,
		&a.TransactionID,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
