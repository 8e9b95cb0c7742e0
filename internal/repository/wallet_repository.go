package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/gigsetu/gigsetu-backend/internal/models"
	"github.com/gigsetu/gigsetu-backend/internal/pkg/apperror"
)

// WalletRepository owns the per-freelancer balances and the reservation
// ledger that keeps concurrent withdrawals from double-spending the
// available balance. Check-then-reserve is atomic under the wallet row
// lock.
type WalletRepository struct {
	db *sqlx.DB
}

func NewWalletRepository(db *sqlx.DB) *WalletRepository {
	return &WalletRepository{db: db}
}

const walletColumns = `
	freelancer_id, escrow_balance, available_balance, lifetime_earned, lifetime_withdrawn, updated_at
`

// Get returns the freelancer's wallet, creating an empty one on first
// touch.
func (r *WalletRepository) Get(ctx context.Context, freelancerID uuid.UUID) (*models.Wallet, error) {
	var w models.Wallet
	query := `
		INSERT INTO wallets (freelancer_id, escrow_balance, available_balance, lifetime_earned, lifetime_withdrawn)
		VALUES ($1, 0, 0, 0, 0)
		ON CONFLICT (freelancer_id) DO UPDATE SET updated_at = NOW()
		RETURNING ` + walletColumns
	if err := r.db.GetContext(ctx, &w, query, freelancerID); err != nil {
		return nil, fmt.Errorf("wallet repository: get %w", err)
	}
	return &w, nil
}

// Reserve places a hold on available balance. The balance check and the
// decrement happen under one row lock, so two racing reservations can
// never both pass against the same funds.
func (r *WalletRepository) Reserve(ctx context.Context, freelancerID uuid.UUID, amount decimal.Decimal) (*models.WalletReservation, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var w models.Wallet
	err = tx.GetContext(ctx, &w, `SELECT `+walletColumns+` FROM wallets WHERE freelancer_id = $1 FOR UPDATE`, freelancerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.ErrInsufficientBalance
		}
		return nil, err
	}
	if w.AvailableBalance.LessThan(amount) {
		return nil, apperror.ErrInsufficientBalance
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE wallets SET available_balance = available_balance - $2, updated_at = NOW()
		WHERE freelancer_id = $1
	`, freelancerID, amount)
	if err != nil {
		return nil, fmt.Errorf("wallet repository: reserve decrement %w", err)
	}

	var res models.WalletReservation
	err = tx.GetContext(ctx, &res, `
		INSERT INTO wallet_reservations (freelancer_id, amount, status)
		VALUES ($1, $2, $3)
		RETURNING id, freelancer_id, amount, status, created_at, resolved_at
	`, freelancerID, amount, models.ReservationStatusHeld)
	if err != nil {
		return nil, fmt.Errorf("wallet repository: reserve insert %w", err)
	}

	return &res, tx.Commit()
}

// Settle finalizes a held reservation: the money is gone for good and
// counts toward the lifetime withdrawn total.
func (r *WalletRepository) Settle(ctx context.Context, reservationID uuid.UUID) (*models.WalletReservation, error) {
	return r.resolve(ctx, reservationID, models.ReservationStatusSettled)
}

// CancelReservation releases a held reservation back into available
// balance.
func (r *WalletRepository) CancelReservation(ctx context.Context, reservationID uuid.UUID) (*models.WalletReservation, error) {
	return r.resolve(ctx, reservationID, models.ReservationStatusCancelled)
}

func (r *WalletRepository) resolve(ctx context.Context, reservationID uuid.UUID, outcome string) (*models.WalletReservation, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var res models.WalletReservation
	err = tx.GetContext(ctx, &res, `
		SELECT id, freelancer_id, amount, status, created_at, resolved_at
		FROM wallet_reservations WHERE id = $1 FOR UPDATE
	`, reservationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.New(apperror.ErrCodeNotFound, "reservation not found")
		}
		return nil, err
	}
	if res.Status != models.ReservationStatusHeld {
		return nil, apperror.New(apperror.ErrCodeConflict, "reservation already resolved")
	}

	// The wallet row lock serializes resolution against new reservations.
	_, err = tx.ExecContext(ctx, `SELECT freelancer_id FROM wallets WHERE freelancer_id = $1 FOR UPDATE`, res.FreelancerID)
	if err != nil {
		return nil, fmt.Errorf("wallet repository: resolve lock wallet %w", err)
	}

	switch outcome {
	case models.ReservationStatusSettled:
		_, err = tx.ExecContext(ctx, `
			UPDATE wallets SET lifetime_withdrawn = lifetime_withdrawn + $2, updated_at = NOW()
			WHERE freelancer_id = $1
		`, res.FreelancerID, res.Amount)
	case models.ReservationStatusCancelled:
		_, err = tx.ExecContext(ctx, `
			UPDATE wallets SET available_balance = available_balance + $2, updated_at = NOW()
			WHERE freelancer_id = $1
		`, res.FreelancerID, res.Amount)
	}
	if err != nil {
		return nil, fmt.Errorf("wallet repository: resolve wallet update %w", err)
	}

	err = tx.GetContext(ctx, &res, `
		UPDATE wallet_reservations SET status = $2, resolved_at = NOW()
		WHERE id = $1
		RETURNING id, freelancer_id, amount, status, created_at, resolved_at
	`, reservationID, outcome)
	if err != nil {
		return nil, fmt.Errorf("wallet repository: resolve mark %w", err)
	}

	return &res, tx.Commit()
}

// ListCredits returns the freelancer's escrow credit history.
func (r *WalletRepository) ListCredits(ctx context.Context, freelancerID uuid.UUID, limit, offset int) ([]models.WalletCredit, error) {
	var credits []models.WalletCredit
	err := r.db.SelectContext(ctx, &credits, `
		SELECT id, freelancer_id, booking_id, amount, released_at, created_at
		FROM wallet_credits WHERE freelancer_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, freelancerID, limit, offset)
	return credits, err
}
