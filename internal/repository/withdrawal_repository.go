package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/gigsetu/gigsetu-backend/internal/models"
	"github.com/gigsetu/gigsetu-backend/internal/pkg/apperror"
)

// WithdrawalRepository owns payout requests and payout methods. Admin
// decisions resolve the backing wallet reservation in the same
// transaction, so a request can never settle or refund twice.
type WithdrawalRepository struct {
	db *sqlx.DB
}

func NewWithdrawalRepository(db *sqlx.DB) *WithdrawalRepository {
	return &WithdrawalRepository{db: db}
}

const withdrawalColumns = `
	id, freelancer_id, reservation_id, amount, commission, freelancer_amount,
	method, status, rejection_reason, created_at, processed_at
`

// Create inserts a pending request backed by an already-held reservation.
func (r *WithdrawalRepository) Create(ctx context.Context, w *models.WithdrawalRequest) error {
	err := r.db.GetContext(ctx, w, `
		INSERT INTO withdrawal_requests (freelancer_id, reservation_id, amount, commission, freelancer_amount, method, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+withdrawalColumns,
		w.FreelancerID, w.ReservationID, w.Amount, w.Commission, w.FreelancerAmount, w.Method, w.Status)
	if err != nil {
		return fmt.Errorf("withdrawal repository: create %w", err)
	}
	return nil
}

func (r *WithdrawalRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.WithdrawalRequest, error) {
	var w models.WithdrawalRequest
	err := r.db.GetContext(ctx, &w, `SELECT `+withdrawalColumns+` FROM withdrawal_requests WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.ErrWithdrawalNotFound
		}
		return nil, err
	}
	return &w, nil
}

// Decide applies an admin approval or rejection. Approval settles the
// reservation for good; rejection restores the held amount to the
// freelancer's available balance. Everything happens in one transaction.
func (r *WithdrawalRepository) Decide(ctx context.Context, id uuid.UUID, approve bool, reason *string) (*models.WithdrawalRequest, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var w models.WithdrawalRequest
	err = tx.GetContext(ctx, &w, `SELECT `+withdrawalColumns+` FROM withdrawal_requests WHERE id = $1 FOR UPDATE`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.ErrWithdrawalNotFound
		}
		return nil, err
	}
	if w.Status != models.WithdrawalStatusPending {
		return nil, apperror.New(apperror.ErrCodeConflict, "withdrawal request already decided")
	}

	var res models.WalletReservation
	err = tx.GetContext(ctx, &res, `
		SELECT id, freelancer_id, amount, status, created_at, resolved_at
		FROM wallet_reservations WHERE id = $1 FOR UPDATE
	`, w.ReservationID)
	if err != nil {
		return nil, fmt.Errorf("withdrawal repository: decide lock reservation %w", err)
	}
	if res.Status != models.ReservationStatusHeld {
		return nil, apperror.New(apperror.ErrCodeConflict, "reservation already resolved")
	}

	_, err = tx.ExecContext(ctx, `SELECT freelancer_id FROM wallets WHERE freelancer_id = $1 FOR UPDATE`, w.FreelancerID)
	if err != nil {
		return nil, fmt.Errorf("withdrawal repository: decide lock wallet %w", err)
	}

	newStatus := models.WithdrawalStatusRejected
	reservationOutcome := models.ReservationStatusCancelled
	if approve {
		newStatus = models.WithdrawalStatusCompleted
		reservationOutcome = models.ReservationStatusSettled

		_, err = tx.ExecContext(ctx, `
			UPDATE wallets SET lifetime_withdrawn = lifetime_withdrawn + $2, updated_at = NOW()
			WHERE freelancer_id = $1
		`, w.FreelancerID, res.Amount)
	} else {
		_, err = tx.ExecContext(ctx, `
			UPDATE wallets SET available_balance = available_balance + $2, updated_at = NOW()
			WHERE freelancer_id = $1
		`, w.FreelancerID, res.Amount)
	}
	if err != nil {
		return nil, fmt.Errorf("withdrawal repository: decide wallet update %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE wallet_reservations SET status = $2, resolved_at = NOW() WHERE id = $1
	`, res.ID, reservationOutcome)
	if err != nil {
		return nil, fmt.Errorf("withdrawal repository: decide resolve reservation %w", err)
	}

	err = tx.GetContext(ctx, &w, `
		UPDATE withdrawal_requests SET status = $2, rejection_reason = $3, processed_at = NOW()
		WHERE id = $1
		RETURNING `+withdrawalColumns, id, newStatus, reason)
	if err != nil {
		return nil, fmt.Errorf("withdrawal repository: decide update %w", err)
	}

	return &w, tx.Commit()
}

// ListByFreelancer returns the freelancer's requests, newest first.
func (r *WithdrawalRepository) ListByFreelancer(ctx context.Context, freelancerID uuid.UUID, limit, offset int) ([]models.WithdrawalRequest, error) {
	var requests []models.WithdrawalRequest
	err := r.db.SelectContext(ctx, &requests, `
		SELECT `+withdrawalColumns+` FROM withdrawal_requests
		WHERE freelancer_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, freelancerID, limit, offset)
	return requests, err
}

// ListPending returns the admin review queue, oldest first.
func (r *WithdrawalRepository) ListPending(ctx context.Context, limit, offset int) ([]models.WithdrawalRequest, error) {
	var requests []models.WithdrawalRequest
	err := r.db.SelectContext(ctx, &requests, `
		SELECT `+withdrawalColumns+` FROM withdrawal_requests
		WHERE status = $1 ORDER BY created_at ASC LIMIT $2 OFFSET $3
	`, models.WithdrawalStatusPending, limit, offset)
	return requests, err
}

// CreatePayoutMethod registers the freelancer's single payout method.
func (r *WithdrawalRepository) CreatePayoutMethod(ctx context.Context, m *models.PayoutMethod) error {
	err := r.db.GetContext(ctx, m, `
		INSERT INTO payout_methods (freelancer_id, kind, account_holder, account_number, ifsc, upi_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING freelancer_id, kind, account_holder, account_number, ifsc, upi_id, created_at
	`, m.FreelancerID, m.Kind, m.AccountHolder, m.AccountNumber, m.IFSC, m.UpiID)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.ErrPayoutMethodExists
		}
		return fmt.Errorf("withdrawal repository: create payout method %w", err)
	}
	return nil
}

// GetPayoutMethod returns the registered method or nil when none exists.
func (r *WithdrawalRepository) GetPayoutMethod(ctx context.Context, freelancerID uuid.UUID) (*models.PayoutMethod, error) {
	var m models.PayoutMethod
	err := r.db.GetContext(ctx, &m, `
		SELECT freelancer_id, kind, account_holder, account_number, ifsc, upi_id, created_at
		FROM payout_methods WHERE freelancer_id = $1
	`, freelancerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}
