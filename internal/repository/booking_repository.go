package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/gigsetu/gigsetu-backend/internal/models"
	"github.com/gigsetu/gigsetu-backend/internal/otp"
	"github.com/gigsetu/gigsetu-backend/internal/pkg/apperror"
)

// BookingRepository owns the bookings table and every lifecycle
// transition. Each transition runs in one transaction with the booking
// row locked, so concurrent calls on the same booking serialize and
// either commit all side effects or none.
type BookingRepository struct {
	db *sqlx.DB
}

func NewBookingRepository(db *sqlx.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

const bookingColumns = `
	id, employer_id, freelancer_id, source_type, source_id,
	base_price, platform_commission, tax, total_price, payment_type,
	advance_amount, remaining_amount, status, booking_date,
	start_otp, completion_otp, start_otp_used_at, completion_otp_used_at,
	rating, review, rated_at, cancel_reason, escrow_credited_at,
	created_at, updated_at
`

// Create persists a freshly priced booking in pending state.
func (r *BookingRepository) Create(ctx context.Context, b *models.Booking) error {
	query := `
		INSERT INTO bookings (
			employer_id, freelancer_id, source_type, source_id,
			base_price, platform_commission, tax, total_price, payment_type,
			advance_amount, remaining_amount, status, booking_date,
			start_otp, completion_otp
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		b.EmployerID, b.FreelancerID, b.SourceType, b.SourceID,
		b.BasePrice, b.PlatformCommission, b.Tax, b.TotalPrice, b.PaymentType,
		b.AdvanceAmount, b.RemainingAmount, b.Status, b.BookingDate,
		b.StartOtp, b.CompletionOtp,
	).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("booking repository: create %w", err)
	}
	return nil
}

// GetByID returns the booking without locking it.
func (r *BookingRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	var b models.Booking
	err := r.db.GetContext(ctx, &b, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.ErrBookingNotFound
		}
		return nil, err
	}
	return &b, nil
}

func lockBooking(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*models.Booking, error) {
	var b models.Booking
	err := tx.GetContext(ctx, &b, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1 FOR UPDATE`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.ErrBookingNotFound
		}
		return nil, err
	}
	return &b, nil
}

// Start redeems the start code and moves a confirmed booking into
// in_progress. A booking still waiting for payment reports the code as
// out of order rather than an invalid transition, matching what the
// person typing the code actually did wrong.
func (r *BookingRepository) Start(ctx context.Context, id uuid.UUID, suppliedOtp string, now time.Time, actingAs string) (*models.Booking, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	b, err := lockBooking(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	switch b.Status {
	case models.BookingStatusConfirmed:
		// proceed
	case models.BookingStatusPending:
		return nil, apperror.ErrOtpOutOfOrder
	default:
		return nil, apperror.NewInvalidTransition(b.Status, models.BookingStatusInProgress)
	}

	if err := otp.Validate(b, otp.KindStart, suppliedOtp, now, actingAs); err != nil {
		return nil, err
	}

	err = tx.GetContext(ctx, b, `
		UPDATE bookings
		SET status = $2, start_otp_used_at = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING `+bookingColumns, id, models.BookingStatusInProgress, now)
	if err != nil {
		return nil, fmt.Errorf("booking repository: start %w", err)
	}

	return b, tx.Commit()
}

// Complete redeems the completion code, finishes the booking and credits
// the freelancer's earning into escrow, all in one transaction. Calling
// it again on a completed booking is a no-op that returns the terminal
// state; the escrow credit happens exactly once.
func (r *BookingRepository) Complete(ctx context.Context, id uuid.UUID, suppliedOtp string, now time.Time, actingAs string) (*models.Booking, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	b, err := lockBooking(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	if b.Status == models.BookingStatusCompleted {
		return b, tx.Commit()
	}
	if b.Status != models.BookingStatusInProgress {
		return nil, apperror.NewInvalidTransition(b.Status, models.BookingStatusCompleted)
	}

	if err := otp.Validate(b, otp.KindComplete, suppliedOtp, now, actingAs); err != nil {
		return nil, err
	}

	// Gateway fees already charged on partial payments reduce the earning.
	var priorFees decimal.Decimal
	err = tx.GetContext(ctx, &priorFees, `
		SELECT COALESCE(SUM(platform_fee), 0) FROM payment_events
		WHERE booking_id = $1 AND status = $2
	`, id, models.PaymentStatusCompleted)
	if err != nil {
		return nil, fmt.Errorf("booking repository: complete sum fees %w", err)
	}

	earning := b.FreelancerEarning(priorFees)

	err = tx.GetContext(ctx, b, `
		UPDATE bookings
		SET status = $2, completion_otp_used_at = $3, escrow_credited_at = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING `+bookingColumns, id, models.BookingStatusCompleted, now)
	if err != nil {
		return nil, fmt.Errorf("booking repository: complete %w", err)
	}

	if err := creditEscrow(ctx, tx, b.FreelancerID, id, earning); err != nil {
		return nil, err
	}

	return b, tx.Commit()
}

// creditEscrow adds a booking earning to the freelancer's escrow balance.
// The unique booking id on wallet_credits guards against double credit.
func creditEscrow(ctx context.Context, tx *sqlx.Tx, freelancerID, bookingID uuid.UUID, amount decimal.Decimal) error {
	res, err := tx.ExecContext(ctx, `
		INSERT INTO wallet_credits (freelancer_id, booking_id, amount)
		VALUES ($1, $2, $3)
		ON CONFLICT (booking_id) DO NOTHING
	`, freelancerID, bookingID, amount)
	if err != nil {
		return fmt.Errorf("booking repository: credit escrow %w", err)
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if inserted == 0 {
		return nil
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO wallets (freelancer_id, escrow_balance, available_balance, lifetime_earned, lifetime_withdrawn)
		VALUES ($1, $2, 0, $2, 0)
		ON CONFLICT (freelancer_id) DO UPDATE
		SET escrow_balance = wallets.escrow_balance + $2,
		    lifetime_earned = wallets.lifetime_earned + $2,
		    updated_at = NOW()
	`, freelancerID, amount)
	if err != nil {
		return fmt.Errorf("booking repository: credit wallet %w", err)
	}
	return nil
}

// Cancel marks a not-yet-started booking cancelled. When money was
// already collected it records a pending refund event and returns it;
// the caller issues the gateway refund only after this transaction is
// durable, so a crash mid-refund is retryable, never lost.
func (r *BookingRepository) Cancel(ctx context.Context, id uuid.UUID, reason string) (*models.Booking, *models.PaymentEvent, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback()

	b, err := lockBooking(ctx, tx, id)
	if err != nil {
		return nil, nil, err
	}

	if b.Status != models.BookingStatusPending && b.Status != models.BookingStatusConfirmed {
		return nil, nil, apperror.NewInvalidTransition(b.Status, models.BookingStatusCancelled)
	}

	err = tx.GetContext(ctx, b, `
		UPDATE bookings
		SET status = $2, cancel_reason = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING `+bookingColumns, id, models.BookingStatusCancelled, reason)
	if err != nil {
		return nil, nil, fmt.Errorf("booking repository: cancel %w", err)
	}

	var collected decimal.Decimal
	err = tx.GetContext(ctx, &collected, `
		SELECT COALESCE(SUM(amount), 0) FROM payment_events
		WHERE booking_id = $1 AND status = $2 AND kind <> $3
	`, id, models.PaymentStatusCompleted, models.PaymentKindRefund)
	if err != nil {
		return nil, nil, fmt.Errorf("booking repository: cancel sum payments %w", err)
	}

	var refund *models.PaymentEvent
	if collected.Sign() > 0 {
		refund = &models.PaymentEvent{
			BookingID:     id,
			TransactionID: "rf_" + uuid.NewString(),
			Amount:        collected,
			Kind:          models.PaymentKindRefund,
			Status:        models.PaymentStatusPending,
			PlatformFee:   decimal.Zero,
			Method:        "gateway",
		}
		err = tx.GetContext(ctx, refund, `
			INSERT INTO payment_events (booking_id, transaction_id, amount, kind, status, platform_fee, method)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id, booking_id, transaction_id, amount, kind, status, platform_fee, method, created_at
		`, refund.BookingID, refund.TransactionID, refund.Amount, refund.Kind, refund.Status, refund.PlatformFee, refund.Method)
		if err != nil {
			return nil, nil, fmt.Errorf("booking repository: cancel create refund %w", err)
		}
	}

	return b, refund, tx.Commit()
}

// SubmitRating stores the employer's rating and releases the booking's
// escrow credit into the freelancer's available balance. The released-at
// marker on the credit row makes the release idempotent.
func (r *BookingRepository) SubmitRating(ctx context.Context, id uuid.UUID, score int, review *string) (*models.Booking, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	b, err := lockBooking(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	if b.Status != models.BookingStatusCompleted {
		return nil, apperror.ErrNotCompleted
	}
	if b.Rating != nil {
		return nil, apperror.ErrAlreadyRated
	}

	err = tx.GetContext(ctx, b, `
		UPDATE bookings
		SET rating = $2, review = $3, rated_at = NOW(), updated_at = NOW()
		WHERE id = $1
		RETURNING `+bookingColumns, id, score, review)
	if err != nil {
		return nil, fmt.Errorf("booking repository: submit rating %w", err)
	}

	if err := releaseEscrow(ctx, tx, id); err != nil {
		return nil, err
	}

	return b, tx.Commit()
}

// releaseEscrow moves one booking's credited amount from escrow to
// available. A credit already released is left alone.
func releaseEscrow(ctx context.Context, tx *sqlx.Tx, bookingID uuid.UUID) error {
	var credit models.WalletCredit
	err := tx.GetContext(ctx, &credit, `
		SELECT id, freelancer_id, booking_id, amount, released_at, created_at
		FROM wallet_credits WHERE booking_id = $1 FOR UPDATE
	`, bookingID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return fmt.Errorf("booking repository: release escrow lookup %w", err)
	}
	if credit.ReleasedAt != nil {
		return nil
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE wallets
		SET escrow_balance = escrow_balance - $2,
		    available_balance = available_balance + $2,
		    updated_at = NOW()
		WHERE freelancer_id = $1
	`, credit.FreelancerID, credit.Amount)
	if err != nil {
		return fmt.Errorf("booking repository: release escrow wallet %w", err)
	}

	_, err = tx.ExecContext(ctx, `UPDATE wallet_credits SET released_at = NOW() WHERE id = $1`, credit.ID)
	if err != nil {
		return fmt.Errorf("booking repository: release escrow mark %w", err)
	}
	return nil
}

// MarkRefundIssued flips a pending refund event to completed once the
// gateway accepted the refund request.
func (r *BookingRepository) MarkRefundIssued(ctx context.Context, eventID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE payment_events SET status = $2 WHERE id = $1 AND status = $3
	`, eventID, models.PaymentStatusCompleted, models.PaymentStatusPending)
	return err
}

// ListByEmployer returns the employer's bookings, newest first.
func (r *BookingRepository) ListByEmployer(ctx context.Context, employerID uuid.UUID, limit, offset int) ([]models.Booking, error) {
	var bookings []models.Booking
	err := r.db.SelectContext(ctx, &bookings, `
		SELECT `+bookingColumns+` FROM bookings
		WHERE employer_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, employerID, limit, offset)
	return bookings, err
}

// ListByFreelancer returns the freelancer's bookings, newest first.
func (r *BookingRepository) ListByFreelancer(ctx context.Context, freelancerID uuid.UUID, limit, offset int) ([]models.Booking, error) {
	var bookings []models.Booking
	err := r.db.SelectContext(ctx, &bookings, `
		SELECT `+bookingColumns+` FROM bookings
		WHERE freelancer_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, freelancerID, limit, offset)
	return bookings, err
}
