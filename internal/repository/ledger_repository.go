package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/gigsetu/gigsetu-backend/internal/models"
	"github.com/gigsetu/gigsetu-backend/internal/pkg/apperror"
)

const pqUniqueViolation = "23505"

// LedgerRepository records gateway payment events. Ingestion is
// idempotent: the globally unique transaction id is the deduplication
// key, so at-least-once webhook delivery is safe.
type LedgerRepository struct {
	db *sqlx.DB
}

func NewLedgerRepository(db *sqlx.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

const paymentEventColumns = `
	id, booking_id, transaction_id, amount, kind, status, platform_fee, method, created_at
`

// Ingest processes one gateway event against its booking. A completed
// advance or full payment confirms a pending booking; a refund marks the
// collected charges refunded on an already-cancelled booking. Completed
// charge amounts may never sum past the booking total.
func (r *LedgerRepository) Ingest(ctx context.Context, ev *models.PaymentEvent) (*models.IngestResult, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	// Fast duplicate check before taking the booking lock.
	var existingID uuid.UUID
	err = tx.GetContext(ctx, &existingID, `SELECT id FROM payment_events WHERE transaction_id = $1`, ev.TransactionID)
	if err == nil {
		return &models.IngestResult{Status: models.IngestDuplicate}, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("ledger repository: duplicate check %w", err)
	}

	b, err := lockBooking(ctx, tx, ev.BookingID)
	if err != nil {
		return nil, err
	}

	if ev.Kind == models.PaymentKindRefund {
		return r.ingestRefund(ctx, tx, b, ev)
	}

	if ev.Status == models.PaymentStatusCompleted {
		var collected decimal.Decimal
		err = tx.GetContext(ctx, &collected, `
			SELECT COALESCE(SUM(amount), 0) FROM payment_events
			WHERE booking_id = $1 AND status = $2 AND kind <> $3
		`, b.ID, models.PaymentStatusCompleted, models.PaymentKindRefund)
		if err != nil {
			return nil, fmt.Errorf("ledger repository: sum completed %w", err)
		}
		if collected.Add(ev.Amount).GreaterThan(b.TotalPrice) {
			return &models.IngestResult{
				Status: models.IngestRejected,
				Reason: apperror.ErrOverpayment.Message,
			}, apperror.ErrOverpayment
		}
	}

	if err := insertEvent(ctx, tx, ev); err != nil {
		if isUniqueViolation(err) {
			// Lost the race against a concurrent delivery of the same webhook.
			return &models.IngestResult{Status: models.IngestDuplicate}, nil
		}
		return nil, err
	}

	// A completed advance or full payment confirms the booking.
	confirming := ev.Status == models.PaymentStatusCompleted &&
		(ev.Kind == models.PaymentKindAdvance || ev.Kind == models.PaymentKindFull)
	if confirming && b.Status == models.BookingStatusPending {
		err = tx.GetContext(ctx, b, `
			UPDATE bookings SET status = $2, updated_at = NOW()
			WHERE id = $1
			RETURNING `+bookingColumns, b.ID, models.BookingStatusConfirmed)
		if err != nil {
			return nil, fmt.Errorf("ledger repository: confirm booking %w", err)
		}
	}

	return &models.IngestResult{Status: models.IngestAccepted, Event: ev, Booking: b}, tx.Commit()
}

// ingestRefund records a gateway refund report. The booking must already
// be cancelled. Only a completed refund marks the collected charges
// refunded and settles the locally pending refund request; a failed or
// pending refund is recorded without touching the charges, so the money
// is never booked as returned before the gateway says it moved.
func (r *LedgerRepository) ingestRefund(ctx context.Context, tx *sqlx.Tx, b *models.Booking, ev *models.PaymentEvent) (*models.IngestResult, error) {
	if b.Status != models.BookingStatusCancelled {
		return &models.IngestResult{
			Status: models.IngestRejected,
			Reason: "refund received for a booking that is not cancelled",
		}, nil
	}

	if err := insertEvent(ctx, tx, ev); err != nil {
		if isUniqueViolation(err) {
			return &models.IngestResult{Status: models.IngestDuplicate}, nil
		}
		return nil, err
	}

	if ev.Status == models.PaymentStatusCompleted {
		_, err := tx.ExecContext(ctx, `
			UPDATE payment_events SET status = $2
			WHERE booking_id = $1 AND status = $3 AND kind <> $4
		`, b.ID, models.PaymentStatusRefunded, models.PaymentStatusCompleted, models.PaymentKindRefund)
		if err != nil {
			return nil, fmt.Errorf("ledger repository: mark charges refunded %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE payment_events SET status = $2
			WHERE booking_id = $1 AND kind = $3 AND status = $4
		`, b.ID, models.PaymentStatusCompleted, models.PaymentKindRefund, models.PaymentStatusPending)
		if err != nil {
			return nil, fmt.Errorf("ledger repository: settle pending refund %w", err)
		}
	}

	return &models.IngestResult{Status: models.IngestAccepted, Event: ev, Booking: b}, tx.Commit()
}

func insertEvent(ctx context.Context, tx *sqlx.Tx, ev *models.PaymentEvent) error {
	err := tx.GetContext(ctx, ev, `
		INSERT INTO payment_events (booking_id, transaction_id, amount, kind, status, platform_fee, method)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+paymentEventColumns,
		ev.BookingID, ev.TransactionID, ev.Amount, ev.Kind, ev.Status, ev.PlatformFee, ev.Method)
	if err != nil {
		return fmt.Errorf("ledger repository: insert event %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation
}

// ListByBooking returns all payment events of a booking, oldest first.
func (r *LedgerRepository) ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]models.PaymentEvent, error) {
	var events []models.PaymentEvent
	err := r.db.SelectContext(ctx, &events, `
		SELECT `+paymentEventColumns+` FROM payment_events
		WHERE booking_id = $1 ORDER BY created_at ASC
	`, bookingID)
	return events, err
}

// SumCompleted returns the running total of completed charges for the
// overpayment check and operator views.
func (r *LedgerRepository) SumCompleted(ctx context.Context, bookingID uuid.UUID) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := r.db.GetContext(ctx, &sum, `
		SELECT COALESCE(SUM(amount), 0) FROM payment_events
		WHERE booking_id = $1 AND status = $2 AND kind <> $3
	`, bookingID, models.PaymentStatusCompleted, models.PaymentKindRefund)
	if err != nil {
		return decimal.Zero, fmt.Errorf("ledger repository: sum completed %w", err)
	}
	return sum, nil
}
