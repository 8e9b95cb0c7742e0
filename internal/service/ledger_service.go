package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/gigsetu/gigsetu-backend/internal/models"
	"github.com/gigsetu/gigsetu-backend/internal/pkg/apperror"
)

type LedgerRepository interface {
	Ingest(ctx context.Context, ev *models.PaymentEvent) (*models.IngestResult, error)
	ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]models.PaymentEvent, error)
}

// LedgerService accepts gateway webhook deliveries and exposes the
// per-booking payment history.
type LedgerService struct {
	repo LedgerRepository
	hub  Notifier
}

func NewLedgerService(repo LedgerRepository) *LedgerService {
	return &LedgerService{repo: repo}
}

func (s *LedgerService) SetHub(hub Notifier) {
	s.hub = hub
}

// Ingest validates and records one gateway event. Redeliveries come back
// as duplicates without error, so the webhook endpoint can always ack.
func (s *LedgerService) Ingest(ctx context.Context, ev *models.PaymentEvent) (*models.IngestResult, error) {
	if strings.TrimSpace(ev.TransactionID) == "" {
		return nil, apperror.New(apperror.ErrCodeValidation, "transaction id is required")
	}
	if _, ok := models.ValidPaymentKinds[ev.Kind]; !ok {
		return nil, apperror.New(apperror.ErrCodeValidation, "unknown payment kind")
	}
	if _, ok := models.ValidPaymentStatuses[ev.Status]; !ok {
		return nil, apperror.New(apperror.ErrCodeValidation, "unknown payment status")
	}
	if !ev.Amount.IsPositive() {
		return nil, apperror.New(apperror.ErrCodeValidation, "amount must be positive")
	}

	result, err := s.repo.Ingest(ctx, ev)
	if err != nil {
		return result, err
	}

	if result.Status == models.IngestAccepted && result.Booking != nil {
		if result.Booking.Status == models.BookingStatusConfirmed {
			s.notifyParties(result.Booking, "booking.confirmed")
		} else {
			s.notify(result.Booking.EmployerID, "payment.recorded", result.Event)
		}
	}
	return result, nil
}

// ListBookingPayments returns the ledger of one booking for a party to it.
func (s *LedgerService) ListBookingPayments(ctx context.Context, b *models.Booking) ([]models.PaymentEvent, error) {
	return s.repo.ListByBooking(ctx, b.ID)
}

func (s *LedgerService) notifyParties(b *models.Booking, event string) {
	s.notify(b.EmployerID, event, b)
	s.notify(b.FreelancerID, event, b)
}

func (s *LedgerService) notify(userID uuid.UUID, event string, data any) {
	if s.hub == nil {
		return
	}
	_ = s.hub.BroadcastToUser(userID, event, data)
}
