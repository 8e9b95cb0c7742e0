package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/gigsetu/gigsetu-backend/internal/goroutine"
	"github.com/gigsetu/gigsetu-backend/internal/logger"
	"github.com/gigsetu/gigsetu-backend/internal/models"
	"github.com/gigsetu/gigsetu-backend/internal/otp"
	"github.com/gigsetu/gigsetu-backend/internal/pkg/apperror"
	"github.com/gigsetu/gigsetu-backend/internal/pricing"
)

type BookingRepository interface {
	Create(ctx context.Context, b *models.Booking) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	Start(ctx context.Context, id uuid.UUID, suppliedOtp string, now time.Time, actingAs string) (*models.Booking, error)
	Complete(ctx context.Context, id uuid.UUID, suppliedOtp string, now time.Time, actingAs string) (*models.Booking, error)
	Cancel(ctx context.Context, id uuid.UUID, reason string) (*models.Booking, *models.PaymentEvent, error)
	SubmitRating(ctx context.Context, id uuid.UUID, score int, review *string) (*models.Booking, error)
	MarkRefundIssued(ctx context.Context, eventID uuid.UUID) error
	ListByEmployer(ctx context.Context, employerID uuid.UUID, limit, offset int) ([]models.Booking, error)
	ListByFreelancer(ctx context.Context, freelancerID uuid.UUID, limit, offset int) ([]models.Booking, error)
}

// RefundRequester is the outbound half of the payment gateway: it asks
// the gateway to return collected money after a cancellation.
type RefundRequester interface {
	RequestRefund(ctx context.Context, bookingID uuid.UUID, transactionID string, amount decimal.Decimal) error
}

// Notifier delivers fire-and-forget lifecycle events to connected
// clients. Failures are logged, never propagated.
type Notifier interface {
	BroadcastToUser(userID uuid.UUID, event string, data any) error
}

// BookingService drives the booking lifecycle. It validates input,
// prices new bookings, issues OTP codes and delegates every transition
// to the repository, which serializes per booking.
type BookingService struct {
	repo    BookingRepository
	pricer  *pricing.Engine
	refunds RefundRequester
	hub     Notifier
}

func NewBookingService(repo BookingRepository, pricer *pricing.Engine, refunds RefundRequester) *BookingService {
	return &BookingService{repo: repo, pricer: pricer, refunds: refunds}
}

// SetHub wires the websocket hub for lifecycle notifications.
func (s *BookingService) SetHub(hub Notifier) {
	s.hub = hub
}

type CreateBookingInput struct {
	EmployerID   uuid.UUID
	FreelancerID uuid.UUID
	SourceType   string
	SourceID     uuid.UUID
	BasePrice    decimal.Decimal
	PaymentType  string
	BookingDate  time.Time
}

// CreateBooking prices the engagement and persists it in pending state.
// Both OTP codes are issued now; they stay meaningless until their phase.
func (s *BookingService) CreateBooking(ctx context.Context, in CreateBookingInput) (*models.Booking, error) {
	if _, ok := models.ValidPaymentTypes[in.PaymentType]; !ok {
		return nil, apperror.New(apperror.ErrCodeValidation, "unknown payment type")
	}
	if _, ok := models.ValidBookingSources[in.SourceType]; !ok {
		return nil, apperror.New(apperror.ErrCodeValidation, "unknown booking source")
	}
	if in.EmployerID == in.FreelancerID {
		return nil, apperror.New(apperror.ErrCodeValidation, "employer and freelancer must differ")
	}

	quote, err := s.pricer.Compute(in.BasePrice, in.PaymentType)
	if err != nil {
		return nil, err
	}

	startOtp, err := otp.Generate()
	if err != nil {
		return nil, err
	}
	completionOtp, err := otp.Generate()
	if err != nil {
		return nil, err
	}

	b := &models.Booking{
		EmployerID:         in.EmployerID,
		FreelancerID:       in.FreelancerID,
		SourceType:         in.SourceType,
		SourceID:           in.SourceID,
		BasePrice:          quote.BasePrice,
		PlatformCommission: quote.PlatformCommission,
		Tax:                quote.Tax,
		TotalPrice:         quote.TotalPrice,
		PaymentType:        in.PaymentType,
		AdvanceAmount:      quote.AdvanceAmount,
		RemainingAmount:    quote.RemainingAmount,
		Status:             models.BookingStatusPending,
		BookingDate:        in.BookingDate,
		StartOtp:           startOtp,
		CompletionOtp:      completionOtp,
	}

	if err := s.repo.Create(ctx, b); err != nil {
		return nil, err
	}

	s.notify(b.FreelancerID, "booking.created", b)
	return b, nil
}

// GetBooking returns a booking visible to one of its two parties.
func (s *BookingService) GetBooking(ctx context.Context, id, viewerID uuid.UUID) (*models.Booking, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if viewerID != b.EmployerID && viewerID != b.FreelancerID {
		return nil, apperror.ErrForbidden
	}
	return b, nil
}

// Start redeems the start code and moves the booking into in_progress.
func (s *BookingService) Start(ctx context.Context, id uuid.UUID, suppliedOtp, actingAs string) (*models.Booking, error) {
	b, err := s.repo.Start(ctx, id, suppliedOtp, time.Now(), actingAs)
	if err != nil {
		return nil, err
	}
	s.notifyParties(b, "booking.started")
	return b, nil
}

// Complete redeems the completion code; the repository finishes the
// booking and credits escrow atomically.
func (s *BookingService) Complete(ctx context.Context, id uuid.UUID, suppliedOtp, actingAs string) (*models.Booking, error) {
	b, err := s.repo.Complete(ctx, id, suppliedOtp, time.Now(), actingAs)
	if err != nil {
		return nil, err
	}
	s.notifyParties(b, "booking.completed")
	return b, nil
}

// Cancel terminates a not-yet-started booking. Any refund is requested
// from the gateway only after the cancelled state is durable; a failed
// request leaves the refund event pending for reconciliation.
func (s *BookingService) Cancel(ctx context.Context, id, callerID uuid.UUID, reason string) (*models.Booking, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if callerID != current.EmployerID && callerID != current.FreelancerID {
		return nil, apperror.ErrForbidden
	}

	b, refund, err := s.repo.Cancel(ctx, id, reason)
	if err != nil {
		return nil, err
	}

	if refund != nil {
		s.issueRefund(b, refund)
	}

	s.notifyParties(b, "booking.cancelled")
	return b, nil
}

// issueRefund asks the gateway for the money back, off the request path.
func (s *BookingService) issueRefund(b *models.Booking, refund *models.PaymentEvent) {
	eventID := refund.ID
	txID := refund.TransactionID
	amount := refund.Amount
	bookingID := b.ID

	goroutine.SafeGo(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := s.refunds.RequestRefund(ctx, bookingID, txID, amount); err != nil {
			logger.Log.WithFields(logrus.Fields{
				"booking_id":     bookingID,
				"transaction_id": txID,
				"error":          err.Error(),
			}).Error("refund request failed, event left pending for reconciliation")
			return
		}

		if err := s.repo.MarkRefundIssued(ctx, eventID); err != nil {
			logger.Log.WithFields(logrus.Fields{
				"booking_id": bookingID,
				"event_id":   eventID,
			}).WithError(err).Error("refund issued but event not marked")
		}
	})
}

// SubmitRating stores the employer's rating and releases that booking's
// escrow credit into the freelancer's available balance.
func (s *BookingService) SubmitRating(ctx context.Context, id, callerID uuid.UUID, score int, review *string) (*models.Booking, error) {
	if score < 0 || score > 5 {
		return nil, apperror.New(apperror.ErrCodeValidation, "rating must be between 0 and 5")
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if callerID != current.EmployerID {
		return nil, apperror.ErrForbidden
	}

	b, err := s.repo.SubmitRating(ctx, id, score, review)
	if err != nil {
		return nil, err
	}

	s.notify(b.FreelancerID, "booking.rated", b)
	return b, nil
}

// ListForUser returns bookings where the user is employer or freelancer,
// depending on the role they act in.
func (s *BookingService) ListForUser(ctx context.Context, userID uuid.UUID, actingAs string, limit, offset int) ([]models.Booking, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if actingAs == models.RoleFreelancer {
		return s.repo.ListByFreelancer(ctx, userID, limit, offset)
	}
	return s.repo.ListByEmployer(ctx, userID, limit, offset)
}

func (s *BookingService) notifyParties(b *models.Booking, event string) {
	s.notify(b.EmployerID, event, b)
	s.notify(b.FreelancerID, event, b)
}

func (s *BookingService) notify(userID uuid.UUID, event string, data any) {
	if s.hub == nil {
		return
	}
	if err := s.hub.BroadcastToUser(userID, event, data); err != nil && logger.Log != nil {
		logger.Log.WithError(err).Debug("notification dropped")
	}
}
