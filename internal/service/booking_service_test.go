package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/gigsetu/gigsetu-backend/internal/models"
	"github.com/gigsetu/gigsetu-backend/internal/pkg/apperror"
	"github.com/gigsetu/gigsetu-backend/internal/pricing"
)

type mockBookingRepo struct {
	mock.Mock
}

func (m *mockBookingRepo) Create(ctx context.Context, b *models.Booking) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}

func (m *mockBookingRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}

func (m *mockBookingRepo) Start(ctx context.Context, id uuid.UUID, suppliedOtp string, now time.Time, actingAs string) (*models.Booking, error) {
	args := m.Called(ctx, id, suppliedOtp, now, actingAs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}

func (m *mockBookingRepo) Complete(ctx context.Context, id uuid.UUID, suppliedOtp string, now time.Time, actingAs string) (*models.Booking, error) {
	args := m.Called(ctx, id, suppliedOtp, now, actingAs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}

func (m *mockBookingRepo) Cancel(ctx context.Context, id uuid.UUID, reason string) (*models.Booking, *models.PaymentEvent, error) {
	args := m.Called(ctx, id, reason)
	var b *models.Booking
	var ev *models.PaymentEvent
	if args.Get(0) != nil {
		b = args.Get(0).(*models.Booking)
	}
	if args.Get(1) != nil {
		ev = args.Get(1).(*models.PaymentEvent)
	}
	return b, ev, args.Error(2)
}

func (m *mockBookingRepo) SubmitRating(ctx context.Context, id uuid.UUID, score int, review *string) (*models.Booking, error) {
	args := m.Called(ctx, id, score, review)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}

func (m *mockBookingRepo) MarkRefundIssued(ctx context.Context, eventID uuid.UUID) error {
	args := m.Called(ctx, eventID)
	return args.Error(0)
}

func (m *mockBookingRepo) ListByEmployer(ctx context.Context, employerID uuid.UUID, limit, offset int) ([]models.Booking, error) {
	args := m.Called(ctx, employerID, limit, offset)
	return args.Get(0).([]models.Booking), args.Error(1)
}

func (m *mockBookingRepo) ListByFreelancer(ctx context.Context, freelancerID uuid.UUID, limit, offset int) ([]models.Booking, error) {
	args := m.Called(ctx, freelancerID, limit, offset)
	return args.Get(0).([]models.Booking), args.Error(1)
}

type mockRefunds struct {
	mock.Mock
}

func (m *mockRefunds) RequestRefund(ctx context.Context, bookingID uuid.UUID, transactionID string, amount decimal.Decimal) error {
	args := m.Called(ctx, bookingID, transactionID, amount)
	return args.Error(0)
}

func testPricer() *pricing.Engine {
	return pricing.NewEngine(
		decimal.RequireFromString("0.10"),
		decimal.RequireFromString("0.08"),
		decimal.RequireFromString("0.30"),
	)
}

func TestBookingService_CreateBooking(t *testing.T) {
	repo := new(mockBookingRepo)
	svc := NewBookingService(repo, testPricer(), new(mockRefunds))
	ctx := context.Background()

	repo.On("Create", ctx, mock.AnythingOfType("*models.Booking")).Return(nil)

	b, err := svc.CreateBooking(ctx, CreateBookingInput{
		EmployerID:   uuid.New(),
		FreelancerID: uuid.New(),
		SourceType:   models.BookingSourceJob,
		SourceID:     uuid.New(),
		BasePrice:    decimal.NewFromInt(20000),
		PaymentType:  models.PaymentTypeAdvance,
		BookingDate:  time.Now().Add(48 * time.Hour),
	})

	assert.NoError(t, err)
	assert.Equal(t, models.BookingStatusPending, b.Status)
	assert.True(t, b.PlatformCommission.Equal(decimal.NewFromInt(2000)), "commission %s", b.PlatformCommission)
	assert.True(t, b.Tax.Equal(decimal.NewFromInt(1760)), "tax %s", b.Tax)
	assert.True(t, b.TotalPrice.Equal(decimal.NewFromInt(23760)), "total %s", b.TotalPrice)
	assert.True(t, b.AdvanceAmount.Equal(decimal.NewFromInt(7128)), "advance %s", b.AdvanceAmount)
	assert.True(t, b.RemainingAmount.Equal(decimal.NewFromInt(16632)), "remaining %s", b.RemainingAmount)
	assert.Len(t, b.StartOtp, 4)
	assert.Len(t, b.CompletionOtp, 4)
	assert.NotEqual(t, b.StartOtp, b.CompletionOtp, "codes should virtually never collide in tests")
	repo.AssertExpectations(t)
}

func TestBookingService_CreateBooking_Invalid(t *testing.T) {
	repo := new(mockBookingRepo)
	svc := NewBookingService(repo, testPricer(), new(mockRefunds))
	ctx := context.Background()
	userID := uuid.New()

	base := CreateBookingInput{
		EmployerID:   userID,
		FreelancerID: uuid.New(),
		SourceType:   models.BookingSourceService,
		SourceID:     uuid.New(),
		BasePrice:    decimal.NewFromInt(500),
		PaymentType:  models.PaymentTypeFull,
		BookingDate:  time.Now(),
	}

	badType := base
	badType.PaymentType = "installments"
	_, err := svc.CreateBooking(ctx, badType)
	assert.Error(t, err)

	badSource := base
	badSource.SourceType = "referral"
	_, err = svc.CreateBooking(ctx, badSource)
	assert.Error(t, err)

	selfBooking := base
	selfBooking.FreelancerID = userID
	_, err = svc.CreateBooking(ctx, selfBooking)
	assert.Error(t, err)

	freePrice := base
	freePrice.BasePrice = decimal.Zero
	_, err = svc.CreateBooking(ctx, freePrice)
	assert.ErrorIs(t, err, apperror.ErrInvalidPrice)

	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestBookingService_GetBooking_Forbidden(t *testing.T) {
	repo := new(mockBookingRepo)
	svc := NewBookingService(repo, testPricer(), new(mockRefunds))
	ctx := context.Background()

	b := &models.Booking{ID: uuid.New(), EmployerID: uuid.New(), FreelancerID: uuid.New()}
	repo.On("GetByID", ctx, b.ID).Return(b, nil)

	_, err := svc.GetBooking(ctx, b.ID, uuid.New())
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	got, err := svc.GetBooking(ctx, b.ID, b.FreelancerID)
	assert.NoError(t, err)
	assert.Equal(t, b, got)
}

func TestBookingService_Start_PassesRepoError(t *testing.T) {
	repo := new(mockBookingRepo)
	svc := NewBookingService(repo, testPricer(), new(mockRefunds))
	ctx := context.Background()
	id := uuid.New()

	repo.On("Start", ctx, id, "0000", mock.AnythingOfType("time.Time"), models.RoleFreelancer).
		Return(nil, apperror.ErrInvalidOtp)

	_, err := svc.Start(ctx, id, "0000", models.RoleFreelancer)
	assert.ErrorIs(t, err, apperror.ErrInvalidOtp)
}

func TestBookingService_Cancel_Forbidden(t *testing.T) {
	repo := new(mockBookingRepo)
	svc := NewBookingService(repo, testPricer(), new(mockRefunds))
	ctx := context.Background()

	b := &models.Booking{ID: uuid.New(), EmployerID: uuid.New(), FreelancerID: uuid.New()}
	repo.On("GetByID", ctx, b.ID).Return(b, nil)

	_, err := svc.Cancel(ctx, b.ID, uuid.New(), "changed plans")
	assert.ErrorIs(t, err, apperror.ErrForbidden)
	repo.AssertNotCalled(t, "Cancel", mock.Anything, mock.Anything, mock.Anything)
}

func TestBookingService_Cancel_NoRefundWhenNothingCollected(t *testing.T) {
	repo := new(mockBookingRepo)
	refunds := new(mockRefunds)
	svc := NewBookingService(repo, testPricer(), refunds)
	ctx := context.Background()

	b := &models.Booking{ID: uuid.New(), EmployerID: uuid.New(), FreelancerID: uuid.New(), Status: models.BookingStatusPending}
	cancelled := &models.Booking{ID: b.ID, EmployerID: b.EmployerID, FreelancerID: b.FreelancerID, Status: models.BookingStatusCancelled}

	repo.On("GetByID", ctx, b.ID).Return(b, nil)
	repo.On("Cancel", ctx, b.ID, "changed plans").Return(cancelled, nil, nil)

	got, err := svc.Cancel(ctx, b.ID, b.EmployerID, "changed plans")
	assert.NoError(t, err)
	assert.Equal(t, models.BookingStatusCancelled, got.Status)
	refunds.AssertNotCalled(t, "RequestRefund", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestBookingService_SubmitRating(t *testing.T) {
	repo := new(mockBookingRepo)
	svc := NewBookingService(repo, testPricer(), new(mockRefunds))
	ctx := context.Background()

	b := &models.Booking{ID: uuid.New(), EmployerID: uuid.New(), FreelancerID: uuid.New(), Status: models.BookingStatusCompleted}
	repo.On("GetByID", ctx, b.ID).Return(b, nil)

	_, err := svc.SubmitRating(ctx, b.ID, b.EmployerID, 6, nil)
	assert.Error(t, err, "rating above 5 rejected")

	_, err = svc.SubmitRating(ctx, b.ID, b.FreelancerID, 5, nil)
	assert.ErrorIs(t, err, apperror.ErrForbidden, "only the employer rates")

	rated := *b
	score := 5
	rated.Rating = &score
	repo.On("SubmitRating", ctx, b.ID, 5, (*string)(nil)).Return(&rated, nil)

	got, err := svc.SubmitRating(ctx, b.ID, b.EmployerID, 5, nil)
	assert.NoError(t, err)
	assert.Equal(t, 5, *got.Rating)
}

func TestBookingService_ListForUser_RoleRouting(t *testing.T) {
	repo := new(mockBookingRepo)
	svc := NewBookingService(repo, testPricer(), new(mockRefunds))
	ctx := context.Background()
	userID := uuid.New()

	repo.On("ListByFreelancer", ctx, userID, 20, 0).Return([]models.Booking{}, nil)
	repo.On("ListByEmployer", ctx, userID, 20, 0).Return([]models.Booking{{ID: uuid.New()}}, nil)

	asFreelancer, err := svc.ListForUser(ctx, userID, models.RoleFreelancer, 0, 0)
	assert.NoError(t, err)
	assert.Empty(t, asFreelancer)

	asEmployer, err := svc.ListForUser(ctx, userID, models.RoleEmployer, 0, 0)
	assert.NoError(t, err)
	assert.Len(t, asEmployer, 1)
	repo.AssertExpectations(t)
}
