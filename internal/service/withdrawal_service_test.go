package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/gigsetu/gigsetu-backend/internal/models"
	"github.com/gigsetu/gigsetu-backend/internal/pkg/apperror"
)

type mockWithdrawalRepo struct {
	mock.Mock
}

func (m *mockWithdrawalRepo) Create(ctx context.Context, w *models.WithdrawalRequest) error {
	args := m.Called(ctx, w)
	return args.Error(0)
}

func (m *mockWithdrawalRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.WithdrawalRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WithdrawalRequest), args.Error(1)
}

func (m *mockWithdrawalRepo) Decide(ctx context.Context, id uuid.UUID, approve bool, reason *string) (*models.WithdrawalRequest, error) {
	args := m.Called(ctx, id, approve, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WithdrawalRequest), args.Error(1)
}

func (m *mockWithdrawalRepo) ListByFreelancer(ctx context.Context, freelancerID uuid.UUID, limit, offset int) ([]models.WithdrawalRequest, error) {
	args := m.Called(ctx, freelancerID, limit, offset)
	return args.Get(0).([]models.WithdrawalRequest), args.Error(1)
}

func (m *mockWithdrawalRepo) ListPending(ctx context.Context, limit, offset int) ([]models.WithdrawalRequest, error) {
	args := m.Called(ctx, limit, offset)
	return args.Get(0).([]models.WithdrawalRequest), args.Error(1)
}

func (m *mockWithdrawalRepo) CreatePayoutMethod(ctx context.Context, pm *models.PayoutMethod) error {
	args := m.Called(ctx, pm)
	return args.Error(0)
}

func (m *mockWithdrawalRepo) GetPayoutMethod(ctx context.Context, freelancerID uuid.UUID) (*models.PayoutMethod, error) {
	args := m.Called(ctx, freelancerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PayoutMethod), args.Error(1)
}

type mockWalletRepo struct {
	mock.Mock
}

func (m *mockWalletRepo) Get(ctx context.Context, freelancerID uuid.UUID) (*models.Wallet, error) {
	args := m.Called(ctx, freelancerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Wallet), args.Error(1)
}

func (m *mockWalletRepo) Reserve(ctx context.Context, freelancerID uuid.UUID, amount decimal.Decimal) (*models.WalletReservation, error) {
	args := m.Called(ctx, freelancerID, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WalletReservation), args.Error(1)
}

func (m *mockWalletRepo) CancelReservation(ctx context.Context, reservationID uuid.UUID) (*models.WalletReservation, error) {
	args := m.Called(ctx, reservationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WalletReservation), args.Error(1)
}

func (m *mockWalletRepo) ListCredits(ctx context.Context, freelancerID uuid.UUID, limit, offset int) ([]models.WalletCredit, error) {
	args := m.Called(ctx, freelancerID, limit, offset)
	return args.Get(0).([]models.WalletCredit), args.Error(1)
}

func newWithdrawalService(repo *mockWithdrawalRepo, wallets *mockWalletRepo) *WithdrawalService {
	return NewWithdrawalService(repo, wallets, testPricer(), decimal.NewFromInt(100))
}

func bankMethod(freelancerID uuid.UUID) *models.PayoutMethod {
	holder := "Ramesh Kumar"
	number := "123456789012"
	ifsc := "HDFC0001234"
	return &models.PayoutMethod{
		FreelancerID:  freelancerID,
		Kind:          models.PayoutMethodBank,
		AccountHolder: &holder,
		AccountNumber: &number,
		IFSC:          &ifsc,
	}
}

func TestWithdrawalService_Request_BelowMinimum(t *testing.T) {
	repo := new(mockWithdrawalRepo)
	wallets := new(mockWalletRepo)
	svc := newWithdrawalService(repo, wallets)

	_, err := svc.RequestWithdrawal(context.Background(), uuid.New(), decimal.NewFromInt(99))
	assert.ErrorIs(t, err, apperror.ErrMinWithdrawalAmount)
	wallets.AssertNotCalled(t, "Reserve", mock.Anything, mock.Anything, mock.Anything)
}

func TestWithdrawalService_Request_NoPayoutMethod(t *testing.T) {
	repo := new(mockWithdrawalRepo)
	wallets := new(mockWalletRepo)
	svc := newWithdrawalService(repo, wallets)
	ctx := context.Background()
	freelancerID := uuid.New()

	repo.On("GetPayoutMethod", ctx, freelancerID).Return(nil, nil)

	_, err := svc.RequestWithdrawal(ctx, freelancerID, decimal.NewFromInt(500))
	assert.ErrorIs(t, err, apperror.ErrPayoutMethodMissing)
	wallets.AssertNotCalled(t, "Reserve", mock.Anything, mock.Anything, mock.Anything)
}

func TestWithdrawalService_Request_InsufficientBalance(t *testing.T) {
	repo := new(mockWithdrawalRepo)
	wallets := new(mockWalletRepo)
	svc := newWithdrawalService(repo, wallets)
	ctx := context.Background()
	freelancerID := uuid.New()
	amount := decimal.NewFromInt(5000)

	repo.On("GetPayoutMethod", ctx, freelancerID).Return(bankMethod(freelancerID), nil)
	wallets.On("Reserve", ctx, freelancerID, amount).Return(nil, apperror.ErrInsufficientBalance)

	_, err := svc.RequestWithdrawal(ctx, freelancerID, amount)
	assert.ErrorIs(t, err, apperror.ErrInsufficientBalance)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestWithdrawalService_Request_Success(t *testing.T) {
	repo := new(mockWithdrawalRepo)
	wallets := new(mockWalletRepo)
	svc := newWithdrawalService(repo, wallets)
	ctx := context.Background()
	freelancerID := uuid.New()
	amount := decimal.NewFromInt(21760)
	res := &models.WalletReservation{ID: uuid.New(), FreelancerID: freelancerID, Amount: amount, Status: models.ReservationStatusHeld}

	repo.On("GetPayoutMethod", ctx, freelancerID).Return(bankMethod(freelancerID), nil)
	wallets.On("Reserve", ctx, freelancerID, amount).Return(res, nil)
	repo.On("Create", ctx, mock.AnythingOfType("*models.WithdrawalRequest")).Return(nil)

	w, err := svc.RequestWithdrawal(ctx, freelancerID, amount)
	assert.NoError(t, err)
	assert.Equal(t, res.ID, w.ReservationID)
	assert.Equal(t, models.WithdrawalStatusPending, w.Status)
	assert.Equal(t, models.PayoutMethodBank, w.Method)
	assert.True(t, w.Commission.Equal(decimal.NewFromInt(2176)), "commission %s", w.Commission)
	assert.True(t, w.FreelancerAmount.Equal(decimal.NewFromInt(19584)), "freelancer amount %s", w.FreelancerAmount)
	repo.AssertExpectations(t)
	wallets.AssertExpectations(t)
}

func TestWithdrawalService_Request_CreateFailureReleasesHold(t *testing.T) {
	repo := new(mockWithdrawalRepo)
	wallets := new(mockWalletRepo)
	svc := newWithdrawalService(repo, wallets)
	ctx := context.Background()
	freelancerID := uuid.New()
	amount := decimal.NewFromInt(500)
	res := &models.WalletReservation{ID: uuid.New(), FreelancerID: freelancerID, Amount: amount, Status: models.ReservationStatusHeld}

	repo.On("GetPayoutMethod", ctx, freelancerID).Return(bankMethod(freelancerID), nil)
	wallets.On("Reserve", ctx, freelancerID, amount).Return(res, nil)
	repo.On("Create", ctx, mock.AnythingOfType("*models.WithdrawalRequest")).Return(errors.New("insert failed"))
	wallets.On("CancelReservation", ctx, res.ID).Return(res, nil)

	_, err := svc.RequestWithdrawal(ctx, freelancerID, amount)
	assert.Error(t, err)
	wallets.AssertCalled(t, "CancelReservation", ctx, res.ID)
}

func TestWithdrawalService_Decide_RejectNeedsReason(t *testing.T) {
	repo := new(mockWithdrawalRepo)
	svc := newWithdrawalService(repo, new(mockWalletRepo))

	_, err := svc.Decide(context.Background(), uuid.New(), false, nil)
	assert.Error(t, err)
	repo.AssertNotCalled(t, "Decide", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestWithdrawalService_Decide_Approve(t *testing.T) {
	repo := new(mockWithdrawalRepo)
	svc := newWithdrawalService(repo, new(mockWalletRepo))
	ctx := context.Background()
	id := uuid.New()

	decided := &models.WithdrawalRequest{ID: id, Status: models.WithdrawalStatusCompleted}
	repo.On("Decide", ctx, id, true, (*string)(nil)).Return(decided, nil)

	w, err := svc.Decide(ctx, id, true, nil)
	assert.NoError(t, err)
	assert.Equal(t, models.WithdrawalStatusCompleted, w.Status)
}

func TestWithdrawalService_GetWithdrawal_Access(t *testing.T) {
	repo := new(mockWithdrawalRepo)
	svc := newWithdrawalService(repo, new(mockWalletRepo))
	ctx := context.Background()

	owner := uuid.New()
	w := &models.WithdrawalRequest{ID: uuid.New(), FreelancerID: owner}
	repo.On("GetByID", ctx, w.ID).Return(w, nil)

	_, err := svc.GetWithdrawal(ctx, w.ID, uuid.New(), models.RoleFreelancer)
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	got, err := svc.GetWithdrawal(ctx, w.ID, owner, models.RoleFreelancer)
	assert.NoError(t, err)
	assert.Equal(t, w, got)

	asAdmin, err := svc.GetWithdrawal(ctx, w.ID, uuid.New(), models.RoleAdmin)
	assert.NoError(t, err)
	assert.Equal(t, w, asAdmin)
}

func TestWithdrawalService_AddPayoutMethod(t *testing.T) {
	repo := new(mockWithdrawalRepo)
	svc := newWithdrawalService(repo, new(mockWalletRepo))
	ctx := context.Background()
	freelancerID := uuid.New()

	repo.On("CreatePayoutMethod", ctx, mock.AnythingOfType("*models.PayoutMethod")).Return(nil)

	m, err := svc.AddPayoutMethod(ctx, freelancerID, PayoutMethodInput{
		Kind:  models.PayoutMethodUPI,
		UpiID: "ramesh.kumar@okaxis",
	})
	assert.NoError(t, err)
	assert.Equal(t, models.PayoutMethodUPI, m.Kind)
	assert.Equal(t, "ramesh.kumar@okaxis", *m.UpiID)

	_, err = svc.AddPayoutMethod(ctx, freelancerID, PayoutMethodInput{
		Kind:  models.PayoutMethodUPI,
		UpiID: "not-a-upi",
	})
	assert.Error(t, err)

	_, err = svc.AddPayoutMethod(ctx, freelancerID, PayoutMethodInput{
		Kind:          models.PayoutMethodBank,
		AccountHolder: "Ramesh Kumar",
		AccountNumber: "123456789012",
		// Confirmation missing on purpose.
		IFSC: "HDFC0001234",
	})
	assert.Error(t, err)

	_, err = svc.AddPayoutMethod(ctx, freelancerID, PayoutMethodInput{Kind: "cash"})
	assert.Error(t, err)
}
