package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gigsetu/gigsetu-backend/internal/logger"
	"github.com/gigsetu/gigsetu-backend/internal/models"
	"github.com/gigsetu/gigsetu-backend/internal/pkg/apperror"
	"github.com/gigsetu/gigsetu-backend/internal/pricing"
	"github.com/gigsetu/gigsetu-backend/internal/validation"
)

type WithdrawalRepository interface {
	Create(ctx context.Context, w *models.WithdrawalRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.WithdrawalRequest, error)
	Decide(ctx context.Context, id uuid.UUID, approve bool, reason *string) (*models.WithdrawalRequest, error)
	ListByFreelancer(ctx context.Context, freelancerID uuid.UUID, limit, offset int) ([]models.WithdrawalRequest, error)
	ListPending(ctx context.Context, limit, offset int) ([]models.WithdrawalRequest, error)
	CreatePayoutMethod(ctx context.Context, m *models.PayoutMethod) error
	GetPayoutMethod(ctx context.Context, freelancerID uuid.UUID) (*models.PayoutMethod, error)
}

// WithdrawalService runs the payout workflow: a freelancer asks for
// money out of available balance, the funds go on hold immediately, and
// an admin later settles or releases the hold.
type WithdrawalService struct {
	repo          WithdrawalRepository
	wallets       WalletRepository
	pricer        *pricing.Engine
	minWithdrawal decimal.Decimal
	hub           Notifier
}

func NewWithdrawalService(repo WithdrawalRepository, wallets WalletRepository, pricer *pricing.Engine, minWithdrawal decimal.Decimal) *WithdrawalService {
	return &WithdrawalService{repo: repo, wallets: wallets, pricer: pricer, minWithdrawal: minWithdrawal}
}

func (s *WithdrawalService) SetHub(hub Notifier) {
	s.hub = hub
}

// RequestWithdrawal places a hold on the requested amount and files a
// pending request for admin review. The platform commission is deducted
// from what the freelancer receives, not added on top.
func (s *WithdrawalService) RequestWithdrawal(ctx context.Context, freelancerID uuid.UUID, amount decimal.Decimal) (*models.WithdrawalRequest, error) {
	if amount.LessThan(s.minWithdrawal) {
		return nil, apperror.ErrMinWithdrawalAmount
	}

	method, err := s.repo.GetPayoutMethod(ctx, freelancerID)
	if err != nil {
		return nil, err
	}
	if method == nil {
		return nil, apperror.ErrPayoutMethodMissing
	}

	res, err := s.wallets.Reserve(ctx, freelancerID, amount)
	if err != nil {
		return nil, err
	}

	commission := s.pricer.Commission(amount)
	w := &models.WithdrawalRequest{
		FreelancerID:     freelancerID,
		ReservationID:    res.ID,
		Amount:           amount,
		Commission:       commission,
		FreelancerAmount: amount.Sub(commission),
		Method:           method.Kind,
		Status:           models.WithdrawalStatusPending,
	}

	if err := s.repo.Create(ctx, w); err != nil {
		// Release the hold so the failed request does not strand funds.
		if _, cancelErr := s.wallets.CancelReservation(ctx, res.ID); cancelErr != nil {
			logger.Log.WithError(cancelErr).WithField("reservation_id", res.ID).
				Error("failed to release reservation after create error")
		}
		return nil, err
	}

	return w, nil
}

// GetWithdrawal returns one request, restricted to its owner or an admin.
func (s *WithdrawalService) GetWithdrawal(ctx context.Context, id, callerID uuid.UUID, callerRole string) (*models.WithdrawalRequest, error) {
	w, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if callerRole != models.RoleAdmin && w.FreelancerID != callerID {
		return nil, apperror.ErrForbidden
	}
	return w, nil
}

// Decide applies the admin verdict and notifies the freelancer.
func (s *WithdrawalService) Decide(ctx context.Context, id uuid.UUID, approve bool, reason *string) (*models.WithdrawalRequest, error) {
	if !approve && (reason == nil || *reason == "") {
		return nil, apperror.New(apperror.ErrCodeValidation, "rejection requires a reason")
	}

	w, err := s.repo.Decide(ctx, id, approve, reason)
	if err != nil {
		return nil, err
	}

	event := "withdrawal.completed"
	if !approve {
		event = "withdrawal.rejected"
	}
	if s.hub != nil {
		_ = s.hub.BroadcastToUser(w.FreelancerID, event, w)
	}
	return w, nil
}

func (s *WithdrawalService) ListForFreelancer(ctx context.Context, freelancerID uuid.UUID, limit, offset int) ([]models.WithdrawalRequest, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.repo.ListByFreelancer(ctx, freelancerID, limit, offset)
}

func (s *WithdrawalService) ListPending(ctx context.Context, limit, offset int) ([]models.WithdrawalRequest, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.repo.ListPending(ctx, limit, offset)
}

type PayoutMethodInput struct {
	Kind                 string
	AccountHolder        string
	AccountNumber        string
	ConfirmAccountNumber string
	IFSC                 string
	UpiID                string
}

// AddPayoutMethod registers the freelancer's payout destination after
// structural validation. One method per freelancer.
func (s *WithdrawalService) AddPayoutMethod(ctx context.Context, freelancerID uuid.UUID, in PayoutMethodInput) (*models.PayoutMethod, error) {
	m := &models.PayoutMethod{FreelancerID: freelancerID, Kind: in.Kind}

	switch in.Kind {
	case models.PayoutMethodBank:
		if err := validation.ValidateBankAccount(in.AccountHolder, in.AccountNumber, in.ConfirmAccountNumber, in.IFSC); err != nil {
			return nil, err
		}
		m.AccountHolder = &in.AccountHolder
		m.AccountNumber = &in.AccountNumber
		m.IFSC = &in.IFSC
	case models.PayoutMethodUPI:
		if err := validation.ValidateUPI(in.UpiID); err != nil {
			return nil, err
		}
		m.UpiID = &in.UpiID
	default:
		return nil, apperror.New(apperror.ErrCodeValidation, "unknown payout method kind")
	}

	if err := s.repo.CreatePayoutMethod(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *WithdrawalService) GetPayoutMethod(ctx context.Context, freelancerID uuid.UUID) (*models.PayoutMethod, error) {
	return s.repo.GetPayoutMethod(ctx, freelancerID)
}
