package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gigsetu/gigsetu-backend/internal/models"
)

type WalletRepository interface {
	Get(ctx context.Context, freelancerID uuid.UUID) (*models.Wallet, error)
	Reserve(ctx context.Context, freelancerID uuid.UUID, amount decimal.Decimal) (*models.WalletReservation, error)
	CancelReservation(ctx context.Context, reservationID uuid.UUID) (*models.WalletReservation, error)
	ListCredits(ctx context.Context, freelancerID uuid.UUID, limit, offset int) ([]models.WalletCredit, error)
}

// WalletService is the read surface over freelancer balances. Mutations
// flow through the booking lifecycle and the withdrawal workflow, never
// through here.
type WalletService struct {
	repo WalletRepository
}

func NewWalletService(repo WalletRepository) *WalletService {
	return &WalletService{repo: repo}
}

func (s *WalletService) GetWallet(ctx context.Context, freelancerID uuid.UUID) (*models.Wallet, error) {
	return s.repo.Get(ctx, freelancerID)
}

func (s *WalletService) ListCredits(ctx context.Context, freelancerID uuid.UUID, limit, offset int) ([]models.WalletCredit, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.repo.ListCredits(ctx, freelancerID, limit, offset)
}
