package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Reservation statuses
const (
	ReservationStatusHeld      = "held"
	ReservationStatusSettled   = "settled"
	ReservationStatusCancelled = "cancelled"
)

// Wallet is the per-freelancer money position. Escrow holds earnings that
// are credited but not yet released; available is what withdrawals can
// draw on. Both are non-negative by construction.
type Wallet struct {
	FreelancerID      uuid.UUID       `db:"freelancer_id" json:"freelancer_id"`
	EscrowBalance     decimal.Decimal `db:"escrow_balance" json:"escrow_balance"`
	AvailableBalance  decimal.Decimal `db:"available_balance" json:"available_balance"`
	LifetimeEarned    decimal.Decimal `db:"lifetime_earned" json:"lifetime_earned"`
	LifetimeWithdrawn decimal.Decimal `db:"lifetime_withdrawn" json:"lifetime_withdrawn"`
	UpdatedAt         time.Time       `db:"updated_at" json:"updated_at"`
}

// WalletCredit is one booking's earning sitting in (or released from)
// escrow. The unique booking id makes both the credit and the later
// release idempotent.
type WalletCredit struct {
	ID           uuid.UUID       `db:"id" json:"id"`
	FreelancerID uuid.UUID       `db:"freelancer_id" json:"freelancer_id"`
	BookingID    uuid.UUID       `db:"booking_id" json:"booking_id"`
	Amount       decimal.Decimal `db:"amount" json:"amount"`
	ReleasedAt   *time.Time      `db:"released_at" json:"released_at,omitempty"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
}

// WalletReservation is a temporary hold on available balance while a
// withdrawal request awaits the admin decision. The hold decrements
// available immediately; settle makes it permanent, cancel restores it.
type WalletReservation struct {
	ID           uuid.UUID       `db:"id" json:"id"`
	FreelancerID uuid.UUID       `db:"freelancer_id" json:"freelancer_id"`
	Amount       decimal.Decimal `db:"amount" json:"amount"`
	Status       string          `db:"status" json:"status"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	ResolvedAt   *time.Time      `db:"resolved_at" json:"resolved_at,omitempty"`
}
