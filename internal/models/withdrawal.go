package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	WithdrawalStatusPending   = "pending"
	WithdrawalStatusCompleted = "completed"
	WithdrawalStatusRejected  = "rejected"
)

// Payout method kinds. A freelancer registers exactly one method (bank or
// UPI) before any withdrawal is permitted.
const (
	PayoutMethodBank = "bank"
	PayoutMethodUPI  = "upi"
)

// WithdrawalRequest is a freelancer payout request against available
// balance. FreelancerAmount is Amount minus the platform commission; the
// reservation backs the amount until an admin decides.
type WithdrawalRequest struct {
	ID               uuid.UUID       `db:"id" json:"id"`
	FreelancerID     uuid.UUID       `db:"freelancer_id" json:"freelancer_id"`
	ReservationID    uuid.UUID       `db:"reservation_id" json:"reservation_id"`
	Amount           decimal.Decimal `db:"amount" json:"amount"`
	Commission       decimal.Decimal `db:"commission" json:"commission"`
	FreelancerAmount decimal.Decimal `db:"freelancer_amount" json:"freelancer_amount"`
	Method           string          `db:"method" json:"method"`
	Status           string          `db:"status" json:"status"`
	RejectionReason  *string         `db:"rejection_reason" json:"rejection_reason,omitempty"`
	CreatedAt        time.Time       `db:"created_at" json:"created_at"`
	ProcessedAt      *time.Time      `db:"processed_at" json:"processed_at,omitempty"`
}

// PayoutMethod holds where a freelancer's money goes. Bank fields and the
// UPI id are mutually exclusive depending on Kind.
type PayoutMethod struct {
	FreelancerID  uuid.UUID `db:"freelancer_id" json:"freelancer_id"`
	Kind          string    `db:"kind" json:"kind"`
	AccountHolder *string   `db:"account_holder" json:"account_holder,omitempty"`
	AccountNumber *string   `db:"account_number" json:"account_number,omitempty"`
	IFSC          *string   `db:"ifsc" json:"ifsc,omitempty"`
	UpiID         *string   `db:"upi_id" json:"upi_id,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}
