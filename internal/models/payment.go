package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Payment event kinds
const (
	PaymentKindAdvance   = "advance"
	PaymentKindFull      = "full"
	PaymentKindRemaining = "remaining"
	PaymentKindRefund    = "refund"
)

// Payment event statuses
const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
	PaymentStatusRefunded  = "refunded"
)

var ValidPaymentKinds = map[string]struct{}{
	PaymentKindAdvance:   {},
	PaymentKindFull:      {},
	PaymentKindRemaining: {},
	PaymentKindRefund:    {},
}

var ValidPaymentStatuses = map[string]struct{}{
	PaymentStatusPending:   {},
	PaymentStatusCompleted: {},
	PaymentStatusFailed:    {},
	PaymentStatusRefunded:  {},
}

// PaymentEvent records one gateway-confirmed charge or refund against a
// booking. TransactionID is the gateway's globally unique id and the
// deduplication key; a completed event is immutable except for an explicit
// compensating refund.
type PaymentEvent struct {
	ID            uuid.UUID       `db:"id" json:"id"`
	BookingID     uuid.UUID       `db:"booking_id" json:"booking_id"`
	TransactionID string          `db:"transaction_id" json:"transaction_id"`
	Amount        decimal.Decimal `db:"amount" json:"amount"`
	Kind          string          `db:"kind" json:"kind"`
	Status        string          `db:"status" json:"status"`
	PlatformFee   decimal.Decimal `db:"platform_fee" json:"platform_fee"`
	Method        string          `db:"method" json:"method"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
}

// Ingestion outcomes of the payment ledger.
const (
	IngestAccepted  = "accepted"
	IngestDuplicate = "duplicate"
	IngestRejected  = "rejected"
)

// IngestResult is what the ledger reports back to the webhook caller.
type IngestResult struct {
	Status  string        `json:"status"`
	Reason  string        `json:"reason,omitempty"`
	Event   *PaymentEvent `json:"event,omitempty"`
	Booking *Booking      `json:"-"`
}
