package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Booking statuses. Transitions are monotonic; the only backward-looking
// move is into cancelled, and only before work starts.
const (
	BookingStatusPending    = "pending"
	BookingStatusConfirmed  = "confirmed"
	BookingStatusInProgress = "in_progress"
	BookingStatusCompleted  = "completed"
	BookingStatusCancelled  = "cancelled"
)

// Payment types an employer can choose at creation time.
const (
	PaymentTypeAdvance        = "advance"
	PaymentTypeFull           = "full"
	PaymentTypeRemaining      = "remaining"
	PaymentTypeCashOnDelivery = "cash_on_delivery"
)

// What a booking was created from: a job bid acceptance or a direct
// service purchase. Fixed at creation, never changes.
const (
	BookingSourceJob     = "job"
	BookingSourceService = "service"
)

var ValidPaymentTypes = map[string]struct{}{
	PaymentTypeAdvance:        {},
	PaymentTypeFull:           {},
	PaymentTypeCashOnDelivery: {},
}

var ValidBookingSources = map[string]struct{}{
	BookingSourceJob:     {},
	BookingSourceService: {},
}

// bookingTransitions is the full transition table of the lifecycle.
var bookingTransitions = map[string]map[string]struct{}{
	BookingStatusPending: {
		BookingStatusConfirmed: {},
		BookingStatusCancelled: {},
	},
	BookingStatusConfirmed: {
		BookingStatusInProgress: {},
		BookingStatusCancelled:  {},
	},
	BookingStatusInProgress: {
		BookingStatusCompleted: {},
	},
	BookingStatusCompleted: {},
	BookingStatusCancelled: {},
}

// CanTransition reports whether a booking may move from one status to
// another.
func CanTransition(from, to string) bool {
	next, ok := bookingTransitions[from]
	if !ok {
		return false
	}
	_, ok = next[to]
	return ok
}

// Booking is the single source of truth for one engagement between an
// employer and a freelancer. It is mutated only through BookingRepository
// transition methods and is never physically deleted.
type Booking struct {
	ID           uuid.UUID `db:"id" json:"id"`
	EmployerID   uuid.UUID `db:"employer_id" json:"employer_id"`
	FreelancerID uuid.UUID `db:"freelancer_id" json:"freelancer_id"`
	SourceType   string    `db:"source_type" json:"source_type"`
	SourceID     uuid.UUID `db:"source_id" json:"source_id"`

	BasePrice          decimal.Decimal `db:"base_price" json:"base_price"`
	PlatformCommission decimal.Decimal `db:"platform_commission" json:"platform_commission"`
	Tax                decimal.Decimal `db:"tax" json:"tax"`
	TotalPrice         decimal.Decimal `db:"total_price" json:"total_price"`
	PaymentType        string          `db:"payment_type" json:"payment_type"`
	AdvanceAmount      decimal.Decimal `db:"advance_amount" json:"advance_amount"`
	RemainingAmount    decimal.Decimal `db:"remaining_amount" json:"remaining_amount"`

	Status      string    `db:"status" json:"status"`
	BookingDate time.Time `db:"booking_date" json:"booking_date"`

	// Single-use codes attesting physical start and end of the service.
	// Never serialized with the booking; exposed only through Snapshot.
	StartOtp            string     `db:"start_otp" json:"-"`
	CompletionOtp       string     `db:"completion_otp" json:"-"`
	StartOtpUsedAt      *time.Time `db:"start_otp_used_at" json:"start_otp_used_at,omitempty"`
	CompletionOtpUsedAt *time.Time `db:"completion_otp_used_at" json:"completion_otp_used_at,omitempty"`

	Rating       *int       `db:"rating" json:"rating,omitempty"`
	Review       *string    `db:"review" json:"review,omitempty"`
	RatedAt      *time.Time `db:"rated_at" json:"rated_at,omitempty"`
	CancelReason *string    `db:"cancel_reason" json:"cancel_reason,omitempty"`

	// Set exactly once when the freelancer earning lands in escrow.
	EscrowCreditedAt *time.Time `db:"escrow_credited_at" json:"escrow_credited_at,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// BookingSnapshot is the view returned to clients. OTP codes are included
// only for the employer, who hands them to the freelancer in person.
type BookingSnapshot struct {
	*Booking
	StartOtp      string `json:"start_otp,omitempty"`
	CompletionOtp string `json:"completion_otp,omitempty"`
}

// Snapshot renders the booking for the given viewer.
func (b *Booking) Snapshot(viewerID uuid.UUID) *BookingSnapshot {
	s := &BookingSnapshot{Booking: b}
	if viewerID == b.EmployerID {
		s.StartOtp = b.StartOtp
		s.CompletionOtp = b.CompletionOtp
	}
	return s
}

// FreelancerEarning is what lands in escrow when the booking completes:
// the collected total minus the platform's cut.
func (b *Booking) FreelancerEarning(priorFees decimal.Decimal) decimal.Decimal {
	return b.TotalPrice.Sub(b.PlatformCommission).Sub(priorFees)
}

// AllowedStartDate is the first calendar day the start code may be
// redeemed: the booked service date itself.
func AllowedStartDate(bookingDate time.Time) time.Time {
	return time.Date(bookingDate.Year(), bookingDate.Month(), bookingDate.Day(), 0, 0, 0, 0, bookingDate.Location())
}
