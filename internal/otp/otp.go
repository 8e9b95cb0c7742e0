package otp

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"time"

	"github.com/gigsetu/gigsetu-backend/internal/models"
	"github.com/gigsetu/gigsetu-backend/internal/pkg/apperror"
)

// Code kinds. A booking carries one code of each kind, issued together at
// creation and redeemed in order.
const (
	KindStart    = "start"
	KindComplete = "complete"
)

// Generate returns a 4-digit single-use code drawn from crypto/rand.
// Leading zeros are kept, so the space is the full 0000-9999.
func Generate() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		return "", fmt.Errorf("otp: crypto rand failed: %w", err)
	}
	return fmt.Sprintf("%04d", n.Int64()), nil
}

// Validate checks a supplied code against the booking without mutating it.
// Consumption (stamping the used-at marker) happens inside the booking
// transition transaction, so validation and consumption see the same row.
//
// Rules: the start code is redeemable only on or after the booked service
// date; the completion code only after the start code was consumed; every
// code matches at most once. actingAs must name one of the two parties to
// the exchange.
func Validate(b *models.Booking, kind, supplied string, now time.Time, actingAs string) error {
	if actingAs != models.RoleEmployer && actingAs != models.RoleFreelancer {
		return apperror.ErrForbidden
	}

	switch kind {
	case KindStart:
		if b.StartOtpUsedAt != nil {
			return apperror.ErrInvalidOtp
		}
		if now.Before(models.AllowedStartDate(b.BookingDate)) {
			return apperror.ErrStartNotYetAllowed
		}
		if !match(b.StartOtp, supplied) {
			return apperror.ErrInvalidOtp
		}
	case KindComplete:
		if b.StartOtpUsedAt == nil {
			return apperror.ErrOtpOutOfOrder
		}
		if b.CompletionOtpUsedAt != nil {
			return apperror.ErrInvalidOtp
		}
		if !match(b.CompletionOtp, supplied) {
			return apperror.ErrInvalidOtp
		}
	default:
		return apperror.New(apperror.ErrCodeBadRequest, fmt.Sprintf("unknown otp kind %q", kind))
	}

	return nil
}

func match(issued, supplied string) bool {
	if issued == "" || len(issued) != len(supplied) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(issued), []byte(supplied)) == 1
}
