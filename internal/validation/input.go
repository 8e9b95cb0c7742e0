package validation

import (
	"regexp"
	"strings"

	"github.com/gigsetu/gigsetu-backend/internal/pkg/apperror"
)

var (
	upiRe           = regexp.MustCompile(`^[\w.\-]{2,}@\w{2,}$`)
	ifscRe          = regexp.MustCompile(`^[A-Z]{4}0[A-Z0-9]{6}$`)
	accountNumberRe = regexp.MustCompile(`^\d{9,18}$`)
)

// ValidateUPI checks the structural shape of a UPI handle (user@psp).
func ValidateUPI(upiID string) error {
	if !upiRe.MatchString(upiID) {
		return apperror.New(apperror.ErrCodeValidation, "invalid UPI id")
	}
	return nil
}

// ValidateBankAccount checks the bank payout fields. The account number
// must be typed twice and match, the standard fat-finger guard.
func ValidateBankAccount(holder, number, confirmNumber, ifsc string) error {
	if strings.TrimSpace(holder) == "" {
		return apperror.New(apperror.ErrCodeValidation, "account holder name is required")
	}
	if !accountNumberRe.MatchString(number) {
		return apperror.New(apperror.ErrCodeValidation, "account number must be 9 to 18 digits")
	}
	if number != confirmNumber {
		return apperror.New(apperror.ErrCodeValidation, "account numbers do not match")
	}
	if !ifscRe.MatchString(ifsc) {
		return apperror.New(apperror.ErrCodeValidation, "invalid IFSC code")
	}
	return nil
}
