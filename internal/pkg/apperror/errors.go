package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	ErrCodeNotFound      ErrorCode = "NOT_FOUND"
	ErrCodeUnauthorized  ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden     ErrorCode = "FORBIDDEN"
	ErrCodeBadRequest    ErrorCode = "BAD_REQUEST"
	ErrCodeConflict      ErrorCode = "CONFLICT"
	ErrCodeInternal      ErrorCode = "INTERNAL_ERROR"
	ErrCodeValidation    ErrorCode = "VALIDATION_ERROR"
	ErrCodeDatabaseError ErrorCode = "DATABASE_ERROR"
)

type AppError struct {
	Code       ErrorCode
	Message    string
	HTTPStatus int
	Cause      error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Cause:      err,
	}
}

func codeToHTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeForbidden:
		return http.StatusForbidden
	case ErrCodeBadRequest, ErrCodeValidation:
		return http.StatusBadRequest
	case ErrCodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func IsNotFound(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == ErrCodeNotFound
}

func IsConflict(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == ErrCodeConflict
}

func IsValidation(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == ErrCodeValidation
}

// TransitionError reports a booking status change attempted from a state
// that does not permit it.
type TransitionError struct {
	From string
	To   string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid booking transition from %q to %q", e.From, e.To)
}

// NewInvalidTransition wraps a TransitionError into the common AppError shape.
func NewInvalidTransition(from, to string) *AppError {
	return &AppError{
		Code:       ErrCodeConflict,
		Message:    fmt.Sprintf("booking cannot move from %s to %s", from, to),
		HTTPStatus: http.StatusConflict,
		Cause:      &TransitionError{From: from, To: to},
	}
}

// IsInvalidTransition reports whether err carries a TransitionError.
func IsInvalidTransition(err error) bool {
	var te *TransitionError
	return errors.As(err, &te)
}

// Domain errors of the booking and payout lifecycle. All of them are
// returned to the caller unchanged and none leaves partial state behind.
var (
	ErrBookingNotFound    = New(ErrCodeNotFound, "booking not found")
	ErrWithdrawalNotFound = New(ErrCodeNotFound, "withdrawal request not found")
	ErrUnauthorized       = New(ErrCodeUnauthorized, "authorization required")
	ErrForbidden          = New(ErrCodeForbidden, "insufficient permissions")

	ErrInvalidPrice        = New(ErrCodeValidation, "base price must be positive")
	ErrInvalidOtp          = New(ErrCodeValidation, "invalid code, try again")
	ErrOtpOutOfOrder       = New(ErrCodeConflict, "start code must be confirmed before completion")
	ErrStartNotYetAllowed  = New(ErrCodeConflict, "service cannot be started before the booked date")
	ErrOverpayment         = New(ErrCodeConflict, "payment exceeds the booking total")
	ErrAlreadyRated        = New(ErrCodeConflict, "booking already has a rating")
	ErrNotCompleted        = New(ErrCodeConflict, "booking is not completed yet")
	ErrMinWithdrawalAmount = New(ErrCodeValidation, "minimum withdrawal amount is 100 INR")
	ErrInsufficientBalance = New(ErrCodeValidation, "insufficient available balance")
	ErrPayoutMethodMissing = New(ErrCodeConflict, "payout method must be added before withdrawing")
	ErrPayoutMethodExists  = New(ErrCodeConflict, "payout method already added")
)
