package model

import (
	"errors"
	"fmt"
)

// =====================================================
// PREDEFINED ERRORS
// =====================================================

var (
	ErrIntentNotFound = errors.New("checkout intent not found or expired")
	ErrIntentConsumed = errors.New("checkout intent already processed")
	ErrEmptyItems     = errors.New("checkout has no items")
	ErrInvalidAddress = errors.New("invalid delivery address")
)

// =====================================================
// INTERNAL ERROR CODES
// =====================================================
const (
	ErrCodeIntentNotFound       = "CHK001"
	ErrCodeIntentConsumed       = "CHK002"
	ErrCodeEmptyItems           = "CHK003"
	ErrCodeInvalidOffer         = "CHK004"
	ErrCodeOfferExpired         = "CHK005"
	ErrCodeOfferUsageLimit      = "CHK006"
	ErrCodeOfferMinAmount       = "CHK007"
	ErrCodeInvalidAddress       = "CHK008"
	ErrCodeInvalidPaymentMethod = "CHK009"
	ErrCodeInternalError        = "CHK010"
)

// =====================================================
// CUSTOM CHECKOUT ERROR
// =====================================================

type CheckoutError struct {
	Code    string
	Message string
	Err     error
}

func (e *CheckoutError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *CheckoutError) Unwrap() error {
	return e.Err
}

// NewCheckoutError creates a new checkout error
func NewCheckoutError(code, message string, err error) *CheckoutError {
	return &CheckoutError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}
