package model

import "errors"

// =====================================================
// CUSTOM ERROR CODES
// =====================================================
const (
	ErrCodeOrderNotFound          = "ORD001"
	ErrCodeOrderCannotCancel      = "ORD002"
	ErrCodeVersionMismatch        = "ORD003"
	ErrCodeCartEmpty              = "ORD004"
	ErrCodeOfferInvalid           = "ORD005"
	ErrCodeOfferExpired           = "ORD006"
	ErrCodeOfferUsageLimitReached = "ORD007"
	ErrCodeOfferMinAmount         = "ORD008"
	ErrCodeInvalidAddress         = "ORD009"
	ErrCodeInvalidPaymentMethod   = "ORD010"
	ErrCodeUnauthorized           = "ORD011"
	ErrCodeInvalidStatus          = "ORD012"
	ErrCodeIntentInvalid          = "ORD013"
	ErrCodeIntentAlreadyProcessed = "ORD014"
	ErrCodeInvalidOrder           = "ORD015"
)

// =====================================================
// ERROR DEFINITIONS
// =====================================================
var (
	ErrOrderNotFound          = errors.New("order not found")
	ErrOrderCannotCancel      = errors.New("order cannot be cancelled")
	ErrVersionMismatch        = errors.New("version mismatch - concurrent modification detected")
	ErrCartEmpty              = errors.New("cart is empty")
	ErrOfferInvalid           = errors.New("invalid offer code")
	ErrOfferExpired           = errors.New("offer code expired")
	ErrOfferUsageLimitReached = errors.New("offer usage limit reached")
	ErrOfferMinAmount         = errors.New("order amount below offer minimum")
	ErrInvalidAddress         = errors.New("invalid address")
	ErrInvalidPaymentMethod   = errors.New("invalid payment method")
	ErrUnauthorized           = errors.New("unauthorized access")
	ErrInvalidStatus          = errors.New("invalid order status")
	ErrIntentInvalid          = errors.New("checkout intent invalid or expired")
	ErrIntentAlreadyProcessed = errors.New("checkout intent already processed")
)

// =====================================================
// CUSTOM ERROR TYPE
// =====================================================
type OrderError struct {
	Code    string
	Message string
	Err     error
}

func (e *OrderError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *OrderError) Unwrap() error {
	return e.Err
}

// NewOrderError creates a new OrderError
func NewOrderError(code, message string, err error) *OrderError {
	return &OrderError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}
