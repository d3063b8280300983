package model

import (
	"errors"
	"fmt"
)

// =====================================================
// PREDEFINED ERRORS
// =====================================================

var (
	ErrTransactionNotFound = errors.New("payment transaction not found")
	ErrOrderNotFound       = errors.New("order not found")
	ErrUnauthorized        = errors.New("unauthorized access")
	ErrOrderAlreadyPaid    = errors.New("order already paid")
	ErrInvalidProvider     = errors.New("invalid payment provider")
	ErrNoProviderEnabled   = errors.New("no payment provider enabled")
	ErrRetryNotAllowed     = errors.New("payment retry not allowed")
	ErrInvalidTransition   = errors.New("invalid transaction status transition")
	ErrProviderMismatch    = errors.New("provider does not match transaction")
	ErrReturnParamsInvalid = errors.New("invalid provider return parameters")
	ErrRetryLimitExceeded  = errors.New("payment attempt limit exceeded")
	ErrGatewayUnavailable  = errors.New("payment gateway unavailable")
	ErrRefundNotFound      = errors.New("payment refund not found")
)

// =====================================================
// CUSTOM PAYMENT ERROR
// =====================================================

type PaymentError struct {
	Code    string
	Message string
	Err     error
}

func (e *PaymentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *PaymentError) Unwrap() error {
	return e.Err
}

// NewPaymentError creates a new payment error
func NewPaymentError(code, message string, err error) *PaymentError {
	return &PaymentError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// =====================================================
// ERROR CONSTRUCTORS
// =====================================================

func NewTransactionNotFoundError(ref string) *PaymentError {
	return NewPaymentError(
		ErrCodeTransactionNotFound,
		fmt.Sprintf("Payment transaction not found: %s", ref),
		ErrTransactionNotFound,
	)
}

func NewOrderNotFoundError(orderID string) *PaymentError {
	return NewPaymentError(
		ErrCodeOrderNotFound,
		fmt.Sprintf("Order not found: %s", orderID),
		ErrOrderNotFound,
	)
}

func NewUnauthorizedError() *PaymentError {
	return NewPaymentError(
		ErrCodeUnauthorized,
		"You do not have access to this order",
		ErrUnauthorized,
	)
}

func NewOrderAlreadyPaidError(orderID string) *PaymentError {
	return NewPaymentError(
		ErrCodeOrderAlreadyPaid,
		fmt.Sprintf("Order %s is already paid", orderID),
		ErrOrderAlreadyPaid,
	)
}

func NewInvalidProviderError(provider string) *PaymentError {
	return NewPaymentError(
		ErrCodeInvalidProvider,
		fmt.Sprintf("Invalid payment provider: %s", provider),
		ErrInvalidProvider,
	)
}

func NewNoProviderEnabledError(env, tenant string) *PaymentError {
	return NewPaymentError(
		ErrCodeNoProviderEnabled,
		fmt.Sprintf("No UPI provider enabled for env=%s tenant=%s", env, tenant),
		ErrNoProviderEnabled,
	)
}

func NewRetryNotAllowedError(reason string) *PaymentError {
	return NewPaymentError(
		ErrCodeRetryNotAllowed,
		fmt.Sprintf("Payment retry not allowed: %s", reason),
		ErrRetryNotAllowed,
	)
}

func NewInvalidTransitionError(from, to string) *PaymentError {
	return NewPaymentError(
		ErrCodeInvalidTransition,
		fmt.Sprintf("Cannot transition transaction from %s to %s", from, to),
		ErrInvalidTransition,
	)
}

func NewProviderMismatchError(expected, got string) *PaymentError {
	return NewPaymentError(
		ErrCodeProviderMismatch,
		fmt.Sprintf("Transaction belongs to provider %s, not %s", expected, got),
		ErrProviderMismatch,
	)
}

func NewReturnParamsInvalidError(detail string) *PaymentError {
	return NewPaymentError(
		ErrCodeReturnParamsInvalid,
		fmt.Sprintf("Invalid return parameters: %s", detail),
		ErrReturnParamsInvalid,
	)
}

func NewRetryLimitExceededError() *PaymentError {
	return NewPaymentError(
		ErrCodeRetryLimitExceeded,
		fmt.Sprintf("Payment attempt limit exceeded (max %d attempts)", MaxPaymentAttempts),
		ErrRetryLimitExceeded,
	)
}

func NewGatewayUnavailableError(provider string, err error) *PaymentError {
	return NewPaymentError(
		ErrCodeGatewayUnavailable,
		fmt.Sprintf("Payment gateway %s unavailable", provider),
		err,
	)
}
