package model

import (
	"errors"
	"fmt"
)

var (
	ErrAddressNotFound = errors.New("address not found")
	ErrAddressNotOwned = errors.New("address does not belong to user")
)

const (
	ErrCodeAddressNotFound = "ADR001"
	ErrCodeAddressNotOwned = "ADR002"
	ErrCodeInvalidAddress  = "ADR003"
	ErrCodeInternalError   = "ADR004"
)

type AddressError struct {
	Code    string
	Message string
	Err     error
}

func (e *AddressError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AddressError) Unwrap() error {
	return e.Err
}

// NewAddressError creates a new address error
func NewAddressError(code, message string, err error) *AddressError {
	return &AddressError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}
