package model

import "errors"

var (
	ErrOfferNotFound      = errors.New("offer not found")
	ErrOfferInactive      = errors.New("offer is not active")
	ErrOfferNotStarted    = errors.New("offer is not active yet")
	ErrOfferExpired       = errors.New("offer has expired")
	ErrOfferUsageExceeded = errors.New("offer usage limit reached")
	ErrOfferMinAmount     = errors.New("order amount is below the offer minimum")
)
