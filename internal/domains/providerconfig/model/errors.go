package model

import "errors"

var (
	ErrConfigNotFound    = errors.New("provider config not found")
	ErrNoProviderEnabled = errors.New("no payment provider enabled")
)
