package service

import (
	"errors"
	"fmt"
)

var (
	ErrValidation   = errors.New("validation")           // 400
	ErrNotFound     = errors.New("not found")            // 404
	ErrInvalidState = errors.New("invalid state")        // 409
	ErrConflict     = errors.New("conflict")             // 409
	ErrUpstream     = errors.New("upstream unavailable") // 502
)

// Checkout-specific refinements. They wrap ErrValidation so the generic
// HTTP mapping keeps working while callers can still tell them apart.
var (
	ErrInsufficientStock  = fmt.Errorf("%w: insufficient stock", ErrValidation)
	ErrProductUnavailable = fmt.Errorf("%w: product unavailable", ErrValidation)
)
