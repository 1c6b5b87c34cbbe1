package models

import "errors"

// Domain errors surfaced by the wallet and withdrawal paths.
var (
	// ErrInsufficientFunds means a debit would take the wallet balance
	// below zero. No mutation has happened when this is returned.
	ErrInsufficientFunds = errors.New("insufficient wallet balance")

	// ErrBelowMinimum means a withdrawal request is under the configured
	// minimum amount.
	ErrBelowMinimum = errors.New("amount below withdrawal minimum")

	// ErrInvalidState means an approve/reject was attempted on a
	// withdrawal that is no longer PENDING.
	ErrInvalidState = errors.New("withdrawal is not pending")
)
