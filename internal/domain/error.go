package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrAlreadyExists      = errors.New("entity already exists")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrInsufficientCredit = errors.New("insufficient credits")
	ErrOperationFailed    = errors.New("operation failed")
	ErrInvalidExecContext = errors.New("invalid executor context")

	// Promotion redemption errors, one per validation rule.
	ErrPromoAlreadyRedeemed = errors.New("a promo code was already redeemed on this account")
	ErrPromoNotFound        = errors.New("promo code not found")
	ErrPromoInactive        = errors.New("promo code is not active")
	ErrPromoExpired         = errors.New("promo code has expired")
	ErrPromoExhausted       = errors.New("promo code usage limit reached")
)
