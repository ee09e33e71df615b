package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"resume-ai-backend/internal/domain"
)

// Payment is an append-only receipt for one reconciled checkout. Rows are
// never updated after creation; CheckoutRef is unique so a replayed
// notification cannot produce a second receipt.
type Payment struct {
	ID           string
	Email        string
	Amount       decimal.Decimal
	Currency     string
	CreditsAdded decimal.Decimal
	PackID       string
	CheckoutRef  string
	CreatedAt    time.Time
}

func NewPayment(email string, amount decimal.Decimal, currency string, credits decimal.Decimal, packID, checkoutRef string) (*Payment, error) {
	if email == "" || packID == "" || checkoutRef == "" {
		return nil, domain.ErrInvalidArgument
	}
	return &Payment{
		ID:           uuid.NewString(),
		Email:        NormalizeEmail(email),
		Amount:       amount,
		Currency:     currency,
		CreditsAdded: credits,
		PackID:       packID,
		CheckoutRef:  checkoutRef,
		CreatedAt:    time.Now(),
	}, nil
}
