package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"resume-ai-backend/internal/domain"
)

// Account is the persisted identity + credit balance record for one user.
// The email address is the immutable identity; every balance mutation goes
// through the ledger operations, never through direct field writes.
type Account struct {
	Email         string
	FullName      string
	Phone         string
	Location      string
	LinkedIn      string
	Portfolio     string
	CreditBalance decimal.Decimal
	PromoRedeemed bool
	PromoCodeUsed *string
	AnonymizedAt  *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NormalizeEmail lower-cases and trims an account identifier. All lookups
// and writes key on the normalized form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func NewAccount(email, fullName string, startingCredits decimal.Decimal) (*Account, error) {
	email = NormalizeEmail(email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, domain.ErrInvalidArgument
	}
	if fullName == "" {
		return nil, domain.ErrInvalidArgument
	}
	if startingCredits.IsNegative() {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &Account{
		Email:         email,
		FullName:      fullName,
		CreditBalance: startingCredits,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// IsAnonymized reports whether the account was soft-deleted. The row stays
// behind so the same email cannot re-register for fresh free credits.
func (a *Account) IsAnonymized() bool { return a.AnonymizedAt != nil }

// Anonymize clears personal fields and zeroes the balance in-memory.
// Redemption flags are intentionally left as-is.
func (a *Account) Anonymize(now time.Time) {
	a.FullName = ""
	a.Phone = ""
	a.Location = ""
	a.LinkedIn = ""
	a.Portfolio = ""
	a.CreditBalance = decimal.Zero
	a.AnonymizedAt = &now
	a.UpdatedAt = now
}
