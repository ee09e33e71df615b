package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"resume-ai-backend/internal/domain/model"
)

// AccountRepository persists accounts and owns the row-level balance
// primitives. Debit and credit are single conditional statements so two
// concurrent mutations against the same account serialize in the database,
// not in application code.
type AccountRepository interface {
	Save(ctx context.Context, tx Tx, a *model.Account) error
	FindByEmail(ctx context.Context, tx Tx, email string) (*model.Account, error)

	// DebitBalance decrements the balance iff the row exists and holds at
	// least amount. Returns the new balance, or domain.ErrInsufficientCredit.
	DebitBalance(ctx context.Context, tx Tx, email string, amount decimal.Decimal) (decimal.Decimal, error)

	// CreditBalance increments the balance. A missing account is reported
	// via found=false with a zero balance and no error; accounts are never
	// created as a side effect.
	CreditBalance(ctx context.Context, tx Tx, email string, amount decimal.Decimal) (newBalance decimal.Decimal, found bool, err error)

	// MarkPromoRedeemed flips the one-shot redemption flag and records the
	// code. Fails with domain.ErrPromoAlreadyRedeemed when the flag is
	// already set, which makes the flag check part of the atomic unit.
	MarkPromoRedeemed(ctx context.Context, tx Tx, email, code string) error

	// Anonymize soft-deletes: personal fields cleared, balance zeroed,
	// identity row and redemption flags retained.
	Anonymize(ctx context.Context, tx Tx, email string) error
}
