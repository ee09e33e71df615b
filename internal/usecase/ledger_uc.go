// File: internal/usecase/ledger_uc.go
package usecase

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"resume-ai-backend/internal/domain"
	"resume-ai-backend/internal/domain/ports/repository"
	"resume-ai-backend/internal/infra/metrics"
)

// Compile-time check
var _ CreditLedger = (*ledgerUC)(nil)

// CreditLedger is the transactional core: balance check, atomic debit, and
// credit. The contract for callers orchestrating an external operation is
// check-then-debit-then-attempt-then-refund-on-failure; the ledger itself
// never retries or orchestrates the external call.
type CreditLedger interface {
	// HasSufficientBalance is read-only; a missing account yields false, not
	// an error.
	HasSufficientBalance(ctx context.Context, email string, amount decimal.Decimal) (bool, error)

	// DebitAtomic decrements the balance as one committed unit and returns
	// the new balance. It fails with domain.ErrInsufficientCredit when the
	// account is missing or short. It must run and commit BEFORE the
	// external operation it pays for: the debit is the lock.
	DebitAtomic(ctx context.Context, email string, amount decimal.Decimal) (decimal.Decimal, error)

	// Credit increments the balance and returns the new value. A missing
	// account is a no-op returning zero; accounts are never created here.
	// reason labels the grant (refund/purchase/promo) for metrics.
	Credit(ctx context.Context, tx repository.Tx, email string, amount decimal.Decimal, reason string) (decimal.Decimal, error)

	// Balance returns the current balance; missing account yields zero.
	Balance(ctx context.Context, email string) (decimal.Decimal, error)
}

type ledgerUC struct {
	accounts repository.AccountRepository
	log      *zerolog.Logger
}

func NewCreditLedger(accounts repository.AccountRepository, logger *zerolog.Logger) *ledgerUC {
	return &ledgerUC{accounts: accounts, log: logger}
}

func (u *ledgerUC) HasSufficientBalance(ctx context.Context, email string, amount decimal.Decimal) (bool, error) {
	if amount.IsNegative() {
		return false, domain.ErrInvalidArgument
	}
	a, err := u.accounts.FindByEmail(ctx, repository.NoTX, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return a.CreditBalance.GreaterThanOrEqual(amount), nil
}

func (u *ledgerUC) DebitAtomic(ctx context.Context, email string, amount decimal.Decimal) (decimal.Decimal, error) {
	if amount.IsNegative() {
		return decimal.Zero, domain.ErrInvalidArgument
	}
	newBal, err := u.accounts.DebitBalance(ctx, repository.NoTX, email, amount)
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientCredit) {
			metrics.IncDebit("insufficient")
			return decimal.Zero, err
		}
		metrics.IncDebit("error")
		return decimal.Zero, err
	}
	metrics.IncDebit("ok")
	metrics.AddCreditsSpent(amount.InexactFloat64())
	u.log.Debug().Str("amount", amount.String()).Str("balance", newBal.String()).Msg("credits debited")
	return newBal, nil
}

func (u *ledgerUC) Credit(ctx context.Context, tx repository.Tx, email string, amount decimal.Decimal, reason string) (decimal.Decimal, error) {
	if amount.IsNegative() {
		return decimal.Zero, domain.ErrInvalidArgument
	}
	newBal, found, err := u.accounts.CreditBalance(ctx, tx, email, amount)
	if err != nil {
		return decimal.Zero, err
	}
	if !found {
		// Credits never create accounts; a payment or refund aimed at an
		// unknown identity is dropped by the caller's own rules.
		u.log.Warn().Str("reason", reason).Msg("credit for unknown account ignored")
		return decimal.Zero, nil
	}
	metrics.IncCredit(reason)
	metrics.AddCreditsGranted(reason, amount.InexactFloat64())
	u.log.Debug().Str("amount", amount.String()).Str("balance", newBal.String()).Str("reason", reason).Msg("credits granted")
	return newBal, nil
}

func (u *ledgerUC) Balance(ctx context.Context, email string) (decimal.Decimal, error) {
	a, err := u.accounts.FindByEmail(ctx, repository.NoTX, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return decimal.Zero, nil
		}
		return decimal.Zero, err
	}
	return a.CreditBalance, nil
}
