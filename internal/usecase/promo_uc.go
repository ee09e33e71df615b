// File: internal/usecase/promo_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"resume-ai-backend/internal/domain"
	"resume-ai-backend/internal/domain/model"
	"resume-ai-backend/internal/domain/ports/repository"
	"resume-ai-backend/internal/infra/metrics"
)

var _ PromoUseCase = (*promoUC)(nil)

// Redemption is the successful outcome of Redeem.
type Redemption struct {
	Code       string
	Reward     decimal.Decimal
	NewBalance decimal.Decimal
	Message    string
}

type PromoUseCase interface {
	// Redeem validates and applies a promo code for one account. Each
	// account may successfully redeem at most one code, ever.
	Redeem(ctx context.Context, email, code string) (*Redemption, error)

	// Administrative surface.
	Create(ctx context.Context, code string, reward decimal.Decimal, maxUses *int, expiresAt *time.Time) (*model.PromoCode, error)
	Update(ctx context.Context, code string, reward *decimal.Decimal, active *bool, maxUses *int, expiresAt *time.Time) (*model.PromoCode, error)
	Get(ctx context.Context, code string) (*model.PromoCode, error)
	List(ctx context.Context) ([]*model.PromoCode, error)
	SetActive(ctx context.Context, code string, active bool) error
	Delete(ctx context.Context, code string) error
}

type promoUC struct {
	accounts repository.AccountRepository
	promos   repository.PromoCodeRepository
	ledger   CreditLedger
	tm       repository.TransactionManager
	now      func() time.Time
	log      *zerolog.Logger
}

func NewPromoUseCase(
	accounts repository.AccountRepository,
	promos repository.PromoCodeRepository,
	ledger CreditLedger,
	tm repository.TransactionManager,
	logger *zerolog.Logger,
) *promoUC {
	return &promoUC{accounts: accounts, promos: promos, ledger: ledger, tm: tm, now: time.Now, log: logger}
}

// Redeem runs the whole redemption inside one transaction with the account
// and code rows locked, so the flag check, the credit, the flag set and the
// counter increment commit as a single unit. Validation order is fixed and
// the first failure wins.
func (u *promoUC) Redeem(ctx context.Context, email, code string) (*Redemption, error) {
	if model.NormalizeCode(code) == "" {
		metrics.IncPromoRedemption("invalid_input")
		return nil, fmt.Errorf("promo code is required: %w", domain.ErrInvalidArgument)
	}
	code = model.NormalizeCode(code)
	email = model.NormalizeEmail(email)

	var out *Redemption
	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		acct, err := u.accounts.FindByEmail(ctx, tx, email) // row locked
		if err != nil {
			return err
		}
		if acct.PromoRedeemed {
			used := ""
			if acct.PromoCodeUsed != nil {
				used = *acct.PromoCodeUsed
			}
			return fmt.Errorf("code %s was already redeemed on this account: %w", used, domain.ErrPromoAlreadyRedeemed)
		}

		promo, err := u.promos.FindByCode(ctx, tx, code) // row locked
		if err != nil {
			return err
		}
		if err := promo.RedeemableAt(u.now()); err != nil {
			return err
		}

		if err := u.accounts.MarkPromoRedeemed(ctx, tx, email, code); err != nil {
			return err
		}
		newBal, err := u.ledger.Credit(ctx, tx, email, promo.RewardAmount, "promo")
		if err != nil {
			return err
		}
		if err := u.promos.IncrementUsage(ctx, tx, code); err != nil {
			return err
		}

		out = &Redemption{
			Code:       code,
			Reward:     promo.RewardAmount,
			NewBalance: newBal,
			Message:    fmt.Sprintf("Code %s redeemed: %s credits added", code, promo.RewardAmount.String()),
		}
		return nil
	})
	if err != nil {
		metrics.IncPromoRedemption(redemptionResult(err))
		return nil, err
	}
	metrics.IncPromoRedemption("ok")
	u.log.Info().Str("code", code).Str("reward", out.Reward.String()).Msg("promo redeemed")
	return out, nil
}

func redemptionResult(err error) string {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return "account_not_found"
	case errors.Is(err, domain.ErrPromoAlreadyRedeemed):
		return "already_redeemed"
	case errors.Is(err, domain.ErrPromoNotFound):
		return "code_not_found"
	case errors.Is(err, domain.ErrPromoInactive):
		return "code_inactive"
	case errors.Is(err, domain.ErrPromoExpired):
		return "code_expired"
	case errors.Is(err, domain.ErrPromoExhausted):
		return "code_exhausted"
	default:
		return "error"
	}
}

func (u *promoUC) Create(ctx context.Context, code string, reward decimal.Decimal, maxUses *int, expiresAt *time.Time) (*model.PromoCode, error) {
	p, err := model.NewPromoCode(code, reward, maxUses, expiresAt)
	if err != nil {
		return nil, err
	}
	if existing, err := u.promos.FindByCode(ctx, repository.NoTX, p.Code); err == nil && existing != nil {
		return nil, domain.ErrAlreadyExists
	}
	if err := u.promos.Save(ctx, repository.NoTX, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (u *promoUC) Update(ctx context.Context, code string, reward *decimal.Decimal, active *bool, maxUses *int, expiresAt *time.Time) (*model.PromoCode, error) {
	p, err := u.promos.FindByCode(ctx, repository.NoTX, code)
	if err != nil {
		return nil, err
	}
	if reward != nil {
		if !reward.IsPositive() {
			return nil, domain.ErrInvalidArgument
		}
		p.RewardAmount = *reward
	}
	if active != nil {
		p.Active = *active
	}
	if maxUses != nil {
		if *maxUses <= 0 {
			return nil, domain.ErrInvalidArgument
		}
		p.MaxUses = maxUses
	}
	if expiresAt != nil {
		p.ExpiresAt = expiresAt
	}
	if err := u.promos.Save(ctx, repository.NoTX, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (u *promoUC) Get(ctx context.Context, code string) (*model.PromoCode, error) {
	return u.promos.FindByCode(ctx, repository.NoTX, code)
}

func (u *promoUC) List(ctx context.Context) ([]*model.PromoCode, error) {
	return u.promos.ListAll(ctx, repository.NoTX)
}

func (u *promoUC) SetActive(ctx context.Context, code string, active bool) error {
	return u.promos.SetActive(ctx, repository.NoTX, code, active)
}

func (u *promoUC) Delete(ctx context.Context, code string) error {
	return u.promos.Delete(ctx, repository.NoTX, code)
}
