// File: internal/usecase/profile_uc.go
package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"resume-ai-backend/internal/domain"
	"resume-ai-backend/internal/domain/model"
	"resume-ai-backend/internal/domain/ports/repository"
	"resume-ai-backend/internal/infra/metrics"

	"github.com/shopspring/decimal"
)

var _ ProfileUseCase = (*profileUC)(nil)

type SaveProfileInput struct {
	FullName  string
	Phone     string
	Location  string
	LinkedIn  string
	Portfolio string
}

type ProfileUseCase interface {
	// Save creates the account on first save (granting the starting credit
	// balance exactly once) or updates personal fields on later saves.
	Save(ctx context.Context, email string, in SaveProfileInput) (acct *model.Account, created bool, err error)
	Get(ctx context.Context, email string) (*model.Account, error)
	// Delete soft-anonymizes: the identity row survives so the same email
	// cannot re-register for fresh free credits.
	Delete(ctx context.Context, email string) error
}

type profileUC struct {
	accounts        repository.AccountRepository
	startingCredits decimal.Decimal
	log             *zerolog.Logger
}

func NewProfileUseCase(accounts repository.AccountRepository, startingCredits decimal.Decimal, logger *zerolog.Logger) *profileUC {
	return &profileUC{accounts: accounts, startingCredits: startingCredits, log: logger}
}

func (u *profileUC) Save(ctx context.Context, email string, in SaveProfileInput) (*model.Account, bool, error) {
	email = model.NormalizeEmail(email)

	existing, err := u.accounts.FindByEmail(ctx, repository.NoTX, email)
	switch {
	case err == nil:
		existing.FullName = in.FullName
		existing.Phone = in.Phone
		existing.Location = in.Location
		existing.LinkedIn = in.LinkedIn
		existing.Portfolio = in.Portfolio
		existing.UpdatedAt = time.Now()
		if err := u.accounts.Save(ctx, repository.NoTX, existing); err != nil {
			return nil, false, err
		}
		return existing, false, nil

	case errors.Is(err, domain.ErrNotFound):
		acct, err := model.NewAccount(email, in.FullName, u.startingCredits)
		if err != nil {
			return nil, false, err
		}
		acct.Phone = in.Phone
		acct.Location = in.Location
		acct.LinkedIn = in.LinkedIn
		acct.Portfolio = in.Portfolio
		if err := u.accounts.Save(ctx, repository.NoTX, acct); err != nil {
			return nil, false, err
		}
		metrics.IncCredit("signup")
		metrics.AddCreditsGranted("signup", u.startingCredits.InexactFloat64())
		u.log.Info().Msg("account created with starting credits")
		return acct, true, nil

	default:
		return nil, false, err
	}
}

func (u *profileUC) Get(ctx context.Context, email string) (*model.Account, error) {
	return u.accounts.FindByEmail(ctx, repository.NoTX, model.NormalizeEmail(email))
}

func (u *profileUC) Delete(ctx context.Context, email string) error {
	if err := u.accounts.Anonymize(ctx, repository.NoTX, model.NormalizeEmail(email)); err != nil {
		return err
	}
	u.log.Info().Msg("account anonymized")
	return nil
}
