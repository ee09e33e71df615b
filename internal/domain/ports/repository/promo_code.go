package repository

import (
	"context"

	"resume-ai-backend/internal/domain/model"
)

type PromoCodeRepository interface {
	Save(ctx context.Context, tx Tx, p *model.PromoCode) error
	// FindByCode locks the row when called inside a transaction.
	FindByCode(ctx context.Context, tx Tx, code string) (*model.PromoCode, error)
	ListAll(ctx context.Context, tx Tx) ([]*model.PromoCode, error)
	// IncrementUsage bumps used_count iff the cap is not reached; fails with
	// domain.ErrPromoExhausted otherwise so the cap invariant holds even
	// under concurrent redemptions of different accounts.
	IncrementUsage(ctx context.Context, tx Tx, code string) error
	SetActive(ctx context.Context, tx Tx, code string, active bool) error
	Delete(ctx context.Context, tx Tx, code string) error
}
