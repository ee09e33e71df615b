package repository

import (
	"context"

	"resume-ai-backend/internal/domain/model"
)

// PaymentRepository is an append-only receipt log. Save must fail with
// domain.ErrAlreadyExists when the checkout reference was seen before.
type PaymentRepository interface {
	Save(ctx context.Context, tx Tx, p *model.Payment) error
	FindByCheckoutRef(ctx context.Context, tx Tx, ref string) (*model.Payment, error)
	ListByEmail(ctx context.Context, tx Tx, email string, limit int) ([]*model.Payment, error)
}
