package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/shopspring/decimal"

	"resume-ai-backend/internal/domain"
	"resume-ai-backend/internal/domain/model"
	"resume-ai-backend/internal/domain/ports/repository"
)

var _ repository.PaymentRepository = (*PostgresPaymentRepo)(nil)

type PostgresPaymentRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresPaymentRepo(pool *pgxpool.Pool) *PostgresPaymentRepo {
	return &PostgresPaymentRepo{pool: pool}
}

// Save appends a receipt. The unique index on checkout_ref turns a replayed
// webhook delivery into domain.ErrAlreadyExists instead of a second credit.
func (r *PostgresPaymentRepo) Save(ctx context.Context, tx repository.Tx, p *model.Payment) error {
	const q = `
INSERT INTO payments (id, email, amount, currency, credits_added, pack_id, checkout_ref, created_at)
VALUES ($1,$2,$3::numeric,$4,$5::numeric,$6,$7,$8);`
	ex, err := pick(r.pool, tx)
	if err != nil {
		return err
	}
	_, err = ex.Exec(ctx, q, p.ID, p.Email, p.Amount.String(), p.Currency, p.CreditsAdded.String(), p.PackID, p.CheckoutRef, p.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (r *PostgresPaymentRepo) FindByCheckoutRef(ctx context.Context, tx repository.Tx, ref string) (*model.Payment, error) {
	const q = `
SELECT id, email, amount::text, currency, credits_added::text, pack_id, checkout_ref, created_at
  FROM payments WHERE checkout_ref=$1;`
	ex, err := pick(r.pool, tx)
	if err != nil {
		return nil, err
	}
	return scanPayment(ex.QueryRow(ctx, q, ref))
}

func (r *PostgresPaymentRepo) ListByEmail(ctx context.Context, tx repository.Tx, email string, limit int) ([]*model.Payment, error) {
	if limit <= 0 {
		limit = 50
	}
	const q = `
SELECT id, email, amount::text, currency, credits_added::text, pack_id, checkout_ref, created_at
  FROM payments WHERE email=$1 ORDER BY created_at DESC LIMIT $2;`
	ex, err := pick(r.pool, tx)
	if err != nil {
		return nil, err
	}
	rows, err := ex.Query(ctx, q, model.NormalizeEmail(email), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanPayment(row pgx.Row) (*model.Payment, error) {
	var (
		p               model.Payment
		amount, credits string
	)
	err := row.Scan(&p.ID, &p.Email, &amount, &p.Currency, &credits, &p.PackID, &p.CheckoutRef, &p.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if p.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("parse amount: %w", err)
	}
	if p.CreditsAdded, err = decimal.NewFromString(credits); err != nil {
		return nil, fmt.Errorf("parse credits: %w", err)
	}
	return &p, nil
}
