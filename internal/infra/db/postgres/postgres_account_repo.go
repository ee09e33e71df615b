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

var _ repository.AccountRepository = (*PostgresAccountRepo)(nil)

type PostgresAccountRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresAccountRepo(pool *pgxpool.Pool) *PostgresAccountRepo {
	return &PostgresAccountRepo{pool: pool}
}

func (r *PostgresAccountRepo) Save(ctx context.Context, tx repository.Tx, a *model.Account) error {
	const q = `
INSERT INTO accounts (
  email, full_name, phone, location, linkedin, portfolio,
  credit_balance, promo_redeemed, promo_code_used, anonymized_at, created_at, updated_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7::numeric,$8,$9,$10,$11,NOW()
) ON CONFLICT (email) DO UPDATE SET
  full_name=$2, phone=$3, location=$4, linkedin=$5, portfolio=$6, updated_at=NOW();`
	ex, err := pick(r.pool, tx)
	if err != nil {
		return err
	}
	// Balance and redemption flags are deliberately excluded from the upsert
	// path: only the ledger primitives below may touch them.
	_, err = ex.Exec(ctx, q,
		a.Email, a.FullName, a.Phone, a.Location, a.LinkedIn, a.Portfolio,
		a.CreditBalance.String(), a.PromoRedeemed, a.PromoCodeUsed, a.AnonymizedAt, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("save account: %w", domain.ErrOperationFailed)
	}
	return nil
}

func (r *PostgresAccountRepo) FindByEmail(ctx context.Context, tx repository.Tx, email string) (*model.Account, error) {
	q := `
SELECT email, full_name, phone, location, linkedin, portfolio,
       credit_balance::text, promo_redeemed, promo_code_used, anonymized_at, created_at, updated_at
  FROM accounts WHERE email=$1`
	if inTx(tx) {
		q += " FOR UPDATE"
	}
	ex, err := pick(r.pool, tx)
	if err != nil {
		return nil, err
	}
	var (
		a   model.Account
		bal string
	)
	err = ex.QueryRow(ctx, q, model.NormalizeEmail(email)).Scan(
		&a.Email, &a.FullName, &a.Phone, &a.Location, &a.LinkedIn, &a.Portfolio,
		&bal, &a.PromoRedeemed, &a.PromoCodeUsed, &a.AnonymizedAt, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if a.CreditBalance, err = decimal.NewFromString(bal); err != nil {
		return nil, fmt.Errorf("parse balance: %w", err)
	}
	return &a, nil
}

// DebitBalance is the "cut first" primitive: one conditional UPDATE, so the
// balance check and the decrement commit as a single unit and concurrent
// debits against the same row serialize inside Postgres.
func (r *PostgresAccountRepo) DebitBalance(ctx context.Context, tx repository.Tx, email string, amount decimal.Decimal) (decimal.Decimal, error) {
	const q = `
UPDATE accounts
   SET credit_balance = credit_balance - $2::numeric, updated_at = NOW()
 WHERE email = $1 AND credit_balance >= $2::numeric
RETURNING credit_balance::text;`
	ex, err := pick(r.pool, tx)
	if err != nil {
		return decimal.Zero, err
	}
	var bal string
	err = ex.QueryRow(ctx, q, model.NormalizeEmail(email), amount.String()).Scan(&bal)
	if err != nil {
		if err == pgx.ErrNoRows {
			// Missing account and short balance both refuse the debit.
			return decimal.Zero, domain.ErrInsufficientCredit
		}
		return decimal.Zero, err
	}
	return decimal.NewFromString(bal)
}

func (r *PostgresAccountRepo) CreditBalance(ctx context.Context, tx repository.Tx, email string, amount decimal.Decimal) (decimal.Decimal, bool, error) {
	const q = `
UPDATE accounts
   SET credit_balance = credit_balance + $2::numeric, updated_at = NOW()
 WHERE email = $1
RETURNING credit_balance::text;`
	ex, err := pick(r.pool, tx)
	if err != nil {
		return decimal.Zero, false, err
	}
	var bal string
	err = ex.QueryRow(ctx, q, model.NormalizeEmail(email), amount.String()).Scan(&bal)
	if err != nil {
		if err == pgx.ErrNoRows {
			return decimal.Zero, false, nil
		}
		return decimal.Zero, false, err
	}
	newBal, err := decimal.NewFromString(bal)
	return newBal, err == nil, err
}

func (r *PostgresAccountRepo) MarkPromoRedeemed(ctx context.Context, tx repository.Tx, email, code string) error {
	const q = `
UPDATE accounts
   SET promo_redeemed = TRUE, promo_code_used = $2, updated_at = NOW()
 WHERE email = $1 AND promo_redeemed = FALSE;`
	ex, err := pick(r.pool, tx)
	if err != nil {
		return err
	}
	tag, err := ex.Exec(ctx, q, model.NormalizeEmail(email), code)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPromoAlreadyRedeemed
	}
	return nil
}

func (r *PostgresAccountRepo) Anonymize(ctx context.Context, tx repository.Tx, email string) error {
	const q = `
UPDATE accounts
   SET full_name='', phone='', location='', linkedin='', portfolio='',
       credit_balance=0, anonymized_at=NOW(), updated_at=NOW()
 WHERE email=$1 AND anonymized_at IS NULL;`
	ex, err := pick(r.pool, tx)
	if err != nil {
		return err
	}
	tag, err := ex.Exec(ctx, q, model.NormalizeEmail(email))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
