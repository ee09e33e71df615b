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

var _ repository.PromoCodeRepository = (*PostgresPromoCodeRepo)(nil)

type PostgresPromoCodeRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresPromoCodeRepo(pool *pgxpool.Pool) *PostgresPromoCodeRepo {
	return &PostgresPromoCodeRepo{pool: pool}
}

const promoColumns = `code, reward_amount::text, active, max_uses, used_count, expires_at, created_at`

func (r *PostgresPromoCodeRepo) Save(ctx context.Context, tx repository.Tx, p *model.PromoCode) error {
	const q = `
INSERT INTO promo_codes (code, reward_amount, active, max_uses, used_count, expires_at, created_at)
VALUES ($1,$2::numeric,$3,$4,$5,$6,$7)
ON CONFLICT (code) DO UPDATE SET
  reward_amount=$2::numeric, active=$3, max_uses=$4, expires_at=$6;`
	ex, err := pick(r.pool, tx)
	if err != nil {
		return err
	}
	_, err = ex.Exec(ctx, q, p.Code, p.RewardAmount.String(), p.Active, p.MaxUses, p.UsedCount, p.ExpiresAt, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("save promo code: %w", domain.ErrOperationFailed)
	}
	return nil
}

func (r *PostgresPromoCodeRepo) FindByCode(ctx context.Context, tx repository.Tx, code string) (*model.PromoCode, error) {
	q := `SELECT ` + promoColumns + ` FROM promo_codes WHERE code=$1`
	if inTx(tx) {
		q += " FOR UPDATE"
	}
	ex, err := pick(r.pool, tx)
	if err != nil {
		return nil, err
	}
	return scanPromo(ex.QueryRow(ctx, q, model.NormalizeCode(code)))
}

func (r *PostgresPromoCodeRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.PromoCode, error) {
	q := `SELECT ` + promoColumns + ` FROM promo_codes ORDER BY created_at DESC`
	ex, err := pick(r.pool, tx)
	if err != nil {
		return nil, err
	}
	rows, err := ex.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.PromoCode
	for rows.Next() {
		p, err := scanPromo(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// IncrementUsage enforces the usage cap inside the same statement that bumps
// the counter, so used_count can never pass max_uses.
func (r *PostgresPromoCodeRepo) IncrementUsage(ctx context.Context, tx repository.Tx, code string) error {
	const q = `
UPDATE promo_codes
   SET used_count = used_count + 1
 WHERE code = $1 AND (max_uses IS NULL OR used_count < max_uses);`
	ex, err := pick(r.pool, tx)
	if err != nil {
		return err
	}
	tag, err := ex.Exec(ctx, q, model.NormalizeCode(code))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPromoExhausted
	}
	return nil
}

func (r *PostgresPromoCodeRepo) SetActive(ctx context.Context, tx repository.Tx, code string, active bool) error {
	ex, err := pick(r.pool, tx)
	if err != nil {
		return err
	}
	tag, err := ex.Exec(ctx, `UPDATE promo_codes SET active=$2 WHERE code=$1;`, model.NormalizeCode(code), active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPromoNotFound
	}
	return nil
}

func (r *PostgresPromoCodeRepo) Delete(ctx context.Context, tx repository.Tx, code string) error {
	ex, err := pick(r.pool, tx)
	if err != nil {
		return err
	}
	tag, err := ex.Exec(ctx, `DELETE FROM promo_codes WHERE code=$1;`, model.NormalizeCode(code))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPromoNotFound
	}
	return nil
}

func scanPromo(row pgx.Row) (*model.PromoCode, error) {
	var (
		p      model.PromoCode
		reward string
	)
	err := row.Scan(&p.Code, &reward, &p.Active, &p.MaxUses, &p.UsedCount, &p.ExpiresAt, &p.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrPromoNotFound
		}
		return nil, err
	}
	if p.RewardAmount, err = decimal.NewFromString(reward); err != nil {
		return nil, fmt.Errorf("parse reward: %w", err)
	}
	return &p, nil
}
