package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"
)

// Schema is the relational shape the ledger invariants depend on:
// a CHECK keeping balances non-negative and a unique checkout reference
// making payment reconciliation replay-safe.
const Schema = `
CREATE TABLE IF NOT EXISTS accounts (
  email           TEXT PRIMARY KEY,
  full_name       TEXT NOT NULL DEFAULT '',
  phone           TEXT NOT NULL DEFAULT '',
  location        TEXT NOT NULL DEFAULT '',
  linkedin        TEXT NOT NULL DEFAULT '',
  portfolio       TEXT NOT NULL DEFAULT '',
  credit_balance  NUMERIC(14,4) NOT NULL DEFAULT 0 CHECK (credit_balance >= 0),
  promo_redeemed  BOOLEAN NOT NULL DEFAULT FALSE,
  promo_code_used TEXT,
  anonymized_at   TIMESTAMPTZ,
  created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS promo_codes (
  code          TEXT PRIMARY KEY,
  reward_amount NUMERIC(14,4) NOT NULL CHECK (reward_amount > 0),
  active        BOOLEAN NOT NULL DEFAULT TRUE,
  max_uses      INTEGER,
  used_count    INTEGER NOT NULL DEFAULT 0,
  expires_at    TIMESTAMPTZ,
  created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  CHECK (max_uses IS NULL OR used_count <= max_uses)
);

CREATE TABLE IF NOT EXISTS payments (
  id            UUID PRIMARY KEY,
  email         TEXT NOT NULL,
  amount        NUMERIC(14,2) NOT NULL,
  currency      TEXT NOT NULL,
  credits_added NUMERIC(14,4) NOT NULL,
  pack_id       TEXT NOT NULL,
  checkout_ref  TEXT NOT NULL,
  created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS payments_checkout_ref_uq ON payments (checkout_ref);
CREATE INDEX IF NOT EXISTS payments_email_idx ON payments (email);
`

// ApplySchema creates the tables when missing. Used by cmd/seed and tests.
func ApplySchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, Schema)
	return err
}
