package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

// Tx is an opaque transaction handle. The concrete type is infra-defined
// (pgx.Tx for Postgres). Repositories MUST gracefully accept a nil Tx and
// fall back to their non-transactional path.
type Tx interface{}

// NoTX marks the non-transactional call path explicitly at call sites.
var NoTX Tx

// TransactionManager executes a function within one database transaction,
// passing the underlying handle via tx. Keeping the handle opaque keeps the
// use-case interfaces free of storage types while still letting repository
// implementations detect a live transaction and take row locks.
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}
