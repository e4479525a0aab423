package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TxRunner executes a function inside a database transaction. Compound
// occupancy operations (assign, transfer, enforcement cascade) run through
// it so a failure at any step rolls back every row touched.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type txRunner struct {
	db *gorm.DB
}

// NewTxRunner constructs a transaction runner over the shared connection.
func NewTxRunner(db *gorm.DB) TxRunner {
	return &txRunner{db: db}
}

func (r *txRunner) RunInTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

// lockForUpdate applies a row-level exclusive lock on dialects that support
// it. The sqlite driver used in tests serialises writers on its own and
// rejects FOR UPDATE syntax.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}
