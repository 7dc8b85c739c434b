package database

import (
	"context"

	"gorm.io/gorm"
)

type txKey struct{}

// Transaction runs fn inside one database transaction and threads the
// transaction through the context, so every write made through Conn —
// including the ledger stores — joins it. Nested calls become
// savepoints.
func Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return Conn(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// Conn returns the transaction carried by the context, or the shared
// connection when none is in flight.
func Conn(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx
	}
	return DB
}
