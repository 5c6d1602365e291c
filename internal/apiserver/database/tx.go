package database

import (
	"context"

	"gorm.io/gorm"
)

type txKey struct{}

// ContextWithTransaction returns a child context carrying tx. Store
// calls made with that context join the transaction instead of using
// the pooled connection.
func ContextWithTransaction(ctx context.Context, tx *gorm.DB) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// TransactionFromContext returns the transaction carried by ctx, or nil
// outside any transaction
func TransactionFromContext(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx
	}
	return nil
}
