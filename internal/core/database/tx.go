package database

import (
	"context"

	"gorm.io/gorm"
)

// TxManager is the explicit transactional boundary for multi-step ledger
// operations: every mutation inside the closure commits or rolls back as
// one unit. Repositories receive the *gorm.DB bound to the transaction.
type TxManager interface {
	Do(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type gormTxManager struct {
	db *gorm.DB
}

func NewTxManager(db *gorm.DB) TxManager {
	return &gormTxManager{db: db}
}

func (m *gormTxManager) Do(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return m.db.WithContext(ctx).Transaction(fn)
}
