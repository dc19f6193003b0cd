package finance

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// TransactionStore is the read side of the transaction table.
type TransactionStore interface {
	Find(ctx context.Context, q Query) ([]Transaction, error)
}

// AccountDirectory exposes account ownership.
type AccountDirectory interface {
	ListAccounts(ctx context.Context) ([]Account, error)
}

// Store reads transactions and accounts through gorm.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Find(ctx context.Context, q Query) ([]Transaction, error) {
	var out []Transaction
	tx := q.Apply(s.db.WithContext(ctx).Model(&Transaction{}))
	if err := tx.Order("date ASC, id ASC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("find transactions: %w", err)
	}
	return out, nil
}

func (s *Store) ListAccounts(ctx context.Context) ([]Account, error) {
	var out []Account
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return out, nil
}
