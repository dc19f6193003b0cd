package inmemory

import (
	"context"
	"sort"
	"sync"

	"github.com/fuyudunniam-spec/E-MAKTAB-MANAJEMEN-PESANTREN-V1-sub012/internal/finance"
)

// Store is an in-memory TransactionStore and AccountDirectory.
// It is safe for concurrent use and returns copies.
type Store struct {
	mu       sync.RWMutex
	txns     []finance.Transaction
	accounts []finance.Account
	finds    int
}

func NewStore() *Store {
	return &Store{}
}

func (s *Store) AddTransactions(txns ...finance.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txns = append(s.txns, txns...)
}

func (s *Store) AddAccounts(accounts ...finance.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts = append(s.accounts, accounts...)
}

// Find implements finance.TransactionStore.
func (s *Store) Find(ctx context.Context, q finance.Query) ([]finance.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.finds++

	var out []finance.Transaction
	for _, t := range s.txns {
		if q.Match(t) {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

// ListAccounts implements finance.AccountDirectory.
func (s *Store) ListAccounts(ctx context.Context) ([]finance.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]finance.Account, len(s.accounts))
	copy(out, s.accounts)
	return out, nil
}

// Finds reports how many queries were served.
func (s *Store) Finds() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.finds
}
