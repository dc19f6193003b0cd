package inmemory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fuyudunniam-spec/E-MAKTAB-MANAJEMEN-PESANTREN-V1-sub012/internal/apperr"
	"github.com/fuyudunniam-spec/E-MAKTAB-MANAJEMEN-PESANTREN-V1-sub012/internal/finance"
	"github.com/fuyudunniam-spec/E-MAKTAB-MANAJEMEN-PESANTREN-V1-sub012/internal/profitsharing"
)

// Store is an in-memory profitsharing.RecordStore.
type Store struct {
	mu      sync.Mutex
	records map[uuid.UUID]profitsharing.Record
	now     func() time.Time
}

func NewStore() *Store {
	return &Store{records: map[uuid.UUID]profitsharing.Record{}, now: time.Now}
}

func (s *Store) Upsert(ctx context.Context, r profitsharing.Record) (profitsharing.Record, error) {
	if err := ctx.Err(); err != nil {
		return profitsharing.Record{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for id, cur := range s.records {
		if cur.Year == r.Year && cur.Month == r.Month {
			cur.Mode = r.Mode
			cur.TotalSales = r.TotalSales
			cur.PctFoundation = r.PctFoundation
			cur.PctCooperative = r.PctCooperative
			cur.FoundationShare = r.FoundationShare
			cur.CooperativeShare = r.CooperativeShare
			cur.Variance = r.Variance
			cur.Status = r.Status
			cur.PaidAt = r.PaidAt
			cur.PaidNote = r.PaidNote
			cur.PaidBy = r.PaidBy
			cur.UpdatedAt = now
			s.records[id] = cur
			return cur, nil
		}
	}

	r.ID = uuid.New()
	if r.Status == "" {
		r.Status = profitsharing.StatusUnpaid
	}
	r.CreatedAt, r.UpdatedAt = now, now
	s.records[r.ID] = r
	return r, nil
}

func (s *Store) Get(ctx context.Context, id uuid.UUID) (profitsharing.Record, error) {
	if err := ctx.Err(); err != nil {
		return profitsharing.Record{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[id]
	if !ok {
		return profitsharing.Record{}, apperr.NotFound("profit sharing record", id)
	}
	return r, nil
}

func (s *Store) GetByPeriod(ctx context.Context, p finance.Period) (profitsharing.Record, error) {
	if err := ctx.Err(); err != nil {
		return profitsharing.Record{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.records {
		if r.Year == p.Year && r.Month == int(p.Month) {
			return r, nil
		}
	}
	return profitsharing.Record{}, apperr.NotFound("profit sharing record", p.String())
}

func (s *Store) List(ctx context.Context, year int) ([]profitsharing.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []profitsharing.Record{}
	for _, r := range s.records {
		if r.Year == year {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out, nil
}

func (s *Store) SetReconciliation(ctx context.Context, id uuid.UUID, rec profitsharing.Reconciliation) error {
	return s.update(ctx, id, func(r *profitsharing.Record) {
		at := rec.At
		r.ActualTransfer = decimal.NewNullDecimal(rec.ActualTransfer)
		r.Variance = decimal.NewNullDecimal(rec.Variance)
		r.ReconciledAt = &at
	})
}

func (s *Store) SetPayment(ctx context.Context, id uuid.UUID, pay profitsharing.Payment) error {
	return s.update(ctx, id, func(r *profitsharing.Record) {
		r.Status = pay.Status
		r.PaidAt = pay.At
		r.PaidNote = pay.Note
		r.PaidBy = pay.By
	})
}

func (s *Store) update(ctx context.Context, id uuid.UUID, fn func(*profitsharing.Record)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[id]
	if !ok {
		return apperr.NotFound("profit sharing record", id)
	}
	fn(&r)
	r.UpdatedAt = s.now()
	s.records[id] = r
	return nil
}
