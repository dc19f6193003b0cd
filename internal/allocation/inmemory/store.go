package inmemory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fuyudunniam-spec/E-MAKTAB-MANAJEMEN-PESANTREN-V1-sub012/internal/allocation"
	"github.com/fuyudunniam-spec/E-MAKTAB-MANAJEMEN-PESANTREN-V1-sub012/internal/apperr"
)

// Store implements allocation.MappingStore and allocation.AccumulationStore
// in memory.
type Store struct {
	mu       sync.Mutex
	mappings []allocation.Mapping
	accum    map[string][]allocation.Accumulation
	now      func() time.Time
}

func NewStore() *Store {
	return &Store{accum: map[string][]allocation.Accumulation{}, now: time.Now}
}

func (s *Store) Replace(ctx context.Context, m allocation.Mapping) (allocation.Mapping, error) {
	if err := ctx.Err(); err != nil {
		return allocation.Mapping{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for i := range s.mappings {
		if s.mappings[i].ScopeKey == m.ScopeKey && s.mappings[i].Active {
			s.mappings[i].Active = false
			s.mappings[i].UpdatedAt = now
		}
	}
	m.ID = uuid.New()
	m.Active = true
	m.CreatedAt, m.UpdatedAt = now, now
	m.StudentIDs = append(m.StudentIDs[:0:0], m.StudentIDs...)
	s.mappings = append(s.mappings, m)
	return m, nil
}

func (s *Store) Get(ctx context.Context, id uuid.UUID) (allocation.Mapping, error) {
	if err := ctx.Err(); err != nil {
		return allocation.Mapping{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.mappings {
		if m.ID == id {
			return m, nil
		}
	}
	return allocation.Mapping{}, apperr.NotFound("mapping", id)
}

func (s *Store) Active(ctx context.Context, scopeKey string) (allocation.Mapping, bool, error) {
	if err := ctx.Err(); err != nil {
		return allocation.Mapping{}, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.mappings) - 1; i >= 0; i-- {
		if m := s.mappings[i]; m.ScopeKey == scopeKey && m.Active {
			return m, true, nil
		}
	}
	return allocation.Mapping{}, false, nil
}

// Mappings returns every stored row, active or not.
func (s *Store) Mappings() []allocation.Mapping {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]allocation.Mapping(nil), s.mappings...)
}

func (s *Store) ReplacePeriod(ctx context.Context, period string, rows []allocation.Accumulation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accum[period] = append([]allocation.Accumulation(nil), rows...)
	return nil
}

func (s *Store) ListPeriod(ctx context.Context, period string) ([]allocation.Accumulation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]allocation.Accumulation(nil), s.accum[period]...)
	sort.Slice(out, func(i, j int) bool { return out[i].StudentID < out[j].StudentID })
	return out, nil
}
