package allocation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fuyudunniam-spec/E-MAKTAB-MANAJEMEN-PESANTREN-V1-sub012/internal/apperr"
)

// MappingStore persists mappings. Replace must deactivate the active mapping
// for the same scope key and insert the new one atomically.
type MappingStore interface {
	Replace(ctx context.Context, m Mapping) (Mapping, error)
	Get(ctx context.Context, id uuid.UUID) (Mapping, error)
	Active(ctx context.Context, scopeKey string) (Mapping, bool, error)
}

// AccumulationStore persists the per-student aid cache.
type AccumulationStore interface {
	// ReplacePeriod swaps all rows of period for rows.
	ReplacePeriod(ctx context.Context, period string, rows []Accumulation) error
	ListPeriod(ctx context.Context, period string) ([]Accumulation, error)
}

type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Replace(ctx context.Context, m Mapping) (Mapping, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Lock the current row so two editors of the same slot serialize.
		var current []Mapping
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("scope_key = ? AND active", m.ScopeKey).
			Find(&current).Error; err != nil {
			return err
		}
		if len(current) > 0 {
			if err := tx.Model(&Mapping{}).
				Where("scope_key = ? AND active", m.ScopeKey).
				Updates(map[string]any{"active": false, "updated_at": time.Now()}).Error; err != nil {
				return err
			}
		}
		m.ID = uuid.Nil
		m.Active = true
		return tx.Create(&m).Error
	})
	if err != nil {
		return Mapping{}, fmt.Errorf("replace mapping %s: %w", m.ScopeKey, err)
	}
	return m, nil
}

func (s *Store) Get(ctx context.Context, id uuid.UUID) (Mapping, error) {
	var m Mapping
	err := s.db.WithContext(ctx).First(&m, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Mapping{}, apperr.NotFound("mapping", id)
	}
	if err != nil {
		return Mapping{}, fmt.Errorf("get mapping %s: %w", id, err)
	}
	return m, nil
}

func (s *Store) Active(ctx context.Context, scopeKey string) (Mapping, bool, error) {
	var list []Mapping
	err := s.db.WithContext(ctx).
		Where("scope_key = ? AND active", scopeKey).
		Order("created_at DESC").
		Limit(1).
		Find(&list).Error
	if err != nil {
		return Mapping{}, false, fmt.Errorf("active mapping %s: %w", scopeKey, err)
	}
	if len(list) == 0 {
		return Mapping{}, false, nil
	}
	return list[0], true, nil
}

func (s *Store) ReplacePeriod(ctx context.Context, period string, rows []Accumulation) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("period = ?", period).Delete(&Accumulation{}).Error; err != nil {
			return fmt.Errorf("clear accumulations %s: %w", period, err)
		}
		if len(rows) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(rows, 500).Error; err != nil {
			return fmt.Errorf("insert accumulations %s: %w", period, err)
		}
		return nil
	})
}

func (s *Store) ListPeriod(ctx context.Context, period string) ([]Accumulation, error) {
	var out []Accumulation
	if err := s.db.WithContext(ctx).
		Where("period = ?", period).
		Order("student_id ASC").
		Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list accumulations %s: %w", period, err)
	}
	return out, nil
}
