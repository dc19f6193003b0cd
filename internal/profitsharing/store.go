package profitsharing

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fuyudunniam-spec/E-MAKTAB-MANAJEMEN-PESANTREN-V1-sub012/internal/apperr"
	"github.com/fuyudunniam-spec/E-MAKTAB-MANAJEMEN-PESANTREN-V1-sub012/internal/finance"
)

// RecordStore persists one record per month. Upsert replaces the split,
// variance and payment state of an existing month; the actual transfer
// and reconciliation time are kept.
type RecordStore interface {
	Upsert(ctx context.Context, r Record) (Record, error)
	Get(ctx context.Context, id uuid.UUID) (Record, error)
	GetByPeriod(ctx context.Context, p finance.Period) (Record, error)
	List(ctx context.Context, year int) ([]Record, error)
	SetReconciliation(ctx context.Context, id uuid.UUID, rec Reconciliation) error
	SetPayment(ctx context.Context, id uuid.UUID, pay Payment) error
}

type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Upsert(ctx context.Context, r Record) (Record, error) {
	r.ID = uuid.Nil
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "year"}, {Name: "month"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"mode", "total_sales", "pct_foundation", "pct_cooperative",
			"foundation_share", "cooperative_share", "variance",
			"status", "paid_at", "paid_note", "paid_by", "updated_at",
		}),
	}).Create(&r).Error
	if err != nil {
		return Record{}, fmt.Errorf("upsert profit sharing %04d-%02d: %w", r.Year, r.Month, err)
	}
	return s.GetByPeriod(ctx, r.Period())
}

func (s *Store) Get(ctx context.Context, id uuid.UUID) (Record, error) {
	var r Record
	err := s.db.WithContext(ctx).First(&r, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Record{}, apperr.NotFound("profit sharing record", id)
	}
	if err != nil {
		return Record{}, fmt.Errorf("get profit sharing %s: %w", id, err)
	}
	return r, nil
}

func (s *Store) GetByPeriod(ctx context.Context, p finance.Period) (Record, error) {
	var r Record
	err := s.db.WithContext(ctx).First(&r, "year = ? AND month = ?", p.Year, int(p.Month)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Record{}, apperr.NotFound("profit sharing record", p.String())
	}
	if err != nil {
		return Record{}, fmt.Errorf("get profit sharing %s: %w", p, err)
	}
	return r, nil
}

func (s *Store) List(ctx context.Context, year int) ([]Record, error) {
	var out []Record
	if err := s.db.WithContext(ctx).
		Where("year = ?", year).
		Order("month ASC").
		Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list profit sharing %d: %w", year, err)
	}
	return out, nil
}

func (s *Store) SetReconciliation(ctx context.Context, id uuid.UUID, rec Reconciliation) error {
	res := s.db.WithContext(ctx).Model(&Record{}).Where("id = ?", id).Updates(map[string]any{
		"actual_transfer": rec.ActualTransfer,
		"variance":        rec.Variance,
		"reconciled_at":   rec.At,
	})
	if res.Error != nil {
		return fmt.Errorf("reconcile profit sharing %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("profit sharing record", id)
	}
	return nil
}

func (s *Store) SetPayment(ctx context.Context, id uuid.UUID, pay Payment) error {
	res := s.db.WithContext(ctx).Model(&Record{}).Where("id = ?", id).Updates(map[string]any{
		"status":    pay.Status,
		"paid_at":   pay.At,
		"paid_note": pay.Note,
		"paid_by":   pay.By,
	})
	if res.Error != nil {
		return fmt.Errorf("update payment %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("profit sharing record", id)
	}
	return nil
}
