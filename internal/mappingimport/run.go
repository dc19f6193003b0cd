package mappingimport

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fuyudunniam-spec/E-MAKTAB-MANAJEMEN-PESANTREN-V1-sub012/internal/allocation"
	"github.com/fuyudunniam-spec/E-MAKTAB-MANAJEMEN-PESANTREN-V1-sub012/internal/finance"
)

type Config struct {
	CSVPath     string
	DatabaseURL string
	Namespace   string
	DryRun      bool
}

type Summary struct {
	Rows        int
	Deactivated int64
}

func Run(ctx context.Context, cfg Config) (Summary, error) {
	ns, err := uuid.Parse(cfg.Namespace)
	if err != nil {
		return Summary{}, fmt.Errorf("invalid namespace uuid: %w", err)
	}

	rows, err := ParseFile(cfg.CSVPath)
	if err != nil {
		return Summary{}, err
	}
	if cfg.DryRun {
		return Summary{Rows: len(rows)}, nil
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		return Summary{}, err
	}
	if err := finance.Init(db); err != nil {
		return Summary{}, err
	}
	if err := allocation.Init(db); err != nil {
		return Summary{}, err
	}

	var sum Summary
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		sum, err = Import(tx, ns, rows)
		return err
	})
	return sum, err
}

// Import writes rows with deterministic ids. Any other active mapping for
// the same slot is deactivated first, which keeps the one-active-per-slot
// index satisfied.
func Import(tx *gorm.DB, ns uuid.UUID, rows []allocation.Mapping) (Summary, error) {
	sum := Summary{Rows: len(rows)}
	for _, m := range rows {
		m.ID = MappingID(ns, m.ScopeKey)
		m.Active = true

		res := tx.Model(&allocation.Mapping{}).
			Where("scope_key = ? AND active AND id <> ?", m.ScopeKey, m.ID).
			Update("active", false)
		if res.Error != nil {
			return sum, fmt.Errorf("deactivate %s: %w", m.ScopeKey, res.Error)
		}
		sum.Deactivated += res.RowsAffected

		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"scope", "category", "subcategory", "scope_key", "mode",
				"student_ids", "description", "active", "created_by", "updated_at",
			}),
		}).Create(&m).Error; err != nil {
			return sum, fmt.Errorf("upsert mapping %s: %w", m.ScopeKey, err)
		}
	}
	return sum, nil
}
