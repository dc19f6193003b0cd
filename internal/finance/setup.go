package finance

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/fuyudunniam-spec/E-MAKTAB-MANAJEMEN-PESANTREN-V1-sub012/internal/db"
)

// Schema holds every table this service reads or derives.
const Schema = "finance"

// Init prepares the finance schema and the upstream-owned tables.
func Init(d *gorm.DB) error {
	if err := db.EnsureSchema(d, Schema); err != nil {
		return fmt.Errorf("ensure schema %s: %w", Schema, err)
	}

	if err := d.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`).Error; err != nil {
		return fmt.Errorf("enable uuid-ossp: %w", err)
	}

	if err := d.AutoMigrate(&Account{}, &Transaction{}); err != nil {
		return fmt.Errorf("auto-migrate finance tables: %w", err)
	}

	// Every report filters on posted rows of one kind.
	if err := d.Exec(`
		CREATE INDEX IF NOT EXISTS idx_txn_status_kind_date
		ON finance.transactions (status, kind, date);
	`).Error; err != nil {
		return fmt.Errorf("create idx_txn_status_kind_date: %w", err)
	}

	return nil
}
