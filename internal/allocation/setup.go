package allocation

import (
	"fmt"

	"gorm.io/gorm"
)

// Init migrates the allocation tables. finance.Init must run first so the
// schema and uuid-ossp exist.
func Init(d *gorm.DB) error {
	if err := d.AutoMigrate(&Mapping{}, &Accumulation{}); err != nil {
		return fmt.Errorf("auto-migrate allocation tables: %w", err)
	}

	// One active mapping per slot.
	if err := d.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_allocation_mapping_active
		ON finance.allocation_mappings (scope_key) WHERE active;
	`).Error; err != nil {
		return fmt.Errorf("create idx_allocation_mapping_active: %w", err)
	}

	return nil
}
