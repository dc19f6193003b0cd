package profitsharing

import (
	"fmt"

	"gorm.io/gorm"
)

// Init migrates the profit-sharing table. finance.Init must run first.
func Init(d *gorm.DB) error {
	if err := d.AutoMigrate(&Record{}); err != nil {
		return fmt.Errorf("auto-migrate profit sharing tables: %w", err)
	}
	return nil
}
