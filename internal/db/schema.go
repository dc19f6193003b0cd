package db

import (
	"fmt"
	"regexp"

	"gorm.io/gorm"
)

var schemaNameRe = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

func EnsureSchema(d *gorm.DB, schema string) error {
	if !schemaNameRe.MatchString(schema) {
		return fmt.Errorf("invalid schema name %q", schema)
	}
	return d.Exec(`CREATE SCHEMA IF NOT EXISTS "` + schema + `"`).Error
}
