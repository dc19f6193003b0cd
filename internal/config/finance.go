package config

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
)

// Pillar is a top-level expense category that is always reported.
type Pillar struct {
	Name  string `yaml:"name"`
	Color string `yaml:"color"`
}

// MaxCurrencyScale is the widest fraction the money columns store.
const MaxCurrencyScale = 4

// Finance carries the labels and constants the finance engine computes with.
// It is passed explicitly into each service; nothing reads it globally.
type Finance struct {
	CurrencyScale      int32    `yaml:"currency_scale"`
	Pillars            []Pillar `yaml:"pillars"`
	FallbackColors     []string `yaml:"fallback_colors"`
	DefaultColor       string   `yaml:"default_color"`
	UncategorizedLabel string   `yaml:"uncategorized_label"`
	NoSubcategoryLabel string   `yaml:"no_subcategory_label"`
	TransferCategory   string   `yaml:"transfer_category"`
	SalesSourceModule  string   `yaml:"sales_source_module"`
	ResidentCategory   string   `yaml:"resident_category"`
	ActiveStatus       string   `yaml:"active_status"`
}

func DefaultFinance() Finance {
	return Finance{
		CurrencyScale: 0,
		Pillars: []Pillar{
			{Name: "Bantuan Langsung Yayasan", Color: "#3b82f6"},
			{Name: "Operasional dan Konsumsi Santri", Color: "#10b981"},
			{Name: "Pendidikan Formal", Color: "#f59e0b"},
			{Name: "Pendidikan Pesantren", Color: "#8b5cf6"},
			{Name: "Operasional Yayasan", Color: "#ef4444"},
			{Name: "Pembangunan", Color: "#f97316"},
		},
		FallbackColors:     []string{"#6b7280", "#9ca3af", "#d1d5db", "#e5e7eb"},
		DefaultColor:       "#6b7280",
		UncategorizedLabel: "Lain-lain",
		NoSubcategoryLabel: "Tidak ada sub kategori",
		TransferCategory:   "Transfer dari Koperasi",
		SalesSourceModule:  "koperasi",
		ResidentCategory:   "Binaan Mukim",
		ActiveStatus:       "Aktif",
	}
}

func (f Finance) Validate() error {
	if f.CurrencyScale < 0 || f.CurrencyScale > MaxCurrencyScale {
		return ErrInvalidCurrencyScale
	}

	seen := make(map[string]bool, len(f.Pillars))
	for _, p := range f.Pillars {
		if strings.TrimSpace(p.Name) == "" {
			return fmt.Errorf("pillar name: %w", ErrEmptyLabel)
		}
		if !hexColorRe.MatchString(p.Color) {
			return fmt.Errorf("pillar %q: %w", p.Name, ErrInvalidColor)
		}
		k := Key(p.Name)
		if seen[k] {
			return fmt.Errorf("%w: %s", ErrDuplicatePillar, p.Name)
		}
		seen[k] = true
	}
	for _, c := range append([]string{f.DefaultColor}, f.FallbackColors...) {
		if !hexColorRe.MatchString(c) {
			return fmt.Errorf("fallback %q: %w", c, ErrInvalidColor)
		}
	}

	labels := map[string]string{
		"uncategorized_label":  f.UncategorizedLabel,
		"no_subcategory_label": f.NoSubcategoryLabel,
		"transfer_category":    f.TransferCategory,
		"sales_source_module":  f.SalesSourceModule,
		"resident_category":    f.ResidentCategory,
		"active_status":        f.ActiveStatus,
	}
	for name, v := range labels {
		if strings.TrimSpace(v) == "" {
			return fmt.Errorf("%s: %w", name, ErrEmptyLabel)
		}
	}
	return nil
}

// Key folds a category or label so "pembangunan " and "Pembangunan" group together.
func Key(s string) string {
	return cases.Fold().String(strings.Join(strings.Fields(s), " "))
}

// PillarIndex returns the canonical position of a pillar, or -1.
func (f Finance) PillarIndex(name string) int {
	k := Key(name)
	for i, p := range f.Pillars {
		if Key(p.Name) == k {
			return i
		}
	}
	return -1
}
