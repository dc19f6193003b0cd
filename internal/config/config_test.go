package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultFinanceIsValid(t *testing.T) {
	f := DefaultFinance()
	require.NoError(t, f.Validate())
	assert.Equal(t, int32(0), f.CurrencyScale)
	assert.Equal(t, 0, f.PillarIndex("bantuan langsung  yayasan"))
	assert.Equal(t, 5, f.PillarIndex("PEMBANGUNAN"))
	assert.Equal(t, -1, f.PillarIndex("Listrik"))
}

func TestLoadFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "finance.yaml")
	body := `
port: "6060"
database_url: postgres://file
finance:
  currency_scale: 2
  transfer_category: Setoran Koperasi
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	t.Setenv("PORT", "")
	t.Setenv("DATABASE_URL", "postgres://env")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("RATE_LIMIT_BURST", "7")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "6060", cfg.Port)
	assert.Equal(t, "postgres://env", cfg.DatabaseURL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, 7, cfg.RateLimit.Burst)
	assert.Equal(t, int32(2), cfg.Finance.CurrencyScale)
	assert.Equal(t, "Setoran Koperasi", cfg.Finance.TransferCategory)
	// untouched keys keep their defaults
	assert.Equal(t, "Lain-lain", cfg.Finance.UncategorizedLabel)
	require.NoError(t, cfg.Validate())
}

func TestLoadRejectsBadEnv(t *testing.T) {
	t.Setenv("CURRENCY_SCALE", "two")
	_, err := Load("")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	assert.ErrorIs(t, cfg.Validate(), ErrMissingDatabaseURL)

	cfg.DatabaseURL = "postgres://x"
	require.NoError(t, cfg.Validate())

	bad := cfg
	bad.Finance.CurrencyScale = MaxCurrencyScale + 1
	assert.ErrorIs(t, bad.Validate(), ErrInvalidCurrencyScale)
	bad.Finance.CurrencyScale = MaxCurrencyScale
	require.NoError(t, bad.Validate())

	bad = Default()
	bad.DatabaseURL = "postgres://x"
	bad.Finance.Pillars = append(bad.Finance.Pillars, Pillar{Name: "pembangunan", Color: "#000000"})
	assert.ErrorIs(t, bad.Validate(), ErrDuplicatePillar)

	bad = Default()
	bad.DatabaseURL = "postgres://x"
	bad.Finance.Pillars = []Pillar{{Name: "Dapur", Color: "red"}}
	assert.ErrorIs(t, bad.Validate(), ErrInvalidColor)

	bad = Default()
	bad.DatabaseURL = "postgres://x"
	bad.Finance.TransferCategory = "  "
	assert.ErrorIs(t, bad.Validate(), ErrEmptyLabel)
}
