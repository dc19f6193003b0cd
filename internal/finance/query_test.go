package finance

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/fuyudunniam-spec/E-MAKTAB-MANAJEMEN-PESANTREN-V1-sub012/internal/apperr"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNewQueryValidatesPredicates(t *testing.T) {
	_, err := NewQuery(InRange(DateRange{From: date(2025, 3, 1), To: date(2025, 1, 1)}))
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = NewQuery(InLedger("BANK", nil))
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = NewQuery(ForAccount(uuid.Nil))
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = NewQuery(InCategory("  "))
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = NewQuery(WithStatus("void"))
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = NewQuery(WithStatus(StatusPosted), WithStatus(StatusDraft))
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestQueryMatch(t *testing.T) {
	owned := uuid.New()
	other := uuid.New()

	r, err := NewDateRange(date(2025, 1, 1), date(2025, 1, 31))
	require.NoError(t, err)

	q, err := NewQuery(
		InRange(r),
		InLedger(LedgerGeneral, []uuid.UUID{owned}),
		WithStatus(StatusPosted),
		OfKind(KindExpense),
		InCategory("pembangunan"),
	)
	require.NoError(t, err)

	base := Transaction{
		Date:     date(2025, 1, 31),
		Kind:     KindExpense,
		Category: " Pembangunan",
		Ledger:   LedgerGeneral,
		Status:   StatusPosted,
	}
	assert.True(t, q.Match(base))

	onOwnedAccount := base
	onOwnedAccount.Ledger = LedgerCooperative
	onOwnedAccount.AccountID = &owned
	assert.True(t, q.Match(onOwnedAccount), "rows on owned accounts are fetched for re-check")

	foreign := base
	foreign.Ledger = LedgerCooperative
	foreign.AccountID = &other
	assert.False(t, q.Match(foreign))

	draft := base
	draft.Status = StatusDraft
	assert.False(t, q.Match(draft))

	late := base
	late.Date = date(2025, 2, 1)
	assert.False(t, q.Match(late))

}

func TestCategorySQLMatchesKey(t *testing.T) {
	db, err := gorm.Open(postgres.New(postgres.Config{DSN: "host=localhost user=finance dbname=finance sslmode=disable"}),
		&gorm.Config{DryRun: true, DisableAutomaticPing: true})
	require.NoError(t, err)

	pred := InCategory("  Listrik \t  PLN ")
	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		return pred.Apply(tx.Model(&Transaction{})).Find(&[]Transaction{})
	})
	assert.Contains(t, sql, "REGEXP_REPLACE(category")
	assert.Contains(t, sql, "'listrik pln'")

	assert.True(t, pred.Match(Transaction{Category: "LISTRIK   PLN"}))
	assert.False(t, pred.Match(Transaction{Category: "Listrik"}))
}

func TestPeriods(t *testing.T) {
	r, err := ParseDateRange("2024-11-15", "2025-02-03")
	require.NoError(t, err)

	periods := r.Periods()
	require.Len(t, periods, 4)
	assert.Equal(t, "2024-11", periods[0].String())
	assert.Equal(t, "2025-02", periods[3].String())

	clipped := r.Clip(periods[0])
	assert.Equal(t, date(2024, 11, 15), clipped.From)
	assert.Equal(t, date(2024, 11, 30), clipped.To)

	clipped = r.Clip(periods[3])
	assert.Equal(t, date(2025, 2, 1), clipped.From)
	assert.Equal(t, date(2025, 2, 3), clipped.To)
}

func TestParsePeriodAndLimits(t *testing.T) {
	p, err := ParsePeriod("2025-02")
	require.NoError(t, err)
	assert.Equal(t, date(2025, 2, 28), p.End())
	assert.Equal(t, "2025-03", p.Next().String())

	_, err = ParsePeriod("02/2025")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = NewPeriod(2025, 13)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = ParseDateRange("2000-01-01", "2025-01-01")
	assert.ErrorIs(t, err, apperr.ErrValidation, "ranges longer than the month limit are rejected")
}

func TestParseLedger(t *testing.T) {
	l, err := ParseLedger(" cooperative ")
	require.NoError(t, err)
	assert.Equal(t, LedgerCooperative, l)

	_, err = ParseLedger("koperasi")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}
