package report

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fuyudunniam-spec/E-MAKTAB-MANAJEMEN-PESANTREN-V1-sub012/internal/apperr"
	"github.com/fuyudunniam-spec/E-MAKTAB-MANAJEMEN-PESANTREN-V1-sub012/internal/config"
	"github.com/fuyudunniam-spec/E-MAKTAB-MANAJEMEN-PESANTREN-V1-sub012/internal/finance"
	"github.com/fuyudunniam-spec/E-MAKTAB-MANAJEMEN-PESANTREN-V1-sub012/internal/finance/inmemory"
	"github.com/fuyudunniam-spec/E-MAKTAB-MANAJEMEN-PESANTREN-V1-sub012/internal/money"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func posted(d time.Time, kind finance.Kind, amount int64, category, sub string) finance.Transaction {
	return finance.Transaction{
		ID:          uuid.New(),
		Date:        d,
		Kind:        kind,
		Amount:      money.FromInt(amount),
		Category:    category,
		Subcategory: sub,
		Ledger:      finance.LedgerGeneral,
		Status:      finance.StatusPosted,
	}
}

func mustRange(t *testing.T, from, to time.Time) finance.DateRange {
	t.Helper()
	r, err := finance.NewDateRange(from, to)
	require.NoError(t, err)
	return r
}

func newTestService(store *inmemory.Store) *Service {
	return NewService(store, store, config.DefaultFinance())
}

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func TestMonthlyFlowRunningBalance(t *testing.T) {
	store := inmemory.NewStore()
	store.AddTransactions(
		posted(day(2025, 1, 3), finance.KindIncome, 5_000_000, "Donasi", ""),
		posted(day(2025, 1, 20), finance.KindExpense, 2_000_000, "Pembangunan", ""),
		posted(day(2025, 2, 1), finance.KindIncome, 1_000_000, "Donasi", ""),
		posted(day(2025, 2, 28), finance.KindExpense, 4_000_000, "Operasional Yayasan", ""),
	)

	rep, err := newTestService(store).MonthlyFlow(context.Background(), FlowRequest{
		Range: mustRange(t, day(2025, 1, 1), day(2025, 2, 28)),
	})
	require.NoError(t, err)
	require.Len(t, rep.Points, 2)

	assert.True(t, dec(3_000_000).Equal(rep.Points[0].Balance), "jan balance %s", rep.Points[0].Balance)
	assert.True(t, dec(0).Equal(rep.Points[1].Balance), "feb balance %s", rep.Points[1].Balance)
	assert.True(t, dec(6_000_000).Equal(rep.TotalIncome))
	assert.True(t, dec(6_000_000).Equal(rep.TotalExpense))
	assert.Equal(t, "Jan 2025", rep.Points[0].Label)
	assert.False(t, rep.DegradedData)
}

func TestMonthlyFlowEmptyMonthsAndOpeningBalance(t *testing.T) {
	store := inmemory.NewStore()
	store.AddTransactions(
		posted(day(2025, 1, 10), finance.KindIncome, 100, "Donasi", ""),
		posted(day(2025, 4, 10), finance.KindExpense, 30, "Pembangunan", ""),
	)

	rep, err := newTestService(store).MonthlyFlow(context.Background(), FlowRequest{
		Range:          mustRange(t, day(2025, 1, 1), day(2025, 4, 30)),
		OpeningBalance: dec(50),
	})
	require.NoError(t, err)
	require.Len(t, rep.Points, 4)

	wantPeriods := []string{"2025-01", "2025-02", "2025-03", "2025-04"}
	wantBalances := []int64{150, 150, 150, 120}
	for i, pt := range rep.Points {
		assert.Equal(t, wantPeriods[i], pt.Period.String())
		assert.True(t, dec(wantBalances[i]).Equal(pt.Balance), "month %d balance %s", i, pt.Balance)
	}
	assert.True(t, rep.Points[1].Income.IsZero())
	assert.True(t, rep.Points[1].Expense.IsZero())
	assert.True(t, dec(120).Equal(rep.ClosingBalance))

	// one store query per month keeps memory bounded
	assert.Equal(t, 4, store.Finds())
}

func TestMonthlyFlowIgnoresDraftsAndOtherAccounts(t *testing.T) {
	acct := uuid.New()
	store := inmemory.NewStore()

	draft := posted(day(2025, 1, 2), finance.KindIncome, 999, "Donasi", "")
	draft.Status = finance.StatusDraft
	onAcct := posted(day(2025, 1, 3), finance.KindIncome, 10, "Donasi", "")
	onAcct.AccountID = &acct
	elsewhere := posted(day(2025, 1, 4), finance.KindIncome, 20, "Donasi", "")
	store.AddTransactions(draft, onAcct, elsewhere)

	svc := newTestService(store)
	rep, err := svc.MonthlyFlow(context.Background(), FlowRequest{Range: mustRange(t, day(2025, 1, 1), day(2025, 1, 31))})
	require.NoError(t, err)
	assert.True(t, dec(30).Equal(rep.TotalIncome), "drafts never count")

	rep, err = svc.MonthlyFlow(context.Background(), FlowRequest{
		Range:     mustRange(t, day(2025, 1, 1), day(2025, 1, 31)),
		AccountID: &acct,
	})
	require.NoError(t, err)
	assert.True(t, dec(10).Equal(rep.TotalIncome))
}

func TestCooperativeTransactionsNeverReachGeneralReports(t *testing.T) {
	managedBy := "koperasi"
	coopAcct := finance.Account{ID: uuid.New(), Name: "Kas Umum", ManagedBy: &managedBy}

	store := inmemory.NewStore()
	store.AddAccounts(coopAcct)

	sale := posted(day(2025, 3, 5), finance.KindIncome, 400, "Penjualan", "")
	sale.AccountID = &coopAcct.ID // tagged GENERAL, owned by the cooperative
	purchase := posted(day(2025, 3, 6), finance.KindExpense, 250, "Pembangunan", "")
	purchase.AccountID = &coopAcct.ID
	general := posted(day(2025, 3, 7), finance.KindExpense, 100, "Pembangunan", "")
	store.AddTransactions(sale, purchase, general)

	svc := newTestService(store)
	rng := mustRange(t, day(2025, 3, 1), day(2025, 3, 31))

	flow, err := svc.MonthlyFlow(context.Background(), FlowRequest{Range: rng, Ledger: finance.LedgerGeneral})
	require.NoError(t, err)
	assert.True(t, flow.TotalIncome.IsZero())
	assert.True(t, dec(100).Equal(flow.TotalExpense))

	breakdown, err := svc.CategoryBreakdown(context.Background(), BreakdownRequest{Range: rng, Ledger: finance.LedgerGeneral})
	require.NoError(t, err)
	assert.True(t, dec(100).Equal(breakdown.Total))

	coop, err := svc.MonthlyFlow(context.Background(), FlowRequest{Range: rng, Ledger: finance.LedgerCooperative})
	require.NoError(t, err)
	assert.True(t, dec(400).Equal(coop.TotalIncome))
	assert.True(t, dec(250).Equal(coop.TotalExpense))
}

func TestCategoryBreakdownSeedsPillars(t *testing.T) {
	store := inmemory.NewStore()
	store.AddTransactions(posted(day(2025, 5, 1), finance.KindExpense, 500_000, "Pembangunan", "Renovasi Asrama"))

	rep, err := newTestService(store).CategoryBreakdown(context.Background(), BreakdownRequest{
		Range: mustRange(t, day(2025, 1, 1), day(2025, 12, 31)),
	})
	require.NoError(t, err)

	require.Len(t, rep.Points, 6)
	assert.Equal(t, "Pembangunan", rep.Points[0].Name)
	assert.Equal(t, int64(100), rep.Points[0].Percentage)
	assert.Equal(t, "#f97316", rep.Points[0].Color)

	var bly *CategoryPoint
	for i := range rep.Points {
		if rep.Points[i].Name == "Bantuan Langsung Yayasan" {
			bly = &rep.Points[i]
		}
	}
	require.NotNil(t, bly)
	assert.True(t, bly.Amount.IsZero())
	assert.Equal(t, int64(0), bly.Percentage)
	assert.True(t, bly.Pillar)

	// zero-amount pillars keep canonical order
	assert.Equal(t, "Bantuan Langsung Yayasan", rep.Points[1].Name)
	assert.Equal(t, "Operasional Yayasan", rep.Points[5].Name)
}

func TestCategoryBreakdownSortingAndPercentages(t *testing.T) {
	store := inmemory.NewStore()
	store.AddTransactions(
		posted(day(2025, 1, 1), finance.KindExpense, 1, "Pendidikan Formal", ""),
		posted(day(2025, 1, 2), finance.KindExpense, 1, "pendidikan  formal ", ""),
		posted(day(2025, 1, 3), finance.KindExpense, 1, "Listrik", ""),
		posted(day(2025, 1, 4), finance.KindExpense, 1, "", ""),
		posted(day(2025, 1, 5), finance.KindIncome, 100, "Donasi", ""),
	)

	rep, err := newTestService(store).CategoryBreakdown(context.Background(), BreakdownRequest{
		Range: mustRange(t, day(2025, 1, 1), day(2025, 1, 31)),
	})
	require.NoError(t, err)

	assert.True(t, dec(4).Equal(rep.Total), "income is not part of the breakdown")
	require.GreaterOrEqual(t, len(rep.Points), 3)
	assert.Equal(t, "Pendidikan Formal", rep.Points[0].Name)
	assert.Equal(t, int64(50), rep.Points[0].Percentage)
	assert.Equal(t, 2, rep.Points[0].Transactions)

	// 1/4 ties: pillars first, then names
	assert.Equal(t, "Lain-lain", rep.Points[1].Name)
	assert.Equal(t, "Listrik", rep.Points[2].Name)
	assert.Equal(t, int64(25), rep.Points[1].Percentage)
	assert.Equal(t, "#6b7280", rep.Points[1].Color)
	assert.Equal(t, "#9ca3af", rep.Points[2].Color)
}

func TestBreakdownCountsUnparsableAmounts(t *testing.T) {
	store := inmemory.NewStore()
	bad := posted(day(2025, 1, 1), finance.KindExpense, 0, "Pembangunan", "")
	bad.Amount = money.Coerce("seratus ribu")
	store.AddTransactions(bad, posted(day(2025, 1, 2), finance.KindExpense, 300, "Pembangunan", ""))

	rep, err := newTestService(store).CategoryBreakdown(context.Background(), BreakdownRequest{
		Range: mustRange(t, day(2025, 1, 1), day(2025, 1, 31)),
	})
	require.NoError(t, err)
	assert.True(t, rep.DegradedData)
	assert.Equal(t, 1, rep.DegradedCount)
	assert.Equal(t, apperr.UnparsableAmount, rep.Warnings[0].Code)
	assert.True(t, dec(300).Equal(rep.Total))
}

func TestSubcategoryBreakdown(t *testing.T) {
	store := inmemory.NewStore()
	store.AddTransactions(
		posted(day(2025, 2, 1), finance.KindExpense, 300, "Operasional dan Konsumsi Santri", "Beras"),
		posted(day(2025, 2, 2), finance.KindExpense, 100, "Operasional dan Konsumsi Santri", "Lauk"),
		posted(day(2025, 2, 3), finance.KindExpense, 100, "operasional dan konsumsi santri", " "),
		posted(day(2025, 2, 4), finance.KindExpense, 900, "Pembangunan", "Atap"),
	)
	svc := newTestService(store)
	req := BreakdownRequest{Range: mustRange(t, day(2025, 2, 1), day(2025, 2, 28))}

	rep, err := svc.SubcategoryBreakdown(context.Background(), "Operasional dan Konsumsi Santri", req)
	require.NoError(t, err)
	require.Len(t, rep.Points, 3)
	assert.True(t, dec(500).Equal(rep.Total))

	assert.Equal(t, "Beras", rep.Points[0].Name)
	assert.Equal(t, int64(60), rep.Points[0].Percentage)
	// 100/100 tie resolved by name
	assert.Equal(t, "Lauk", rep.Points[1].Name)
	assert.Equal(t, "Tidak ada sub kategori", rep.Points[2].Name)

	// #10b981 scaled by 0.7, 0.8, 0.9 in name order
	colors := map[string]string{}
	for _, p := range rep.Points {
		colors[p.Name] = p.Color
	}
	assert.Equal(t, shade("#10b981", 0), colors["Beras"])
	assert.Equal(t, shade("#10b981", 1), colors["Lauk"])
	assert.Equal(t, shade("#10b981", 2), colors["Tidak ada sub kategori"])

	// colours follow names, not amounts
	store.AddTransactions(posted(day(2025, 2, 5), finance.KindExpense, 5000, "Operasional dan Konsumsi Santri", "Lauk"))
	rep2, err := svc.SubcategoryBreakdown(context.Background(), "Operasional dan Konsumsi Santri", req)
	require.NoError(t, err)
	assert.Equal(t, "Lauk", rep2.Points[0].Name)
	assert.Equal(t, colors["Lauk"], rep2.Points[0].Color)

	_, err = svc.SubcategoryBreakdown(context.Background(), "  ", req)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestSubcategoryBreakdownOfUncategorized(t *testing.T) {
	store := inmemory.NewStore()
	store.AddTransactions(
		posted(day(2025, 2, 1), finance.KindExpense, 70, "", "Parkir"),
		posted(day(2025, 2, 2), finance.KindExpense, 30, "Pembangunan", "Atap"),
	)

	rep, err := newTestService(store).SubcategoryBreakdown(context.Background(), "Lain-lain", BreakdownRequest{
		Range: mustRange(t, day(2025, 2, 1), day(2025, 2, 28)),
	})
	require.NoError(t, err)
	require.Len(t, rep.Points, 1)
	assert.Equal(t, "Parkir", rep.Points[0].Name)
	assert.Equal(t, shade("#6b7280", 0), rep.Points[0].Color)
}

func TestCategoryBreakdownExpandsSubcategories(t *testing.T) {
	store := inmemory.NewStore()
	store.AddTransactions(
		posted(day(2025, 2, 1), finance.KindExpense, 300, "Pembangunan", "Atap"),
		posted(day(2025, 2, 2), finance.KindExpense, 100, "Pembangunan", ""),
	)

	rep, err := newTestService(store).CategoryBreakdown(context.Background(), BreakdownRequest{
		Range:               mustRange(t, day(2025, 2, 1), day(2025, 2, 28)),
		ExpandSubcategories: true,
	})
	require.NoError(t, err)

	top := rep.Points[0]
	assert.Equal(t, "Pembangunan", top.Name)
	require.Len(t, top.Subcategories, 2)
	assert.Equal(t, "Atap", top.Subcategories[0].Name)
	assert.Equal(t, int64(75), top.Subcategories[0].Percentage)
	assert.NotNil(t, rep.Points[1].Subcategories, "zero pillars carry an empty list")
	assert.Empty(t, rep.Points[1].Subcategories)
}

func TestReportsRejectBadRanges(t *testing.T) {
	svc := newTestService(inmemory.NewStore())
	_, err := svc.MonthlyFlow(context.Background(), FlowRequest{Range: finance.DateRange{From: day(2025, 3, 1), To: day(2025, 1, 1)}})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = svc.CategoryBreakdown(context.Background(), BreakdownRequest{})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestShade(t *testing.T) {
	assert.Equal(t, "#464646", shade("#646464", 0))
	assert.Equal(t, "#ffffff", shade("#f0f0f0", 10), "channels clamp at 255")
	assert.Equal(t, shade("#6b7280", 1), shade("not-a-colour", 1))
}
