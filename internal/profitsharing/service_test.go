package profitsharing_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fuyudunniam-spec/E-MAKTAB-MANAJEMEN-PESANTREN-V1-sub012/internal/apperr"
	"github.com/fuyudunniam-spec/E-MAKTAB-MANAJEMEN-PESANTREN-V1-sub012/internal/config"
	"github.com/fuyudunniam-spec/E-MAKTAB-MANAJEMEN-PESANTREN-V1-sub012/internal/finance"
	finmem "github.com/fuyudunniam-spec/E-MAKTAB-MANAJEMEN-PESANTREN-V1-sub012/internal/finance/inmemory"
	"github.com/fuyudunniam-spec/E-MAKTAB-MANAJEMEN-PESANTREN-V1-sub012/internal/logger"
	"github.com/fuyudunniam-spec/E-MAKTAB-MANAJEMEN-PESANTREN-V1-sub012/internal/money"
	"github.com/fuyudunniam-spec/E-MAKTAB-MANAJEMEN-PESANTREN-V1-sub012/internal/profitsharing"
	psmem "github.com/fuyudunniam-spec/E-MAKTAB-MANAJEMEN-PESANTREN-V1-sub012/internal/profitsharing/inmemory"
)

var march = finance.Period{Year: 2025, Month: time.March}

func txn(day int, l finance.Ledger, kind finance.Kind, amount int64, category, module string) finance.Transaction {
	return finance.Transaction{
		ID:           uuid.New(),
		Date:         time.Date(2025, 3, day, 0, 0, 0, 0, time.UTC),
		Kind:         kind,
		Amount:       money.FromInt(amount),
		Category:     category,
		Ledger:       l,
		Status:       finance.StatusPosted,
		SourceModule: module,
	}
}

func newService() (*profitsharing.Service, *finmem.Store, *psmem.Store) {
	txns := finmem.NewStore()
	records := psmem.NewStore()
	return profitsharing.NewService(records, txns, txns, config.DefaultFinance()), txns, records
}

func pct(v int64) *decimal.Decimal {
	p := decimal.NewFromInt(v)
	return &p
}

func TestComputeForPeriodReadsCooperativeSales(t *testing.T) {
	svc, txns, _ := newService()
	draft := txn(4, finance.LedgerCooperative, finance.KindIncome, 9_999, "Penjualan", "koperasi")
	draft.Status = finance.StatusDraft
	txns.AddTransactions(
		txn(2, finance.LedgerCooperative, finance.KindIncome, 600_000, "Penjualan", "koperasi"),
		txn(3, finance.LedgerCooperative, finance.KindIncome, 400_000, "Penjualan", "koperasi"),
		txn(3, finance.LedgerCooperative, finance.KindIncome, 50_000, "Hibah", "manual"),
		txn(5, finance.LedgerGeneral, finance.KindIncome, 800_000, "Donasi", "koperasi"),
		draft,
	)

	res, err := svc.ComputeForPeriod(context.Background(), march, profitsharing.ModeStandard, decimal.Zero)
	require.NoError(t, err)
	assert.Equal(t, "1000000", res.TotalSales.String())
	assert.Equal(t, "700000", res.FoundationShare.String())
	assert.Equal(t, 2, res.Transactions)
}

func TestSaveRecordUpsertsByPeriod(t *testing.T) {
	svc, _, records := newService()
	ctx := context.Background()
	total := money.FromInt(1_000_001)

	first, err := svc.SaveRecord(ctx, march, profitsharing.RecordInput{Mode: "STANDARD", TotalSales: &total})
	require.NoError(t, err)

	second, err := svc.SaveRecord(ctx, march, profitsharing.RecordInput{Mode: "CUSTOM", PctFoundation: pct(33), TotalSales: &total})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "330000", second.FoundationShare.String())
	assert.Equal(t, "670001", second.CooperativeShare.String())

	list, err := records.List(ctx, 2025)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = svc.SaveRecord(ctx, march, profitsharing.RecordInput{Mode: "CUSTOM", TotalSales: &total})
	assert.True(t, errors.Is(err, apperr.ErrValidation), "custom without pct")
}

func TestReconcileIsIdempotent(t *testing.T) {
	svc, txns, _ := newService()
	ctx := context.Background()
	total := money.FromInt(1_000_000)
	_, err := svc.SaveRecord(ctx, march, profitsharing.RecordInput{TotalSales: &total})
	require.NoError(t, err)

	txns.AddTransactions(
		txn(10, finance.LedgerGeneral, finance.KindIncome, 500_000, "Transfer dari Koperasi", ""),
		txn(20, finance.LedgerGeneral, finance.KindIncome, 150_000, "transfer dari koperasi", ""),
		txn(21, finance.LedgerCooperative, finance.KindIncome, 999_999, "Transfer dari Koperasi", ""),
	)

	first, err := svc.Reconcile(ctx, march)
	require.NoError(t, err)
	assert.Equal(t, "650000", first.ActualTransfer.String())
	assert.Equal(t, "-50000", first.Variance.String())
	assert.Equal(t, profitsharing.ShortTransfer, first.Balance)
	assert.Equal(t, 2, first.Transfers)

	second, err := svc.Reconcile(ctx, march)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	rec, err := svc.GetRecord(ctx, march)
	require.NoError(t, err)
	require.True(t, rec.Variance.Valid)
	assert.Equal(t, "-50000", rec.Variance.Decimal.String())
	assert.Equal(t, "700000", rec.FoundationShare.String())
}

func TestReconcileUnknownPeriod(t *testing.T) {
	svc, _, _ := newService()
	_, err := svc.Reconcile(context.Background(), march)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestSaveRecordKeepsActualTransfer(t *testing.T) {
	svc, txns, _ := newService()
	ctx := context.Background()
	total := money.FromInt(1_000_000)
	_, err := svc.SaveRecord(ctx, march, profitsharing.RecordInput{TotalSales: &total})
	require.NoError(t, err)
	txns.AddTransactions(txn(10, finance.LedgerGeneral, finance.KindIncome, 700_000, "Transfer dari Koperasi", ""))
	_, err = svc.Reconcile(ctx, march)
	require.NoError(t, err)

	rec, err := svc.SaveRecord(ctx, march, profitsharing.RecordInput{Mode: "CUSTOM", PctFoundation: pct(60), TotalSales: &total})
	require.NoError(t, err)
	assert.Equal(t, "700000", rec.ActualTransfer.Decimal.String())
	assert.Equal(t, "100000", rec.Variance.Decimal.String())
}

func TestMarkPaidNeedsNoteOnVariance(t *testing.T) {
	svc, txns, _ := newService()
	ctx := context.Background()
	total := money.FromInt(1_000_000)
	rec, err := svc.SaveRecord(ctx, march, profitsharing.RecordInput{TotalSales: &total})
	require.NoError(t, err)
	txns.AddTransactions(txn(10, finance.LedgerGeneral, finance.KindIncome, 690_000, "Transfer dari Koperasi", ""))

	_, err = svc.MarkPaid(ctx, rec.ID, "  ", "bendahara")
	assert.True(t, errors.Is(err, apperr.ErrValidation))

	paid, err := svc.MarkPaid(ctx, rec.ID, "kurang 10rb, menyusul April", "bendahara")
	require.NoError(t, err)
	assert.Equal(t, profitsharing.StatusPaid, paid.Status)
	assert.Equal(t, "bendahara", paid.PaidBy)
	require.NotNil(t, paid.PaidAt)

	unpaid, err := svc.MarkUnpaid(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, profitsharing.StatusUnpaid, unpaid.Status)
	assert.Nil(t, unpaid.PaidAt)
	assert.True(t, unpaid.Variance.Valid)

	_, err = svc.MarkUnpaid(ctx, uuid.New())
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestMarkPaidWithoutVarianceNeedsNoNote(t *testing.T) {
	svc, txns, _ := newService()
	ctx := context.Background()
	total := money.FromInt(1_000_000)
	rec, err := svc.SaveRecord(ctx, march, profitsharing.RecordInput{TotalSales: &total})
	require.NoError(t, err)
	txns.AddTransactions(txn(10, finance.LedgerGeneral, finance.KindIncome, 700_000, "Transfer dari Koperasi", ""))

	paid, err := svc.MarkPaid(ctx, rec.ID, "", "")
	require.NoError(t, err)
	assert.Equal(t, profitsharing.StatusPaid, paid.Status)
}

func TestListRecordsValidatesYear(t *testing.T) {
	svc, _, _ := newService()
	_, err := svc.ListRecords(context.Background(), 12)
	assert.True(t, errors.Is(err, apperr.ErrValidation))
}

func TestResaveWithNewSplitReopensPaidRecord(t *testing.T) {
	svc, txns, _ := newService()
	var buf bytes.Buffer
	ctx := logger.WithContext(context.Background(), logger.NewWithWriter(&buf))
	total := money.FromInt(1_000_000)

	rec, err := svc.SaveRecord(ctx, march, profitsharing.RecordInput{TotalSales: &total})
	require.NoError(t, err)
	txns.AddTransactions(txn(10, finance.LedgerGeneral, finance.KindIncome, 700_000, "Transfer dari Koperasi", ""))

	paid, err := svc.MarkPaid(ctx, rec.ID, "", "bendahara")
	require.NoError(t, err)
	require.Equal(t, profitsharing.StatusPaid, paid.Status)
	assert.Contains(t, buf.String(), "[profit-sharing] marked paid")

	// Same foundation share under another mode: the payment still holds.
	same, err := svc.SaveRecord(ctx, march, profitsharing.RecordInput{Mode: "CUSTOM", PctFoundation: pct(70), TotalSales: &total})
	require.NoError(t, err)
	assert.Equal(t, profitsharing.StatusPaid, same.Status)
	assert.Equal(t, "bendahara", same.PaidBy)

	moved, err := svc.SaveRecord(ctx, march, profitsharing.RecordInput{Mode: "CUSTOM", PctFoundation: pct(50), TotalSales: &total})
	require.NoError(t, err)
	assert.Equal(t, profitsharing.StatusUnpaid, moved.Status)
	assert.Nil(t, moved.PaidAt)
	assert.Empty(t, moved.PaidBy)
	assert.Equal(t, "200000", moved.Variance.Decimal.String())
	assert.Contains(t, buf.String(), "payment reopened")

	// Paying again now needs the variance explained.
	_, err = svc.MarkPaid(ctx, rec.ID, "", "bendahara")
	assert.True(t, errors.Is(err, apperr.ErrValidation))
}
