package profitsharing

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fuyudunniam-spec/E-MAKTAB-MANAJEMEN-PESANTREN-V1-sub012/internal/apperr"
	"github.com/fuyudunniam-spec/E-MAKTAB-MANAJEMEN-PESANTREN-V1-sub012/internal/finance"
	"github.com/fuyudunniam-spec/E-MAKTAB-MANAJEMEN-PESANTREN-V1-sub012/internal/logger"
)

// Balance classifies a variance.
type Balance string

const (
	Balanced       Balance = "balanced"
	OverTransferred Balance = "over"
	ShortTransfer  Balance = "short"
)

func balanceOf(variance decimal.Decimal) Balance {
	switch variance.Sign() {
	case 1:
		return OverTransferred
	case -1:
		return ShortTransfer
	}
	return Balanced
}

// VarianceReport compares the foundation share with the transfers the
// GENERAL ledger actually received for the month.
type VarianceReport struct {
	RecordID        uuid.UUID       `json:"record_id"`
	Period          finance.Period  `json:"period"`
	FoundationShare decimal.Decimal `json:"foundation_share"`
	ActualTransfer  decimal.Decimal `json:"actual_transfer"`
	// Variance is actual minus expected. Positive means over-transferred.
	Variance  decimal.Decimal `json:"variance"`
	Balance   Balance         `json:"balance"`
	Transfers int             `json:"transfers"`
	Status    Status          `json:"status"`
	apperr.Audit
}

// Reconcile recomputes the variance of a month and stores it on the record.
// Only derived fields are written, so repeated calls converge.
func (s *Service) Reconcile(ctx context.Context, p finance.Period) (VarianceReport, error) {
	rec, err := s.records.GetByPeriod(ctx, p)
	if err != nil {
		return VarianceReport{}, err
	}

	transfers, err := s.sum(ctx, p, finance.LedgerGeneral,
		finance.OfKind(finance.KindIncome),
		finance.InCategory(s.cfg.TransferCategory),
	)
	if err != nil {
		return VarianceReport{}, err
	}

	variance := transfers.total.Sub(rec.FoundationShare)
	if err := s.records.SetReconciliation(ctx, rec.ID, Reconciliation{
		ActualTransfer: transfers.total,
		Variance:       variance,
		At:             s.now(),
	}); err != nil {
		return VarianceReport{}, err
	}

	report := VarianceReport{
		RecordID:        rec.ID,
		Period:          p,
		FoundationShare: rec.FoundationShare,
		ActualTransfer:  transfers.total,
		Variance:        variance,
		Balance:         balanceOf(variance),
		Transfers:       transfers.count,
		Status:          rec.Status,
		Audit:           transfers.warns.Audit(),
	}

	log := logger.FromContext(ctx)
	ev := log.Info()
	if report.Balance != Balanced || report.DegradedData {
		ev = log.Warn()
	}
	ev.Str("period", p.String()).
		Str("foundation_share", rec.FoundationShare.String()).
		Str("actual_transfer", transfers.total.String()).
		Str("variance", variance.String()).
		Int("degraded_count", report.DegradedCount).
		Msg("[profit-sharing] reconciled")

	return report, nil
}

// MarkPaid reconciles the record's month and marks it paid. A non-zero
// variance must be explained by a note.
func (s *Service) MarkPaid(ctx context.Context, id uuid.UUID, note, by string) (Record, error) {
	rec, err := s.records.Get(ctx, id)
	if err != nil {
		return Record{}, err
	}
	report, err := s.Reconcile(ctx, rec.Period())
	if err != nil {
		return Record{}, err
	}

	note = strings.TrimSpace(note)
	if !report.Variance.IsZero() && note == "" {
		return Record{}, apperr.Validation("note", "variance of %s needs a note before marking paid", report.Variance)
	}

	at := s.now()
	if err := s.records.SetPayment(ctx, id, Payment{Status: StatusPaid, At: &at, Note: note, By: by}); err != nil {
		return Record{}, err
	}
	log := logger.FromContext(ctx)
	log.Info().
		Str("record_id", id.String()).
		Str("period", rec.Period().String()).
		Str("variance", report.Variance.String()).
		Msg("[profit-sharing] marked paid")
	return s.records.Get(ctx, id)
}

// MarkUnpaid reverts a payment. The reconciliation fields stay.
func (s *Service) MarkUnpaid(ctx context.Context, id uuid.UUID) (Record, error) {
	if err := s.records.SetPayment(ctx, id, Payment{Status: StatusUnpaid}); err != nil {
		return Record{}, err
	}
	return s.records.Get(ctx, id)
}
