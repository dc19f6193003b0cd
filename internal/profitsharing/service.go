package profitsharing

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fuyudunniam-spec/E-MAKTAB-MANAJEMEN-PESANTREN-V1-sub012/internal/apperr"
	"github.com/fuyudunniam-spec/E-MAKTAB-MANAJEMEN-PESANTREN-V1-sub012/internal/config"
	"github.com/fuyudunniam-spec/E-MAKTAB-MANAJEMEN-PESANTREN-V1-sub012/internal/finance"
	"github.com/fuyudunniam-spec/E-MAKTAB-MANAJEMEN-PESANTREN-V1-sub012/internal/ledger"
	"github.com/fuyudunniam-spec/E-MAKTAB-MANAJEMEN-PESANTREN-V1-sub012/internal/logger"
	"github.com/fuyudunniam-spec/E-MAKTAB-MANAJEMEN-PESANTREN-V1-sub012/internal/money"
)

type Service struct {
	records  RecordStore
	txns     finance.TransactionStore
	accounts finance.AccountDirectory
	cfg      config.Finance
	now      func() time.Time
}

func NewService(records RecordStore, txns finance.TransactionStore, accounts finance.AccountDirectory, cfg config.Finance) *Service {
	return &Service{records: records, txns: txns, accounts: accounts, cfg: cfg, now: time.Now}
}

// ComputeRequest is a split without persistence. A nil TotalSales means the
// month's cooperative sales are read from the ledger.
type ComputeRequest struct {
	Period        finance.Period   `json:"period"`
	Mode          string           `json:"mode"`
	PctFoundation *decimal.Decimal `json:"pct_foundation"`
	TotalSales    *money.Amount    `json:"total_sales"`
}

type PeriodResult struct {
	Period finance.Period `json:"period"`
	Result
	Transactions int `json:"transactions"`
	apperr.Audit
}

func (s *Service) Compute(ctx context.Context, req ComputeRequest) (PeriodResult, error) {
	mode, err := ParseMode(req.Mode)
	if err != nil {
		return PeriodResult{}, err
	}
	pct := decimal.Zero
	if req.PctFoundation != nil {
		pct = *req.PctFoundation
	} else if mode == ModeCustom {
		return PeriodResult{}, apperr.Validation("pct_foundation", "pct_foundation is required for %s", ModeCustom)
	}

	if req.TotalSales == nil {
		return s.ComputeForPeriod(ctx, req.Period, mode, pct)
	}
	if req.TotalSales.Unparsable() {
		return PeriodResult{}, apperr.Validation("total_sales", "total_sales %q is not a number", req.TotalSales.Raw())
	}
	res, err := Compute(req.TotalSales.Decimal(), mode, pct, s.cfg.CurrencyScale)
	if err != nil {
		return PeriodResult{}, err
	}
	return PeriodResult{Period: req.Period, Result: res}, nil
}

// ComputeForPeriod splits the posted cooperative sales of one month.
func (s *Service) ComputeForPeriod(ctx context.Context, p finance.Period, mode Mode, pct decimal.Decimal) (PeriodResult, error) {
	sales, err := s.sum(ctx, p, finance.LedgerCooperative,
		finance.OfKind(finance.KindIncome),
		finance.FromModule(s.cfg.SalesSourceModule),
	)
	if err != nil {
		return PeriodResult{}, err
	}
	res, err := Compute(sales.total.Round(s.cfg.CurrencyScale), mode, pct, s.cfg.CurrencyScale)
	if err != nil {
		return PeriodResult{}, err
	}
	return PeriodResult{
		Period:       p,
		Result:       res,
		Transactions: sales.count,
		Audit:        sales.warns.Audit(),
	}, nil
}

// RecordInput is the staff-entered agreement for one month.
type RecordInput struct {
	Mode          string           `json:"mode" validate:"omitempty,oneof=STANDARD CUSTOM standard custom"`
	PctFoundation *decimal.Decimal `json:"pct_foundation"`
	TotalSales    *money.Amount    `json:"total_sales"`
}

// SaveRecord stores the split for a month, replacing an earlier one. A
// reconciled record keeps its actual transfer and gets a fresh variance.
// Changing the foundation share of a paid record sets it back to unpaid.
func (s *Service) SaveRecord(ctx context.Context, p finance.Period, in RecordInput) (Record, error) {
	out, err := s.Compute(ctx, ComputeRequest{
		Period:        p,
		Mode:          in.Mode,
		PctFoundation: in.PctFoundation,
		TotalSales:    in.TotalSales,
	})
	if err != nil {
		return Record{}, err
	}

	rec := Record{
		Year:             p.Year,
		Month:            int(p.Month),
		Mode:             out.Mode,
		TotalSales:       out.TotalSales,
		PctFoundation:    out.PctFoundation,
		PctCooperative:   out.PctCooperative,
		FoundationShare:  out.FoundationShare,
		CooperativeShare: out.CooperativeShare,
		Status:           StatusUnpaid,
	}
	existing, err := s.records.GetByPeriod(ctx, p)
	switch {
	case errors.Is(err, apperr.ErrNotFound):
	case err != nil:
		return Record{}, err
	default:
		if existing.ActualTransfer.Valid {
			rec.Variance = decimal.NewNullDecimal(existing.ActualTransfer.Decimal.Sub(out.FoundationShare))
		}
		// A payment was confirmed against the old foundation share only.
		if existing.FoundationShare.Equal(out.FoundationShare) {
			rec.Status = existing.Status
			rec.PaidAt = existing.PaidAt
			rec.PaidNote = existing.PaidNote
			rec.PaidBy = existing.PaidBy
		}
	}
	reopened := err == nil && existing.Status == StatusPaid && rec.Status != StatusPaid

	saved, err := s.records.Upsert(ctx, rec)
	if err != nil {
		return Record{}, err
	}
	log := logger.FromContext(ctx)
	if reopened {
		log.Warn().
			Str("record_id", saved.ID.String()).
			Str("period", p.String()).
			Str("foundation_share", saved.FoundationShare.String()).
			Msg("[profit-sharing] split changed on a paid record, payment reopened")
	}
	log.Info().
		Str("period", p.String()).
		Str("mode", string(saved.Mode)).
		Str("total_sales", saved.TotalSales.String()).
		Str("foundation_share", saved.FoundationShare.String()).
		Msg("[profit-sharing] record saved")
	return saved, nil
}

func (s *Service) GetRecord(ctx context.Context, p finance.Period) (Record, error) {
	return s.records.GetByPeriod(ctx, p)
}

func (s *Service) ListRecords(ctx context.Context, year int) ([]Record, error) {
	if year < 1900 || year > 9999 {
		return nil, apperr.Validation("year", "year out of range: %d", year)
	}
	return s.records.List(ctx, year)
}

type monthSum struct {
	total decimal.Decimal
	count int
	warns apperr.Warnings
}

// sum totals the posted transactions of one month whose effective ledger is l.
func (s *Service) sum(ctx context.Context, p finance.Period, l finance.Ledger, preds ...finance.Predicate) (monthSum, error) {
	var out monthSum

	accounts, err := s.accounts.ListAccounts(ctx)
	if err != nil {
		return out, err
	}
	part := ledger.NewPartition(accounts)

	q, err := finance.NewQuery(append([]finance.Predicate{
		finance.InRange(p.Range()),
		finance.InLedger(l, part.OwnedAccountIDs(l)),
		finance.WithStatus(finance.StatusPosted),
	}, preds...)...)
	if err != nil {
		return out, err
	}
	rows, err := s.txns.Find(ctx, q)
	if err != nil {
		return out, err
	}

	kept, w := part.Filter(rows, l)
	out.warns.Merge(w)
	for _, t := range kept {
		if t.Amount.Unparsable() {
			out.warns.Add(apperr.UnparsableAmount, t.ID.String(), "amount %q coerced to zero", t.Amount.Raw())
		}
		out.total = out.total.Add(t.Amount.Decimal())
		out.count++
	}
	return out, nil
}
