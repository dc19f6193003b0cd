package report

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fuyudunniam-spec/E-MAKTAB-MANAJEMEN-PESANTREN-V1-sub012/internal/apperr"
	"github.com/fuyudunniam-spec/E-MAKTAB-MANAJEMEN-PESANTREN-V1-sub012/internal/finance"
	"github.com/fuyudunniam-spec/E-MAKTAB-MANAJEMEN-PESANTREN-V1-sub012/internal/logger"
)

var monthLabels = [...]string{"Jan", "Feb", "Mar", "Apr", "Mei", "Jun", "Jul", "Agu", "Sep", "Okt", "Nov", "Des"}

type FlowRequest struct {
	Range          finance.DateRange
	Ledger         finance.Ledger
	AccountID      *uuid.UUID
	OpeningBalance decimal.Decimal
}

type MonthlyPoint struct {
	Period       finance.Period  `json:"period"`
	Label        string          `json:"label"`
	Income       decimal.Decimal `json:"income"`
	Expense      decimal.Decimal `json:"expense"`
	Balance      decimal.Decimal `json:"balance"`
	Transactions int             `json:"transaction_count"`
}

type FlowReport struct {
	Ledger         finance.Ledger    `json:"ledger"`
	Range          finance.DateRange `json:"range"`
	OpeningBalance decimal.Decimal   `json:"opening_balance"`
	TotalIncome    decimal.Decimal   `json:"total_income"`
	TotalExpense   decimal.Decimal   `json:"total_expense"`
	ClosingBalance decimal.Decimal   `json:"closing_balance"`
	Points         []MonthlyPoint    `json:"points"`
	apperr.Audit
}

// MonthlyFlow buckets posted income and expense by calendar month and carries
// a running balance seeded with the opening balance. Every month of the
// range appears, including months without transactions.
func (s *Service) MonthlyFlow(ctx context.Context, req FlowRequest) (FlowReport, error) {
	if req.Ledger == "" {
		req.Ledger = finance.LedgerGeneral
	}
	if err := req.Range.Validate(); err != nil {
		return FlowReport{}, err
	}

	periods := req.Range.Periods()
	points := make([]MonthlyPoint, len(periods))
	index := make(map[finance.Period]int, len(periods))
	for i, p := range periods {
		points[i] = MonthlyPoint{
			Period:  p,
			Label:   fmt.Sprintf("%s %d", monthLabels[p.Month-1], p.Year),
			Income:  decimal.Zero,
			Expense: decimal.Zero,
		}
		index[p] = i
	}

	warns, err := s.scan(ctx, scope{ledger: req.Ledger, rng: req.Range, account: req.AccountID},
		func(p finance.Period, t finance.Transaction, amount decimal.Decimal) {
			pt := &points[index[p]]
			switch t.Kind {
			case finance.KindIncome:
				pt.Income = pt.Income.Add(amount)
			case finance.KindExpense:
				pt.Expense = pt.Expense.Add(amount)
			default:
				return
			}
			pt.Transactions++
		})
	if err != nil {
		return FlowReport{}, fmt.Errorf("monthly flow: %w", err)
	}

	out := FlowReport{
		Ledger:         req.Ledger,
		Range:          req.Range,
		OpeningBalance: req.OpeningBalance,
		TotalIncome:    decimal.Zero,
		TotalExpense:   decimal.Zero,
	}
	balance := req.OpeningBalance
	for i := range points {
		balance = balance.Add(points[i].Income).Sub(points[i].Expense)
		points[i].Balance = balance
		out.TotalIncome = out.TotalIncome.Add(points[i].Income)
		out.TotalExpense = out.TotalExpense.Add(points[i].Expense)
	}
	out.ClosingBalance = balance
	out.Points = points
	out.Audit = warns.Audit()

	log := logger.FromContext(ctx)
	if out.DegradedData {
		log.Warn().Str("ledger", string(req.Ledger)).Int("degraded_count", out.DegradedCount).Msg("[report] monthly flow computed from degraded data")
	}
	log.Debug().Str("ledger", string(req.Ledger)).Int("months", len(points)).Msg("[report] monthly flow computed")

	return out, nil
}
