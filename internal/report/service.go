// Package report computes cash-flow and category reports over posted
// transactions of one ledger.
//
// Every report is computed from a snapshot fetched for that call. Long
// ranges are fetched one calendar month at a time, so memory grows with the
// number of buckets and not with the number of transactions.
package report

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fuyudunniam-spec/E-MAKTAB-MANAJEMEN-PESANTREN-V1-sub012/internal/apperr"
	"github.com/fuyudunniam-spec/E-MAKTAB-MANAJEMEN-PESANTREN-V1-sub012/internal/config"
	"github.com/fuyudunniam-spec/E-MAKTAB-MANAJEMEN-PESANTREN-V1-sub012/internal/finance"
	"github.com/fuyudunniam-spec/E-MAKTAB-MANAJEMEN-PESANTREN-V1-sub012/internal/ledger"
)

type Service struct {
	txns     finance.TransactionStore
	accounts finance.AccountDirectory
	cfg      config.Finance
	now      func() time.Time
}

func NewService(txns finance.TransactionStore, accounts finance.AccountDirectory, cfg config.Finance) *Service {
	return &Service{txns: txns, accounts: accounts, cfg: cfg, now: time.Now}
}

// scope selects the transactions one report reads.
type scope struct {
	ledger  finance.Ledger
	rng     finance.DateRange
	account *uuid.UUID
	extra   []finance.Predicate
	keep    func(finance.Transaction) bool
}

type visitFunc func(p finance.Period, t finance.Transaction, amount decimal.Decimal)

// scan fetches the scope month by month, re-checks ledger ownership per
// transaction and hands each posted survivor to visit with its coerced amount.
func (s *Service) scan(ctx context.Context, sc scope, visit visitFunc) (apperr.Warnings, error) {
	var warns apperr.Warnings

	if sc.ledger == "" {
		sc.ledger = finance.LedgerGeneral
	}
	if err := sc.rng.Validate(); err != nil {
		return warns, err
	}

	accounts, err := s.accounts.ListAccounts(ctx)
	if err != nil {
		return warns, err
	}
	part := ledger.NewPartition(accounts)

	base := []finance.Predicate{
		finance.InLedger(sc.ledger, part.OwnedAccountIDs(sc.ledger)),
		finance.WithStatus(finance.StatusPosted),
	}
	if sc.account != nil {
		base = append(base, finance.ForAccount(*sc.account))
	}
	base = append(base, sc.extra...)

	for _, p := range sc.rng.Periods() {
		q, err := finance.NewQuery(append(base, finance.InRange(sc.rng.Clip(p)))...)
		if err != nil {
			return warns, err
		}
		rows, err := s.txns.Find(ctx, q)
		if err != nil {
			return warns, err
		}

		kept, w := part.Filter(rows, sc.ledger)
		warns.Merge(w)

		for _, t := range kept {
			if t.Status != finance.StatusPosted {
				continue
			}
			if sc.keep != nil && !sc.keep(t) {
				continue
			}
			visit(p, t, coerce(t, &warns))
		}
	}
	return warns, nil
}

func coerce(t finance.Transaction, warns *apperr.Warnings) decimal.Decimal {
	if t.Amount.Unparsable() {
		warns.Add(apperr.UnparsableAmount, t.ID.String(), "amount %q coerced to zero", t.Amount.Raw())
	}
	return t.Amount.Decimal()
}

// percentage is round(part/total*100), or 0 when total is zero.
func percentage(part, total decimal.Decimal) int64 {
	if total.IsZero() {
		return 0
	}
	return part.Mul(decimal.NewFromInt(100)).Div(total).Round(0).IntPart()
}
