package allocation

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/fuyudunniam-spec/E-MAKTAB-MANAJEMEN-PESANTREN-V1-sub012/internal/apperr"
	"github.com/fuyudunniam-spec/E-MAKTAB-MANAJEMEN-PESANTREN-V1-sub012/internal/config"
	"github.com/fuyudunniam-spec/E-MAKTAB-MANAJEMEN-PESANTREN-V1-sub012/internal/finance"
	"github.com/fuyudunniam-spec/E-MAKTAB-MANAJEMEN-PESANTREN-V1-sub012/internal/ledger"
	"github.com/fuyudunniam-spec/E-MAKTAB-MANAJEMEN-PESANTREN-V1-sub012/internal/logger"
	"github.com/fuyudunniam-spec/E-MAKTAB-MANAJEMEN-PESANTREN-V1-sub012/internal/money"
	"github.com/fuyudunniam-spec/E-MAKTAB-MANAJEMEN-PESANTREN-V1-sub012/internal/students"
)

type Service struct {
	mappings MappingStore
	accum    AccumulationStore
	txns     finance.TransactionStore
	accounts finance.AccountDirectory
	resolver *Resolver
	cfg      config.Finance
	now      func() time.Time
}

// Deps groups the stores the service reads and writes.
type Deps struct {
	Mappings      MappingStore
	Accumulations AccumulationStore
	Transactions  finance.TransactionStore
	Accounts      finance.AccountDirectory
	Students      students.Directory
}

func NewService(d Deps, cfg config.Finance) *Service {
	return &Service{
		mappings: d.Mappings,
		accum:    d.Accumulations,
		txns:     d.Transactions,
		accounts: d.Accounts,
		resolver: NewResolver(d.Students, cfg),
		cfg:      cfg,
		now:      time.Now,
	}
}

// SaveMapping validates the input and makes it the active mapping for its
// slot. The last save wins.
func (s *Service) SaveMapping(ctx context.Context, in MappingInput) (uuid.UUID, error) {
	m, err := in.Normalize()
	if err != nil {
		return uuid.Nil, err
	}
	saved, err := s.mappings.Replace(ctx, m)
	if err != nil {
		return uuid.Nil, err
	}
	log := logger.FromContext(ctx)
	log.Info().
		Str("mapping_id", saved.ID.String()).
		Str("scope_key", saved.ScopeKey).
		Str("mode", string(saved.Mode)).
		Int("students", len(saved.StudentIDs)).
		Msg("[allocation] mapping saved")
	return saved.ID, nil
}

func (s *Service) GetMapping(ctx context.Context, id uuid.UUID) (Mapping, error) {
	return s.mappings.Get(ctx, id)
}

// LookupSource tells which level a mapping was found at.
type LookupSource string

const (
	FromSubcategory LookupSource = "subcategory"
	FromCategory    LookupSource = "category"
	FromNone        LookupSource = "none"
)

type Lookup struct {
	Source  LookupSource `json:"source"`
	Mapping *Mapping     `json:"mapping,omitempty"`
}

// Membership returns the recipient rule of the lookup. No mapping means no
// recipients.
func (l Lookup) Membership() (Membership, error) {
	if l.Mapping == nil {
		return NoRecipients{}, nil
	}
	return l.Mapping.Membership()
}

// MappingFor finds the active mapping for an expense. A subcategory mapping
// takes precedence over the category mapping.
func (s *Service) MappingFor(ctx context.Context, category, subcategory string) (Lookup, error) {
	if config.Key(category) == "" {
		return Lookup{}, apperr.Validation("category", "category is required")
	}
	if config.Key(subcategory) != "" {
		m, ok, err := s.mappings.Active(ctx, ScopeKey(ScopeSubcategory, category, subcategory))
		if err != nil {
			return Lookup{}, err
		}
		if ok {
			return Lookup{Source: FromSubcategory, Mapping: &m}, nil
		}
	}
	m, ok, err := s.mappings.Active(ctx, ScopeKey(ScopeCategory, category, ""))
	if err != nil {
		return Lookup{}, err
	}
	if ok {
		return Lookup{Source: FromCategory, Mapping: &m}, nil
	}
	return Lookup{Source: FromNone}, nil
}

// ExpenseRequest asks how one expense would be allocated.
type ExpenseRequest struct {
	Category    string                     `json:"category" validate:"required"`
	Subcategory string                     `json:"subcategory"`
	Amount      money.Amount               `json:"amount"`
	Date        time.Time                  `json:"date"`
	Note        string                     `json:"note" validate:"max=500"`
	Overrides   map[string]decimal.Decimal `json:"overrides"`
}

type ExpenseAllocation struct {
	Lookup     Lookup                     `json:"lookup"`
	Resolution Resolution                 `json:"resolution"`
	Details    []finance.AllocationDetail `json:"details"`
	apperr.Audit
}

// AllocateExpense resolves the mapping for the expense and splits its
// amount. The details are returned to the caller, which owns persisting
// them on the transaction.
func (s *Service) AllocateExpense(ctx context.Context, req ExpenseRequest) (ExpenseAllocation, error) {
	if req.Amount.Unparsable() {
		return ExpenseAllocation{}, apperr.Validation("amount", "amount %q is not a number", req.Amount.Raw())
	}
	if req.Date.IsZero() {
		req.Date = s.now()
	}

	lookup, err := s.MappingFor(ctx, req.Category, req.Subcategory)
	if err != nil {
		return ExpenseAllocation{}, err
	}
	mem, err := lookup.Membership()
	if err != nil {
		return ExpenseAllocation{}, err
	}
	res, err := s.resolver.Resolve(ctx, mem, req.Date)
	if err != nil {
		return ExpenseAllocation{}, err
	}

	source := finance.SourceDirect
	if mem.Mode() == ModeAllResident {
		source = finance.SourceOverhead
	}
	details, err := Allocate(Split{
		Amount:     req.Amount.Decimal(),
		StudentIDs: res.IDs(),
		Overrides:  req.Overrides,
		Period:     finance.PeriodOf(req.Date).String(),
		Note:       req.Note,
		Source:     source,
		Scale:      s.cfg.CurrencyScale,
	})
	if err != nil {
		return ExpenseAllocation{}, err
	}

	log := logger.FromContext(ctx)
	log.WithLevel(logLevelFor(res.Audit)).
		Str("category", req.Category).
		Str("lookup", string(lookup.Source)).
		Str("mode", string(mem.Mode())).
		Int("recipients", len(details)).
		Int("degraded_count", res.DegradedCount).
		Msg("[allocation] expense allocated")

	return ExpenseAllocation{
		Lookup:     lookup,
		Resolution: res,
		Details:    details,
		Audit:      res.Audit,
	}, nil
}

// AidSummary is the accumulated aid of every student for one month.
type AidSummary struct {
	Period   string          `json:"period"`
	Students []Accumulation  `json:"students"`
	Total    decimal.Decimal `json:"total"`
	apperr.Audit
}

// Accumulate derives per-student aid for the period from the allocation
// details of posted GENERAL expenses dated in that month.
func (s *Service) Accumulate(ctx context.Context, p finance.Period) (AidSummary, error) {
	var warns apperr.Warnings

	accounts, err := s.accounts.ListAccounts(ctx)
	if err != nil {
		return AidSummary{}, err
	}
	part := ledger.NewPartition(accounts)

	q, err := finance.NewQuery(
		finance.InRange(finance.DateRange{From: p.Start(), To: p.End()}),
		finance.InLedger(finance.LedgerGeneral, part.OwnedAccountIDs(finance.LedgerGeneral)),
		finance.WithStatus(finance.StatusPosted),
		finance.OfKind(finance.KindExpense),
	)
	if err != nil {
		return AidSummary{}, err
	}
	rows, err := s.txns.Find(ctx, q)
	if err != nil {
		return AidSummary{}, err
	}
	kept, w := part.Filter(rows, finance.LedgerGeneral)
	warns.Merge(w)

	now := s.now()
	byStudent := map[string]*Accumulation{}
	for _, t := range kept {
		seen := map[string]bool{}
		for _, d := range t.AllocationDetail {
			acc, ok := byStudent[d.StudentID]
			if !ok {
				acc = &Accumulation{StudentID: d.StudentID, Period: p.String(), RefreshedAt: now}
				byStudent[d.StudentID] = acc
			}
			if d.Source == finance.SourceOverhead {
				acc.OverheadTotal = acc.OverheadTotal.Add(d.Amount)
			} else {
				acc.DirectTotal = acc.DirectTotal.Add(d.Amount)
			}
			if !seen[d.StudentID] {
				seen[d.StudentID] = true
				acc.TransactionCount++
			}
		}
	}

	out := AidSummary{Period: p.String(), Students: make([]Accumulation, 0, len(byStudent))}
	for _, acc := range byStudent {
		out.Students = append(out.Students, *acc)
		out.Total = out.Total.Add(acc.Total())
	}
	sort.Slice(out.Students, func(i, j int) bool {
		return idLess(out.Students[i].StudentID, out.Students[j].StudentID)
	})
	out.Audit = warns.Audit()
	return out, nil
}

// RefreshAccumulations recomputes the cache rows of one period.
func (s *Service) RefreshAccumulations(ctx context.Context, p finance.Period) (int, error) {
	sum, err := s.Accumulate(ctx, p)
	if err != nil {
		return 0, err
	}
	if err := s.accum.ReplacePeriod(ctx, p.String(), sum.Students); err != nil {
		return 0, err
	}
	log := logger.FromContext(ctx)
	log.WithLevel(logLevelFor(sum.Audit)).
		Str("period", p.String()).
		Int("students", len(sum.Students)).
		Int("degraded_count", sum.DegradedCount).
		Msg("[allocation] accumulations refreshed")
	return len(sum.Students), nil
}

// AidForPeriod reads the cache and falls back to a live computation when
// the period has not been cached yet.
func (s *Service) AidForPeriod(ctx context.Context, p finance.Period) (AidSummary, error) {
	rows, err := s.accum.ListPeriod(ctx, p.String())
	if err != nil {
		return AidSummary{}, err
	}
	if len(rows) == 0 {
		return s.Accumulate(ctx, p)
	}
	sort.SliceStable(rows, func(i, j int) bool { return idLess(rows[i].StudentID, rows[j].StudentID) })
	out := AidSummary{Period: p.String(), Students: rows}
	for _, r := range rows {
		out.Total = out.Total.Add(r.Total())
	}
	return out, nil
}

// StudentAid returns one student's aid for the period. A student with no
// allocations gets a zero row.
func (s *Service) StudentAid(ctx context.Context, studentID string, p finance.Period) (Accumulation, error) {
	if !studentIDRe.MatchString(studentID) {
		return Accumulation{}, apperr.Validation("student_id", "malformed student id %q", studentID)
	}
	sum, err := s.AidForPeriod(ctx, p)
	if err != nil {
		return Accumulation{}, err
	}
	for _, a := range sum.Students {
		if a.StudentID == studentID {
			return a, nil
		}
	}
	return Accumulation{StudentID: studentID, Period: p.String()}, nil
}

func logLevelFor(a apperr.Audit) zerolog.Level {
	if a.DegradedData {
		return zerolog.WarnLevel
	}
	return zerolog.InfoLevel
}
