package report

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fuyudunniam-spec/E-MAKTAB-MANAJEMEN-PESANTREN-V1-sub012/internal/apperr"
	"github.com/fuyudunniam-spec/E-MAKTAB-MANAJEMEN-PESANTREN-V1-sub012/internal/config"
	"github.com/fuyudunniam-spec/E-MAKTAB-MANAJEMEN-PESANTREN-V1-sub012/internal/finance"
	"github.com/fuyudunniam-spec/E-MAKTAB-MANAJEMEN-PESANTREN-V1-sub012/internal/logger"
)

type BreakdownRequest struct {
	Range     finance.DateRange
	Ledger    finance.Ledger
	AccountID *uuid.UUID
	// ExpandSubcategories nests each category's subcategory breakdown.
	ExpandSubcategories bool
}

type CategoryPoint struct {
	Name          string          `json:"name"`
	Amount        decimal.Decimal `json:"amount"`
	Percentage    int64           `json:"percentage"`
	Color         string          `json:"color"`
	Pillar        bool            `json:"pillar"`
	Transactions  int             `json:"transaction_count"`
	Subcategories []CategoryPoint `json:"subcategories,omitempty"`
}

type BreakdownReport struct {
	Ledger   finance.Ledger    `json:"ledger"`
	Range    finance.DateRange `json:"range"`
	Category string            `json:"category,omitempty"`
	Total    decimal.Decimal   `json:"total"`
	Points   []CategoryPoint   `json:"points"`
	apperr.Audit
}

type bucket struct {
	key    string
	name   string
	amount decimal.Decimal
	count  int
	pillar int
	subs   *buckets
}

func (b *bucket) add(amount decimal.Decimal) {
	b.amount = b.amount.Add(amount)
	b.count++
}

func (b *bucket) children() *buckets {
	if b.subs == nil {
		b.subs = newBuckets()
	}
	return b.subs
}

type buckets struct {
	byKey map[string]*bucket
}

func newBuckets() *buckets {
	return &buckets{byKey: map[string]*bucket{}}
}

// get returns the bucket for key, creating it with name on first use.
func (bs *buckets) get(key, name string, pillar int) *bucket {
	if b, ok := bs.byKey[key]; ok {
		return b
	}
	b := &bucket{key: key, name: name, amount: decimal.Zero, pillar: pillar}
	bs.byKey[key] = b
	return b
}

func (bs *buckets) total() decimal.Decimal {
	sum := decimal.Zero
	for _, b := range bs.byKey {
		sum = sum.Add(b.amount)
	}
	return sum
}

// sorted orders by amount descending. Ties go to pillars in canonical
// order, then to names.
func (bs *buckets) sorted() []*bucket {
	out := make([]*bucket, 0, len(bs.byKey))
	for _, b := range bs.byKey {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].amount.Cmp(out[j].amount); c != 0 {
			return c > 0
		}
		pi, pj := rankPillar(out[i].pillar), rankPillar(out[j].pillar)
		if pi != pj {
			return pi < pj
		}
		return out[i].key < out[j].key
	})
	return out
}

func rankPillar(idx int) int {
	if idx < 0 {
		return int(^uint(0) >> 1)
	}
	return idx
}

// nameIndex numbers the buckets accepted by keep in key order. Colours are
// derived from this index so they do not move when amounts change.
func (bs *buckets) nameIndex(keep func(*bucket) bool) map[string]int {
	var keys []string
	for k, b := range bs.byKey {
		if keep(b) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	out := make(map[string]int, len(keys))
	for i, k := range keys {
		out[k] = i
	}
	return out
}

// CategoryBreakdown groups posted expenses by category. Pillar categories
// are always present, at zero when nothing was spent on them.
func (s *Service) CategoryBreakdown(ctx context.Context, req BreakdownRequest) (BreakdownReport, error) {
	if req.Ledger == "" {
		req.Ledger = finance.LedgerGeneral
	}

	cats := newBuckets()
	for i, p := range s.cfg.Pillars {
		cats.get(config.Key(p.Name), p.Name, i)
	}

	sc := scope{
		ledger:  req.Ledger,
		rng:     req.Range,
		account: req.AccountID,
		extra:   []finance.Predicate{finance.OfKind(finance.KindExpense)},
	}
	warns, err := s.scan(ctx, sc, func(_ finance.Period, t finance.Transaction, amount decimal.Decimal) {
		name := s.categoryName(t.Category)
		b := cats.get(config.Key(name), name, s.cfg.PillarIndex(name))
		b.add(amount)
		if req.ExpandSubcategories {
			sub := s.subcategoryName(t.Subcategory)
			b.children().get(config.Key(sub), sub, -1).add(amount)
		}
	})
	if err != nil {
		return BreakdownReport{}, fmt.Errorf("category breakdown: %w", err)
	}

	total := cats.total()
	fallback := cats.nameIndex(func(b *bucket) bool { return b.pillar < 0 })

	out := BreakdownReport{Ledger: req.Ledger, Range: req.Range, Total: total, Audit: warns.Audit()}
	out.Points = make([]CategoryPoint, 0, len(cats.byKey))
	for _, b := range cats.sorted() {
		pt := CategoryPoint{
			Name:         b.name,
			Amount:       b.amount,
			Percentage:   percentage(b.amount, total),
			Pillar:       b.pillar >= 0,
			Transactions: b.count,
		}
		if b.pillar >= 0 {
			pt.Color = s.cfg.Pillars[b.pillar].Color
		} else {
			pt.Color = s.fallbackColor(fallback[b.key])
		}
		if req.ExpandSubcategories {
			pt.Subcategories = []CategoryPoint{}
			if b.subs != nil {
				pt.Subcategories = shadePoints(b.subs, s.baseColor(b.name))
			}
		}
		out.Points = append(out.Points, pt)
	}

	logBreakdown(ctx, "category breakdown", out)
	return out, nil
}

// SubcategoryBreakdown drills into one category. Rows without a subcategory
// are grouped under the configured "no subcategory" label.
func (s *Service) SubcategoryBreakdown(ctx context.Context, category string, req BreakdownRequest) (BreakdownReport, error) {
	if strings.TrimSpace(category) == "" {
		return BreakdownReport{}, apperr.Validation("category", "category must not be blank")
	}
	if req.Ledger == "" {
		req.Ledger = finance.LedgerGeneral
	}

	name := s.categoryName(category)
	key := config.Key(name)

	sc := scope{
		ledger:  req.Ledger,
		rng:     req.Range,
		account: req.AccountID,
		extra:   []finance.Predicate{finance.OfKind(finance.KindExpense)},
		keep: func(t finance.Transaction) bool {
			return config.Key(s.categoryName(t.Category)) == key
		},
	}
	// Blank categories are stored empty, so the uncategorized bucket cannot
	// be narrowed in the database.
	if key != config.Key(s.cfg.UncategorizedLabel) {
		sc.extra = append(sc.extra, finance.InCategory(name))
	}

	subs := newBuckets()
	warns, err := s.scan(ctx, sc, func(_ finance.Period, t finance.Transaction, amount decimal.Decimal) {
		sub := s.subcategoryName(t.Subcategory)
		subs.get(config.Key(sub), sub, -1).add(amount)
	})
	if err != nil {
		return BreakdownReport{}, fmt.Errorf("subcategory breakdown: %w", err)
	}

	out := BreakdownReport{
		Ledger:   req.Ledger,
		Range:    req.Range,
		Category: name,
		Total:    subs.total(),
		Points:   shadePoints(subs, s.baseColor(name)),
		Audit:    warns.Audit(),
	}
	logBreakdown(ctx, "subcategory breakdown", out)
	return out, nil
}

// shadePoints renders subcategory buckets as shades of base.
func shadePoints(bs *buckets, base string) []CategoryPoint {
	total := bs.total()
	idx := bs.nameIndex(func(*bucket) bool { return true })
	out := make([]CategoryPoint, 0, len(bs.byKey))
	for _, b := range bs.sorted() {
		out = append(out, CategoryPoint{
			Name:         b.name,
			Amount:       b.amount,
			Percentage:   percentage(b.amount, total),
			Color:        shade(base, idx[b.key]),
			Transactions: b.count,
		})
	}
	return out
}

func (s *Service) categoryName(raw string) string {
	name := strings.Join(strings.Fields(raw), " ")
	if name == "" {
		return s.cfg.UncategorizedLabel
	}
	if i := s.cfg.PillarIndex(name); i >= 0 {
		return s.cfg.Pillars[i].Name
	}
	return name
}

func (s *Service) subcategoryName(raw string) string {
	name := strings.Join(strings.Fields(raw), " ")
	if name == "" {
		return s.cfg.NoSubcategoryLabel
	}
	return name
}

// baseColor is the pillar colour, or the default for other categories.
func (s *Service) baseColor(category string) string {
	if i := s.cfg.PillarIndex(category); i >= 0 {
		return s.cfg.Pillars[i].Color
	}
	return s.cfg.DefaultColor
}

func (s *Service) fallbackColor(i int) string {
	if len(s.cfg.FallbackColors) == 0 {
		return s.cfg.DefaultColor
	}
	return s.cfg.FallbackColors[i%len(s.cfg.FallbackColors)]
}

func logBreakdown(ctx context.Context, what string, r BreakdownReport) {
	log := logger.FromContext(ctx)
	if r.DegradedData {
		log.Warn().Str("ledger", string(r.Ledger)).Int("degraded_count", r.DegradedCount).Msgf("[report] %s computed from degraded data", what)
	}
	log.Debug().Str("ledger", string(r.Ledger)).Int("buckets", len(r.Points)).Msgf("[report] %s computed", what)
}
