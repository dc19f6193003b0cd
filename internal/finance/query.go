package finance

import (
	"slices"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fuyudunniam-spec/E-MAKTAB-MANAJEMEN-PESANTREN-V1-sub012/internal/apperr"
	"github.com/fuyudunniam-spec/E-MAKTAB-MANAJEMEN-PESANTREN-V1-sub012/internal/config"
)

// Predicate is one typed filter on the transaction store. Each predicate
// knows how to narrow a gorm query and how to test a loaded row, so the
// database and in-memory stores agree.
type Predicate interface {
	Field() string
	Validate() error
	Apply(tx *gorm.DB) *gorm.DB
	Match(t Transaction) bool
}

// Query is a validated conjunction of predicates, at most one per field.
type Query struct {
	preds []Predicate
}

func NewQuery(preds ...Predicate) (Query, error) {
	seen := make(map[string]bool, len(preds))
	out := make([]Predicate, 0, len(preds))
	for _, p := range preds {
		if p == nil {
			continue
		}
		if err := p.Validate(); err != nil {
			return Query{}, err
		}
		if seen[p.Field()] {
			return Query{}, apperr.Validation(p.Field(), "filter given more than once")
		}
		seen[p.Field()] = true
		out = append(out, p)
	}
	return Query{preds: out}, nil
}

func (q Query) Apply(tx *gorm.DB) *gorm.DB {
	for _, p := range q.preds {
		tx = p.Apply(tx)
	}
	return tx
}

func (q Query) Match(t Transaction) bool {
	for _, p := range q.preds {
		if !p.Match(t) {
			return false
		}
	}
	return true
}

type rangePred struct{ r DateRange }

// InRange keeps transactions dated within r, inclusive.
func InRange(r DateRange) Predicate { return rangePred{r: r} }

func (rangePred) Field() string      { return "date" }
func (p rangePred) Validate() error { return p.r.Validate() }
func (p rangePred) Apply(tx *gorm.DB) *gorm.DB {
	return tx.Where("date >= ? AND date <= ?", p.r.From.Format(DateLayout), p.r.To.Format(DateLayout))
}
func (p rangePred) Match(t Transaction) bool { return p.r.Contains(t.Date) }

type ledgerPred struct {
	ledger Ledger
	owned  []uuid.UUID
}

// InLedger keeps transactions tagged with l plus any transaction booked on
// an account l owns. The result is a superset; callers re-check ownership
// per transaction.
func InLedger(l Ledger, ownedAccounts []uuid.UUID) Predicate {
	return ledgerPred{ledger: l, owned: ownedAccounts}
}

func (ledgerPred) Field() string { return "ledger" }
func (p ledgerPred) Validate() error {
	if !p.ledger.Valid() {
		return apperr.Validation("ledger", "unknown ledger %q", p.ledger)
	}
	return nil
}
func (p ledgerPred) Apply(tx *gorm.DB) *gorm.DB {
	if len(p.owned) == 0 {
		return tx.Where("ledger = ?", p.ledger)
	}
	return tx.Where("(ledger = ? OR account_id IN ?)", p.ledger, p.owned)
}
func (p ledgerPred) Match(t Transaction) bool {
	if t.Ledger == p.ledger {
		return true
	}
	return t.AccountID != nil && slices.Contains(p.owned, *t.AccountID)
}

type accountPred struct{ id uuid.UUID }

func ForAccount(id uuid.UUID) Predicate { return accountPred{id: id} }

func (accountPred) Field() string { return "account_id" }
func (p accountPred) Validate() error {
	if p.id == uuid.Nil {
		return apperr.Validation("account_id", "account id must not be empty")
	}
	return nil
}
func (p accountPred) Apply(tx *gorm.DB) *gorm.DB { return tx.Where("account_id = ?", p.id) }
func (p accountPred) Match(t Transaction) bool {
	return t.AccountID != nil && *t.AccountID == p.id
}

type categoryPred struct{ name string }

// InCategory matches the category the way config.Key groups it: case is
// ignored and runs of whitespace count as one space.
func InCategory(name string) Predicate { return categoryPred{name: name} }

func (categoryPred) Field() string { return "category" }
func (p categoryPred) Validate() error {
	if strings.TrimSpace(p.name) == "" {
		return apperr.Validation("category", "category must not be blank")
	}
	return nil
}
func (p categoryPred) Apply(tx *gorm.DB) *gorm.DB {
	return tx.Where(`LOWER(TRIM(REGEXP_REPLACE(category, '\s+', ' ', 'g'))) = ?`,
		strings.ToLower(strings.Join(strings.Fields(p.name), " ")))
}
func (p categoryPred) Match(t Transaction) bool { return config.Key(t.Category) == config.Key(p.name) }

type statusPred struct{ s Status }

func WithStatus(s Status) Predicate { return statusPred{s: s} }

func (statusPred) Field() string { return "status" }
func (p statusPred) Validate() error {
	if p.s != StatusDraft && p.s != StatusPosted {
		return apperr.Validation("status", "unknown status %q", p.s)
	}
	return nil
}
func (p statusPred) Apply(tx *gorm.DB) *gorm.DB { return tx.Where("status = ?", p.s) }
func (p statusPred) Match(t Transaction) bool    { return t.Status == p.s }

type kindPred struct{ k Kind }

func OfKind(k Kind) Predicate { return kindPred{k: k} }

func (kindPred) Field() string { return "kind" }
func (p kindPred) Validate() error {
	if p.k != KindIncome && p.k != KindExpense {
		return apperr.Validation("kind", "unknown kind %q", p.k)
	}
	return nil
}
func (p kindPred) Apply(tx *gorm.DB) *gorm.DB { return tx.Where("kind = ?", p.k) }
func (p kindPred) Match(t Transaction) bool    { return t.Kind == p.k }

type modulePred struct{ module string }

// FromModule keeps transactions created by one upstream module.
func FromModule(module string) Predicate { return modulePred{module: module} }

func (modulePred) Field() string { return "source_module" }
func (p modulePred) Validate() error {
	if strings.TrimSpace(p.module) == "" {
		return apperr.Validation("source_module", "source module must not be blank")
	}
	return nil
}
func (p modulePred) Apply(tx *gorm.DB) *gorm.DB { return tx.Where("source_module = ?", p.module) }
func (p modulePred) Match(t Transaction) bool    { return t.SourceModule == p.module }
