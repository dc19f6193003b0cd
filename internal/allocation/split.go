package allocation

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/fuyudunniam-spec/E-MAKTAB-MANAJEMEN-PESANTREN-V1-sub012/internal/apperr"
	"github.com/fuyudunniam-spec/E-MAKTAB-MANAJEMEN-PESANTREN-V1-sub012/internal/finance"
)

// Split describes one allocation of an amount across students.
type Split struct {
	Amount     decimal.Decimal
	StudentIDs []string
	// Overrides pins a fixed share for some students. The rest of the amount
	// is split evenly between the others.
	Overrides map[string]decimal.Decimal
	Period    string
	Note      string
	Source    finance.AllocationSource
	Scale     int32
}

// Allocate splits the amount so that the shares sum to it exactly. Shares
// are truncated to the currency scale and the leftover goes to the first
// student in canonical order.
func Allocate(s Split) ([]finance.AllocationDetail, error) {
	if s.Scale < 0 {
		return nil, apperr.Validation("scale", "scale must not be negative")
	}
	if s.Amount.IsNegative() {
		return nil, apperr.Validation("amount", "amount must not be negative")
	}
	if !s.Amount.Equal(s.Amount.Truncate(s.Scale)) {
		return nil, apperr.Validation("amount", "amount %s has more precision than scale %d", s.Amount, s.Scale)
	}
	if s.Source == "" {
		s.Source = finance.SourceDirect
	}

	ids, err := canonicalIDs(s.StudentIDs)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		if len(s.Overrides) > 0 {
			return nil, apperr.Validation("overrides", "overrides given without recipients")
		}
		return []finance.AllocationDetail{}, nil
	}

	member := make(map[string]bool, len(ids))
	for _, id := range ids {
		member[id] = true
	}

	pinned := decimal.Zero
	for id, v := range s.Overrides {
		if !member[id] {
			return nil, apperr.Validation("overrides", "override for %s who is not a recipient", id)
		}
		if v.IsNegative() {
			return nil, apperr.Validation("overrides", "override for %s is negative", id)
		}
		if !v.Equal(v.Truncate(s.Scale)) {
			return nil, apperr.Validation("overrides", "override for %s has more precision than scale %d", id, s.Scale)
		}
		pinned = pinned.Add(v)
	}
	if pinned.GreaterThan(s.Amount) {
		return nil, apperr.Validation("overrides", "overrides total %s exceeds amount %s", pinned, s.Amount)
	}

	var even []string
	for _, id := range ids {
		if _, ok := s.Overrides[id]; !ok {
			even = append(even, id)
		}
	}
	rest := s.Amount.Sub(pinned)
	if len(even) == 0 && !rest.IsZero() {
		return nil, apperr.Validation("overrides", "overrides total %s does not match amount %s", pinned, s.Amount)
	}

	shares := make(map[string]decimal.Decimal, len(ids))
	for id, v := range s.Overrides {
		shares[id] = v
	}
	if len(even) > 0 {
		n := decimal.NewFromInt(int64(len(even)))
		each, _ := rest.QuoRem(n, s.Scale)
		for _, id := range even {
			shares[id] = each
		}
		shares[even[0]] = each.Add(rest.Sub(each.Mul(n)))
	}

	details := make([]finance.AllocationDetail, 0, len(ids))
	sum := decimal.Zero
	for _, id := range ids {
		v := shares[id]
		if v.IsNegative() {
			return nil, apperr.Invariant("negative share %s for student %s", v, id)
		}
		sum = sum.Add(v)
		details = append(details, finance.AllocationDetail{
			StudentID: id,
			Amount:    v,
			Period:    s.Period,
			Note:      s.Note,
			Source:    s.Source,
		})
	}
	if !sum.Equal(s.Amount) {
		return nil, apperr.Invariant("allocated %s but amount is %s", sum, s.Amount)
	}
	return details, nil
}

func canonicalIDs(in []string) ([]string, error) {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, id := range in {
		id = strings.TrimSpace(id)
		if id == "" {
			return nil, apperr.Validation("student_ids", "empty student id")
		}
		if seen[id] {
			return nil, apperr.Validation("student_ids", "student %s listed twice", id)
		}
		seen[id] = true
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return idLess(out[i], out[j]) })
	return out, nil
}

// idLess orders integer ids numerically ahead of all other ids, which
// compare lexicographically.
func idLess(a, b string) bool {
	na, nb := isDigits(a), isDigits(b)
	switch {
	case na && nb:
		ta, tb := strings.TrimLeft(a, "0"), strings.TrimLeft(b, "0")
		if len(ta) != len(tb) {
			return len(ta) < len(tb)
		}
		if ta != tb {
			return ta < tb
		}
		return a < b
	case na:
		return true
	case nb:
		return false
	}
	return a < b
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
