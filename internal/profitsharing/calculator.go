// Package profitsharing splits monthly cooperative sales between the
// foundation and the cooperative, and reconciles the foundation's share
// against what was actually transferred.
package profitsharing

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/fuyudunniam-spec/E-MAKTAB-MANAJEMEN-PESANTREN-V1-sub012/internal/apperr"
)

type Mode string

const (
	ModeStandard Mode = "STANDARD"
	ModeCustom   Mode = "CUSTOM"
)

// StandardFoundationPct is the foundation's share under STANDARD.
var StandardFoundationPct = decimal.NewFromInt(70)

// PctScale is the number of decimal places a percentage may carry.
const PctScale = 2

var hundred = decimal.NewFromInt(100)

func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToUpper(strings.TrimSpace(s))); m {
	case ModeStandard, ModeCustom:
		return m, nil
	case "":
		return ModeStandard, nil
	}
	return "", apperr.Validation("mode", "unknown profit sharing mode %q", s)
}

// Result is one split of total sales.
type Result struct {
	Mode             Mode            `json:"mode"`
	TotalSales       decimal.Decimal `json:"total_sales"`
	PctFoundation    decimal.Decimal `json:"pct_foundation"`
	PctCooperative   decimal.Decimal `json:"pct_cooperative"`
	FoundationShare  decimal.Decimal `json:"foundation_share"`
	CooperativeShare decimal.Decimal `json:"cooperative_share"`
}

// Compute splits total. The foundation share is rounded to scale and the
// cooperative takes the exact remainder, so the two always add up to total.
// pct is ignored under STANDARD.
func Compute(total decimal.Decimal, mode Mode, pct decimal.Decimal, scale int32) (Result, error) {
	if scale < 0 {
		return Result{}, apperr.Validation("scale", "scale must not be negative")
	}
	if total.IsNegative() {
		return Result{}, apperr.Validation("total_sales", "total sales must not be negative")
	}
	if !total.Equal(total.Truncate(scale)) {
		return Result{}, apperr.Validation("total_sales", "total sales %s has more precision than scale %d", total, scale)
	}

	switch mode {
	case ModeStandard:
		pct = StandardFoundationPct
	case ModeCustom:
		if pct.IsNegative() || pct.GreaterThan(hundred) {
			return Result{}, apperr.Validation("pct_foundation", "pct_foundation must be within 0-100, got %s", pct)
		}
		if !pct.Equal(pct.Truncate(PctScale)) {
			return Result{}, apperr.Validation("pct_foundation", "pct_foundation %s has more than %d decimal places", pct, PctScale)
		}
	default:
		return Result{}, apperr.Validation("mode", "unknown profit sharing mode %q", mode)
	}

	// x/100 is exact in decimal, so Shift avoids division precision limits.
	foundation := total.Mul(pct).Shift(-2).Round(scale)
	res := Result{
		Mode:             mode,
		TotalSales:       total,
		PctFoundation:    pct,
		PctCooperative:   hundred.Sub(pct),
		FoundationShare:  foundation,
		CooperativeShare: total.Sub(foundation),
	}
	if err := res.check(); err != nil {
		return Result{}, err
	}
	return res, nil
}

func (r Result) check() error {
	if !r.FoundationShare.Add(r.CooperativeShare).Equal(r.TotalSales) {
		return apperr.Invariant("shares %s + %s do not add up to %s", r.FoundationShare, r.CooperativeShare, r.TotalSales)
	}
	if !r.PctFoundation.Add(r.PctCooperative).Equal(hundred) {
		return apperr.Invariant("percentages %s + %s do not add up to 100", r.PctFoundation, r.PctCooperative)
	}
	if r.FoundationShare.IsNegative() || r.CooperativeShare.IsNegative() {
		return apperr.Invariant("negative share in split of %s", r.TotalSales)
	}
	return nil
}
