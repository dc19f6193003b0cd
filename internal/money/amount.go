// Package money holds the rupiah amount type shared by the finance packages.
//
// Amounts arrive from several upstream modules, some of which store display
// strings ("Rp 1.500.000") instead of numbers. Amount keeps such values
// usable: anything that can be sanitized is parsed, anything else becomes
// zero and is flagged so reports can count it.
package money

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrUnparsable = errors.New("amount is not parsable")

var stripRe = regexp.MustCompile(`[^0-9.,\-]`)

// Amount is a decimal that remembers whether its source was unparsable.
// The zero value is a valid zero.
type Amount struct {
	d          decimal.Decimal
	raw        string
	unparsable bool
}

func New(d decimal.Decimal) Amount { return Amount{d: d} }

func FromInt(v int64) Amount { return Amount{d: decimal.NewFromInt(v)} }

// Coerce parses s leniently. Failures yield a flagged zero, never an error.
func Coerce(s string) Amount {
	d, err := Parse(s)
	if err != nil {
		return Amount{raw: s, unparsable: true}
	}
	return Amount{d: d}
}

func (a Amount) Decimal() decimal.Decimal { return a.d }

// Unparsable reports whether the source value had to be coerced to zero.
func (a Amount) Unparsable() bool { return a.unparsable }

func (a Amount) Raw() string { return a.raw }

func (a Amount) String() string { return a.d.String() }

// Parse sanitizes a formatted amount and converts it. Both "1.500.000,50"
// and "1,500,000.50" are understood; a single separator followed by exactly
// three digits is treated as thousands grouping. The rupiah "no cents"
// suffix in "Rp 1.500,-" is dropped.
func Parse(s string) (decimal.Decimal, error) {
	clean := stripRe.ReplaceAllString(s, "")
	if strings.HasSuffix(clean, ",-") || strings.HasSuffix(clean, ".-") {
		clean = clean[:len(clean)-2]
	}
	neg := strings.HasPrefix(clean, "-")
	clean = strings.TrimPrefix(clean, "-")
	if clean == "" || strings.Contains(clean, "-") || !strings.ContainsAny(clean, "0123456789") {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrUnparsable, s)
	}

	d, err := decimal.NewFromString(normalizeSeparators(clean))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrUnparsable, s)
	}
	if neg {
		d = d.Neg()
	}
	return d, nil
}

func normalizeSeparators(s string) string {
	dot := strings.LastIndex(s, ".")
	comma := strings.LastIndex(s, ",")
	switch {
	case dot >= 0 && comma >= 0:
		if dot > comma {
			return strings.ReplaceAll(s, ",", "")
		}
		s = strings.ReplaceAll(s, ".", "")
		return strings.Replace(s, ",", ".", 1)
	case comma >= 0:
		return singleSeparator(s, ",")
	case dot >= 0:
		return singleSeparator(s, ".")
	}
	return s
}

func singleSeparator(s, sep string) string {
	if strings.Count(s, sep) > 1 {
		return strings.ReplaceAll(s, sep, "")
	}
	if frac := s[strings.Index(s, sep)+1:]; len(frac) == 3 {
		return strings.ReplaceAll(s, sep, "")
	}
	return strings.Replace(s, sep, ".", 1)
}

// Scan implements sql.Scanner. Canonical numeric text is read as is;
// anything else goes through the lenient parser.
func (a *Amount) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*a = Amount{}
	case int64:
		*a = FromInt(v)
	case float64:
		*a = New(decimal.NewFromFloat(v))
	case []byte:
		*a = scanText(string(v))
	case string:
		*a = scanText(v)
	default:
		*a = Amount{raw: fmt.Sprint(v), unparsable: true}
	}
	return nil
}

func scanText(s string) Amount {
	if d, err := decimal.NewFromString(strings.TrimSpace(s)); err == nil {
		return New(d)
	}
	return Coerce(s)
}

func (a Amount) Value() (driver.Value, error) {
	return a.d.String(), nil
}

func (Amount) GormDataType() string { return "numeric" }

func (a Amount) MarshalJSON() ([]byte, error) {
	return a.d.MarshalJSON()
}

// UnmarshalJSON accepts numbers and formatted strings.
func (a *Amount) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*a = Amount{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*a = Coerce(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("amount: %w", err)
	}
	*a = scanText(n.String())
	return nil
}
