package finance

import (
	"fmt"
	"time"

	"github.com/fuyudunniam-spec/E-MAKTAB-MANAJEMEN-PESANTREN-V1-sub012/internal/apperr"
)

const (
	DateLayout   = "2006-01-02"
	PeriodLayout = "2006-01"

	// MaxRangeMonths bounds a single report request.
	MaxRangeMonths = 120
)

// Period is a calendar month.
type Period struct {
	Year  int
	Month time.Month
}

func NewPeriod(year, month int) (Period, error) {
	if month < 1 || month > 12 {
		return Period{}, apperr.Validation("month", "month must be 1-12, got %d", month)
	}
	if year < 1900 || year > 9999 {
		return Period{}, apperr.Validation("year", "year out of range: %d", year)
	}
	return Period{Year: year, Month: time.Month(month)}, nil
}

func ParsePeriod(s string) (Period, error) {
	t, err := time.Parse(PeriodLayout, s)
	if err != nil {
		return Period{}, apperr.Validation("period", "period must look like YYYY-MM, got %q", s)
	}
	return PeriodOf(t), nil
}

func PeriodOf(t time.Time) Period {
	return Period{Year: t.Year(), Month: t.Month()}
}

func (p Period) String() string { return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month)) }

func (p Period) Start() time.Time { return time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC) }

// End is the last day of the month.
func (p Period) End() time.Time { return p.Start().AddDate(0, 1, -1) }

func (p Period) Next() Period { return PeriodOf(p.Start().AddDate(0, 1, 0)) }

func (p Period) Before(o Period) bool {
	return p.Year < o.Year || (p.Year == o.Year && p.Month < o.Month)
}

func (p Period) Range() DateRange { return DateRange{From: p.Start(), To: p.End()} }

func (p Period) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

func (p *Period) UnmarshalText(b []byte) error {
	parsed, err := ParsePeriod(string(b))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// DateRange is an inclusive range of calendar dates.
type DateRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

func NewDateRange(from, to time.Time) (DateRange, error) {
	r := DateRange{From: dateOnly(from), To: dateOnly(to)}
	if err := r.Validate(); err != nil {
		return DateRange{}, err
	}
	return r, nil
}

// ParseDateRange parses two YYYY-MM-DD strings.
func ParseDateRange(from, to string) (DateRange, error) {
	f, err := time.Parse(DateLayout, from)
	if err != nil {
		return DateRange{}, apperr.Validation("start", "date must look like YYYY-MM-DD, got %q", from)
	}
	t, err := time.Parse(DateLayout, to)
	if err != nil {
		return DateRange{}, apperr.Validation("end", "date must look like YYYY-MM-DD, got %q", to)
	}
	return NewDateRange(f, t)
}

func (r DateRange) Validate() error {
	if r.From.IsZero() || r.To.IsZero() {
		return apperr.Validation("range", "range needs both start and end")
	}
	if r.To.Before(r.From) {
		return apperr.Validation("range", "end %s is before start %s", r.To.Format(DateLayout), r.From.Format(DateLayout))
	}
	if n := (r.To.Year()-r.From.Year())*12 + int(r.To.Month()) - int(r.From.Month()) + 1; n > MaxRangeMonths {
		return apperr.Validation("range", "range spans %d months, limit is %d", n, MaxRangeMonths)
	}
	return nil
}

func (r DateRange) Contains(t time.Time) bool {
	d := dateOnly(t)
	return !d.Before(dateOnly(r.From)) && !d.After(dateOnly(r.To))
}

// Periods lists every calendar month the range touches, in order.
func (r DateRange) Periods() []Period {
	var out []Period
	last := PeriodOf(r.To)
	for p := PeriodOf(r.From); !last.Before(p); p = p.Next() {
		out = append(out, p)
	}
	return out
}

// Clip intersects the range with one month.
func (r DateRange) Clip(p Period) DateRange {
	out := p.Range()
	if from := dateOnly(r.From); from.After(out.From) {
		out.From = from
	}
	if to := dateOnly(r.To); to.Before(out.To) {
		out.To = to
	}
	return out
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
