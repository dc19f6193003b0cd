package apperr

import "fmt"

// WarningCode names a data-integrity problem that did not stop processing.
type WarningCode string

const (
	OrphanStudent    WarningCode = "orphan_student"
	UnparsableAmount WarningCode = "unparsable_amount"
	MissingAccount   WarningCode = "missing_account"
	UnknownModuleTag WarningCode = "unknown_module_tag"
)

// maxListed caps how many warnings are echoed back; the count is never capped.
const maxListed = 50

type Warning struct {
	Code    WarningCode `json:"code"`
	Subject string      `json:"subject,omitempty"`
	Message string      `json:"message"`
}

// Warnings accumulates non-fatal problems for one computation.
// The zero value is ready to use.
type Warnings struct {
	items []Warning
	count int
}

func (w *Warnings) Add(code WarningCode, subject, format string, args ...any) {
	w.count++
	if len(w.items) < maxListed {
		w.items = append(w.items, Warning{Code: code, Subject: subject, Message: fmt.Sprintf(format, args...)})
	}
}

func (w *Warnings) Merge(other Warnings) {
	w.count += other.count
	for _, it := range other.items {
		if len(w.items) >= maxListed {
			break
		}
		w.items = append(w.items, it)
	}
}

func (w Warnings) Count() int { return w.count }

func (w Warnings) Degraded() bool { return w.count > 0 }

func (w Warnings) List() []Warning {
	out := make([]Warning, len(w.items))
	copy(out, w.items)
	return out
}

// CountOf returns how many listed warnings carry code.
func (w Warnings) CountOf(code WarningCode) int {
	n := 0
	for _, it := range w.items {
		if it.Code == code {
			n++
		}
	}
	return n
}

// Audit is embedded in every result that can be partially degraded.
type Audit struct {
	DegradedData  bool      `json:"degraded_data"`
	DegradedCount int       `json:"degraded_count"`
	Warnings      []Warning `json:"warnings,omitempty"`
}

func (w Warnings) Audit() Audit {
	return Audit{DegradedData: w.Degraded(), DegradedCount: w.count, Warnings: w.List()}
}
