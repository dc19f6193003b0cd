// Package mappingimport loads allocation mappings from the spreadsheet the
// bookkeeping office maintains.
package mappingimport

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fuyudunniam-spec/E-MAKTAB-MANAJEMEN-PESANTREN-V1-sub012/internal/allocation"
)

var required = []string{"scope", "category", "subcategory", "mode", "student_ids"}

// ParseFile reads a CSV export from path.
func ParseFile(path string) ([]allocation.Mapping, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseCSV(bufio.NewReader(f))
}

// ParseCSV returns one normalized mapping per data row. student_ids are
// separated by ';'. Two rows for the same slot are rejected.
func ParseCSV(in io.Reader) ([]allocation.Mapping, error) {
	r := csv.NewReader(in)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return nil, errors.New("csv has no data rows")
	}

	header := records[0]
	// Excel exports start with a BOM
	header[0] = strings.TrimPrefix(header[0], "\ufeff")

	col := map[string]int{}
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, k := range required {
		if _, ok := col[k]; !ok {
			return nil, fmt.Errorf("missing required column: %s", k)
		}
	}

	seen := map[string]int{}
	var out []allocation.Mapping

	for rowIdx := 1; rowIdx < len(records); rowIdx++ {
		rec := records[rowIdx]
		get := func(name string) string {
			i, ok := col[name]
			if !ok || i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}
		if strings.Join(rec, "") == "" {
			continue
		}

		var ids []string
		for _, p := range strings.Split(get("student_ids"), ";") {
			if p = strings.TrimSpace(p); p != "" {
				ids = append(ids, p)
			}
		}

		m, err := allocation.MappingInput{
			Scope:       allocation.Scope(strings.ToLower(get("scope"))),
			Category:    get("category"),
			Subcategory: get("subcategory"),
			Mode:        get("mode"),
			StudentIDs:  ids,
			Description: get("description"),
			CreatedBy:   "mapping-import",
		}.Normalize()
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", rowIdx+1, err)
		}
		if prev, dup := seen[m.ScopeKey]; dup {
			return nil, fmt.Errorf("row %d: %s already mapped on row %d", rowIdx+1, m.ScopeKey, prev)
		}
		seen[m.ScopeKey] = rowIdx + 1
		out = append(out, m)
	}

	if len(out) == 0 {
		return nil, errors.New("csv has no data rows")
	}
	return out, nil
}
