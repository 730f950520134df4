// Package importer turns bank and spreadsheet exports into transaction
// candidates and commits accepted candidates to the ledger in batches.
package importer

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const bom = "\ufeff"

// Row maps a header to the raw cell text of one data row.
type Row map[string]string

// Table is a rectangular import source. Headers keep the file order.
type Table struct {
	Headers []string
	Rows    []Row
}

// Get returns the cell of column, or "" when the column is unmapped or absent.
func (r Row) Get(column string) string {
	if column == "" {
		return ""
	}
	return r[column]
}

// NewTable builds a table from raw records whose first record is the header.
// Blank headers become "Column N" and duplicates get a numeric suffix.
func NewTable(records [][]string) Table {
	if len(records) == 0 {
		return Table{}
	}
	headers := uniqueHeaders(records[0])
	t := Table{Headers: headers, Rows: make([]Row, 0, len(records)-1)}
	for _, rec := range records[1:] {
		if blank(rec) {
			continue
		}
		row := make(Row, len(headers))
		for i, h := range headers {
			if i < len(rec) {
				row[h] = strings.TrimSpace(rec[i])
			} else {
				row[h] = ""
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// FromValues builds a table from loosely typed cells, as returned by the
// Sheets API. Numbers are rendered without exponent so serial dates survive.
func FromValues(values [][]any) Table {
	records := make([][]string, len(values))
	for i, row := range values {
		rec := make([]string, len(row))
		for j, cell := range row {
			rec[j] = cellString(cell)
		}
		records[i] = rec
	}
	return NewTable(records)
}

func cellString(v any) string {
	switch c := v.(type) {
	case nil:
		return ""
	case string:
		return c
	case float64:
		return strconv.FormatFloat(c, 'f', -1, 64)
	case int:
		return strconv.Itoa(c)
	case int64:
		return strconv.FormatInt(c, 10)
	case bool:
		return strconv.FormatBool(c)
	case time.Time:
		return c.Format("2006-01-02")
	default:
		return fmt.Sprint(c)
	}
}

func uniqueHeaders(raw []string) []string {
	seen := make(map[string]bool, len(raw))
	out := make([]string, len(raw))
	for i, h := range raw {
		h = strings.TrimSpace(strings.TrimPrefix(h, bom))
		if h == "" {
			h = fmt.Sprintf("Column %d", i+1)
		}
		base := h
		for n := 2; seen[h]; n++ {
			h = fmt.Sprintf("%s (%d)", base, n)
		}
		seen[h] = true
		out[i] = h
	}
	return out
}

func blank(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
