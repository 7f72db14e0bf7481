package sheet

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Adda-Baaj/portco-news/internal/domain"
	"github.com/Adda-Baaj/portco-news/internal/normalize"
)

// BuildTable turns a raw cell grid (first row is the header) into a five-column table.
// Missing columns become empty text, unparsable dates become nil, and rows are ordered by
// date, newest first, with undated rows last. Ties keep their sheet order.
func BuildTable(values [][]any) domain.SheetTable {
	table := domain.EmptySheetTable()
	if len(values) == 0 {
		return table
	}

	index := headerIndex(values[0])
	for _, raw := range values[1:] {
		cell := func(col string) string {
			pos, ok := index[col]
			if !ok || pos >= len(raw) {
				return ""
			}
			return cellString(raw[pos])
		}

		table.Rows = append(table.Rows, domain.SheetRow{
			Date:     normalize.TimePtr(cell(domain.ColumnDate)),
			Company:  cell(domain.ColumnCompany),
			Title:    cell(domain.ColumnTitle),
			Link:     cell(domain.ColumnLink),
			Category: cell(domain.ColumnCategory),
		})
	}

	sortRowsByDate(table.Rows)
	return table
}

// MissingColumns reports which expected columns the header lacks.
func MissingColumns(header []any) []string {
	index := headerIndex(header)
	var missing []string
	for _, col := range domain.SheetColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	return missing
}

// headerIndex maps trimmed header names to their first position.
func headerIndex(header []any) map[string]int {
	index := make(map[string]int, len(header))
	for pos, h := range header {
		name := cellString(h)
		if name == "" {
			continue
		}
		if _, exists := index[name]; !exists {
			index[name] = pos
		}
	}
	return index
}

func cellString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	default:
		return strings.TrimSpace(fmt.Sprint(val))
	}
}

func sortRowsByDate(rows []domain.SheetRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i].Date, rows[j].Date
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.After(*b)
		}
	})
}
