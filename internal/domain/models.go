package domain

import (
	"sort"
	"time"
)

// Domain contains the normalized records shared by every ingestor.

// DefaultTitle is used when a source entry carries no title.
const DefaultTitle = "No Title"

// Sheet column names, in output order.
const (
	ColumnDate     = "Date"
	ColumnCompany  = "Company"
	ColumnTitle    = "Title"
	ColumnLink     = "Link"
	ColumnCategory = "Category"
)

// SheetColumns lists the columns every SheetTable carries.
var SheetColumns = []string{ColumnDate, ColumnCompany, ColumnTitle, ColumnLink, ColumnCategory}

// Record is the unit handed to the presentation layer.
type Record struct {
	Title       string    `json:"title"`
	Link        string    `json:"link,omitempty"`
	Date        time.Time `json:"date"`
	Description string    `json:"description,omitempty"`
	Company     string    `json:"company,omitempty"`
	Category    string    `json:"category,omitempty"`
}

// SheetRow is one spreadsheet row after schema repair. Date is nil when the cell could not be parsed.
type SheetRow struct {
	Date     *time.Time `json:"date"`
	Company  string     `json:"company"`
	Title    string     `json:"title"`
	Link     string     `json:"link"`
	Category string     `json:"category"`
}

// SheetTable is the tabular result of a sheet fetch.
type SheetTable struct {
	Columns []string   `json:"columns"`
	Rows    []SheetRow `json:"rows"`
}

// EmptySheetTable returns a table with the expected columns and no rows.
func EmptySheetTable() SheetTable {
	cols := make([]string, len(SheetColumns))
	copy(cols, SheetColumns)
	return SheetTable{Columns: cols, Rows: []SheetRow{}}
}

// Records converts rows into Records. Rows without a parsed date get now.
func (t SheetTable) Records(now time.Time) []Record {
	out := make([]Record, 0, len(t.Rows))
	for _, row := range t.Rows {
		date := now
		if row.Date != nil {
			date = *row.Date
		}
		title := row.Title
		if title == "" {
			title = DefaultTitle
		}
		out = append(out, Record{
			Title:    title,
			Link:     row.Link,
			Date:     date,
			Company:  row.Company,
			Category: row.Category,
		})
	}
	return out
}

// SortByDateDesc orders records newest first. Equal dates keep their input order.
func SortByDateDesc(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Date.After(records[j].Date)
	})
}
