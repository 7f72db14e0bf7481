package publishers

import (
	"context"
	"time"

	"github.com/Adda-Baaj/portco-news/internal/domain"
)

// Publisher hands the result of one fetch cycle to an external consumer.
type Publisher interface {
	ID() string
	Type() string
	Publish(ctx context.Context, evt Event) error
}

// Event is one source's output for a fetch cycle. Exactly one of Records or Table is set.
// Error carries the non-fatal failure report, if any; the payload is then empty but well formed.
// Truncated and Dropped are set when a sink had to shed trailing records or rows to fit its size limit.
type Event struct {
	Source    string             `json:"source"`
	FetchedAt time.Time          `json:"fetched_at"`
	Records   []domain.Record    `json:"records,omitempty"`
	Table     *domain.SheetTable `json:"table,omitempty"`
	Error     string             `json:"error,omitempty"`
	Truncated bool               `json:"truncated,omitempty"`
	Dropped   int                `json:"dropped,omitempty"`
}

// FeedEvent builds the event for a feed fetch. Records are copied and ordered newest first, the
// order the presentation layer shows them in; equal dates keep feed order.
func FeedEvent(source string, at time.Time, records []domain.Record, err error) Event {
	sorted := make([]domain.Record, len(records))
	copy(sorted, records)
	domain.SortByDateDesc(sorted)
	return Event{Source: source, FetchedAt: at, Records: sorted, Error: errString(err)}
}

// SheetEvent builds the event for a sheet fetch.
func SheetEvent(source string, at time.Time, table domain.SheetTable, err error) Event {
	return Event{Source: source, FetchedAt: at, Table: &table, Error: errString(err)}
}

// Size reports how many records or rows the event carries.
func (e Event) Size() int {
	if e.Table != nil {
		return len(e.Table.Rows)
	}
	return len(e.Records)
}

// Narrow returns a copy of e keeping only what f selects. Sheet rows are matched through their
// record form, so an undated row counts as fetched at FetchedAt.
func (e Event) Narrow(f domain.Filter) Event {
	if e.Table == nil {
		e.Records = f.Apply(e.Records)
		return e
	}

	asRecords := e.Table.Records(e.FetchedAt)
	table := domain.SheetTable{Columns: e.Table.Columns, Rows: make([]domain.SheetRow, 0, len(e.Table.Rows))}
	for i, row := range e.Table.Rows {
		if f.Match(asRecords[i]) {
			table.Rows = append(table.Rows, row)
		}
	}
	e.Table = &table
	return e
}

// head keeps the first n records or rows and marks the rest as dropped.
func (e Event) head(n int) Event {
	total := e.Size()
	if n >= total {
		return e
	}
	if e.Table != nil {
		table := *e.Table
		table.Rows = table.Rows[:n]
		e.Table = &table
	} else {
		e.Records = e.Records[:n]
	}
	e.Truncated = true
	e.Dropped += total - n
	return e
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
