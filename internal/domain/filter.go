package domain

import (
	"strings"
	"time"
)

// Filter holds the presenter selections. Zero values match everything.
type Filter struct {
	Companies  []string
	Categories []string
	From       time.Time
	To         time.Time
}

// Apply returns the records matching every populated criterion, preserving order.
func (f Filter) Apply(records []Record) []Record {
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	return out
}

// Match reports whether a single record passes the filter.
func (f Filter) Match(r Record) bool {
	if len(f.Companies) > 0 && !containsFold(f.Companies, r.Company) {
		return false
	}
	if len(f.Categories) > 0 && !containsFold(f.Categories, r.Category) {
		return false
	}
	if !f.From.IsZero() && r.Date.Before(f.From) {
		return false
	}
	// To is inclusive of the whole day it names.
	if !f.To.IsZero() && !r.Date.Before(endOfDay(f.To)) {
		return false
	}
	return true
}

func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location()).AddDate(0, 0, 1)
}

func containsFold(values []string, v string) bool {
	v = strings.TrimSpace(v)
	for _, candidate := range values {
		if strings.EqualFold(strings.TrimSpace(candidate), v) {
			return true
		}
	}
	return false
}
