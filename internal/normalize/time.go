package normalize

import (
	"errors"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

var errEmptyTime = errors.New("empty time value")

// ParseTime parses the loosely formatted timestamps found in feeds and spreadsheets.
// Values without a zone are read as UTC.
func ParseTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, errEmptyTime
	}
	return dateparse.ParseIn(raw, time.UTC)
}

// TryTime is one step of a fallback chain: it yields a time and whether it succeeded.
type TryTime func() (time.Time, bool)

// Parsed wraps ParseTime as a TryTime.
func Parsed(raw string) TryTime {
	return func() (time.Time, bool) {
		t, err := ParseTime(raw)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	}
}

// Known yields t when it is non-nil.
func Known(t *time.Time) TryTime {
	return func() (time.Time, bool) {
		if t == nil || t.IsZero() {
			return time.Time{}, false
		}
		return *t, true
	}
}

// FirstTime returns the result of the first attempt that succeeds, or def.
func FirstTime(def time.Time, attempts ...TryTime) time.Time {
	for _, attempt := range attempts {
		if attempt == nil {
			continue
		}
		if t, ok := attempt(); ok {
			return t
		}
	}
	return def
}

// TimeOr parses raw, falling back to def.
func TimeOr(raw string, def time.Time) time.Time {
	return FirstTime(def, Parsed(raw))
}

// TimePtr parses raw and returns nil when it cannot be parsed.
func TimePtr(raw string) *time.Time {
	t, err := ParseTime(raw)
	if err != nil {
		return nil
	}
	return &t
}
