package normalize

import (
	"regexp"
	"strings"
)

const (
	// titleAndURLMarker prefixes descriptions produced by the upstream feed integration.
	titleAndURLMarker = "Title and URL:"
	// trailingURLMarker separates the headline from its echoed URL in marked descriptions.
	trailingURLMarker = " - http"
)

// tagPattern matches anything shaped like <...>. It is not HTML aware.
var tagPattern = regexp.MustCompile(`<[^<]+?>`)

// StripTags removes every <...> sequence from s. Removal repeats until nothing matches, since
// dropping an inner tag can join its neighbours into a new one ("<<a>b>" -> "<b>").
func StripTags(s string) string {
	for {
		out := tagPattern.ReplaceAllString(s, "")
		if out == s {
			return out
		}
		s = out
	}
}

// CleanDescription strips markup, then applies the upstream "Title and URL:" rule:
// the marker is removed and, only in that case, anything from " - http" onwards is dropped.
func CleanDescription(raw string) string {
	desc := StripTags(raw)
	if !strings.Contains(desc, titleAndURLMarker) {
		return desc
	}

	desc = strings.TrimSpace(strings.ReplaceAll(desc, titleAndURLMarker, ""))
	if idx := strings.Index(desc, trailingURLMarker); idx >= 0 {
		desc = strings.TrimSpace(desc[:idx])
	}
	return desc
}

// FirstNonEmpty returns the first value that is not blank, untrimmed.
func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
