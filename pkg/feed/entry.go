package feed

import (
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/Adda-Baaj/portco-news/internal/domain"
	"github.com/Adda-Baaj/portco-news/internal/normalize"
)

// Entry is a feed item reduced to the fields normalization reads.
type Entry struct {
	Title           string
	Link            string
	Published       string
	PublishedParsed *time.Time
	Updated         string
	UpdatedParsed   *time.Time
	Description     string
	Summary         string
}

// entryFromItem maps a parsed gofeed item. gofeed folds RSS description and Atom summary into
// Description, so the item content serves as the summary fallback.
func entryFromItem(item *gofeed.Item) Entry {
	if item == nil {
		return Entry{}
	}
	return Entry{
		Title:           item.Title,
		Link:            item.Link,
		Published:       item.Published,
		PublishedParsed: item.PublishedParsed,
		Updated:         item.Updated,
		UpdatedParsed:   item.UpdatedParsed,
		Description:     item.Description,
		Summary:         item.Content,
	}
}

// Normalize turns entries into records in source order. The first entry for a given link wins,
// including the empty link: only the first link-less entry is kept.
func Normalize(entries []Entry, now time.Time) []domain.Record {
	records := make([]domain.Record, 0, len(entries))
	seen := make(map[string]struct{}, len(entries))

	for _, e := range entries {
		link := strings.TrimSpace(e.Link)
		if _, dup := seen[link]; dup {
			continue
		}
		seen[link] = struct{}{}

		records = append(records, normalizeEntry(e, link, now))
	}
	return records
}

func normalizeEntry(e Entry, link string, now time.Time) domain.Record {
	date := normalize.FirstTime(now,
		normalize.Known(e.PublishedParsed),
		normalize.Parsed(e.Published),
		normalize.Known(e.UpdatedParsed),
		normalize.Parsed(e.Updated),
	)

	title := strings.TrimSpace(e.Title)
	if title == "" {
		title = domain.DefaultTitle
	}

	desc := normalize.CleanDescription(normalize.FirstNonEmpty(e.Description, e.Summary))
	// A description repeating the headline carries nothing for the reader.
	if strings.TrimSpace(desc) == title {
		desc = ""
	}

	return domain.Record{
		Title:       title,
		Link:        link,
		Date:        date,
		Description: desc,
	}
}
