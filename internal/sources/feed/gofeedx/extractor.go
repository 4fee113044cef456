// Package gofeedx extracts entries with a full RSS/Atom parser instead of
// delimiter scanning.
package gofeedx

import (
	"strings"

	"github.com/bakkerme/feedscan/internal/scan"
	"github.com/mmcdole/gofeed"
)

type Extractor struct{}

func New() *Extractor {
	return &Extractor{}
}

// Entries parses doc and maps its items onto scan entries. RSS items take
// their timestamp from pubDate, Atom entries from updated. A document the
// parser rejects yields no entries.
func (e *Extractor) Entries(doc string) []scan.Entry {
	// gofeed.Parser keeps per-parse state, so each call gets its own.
	parsed, err := gofeed.NewParser().ParseString(doc)
	if err != nil {
		return nil
	}

	kind := scan.KindRSS
	if parsed.FeedType == "atom" {
		kind = scan.KindAtom
	}

	entries := make([]scan.Entry, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if item == nil {
			continue
		}
		entries = append(entries, scan.Entry{
			Title:     strings.TrimSpace(item.Title),
			Link:      itemLink(item),
			Timestamp: itemTimestamp(item, kind),
			Kind:      kind,
		})
	}
	return entries
}

func itemLink(item *gofeed.Item) string {
	if link := strings.TrimSpace(item.Link); link != "" {
		return link
	}
	for _, link := range item.Links {
		if link = strings.TrimSpace(link); link != "" {
			return link
		}
	}
	return ""
}

func itemTimestamp(item *gofeed.Item, kind scan.Kind) string {
	primary, secondary := item.Published, item.Updated
	if kind == scan.KindAtom {
		primary, secondary = item.Updated, item.Published
	}
	if ts := strings.TrimSpace(primary); ts != "" {
		return ts
	}
	return strings.TrimSpace(secondary)
}
