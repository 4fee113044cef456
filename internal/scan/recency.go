package scan

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

var rssLayouts = []string{
	"Mon, _2 Jan 2006 15:04:05 -0700",
	"Mon, _2 Jan 2006 15:04:05 MST",
	"Mon, _2 Jan 2006 15:04 -0700",
	"Mon, _2 Jan 2006 15:04 MST",
	"_2 Jan 2006 15:04:05 -0700",
	"_2 Jan 2006 15:04:05 MST",
	time.RFC822Z,
	time.RFC822,
}

var atomLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04:05",
}

var (
	fullYear  = regexp.MustCompile(`\b\d{4}\b`)
	timeOfDay = regexp.MustCompile(`\b\d{1,2}:\d{2}`)
	zoneToken = regexp.MustCompile(`(?i)(\dz\b|[+-]\d{2}:?\d{2}\b|\b(ut|utc|gmt|[ecmp][sd]t)\b)`)
)

// lenientCandidate reports whether value carries a four digit year, a time of
// day and an explicit zone.
func lenientCandidate(value string) bool {
	return fullYear.MatchString(value) && timeOfDay.MatchString(value) && zoneToken.MatchString(value)
}

// ParseTimestamp parses a raw timestamp using the convention of kind. Values
// outside those layouts go to a strict lenient parser, and only when they
// carry a full date, a time and a zone.
func ParseTimestamp(raw string, kind Kind) (time.Time, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	layouts := rssLayouts
	if kind == KindAtom {
		layouts = atomLayouts
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	if !lenientCandidate(value) {
		return time.Time{}, fmt.Errorf("parse %s timestamp %q: unrecognised format", kind, raw)
	}
	t, err := dateparse.ParseStrict(value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse %s timestamp %q: %w", kind, raw, err)
	}
	return t, nil
}

// IsToday reports whether raw falls on the same UTC calendar day as now.
// Unparseable timestamps are never today.
func IsToday(raw string, kind Kind, now time.Time) bool {
	t, err := ParseTimestamp(raw, kind)
	if err != nil {
		return false
	}
	return sameDay(t.UTC(), now.UTC())
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
