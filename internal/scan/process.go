package scan

import "time"

// Options control which decoded entries Process accepts.
type Options struct {
	// AcceptAll skips the recency filter.
	AcceptAll bool
	// Now is consulted once per entry. Defaults to time.Now.
	Now func() time.Time
}

// Result holds the accepted entries of one document in document order.
type Result struct {
	Entries []Entry
	Count   int
}

// Extractor turns a raw document into candidate entries, RSS before Atom.
type Extractor interface {
	Entries(doc string) []Entry
}

// Scanner is the delimiter-scanning Extractor.
type Scanner struct{}

func (Scanner) Entries(doc string) []Entry {
	var entries []Entry
	for _, kind := range DetectSchema(doc).Kinds() {
		for block := range Blocks(doc, TagsFor(kind).Wrapper) {
			entries = append(entries, Decode(block, kind))
		}
	}
	return entries
}

// Process scans doc and returns the valid entries that pass the recency filter.
func Process(doc string, opts Options) Result {
	return Filter(Scanner{}.Entries(doc), opts)
}

// Filter drops invalid candidates and, unless opts.AcceptAll, those not
// published today.
func Filter(candidates []Entry, opts Options) Result {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	result := Result{Entries: []Entry{}}
	for _, entry := range candidates {
		if !entry.Valid() {
			continue
		}
		if !opts.AcceptAll && !IsToday(entry.Timestamp, entry.Kind, now()) {
			continue
		}
		result.Entries = append(result.Entries, entry)
	}
	result.Count = len(result.Entries)
	return result
}
