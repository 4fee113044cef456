// Package report renders run progress and digests for people to read.
package report

import (
	"github.com/bakkerme/feedscan/internal/core"
	"github.com/bakkerme/feedscan/internal/scan"
)

// Renderer receives run events in feed order. Calls come from a single
// goroutine.
type Renderer interface {
	FeedStarted(feedURL string)
	Entry(feedURL string, entry scan.Entry)
	FeedFailed(feedURL string, err error)
	NoPosts(feedURL string)
	Summary(run *core.Run)
}

// DateLabel is the label shown next to an entry timestamp.
func DateLabel(kind scan.Kind) string {
	if kind == scan.KindAtom {
		return "Updated Date"
	}
	return "Publication Date"
}

// Replay feeds a recorded feed result through r the way the runner does.
func Replay(r Renderer, result core.FeedResult) {
	r.FeedStarted(result.Feed.URL)
	switch {
	case result.Failed():
		r.FeedFailed(result.Feed.URL, result.Err)
	case len(result.Entries) == 0:
		r.NoPosts(result.Feed.URL)
	default:
		for _, entry := range result.Entries {
			r.Entry(result.Feed.URL, entry)
		}
	}
}
