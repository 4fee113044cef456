package dedupe

import (
	"context"

	"github.com/bakkerme/feedscan/internal/scan"
)

// SeenStore remembers entry links reported by earlier runs.
type SeenStore interface {
	Seen(ctx context.Context, link string) (bool, error)
	// Remember records every entry with a link as reported from feedURL.
	Remember(ctx context.Context, feedURL string, entries []scan.Entry) error
	// Prune removes links not reported within the store's TTL and returns how
	// many went.
	Prune(ctx context.Context) (int64, error)
	Close() error
}
