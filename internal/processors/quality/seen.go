package quality

import (
	"context"
	"fmt"

	"github.com/bakkerme/feedscan/internal/core"
	"github.com/bakkerme/feedscan/internal/dedupe"
	"github.com/bakkerme/feedscan/internal/scan"
)

// SeenProcessor drops entries whose link an earlier run already reported
// and remembers the rest. Store failures keep the entry.
type SeenProcessor struct {
	store dedupe.SeenStore
}

func NewSeenProcessor(store dedupe.SeenStore) (*SeenProcessor, error) {
	p := &SeenProcessor{store: store}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *SeenProcessor) Name() string {
	return "new_only"
}

func (p *SeenProcessor) Validate() error {
	if p.store == nil {
		return fmt.Errorf("seen store is required")
	}
	return nil
}

func (p *SeenProcessor) Evaluate(ctx context.Context, ref core.FeedRef, entries []scan.Entry) ([]scan.Entry, error) {
	logger := core.LoggerFromContext(ctx)
	fresh := make([]scan.Entry, 0, len(entries))

	for _, entry := range entries {
		seen, err := p.store.Seen(ctx, entry.Link)
		if err != nil {
			logger.Warn("seen lookup failed", "feed_url", ref.URL, "link", entry.Link, "error", err)
			fresh = append(fresh, entry)
			continue
		}
		if seen {
			continue
		}
		fresh = append(fresh, entry)
	}

	if err := p.store.Remember(ctx, ref.URL, fresh); err != nil {
		logger.Warn("remember entries failed", "feed_url", ref.URL, "error", err)
	}
	return fresh, nil
}
