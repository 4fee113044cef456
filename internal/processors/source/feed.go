package source

import (
	"context"
	"fmt"
	"time"

	"github.com/bakkerme/feedscan/internal/core"
	"github.com/bakkerme/feedscan/internal/scan"
	"github.com/bakkerme/feedscan/internal/sources/feed"
)

// FeedProcessor retrieves one feed, extracts its entries and applies the
// validity and recency filters.
type FeedProcessor struct {
	name      string
	fetcher   feed.Fetcher
	extractor scan.Extractor
	options   scan.Options
}

func NewFeedProcessor(fetcher feed.Fetcher, extractor scan.Extractor, options scan.Options) (*FeedProcessor, error) {
	if extractor == nil {
		extractor = scan.Scanner{}
	}
	p := &FeedProcessor{
		name:      "feed",
		fetcher:   fetcher,
		extractor: extractor,
		options:   options,
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *FeedProcessor) Name() string {
	return p.name
}

func (p *FeedProcessor) Validate() error {
	if p.fetcher == nil {
		return fmt.Errorf("feed fetcher is required")
	}
	return nil
}

func (p *FeedProcessor) Fetch(ctx context.Context, ref core.FeedRef) core.FeedResult {
	started := time.Now()
	result := core.FeedResult{Feed: ref, Entries: []scan.Entry{}}
	logger := core.LoggerFromContext(ctx)

	doc, err := p.fetcher.Fetch(ctx, ref.URL)
	if err != nil {
		result.Err = err
		result.Duration = time.Since(started)
		logger.Warn("feed retrieval failed", "feed_url", ref.URL, "error", err)
		return result
	}

	result.Schema = scan.DetectSchema(doc)
	candidates := p.extractor.Entries(doc)
	accepted := scan.Filter(candidates, p.options)
	result.Entries = accepted.Entries
	result.Count = accepted.Count
	result.Duration = time.Since(started)

	logger.Debug("feed processed",
		"feed_url", ref.URL,
		"schema", result.Schema.String(),
		"candidates", len(candidates),
		"accepted", result.Count,
		"duration", result.Duration,
	)
	return result
}
