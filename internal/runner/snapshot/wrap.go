package snapshot

import (
	"context"
	"fmt"
	"sync"

	"github.com/bakkerme/feedscan/internal/config"
	"github.com/bakkerme/feedscan/internal/core"
	"github.com/bakkerme/feedscan/internal/sources/feed"
)

// Recorder passes fetches through and writes every retrieved document to
// the snapshot file. A failed write is logged and the document still returned.
type Recorder struct {
	feed.Fetcher
	path string

	mu   sync.Mutex
	docs map[string]string
}

func (r *Recorder) Fetch(ctx context.Context, feedURL string) (string, error) {
	doc, err := r.Fetcher.Fetch(ctx, feedURL)
	if err != nil {
		return "", err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs[feedURL] = doc
	if err := Save(r.path, core.RunIDFromContext(ctx), r.docs); err != nil {
		core.LoggerFromContext(ctx).Warn("snapshot save failed", "feed_url", feedURL, "path", r.path, "error", err)
	}
	return doc, nil
}

// Replayer serves documents from a snapshot file without touching the network.
type Replayer struct {
	path string

	once sync.Once
	docs map[string]string
	err  error
}

func (r *Replayer) Fetch(ctx context.Context, feedURL string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	r.once.Do(func() {
		r.docs, r.err = Load(r.path)
	})
	if r.err != nil {
		return "", r.err
	}
	doc, ok := r.docs[feedURL]
	if !ok {
		return "", fmt.Errorf("snapshot %s has no document for %s", r.path, feedURL)
	}
	return doc, nil
}

// WrapFetcher returns fetcher unchanged unless cfg asks for recording or replay.
func WrapFetcher(fetcher feed.Fetcher, cfg *config.SnapshotConfig) feed.Fetcher {
	if cfg == nil {
		return fetcher
	}
	switch {
	case cfg.Restore:
		return &Replayer{path: cfg.Path}
	case cfg.Snapshot && fetcher != nil:
		return &Recorder{Fetcher: fetcher, path: cfg.Path, docs: map[string]string{}}
	default:
		return fetcher
	}
}
