package mock

import (
	"context"
	"fmt"
	"sync"
)

type Fetcher struct {
	DocsByFeed map[string]string
	ErrByFeed  map[string]error

	mu    sync.Mutex
	calls []string
}

func (f *Fetcher) Fetch(ctx context.Context, feedURL string) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, feedURL)
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if f.ErrByFeed != nil {
		if err, ok := f.ErrByFeed[feedURL]; ok {
			return "", err
		}
	}
	doc, ok := f.DocsByFeed[feedURL]
	if !ok {
		return "", fmt.Errorf("mock: no document for %s", feedURL)
	}
	return doc, nil
}

// Calls returns the URLs fetched so far, in call order.
func (f *Fetcher) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}
