package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/bakkerme/feedscan/internal/config"
	"github.com/bakkerme/feedscan/internal/core"
	"github.com/bakkerme/feedscan/internal/sources/feed/mock"
)

func TestRecordThenReplay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snap", "feeds.json")
	upstream := &mock.Fetcher{DocsByFeed: map[string]string{
		"https://a.example.com/rss": "<rss>a</rss>",
		"https://b.example.com/rss": "<rss>b</rss>",
	}}

	recorder := WrapFetcher(upstream, &config.SnapshotConfig{Snapshot: true, Path: path})
	for _, u := range []string{"https://a.example.com/rss", "https://b.example.com/rss"} {
		if _, err := recorder.Fetch(context.Background(), u); err != nil {
			t.Fatalf("record %s: %v", u, err)
		}
	}

	replayer := WrapFetcher(nil, &config.SnapshotConfig{Restore: true, Path: path})
	doc, err := replayer.Fetch(context.Background(), "https://b.example.com/rss")
	if err != nil {
		t.Fatalf("replay failed: %v", err)
	}
	if doc != "<rss>b</rss>" {
		t.Fatalf("unexpected replayed doc %q", doc)
	}
	if _, err := replayer.Fetch(context.Background(), "https://c.example.com/rss"); err == nil {
		t.Fatalf("expected error for a feed missing from the snapshot")
	}
}

func TestRecorderDoesNotStoreFailures(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feeds.json")
	boom := errors.New("boom")
	upstream := &mock.Fetcher{ErrByFeed: map[string]error{"https://a.example.com/rss": boom}}

	recorder := WrapFetcher(upstream, &config.SnapshotConfig{Snapshot: true, Path: path})
	if _, err := recorder.Fetch(context.Background(), "https://a.example.com/rss"); !errors.Is(err, boom) {
		t.Fatalf("expected upstream error, got %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected no snapshot file after a failed fetch")
	}
}

func TestWrapFetcherPassThrough(t *testing.T) {
	upstream := &mock.Fetcher{}
	if got := WrapFetcher(upstream, nil); got != upstream {
		t.Fatalf("expected nil config to return the fetcher unchanged")
	}
	if got := WrapFetcher(upstream, &config.SnapshotConfig{}); got != upstream {
		t.Fatalf("expected disabled config to return the fetcher unchanged")
	}
}

func TestRecorderStampsRunID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feeds.json")
	upstream := &mock.Fetcher{DocsByFeed: map[string]string{"https://a.example.com/rss": "<rss/>"}}
	recorder := WrapFetcher(upstream, &config.SnapshotConfig{Snapshot: true, Path: path})

	ctx := core.WithRunID(context.Background(), "run-42")
	if _, err := recorder.Fetch(ctx, "https://a.example.com/rss"); err != nil {
		t.Fatalf("record: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	var payload Payload
	if err := json.Unmarshal(data, &payload); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if payload.RunID != "run-42" {
		t.Fatalf("expected run id run-42, got %q", payload.RunID)
	}
}

func TestRecorderKeepsDocumentWhenSaveFails(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	upstream := &mock.Fetcher{DocsByFeed: map[string]string{"https://a.example.com/rss": "<rss>a</rss>"}}
	recorder := WrapFetcher(upstream, &config.SnapshotConfig{Snapshot: true, Path: filepath.Join(blocker, "feeds.json")})

	doc, err := recorder.Fetch(context.Background(), "https://a.example.com/rss")
	if err != nil {
		t.Fatalf("expected fetched document despite snapshot failure, got %v", err)
	}
	if doc != "<rss>a</rss>" {
		t.Fatalf("unexpected document %q", doc)
	}
}
