package core

import (
	"errors"
	"testing"

	"github.com/bakkerme/feedscan/internal/scan"
)

func TestRunRecordAggregates(t *testing.T) {
	run := &Run{}
	run.Record(FeedResult{
		Feed:    FeedRef{URL: "https://a.example/feed"},
		Entries: []scan.Entry{{Title: "1"}, {Title: "2"}},
		Count:   2,
	})
	run.Record(FeedResult{Feed: FeedRef{URL: "https://b.example/feed"}, Err: errors.New("boom")})
	run.Record(FeedResult{Feed: FeedRef{URL: "https://c.example/feed"}, Entries: []scan.Entry{}})

	if run.Total != 2 {
		t.Fatalf("expected total 2, got %d", run.Total)
	}
	if run.Failed != 1 {
		t.Fatalf("expected 1 failed feed, got %d", run.Failed)
	}
	if got := run.PerFeed["https://a.example/feed"]; got != 2 {
		t.Errorf("expected 2 for feed a, got %d", got)
	}
	if got, ok := run.PerFeed["https://b.example/feed"]; !ok || got != 0 {
		t.Errorf("expected failed feed to be recorded with 0, got %d (present=%v)", got, ok)
	}
	if len(run.Feeds) != 3 || run.Feeds[2].Feed.URL != "https://c.example/feed" {
		t.Fatalf("expected feeds recorded in order, got %+v", run.Feeds)
	}
}

func TestNewLoggerRejectsUnknownLevel(t *testing.T) {
	if _, _, err := NewLogger(LogConfig{Level: "loud"}); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestNewLoggerWritesRotatedFile(t *testing.T) {
	path := t.TempDir() + "/logs/feedscan.log"
	logger, closer, err := NewLogger(LogConfig{Level: "debug", File: path})
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	logger.Debug("hello", "feed_url", "https://example.com")
	if err := closer.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
}
