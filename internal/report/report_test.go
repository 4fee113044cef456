package report

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/bakkerme/feedscan/internal/core"
	"github.com/bakkerme/feedscan/internal/scan"
)

func sampleRun() *core.Run {
	run := &core.Run{StartedAt: time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)}
	run.Record(core.FeedResult{
		Feed:  core.FeedRef{Category: "main", URL: "https://news.example.com/rss"},
		Count: 2,
		Entries: []scan.Entry{
			{Title: "First [draft]", Link: "https://news.example.com/1", Timestamp: "Sat, 15 Jun 2024 08:00:00 +0000", Kind: scan.KindRSS},
			{Title: "Second", Link: "https://news.example.com/2", Timestamp: "2024-06-15T09:00:00Z", Kind: scan.KindAtom},
		},
	})
	run.Record(core.FeedResult{Feed: core.FeedRef{Category: "main", URL: "https://quiet.example.com/rss"}, Entries: []scan.Entry{}})
	run.Record(core.FeedResult{Feed: core.FeedRef{Category: "science", URL: "https://down.example.com/rss"}, Err: errors.New("status 503")})
	return run
}

func TestConsolePlainOutput(t *testing.T) {
	var out, errOut bytes.Buffer
	console := NewConsole(&out, &errOut, false)
	for _, result := range sampleRun().Feeds {
		Replay(console, result)
	}

	text := out.String()
	for _, want := range []string{
		"Fetching: https://news.example.com/rss\n",
		"Headline: First [draft]\nURL: https://news.example.com/1\nPublication Date: Sat, 15 Jun 2024 08:00:00 +0000\n\n",
		"Headline: Second\nURL: https://news.example.com/2\nUpdated Date: 2024-06-15T09:00:00Z\n\n",
		"No posts retrieved from https://quiet.example.com/rss\n",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("expected console output to contain %q, got:\n%s", want, text)
		}
	}
	if !strings.Contains(errOut.String(), "https://down.example.com/rss: status 503") {
		t.Errorf("expected failure notice on error stream, got %q", errOut.String())
	}
	if strings.Contains(text, "\x1b[") {
		t.Errorf("expected no escape codes with colour disabled")
	}
}

func TestConsoleSummaryTable(t *testing.T) {
	var out bytes.Buffer
	NewConsole(&out, &out, false).Summary(sampleRun())
	text := out.String()
	for _, want := range []string{"FEED", "https://news.example.com/rss", "failed", "TOTAL", "2"} {
		if !strings.Contains(text, want) {
			t.Errorf("expected summary to contain %q, got:\n%s", want, text)
		}
	}
}

func TestMarkdownRenderer(t *testing.T) {
	var out bytes.Buffer
	md := NewMarkdown(&out)
	for _, result := range sampleRun().Feeds {
		Replay(md, result)
	}
	text := out.String()
	if !strings.Contains(text, `- [First \[draft\]](https://news.example.com/1)`) {
		t.Errorf("expected escaped markdown link, got:\n%s", text)
	}
	if !strings.Contains(text, "_No posts retrieved from https://quiet.example.com/rss_") {
		t.Errorf("expected no-posts notice, got:\n%s", text)
	}
}

func TestDigestAndHTML(t *testing.T) {
	digest := Digest(sampleRun())
	for _, want := range []string{"# Feed digest 2024-06-15", "## Main", "## Science", "**Total entries:** 2", "Error fetching feed"} {
		if !strings.Contains(digest, want) {
			t.Errorf("expected digest to contain %q, got:\n%s", want, digest)
		}
	}

	html, err := RenderHTML(digest)
	if err != nil {
		t.Fatalf("RenderHTML failed: %v", err)
	}
	if !strings.Contains(html, `<a href="https://news.example.com/1">`) {
		t.Errorf("expected rendered link, got:\n%s", html)
	}
	if !strings.Contains(html, "<table>") {
		t.Errorf("expected GFM table, got:\n%s", html)
	}
}

func TestPlainText(t *testing.T) {
	text := PlainText(sampleRun())
	if !strings.Contains(text, "  error: status 503") || !strings.Contains(text, "Total entries: 2") {
		t.Fatalf("unexpected plain text:\n%s", text)
	}
}
