package impl

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bakkerme/feedscan/internal/sources/feed"
)

const rssFixture = `<?xml version="1.0"?><rss><channel><item><title>Hello</title><link>https://example.com/1</link><pubDate>Sat, 15 Jun 2024 08:00:00 +0000</pubDate></item></channel></rss>`

func testOptions() Options {
	return Options{Timeout: 2 * time.Second, UserAgent: "feedscan-test", Attempts: 3, BaseDelay: time.Millisecond}
}

func TestFetchReturnsBodyAndSendsUserAgent(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
		_, _ = w.Write([]byte(rssFixture))
	}))
	defer srv.Close()

	doc, err := NewFetcher(testOptions()).Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if doc != rssFixture {
		t.Fatalf("unexpected body %q", doc)
	}
	if gotUA != "feedscan-test" {
		t.Fatalf("expected user agent to be sent, got %q", gotUA)
	}
}

func TestFetchDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := NewFetcher(testOptions()).Fetch(context.Background(), srv.URL)
	var status *feed.StatusError
	if !errors.As(err, &status) || status.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 StatusError, got %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("expected a single request, got %d", got)
	}
}

func TestFetchRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(rssFixture))
	}))
	defer srv.Close()

	doc, err := NewFetcher(testOptions()).Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if !strings.Contains(doc, "<item>") {
		t.Fatalf("unexpected body %q", doc)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Fatalf("expected 3 requests, got %d", got)
	}
}

func TestFetchRejectsOversizedDocuments(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 64)))
	}))
	defer srv.Close()

	opts := testOptions()
	opts.MaxBytes = 32
	_, err := NewFetcher(opts).Fetch(context.Background(), srv.URL)
	var tooLarge *feed.TooLargeError
	if !errors.As(err, &tooLarge) {
		t.Fatalf("expected TooLargeError, got %v", err)
	}
}

func TestFetchDecodesDeclaredCharset(t *testing.T) {
	body := []byte("<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?><rss><channel><item><title>Caf\xe9</title></item></channel></rss>")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	doc, err := NewFetcher(testOptions()).Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if !strings.Contains(doc, "<title>Café</title>") {
		t.Fatalf("expected latin-1 title decoded to UTF-8, got %q", doc)
	}
}

func TestFetchHonoursCancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(rssFixture))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewFetcher(testOptions()).Fetch(ctx, srv.URL); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestFetchDefaultsToUTF8WithoutDeclaredCharset(t *testing.T) {
	body := `<?xml version="1.0"?><rss><channel><description>` + strings.Repeat("ascii only ", 140) +
		`</description><item><title>Café — naïve</title></item></channel></rss>`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	doc, err := NewFetcher(testOptions()).Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if !strings.Contains(doc, "<title>Café — naïve</title>") {
		t.Fatalf("expected UTF-8 title to survive decoding, got %q", doc[len(doc)-80:])
	}
}

func TestDecodeUTF8PrefersByteOrderMark(t *testing.T) {
	raw := []byte("\xef\xbb\xbf<rss><title>Café</title></rss>")
	doc, err := DecodeUTF8(raw, "")
	if err != nil {
		t.Fatalf("DecodeUTF8 failed: %v", err)
	}
	if !strings.Contains(doc, "<title>Café</title>") {
		t.Fatalf("unexpected decode %q", doc)
	}
}

func TestFetchRejectsUnusableURL(t *testing.T) {
	for _, raw := range []string{"feeds.example.com/rss", "ftp://example.com/rss", "https:///rss"} {
		_, err := NewFetcher(testOptions()).Fetch(context.Background(), raw)
		if err == nil || !strings.Contains(err.Error(), "invalid feed url") {
			t.Errorf("Fetch(%q) expected invalid feed url error, got %v", raw, err)
		}
	}
}
