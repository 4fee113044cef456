package impl

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"regexp"
	"time"

	"github.com/bakkerme/feedscan/internal/core"
	"github.com/bakkerme/feedscan/internal/retry"
	"github.com/bakkerme/feedscan/internal/sources/feed"
	"golang.org/x/net/html/charset"
)

type Options struct {
	Timeout   time.Duration
	UserAgent string
	Attempts  int
	MaxBytes  int64
	// BaseDelay overrides the retry backoff; tests set it low.
	BaseDelay time.Duration
}

type Fetcher struct {
	client  *http.Client
	options Options
}

func NewFetcher(options Options) *Fetcher {
	if options.Attempts <= 0 {
		options.Attempts = 1
	}
	if options.BaseDelay <= 0 {
		options.BaseDelay = 200 * time.Millisecond
	}
	return &Fetcher{client: &http.Client{Timeout: options.Timeout}, options: options}
}

func (f *Fetcher) Fetch(ctx context.Context, feedURL string) (string, error) {
	if err := feed.ValidateURL(feedURL); err != nil {
		return "", err
	}
	var doc string
	attempt := 0
	err := retry.Do(ctx, retry.Config{
		Attempts:  f.options.Attempts,
		BaseDelay: f.options.BaseDelay,
		Retryable: feed.Retryable,
	}, func() error {
		attempt++
		body, err := f.fetchOnce(ctx, feedURL)
		if err != nil {
			core.LoggerFromContext(ctx).Debug("feed fetch attempt failed", "feed_url", feedURL, "attempt", attempt, "error", err)
			return err
		}
		doc = body
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("fetch feed: %w", err)
	}
	return doc, nil
}

func (f *Fetcher) fetchOnce(ctx context.Context, feedURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	if f.options.UserAgent != "" {
		req.Header.Set("User-Agent", f.options.UserAgent)
	}
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml;q=0.9, text/xml;q=0.8, */*;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return "", &feed.StatusError{URL: feedURL, StatusCode: resp.StatusCode}
	}

	var reader io.Reader = resp.Body
	if f.options.MaxBytes > 0 {
		reader = io.LimitReader(resp.Body, f.options.MaxBytes+1)
	}
	raw, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	if f.options.MaxBytes > 0 && int64(len(raw)) > f.options.MaxBytes {
		return "", &feed.TooLargeError{URL: feedURL, Limit: f.options.MaxBytes}
	}
	return DecodeUTF8(raw, resp.Header.Get("Content-Type"))
}

var xmlEncoding = regexp.MustCompile(`^\s*<\?xml[^>]*encoding=["']([A-Za-z0-9._-]+)["']`)

// DecodeUTF8 converts raw to UTF-8. A BOM wins, then the Content-Type
// charset, then the XML declaration. Without any of them the document is
// UTF-8, the XML default.
func DecodeUTF8(raw []byte, contentType string) (string, error) {
	if !hasCharset(contentType) {
		contentType = "text/xml; charset=utf-8"
		if m := xmlEncoding.FindSubmatch(raw); m != nil {
			contentType = "text/xml; charset=" + string(m[1])
		}
	}
	r, err := charset.NewReader(bytes.NewReader(raw), contentType)
	if err != nil {
		return "", fmt.Errorf("decode charset: %w", err)
	}
	decoded, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("decode charset: %w", err)
	}
	return string(decoded), nil
}

func hasCharset(contentType string) bool {
	if contentType == "" {
		return false
	}
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return params["charset"] != ""
}
