package report

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/bakkerme/feedscan/internal/core"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
)

// Digest renders a finished run as a markdown document grouped by category.
func Digest(run *core.Run) string {
	var b strings.Builder
	if run == nil {
		return ""
	}
	fmt.Fprintf(&b, "# Feed digest %s\n\n", run.StartedAt.UTC().Format("2006-01-02"))

	category := ""
	for _, result := range run.Feeds {
		if result.Feed.Category != category && result.Feed.Category != "" {
			category = result.Feed.Category
			fmt.Fprintf(&b, "## %s\n\n", titleCase(category))
		}
		fmt.Fprintf(&b, "### %s\n\n", result.Feed.URL)
		switch {
		case result.Failed():
			fmt.Fprintf(&b, "> **Error fetching feed:** %s\n\n", escapeInline(result.Err.Error()))
		case len(result.Entries) == 0:
			b.WriteString("_No posts retrieved._\n\n")
		default:
			for _, entry := range result.Entries {
				writeEntry(&b, entry)
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("## Summary\n\n")
	writeSummaryTable(&b, run)
	return b.String()
}

// PlainText renders a finished run without markup, for the text part of emails.
func PlainText(run *core.Run) string {
	var b strings.Builder
	if run == nil {
		return ""
	}
	for _, result := range run.Feeds {
		fmt.Fprintf(&b, "%s\n", result.Feed.URL)
		switch {
		case result.Failed():
			fmt.Fprintf(&b, "  error: %v\n", result.Err)
		case len(result.Entries) == 0:
			b.WriteString("  no posts\n")
		default:
			for _, entry := range result.Entries {
				fmt.Fprintf(&b, "  %s\n  %s\n  %s: %s\n", entry.Title, entry.Link, DateLabel(entry.Kind), entry.Timestamp)
			}
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "Total entries: %d\n", run.Total)
	return b.String()
}

func newMarkdownConverter() goldmark.Markdown {
	return goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	)
}

// RenderHTML converts markdown to HTML with GitHub flavoured extensions.
func RenderHTML(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := newMarkdownConverter().Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return buf.String(), nil
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
