package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/bakkerme/feedscan/internal/core"
	"github.com/bakkerme/feedscan/internal/scan"
)

// Markdown streams run events as markdown.
type Markdown struct {
	out io.Writer
}

func NewMarkdown(out io.Writer) *Markdown {
	return &Markdown{out: out}
}

func (m *Markdown) FeedStarted(feedURL string) {
	fmt.Fprintf(m.out, "## %s\n\n", feedURL)
}

func (m *Markdown) Entry(feedURL string, entry scan.Entry) {
	writeEntry(m.out, entry)
}

func (m *Markdown) FeedFailed(feedURL string, err error) {
	fmt.Fprintf(m.out, "> **Error fetching feed:** %s\n\n", escapeInline(err.Error()))
}

func (m *Markdown) NoPosts(feedURL string) {
	fmt.Fprintf(m.out, "_No posts retrieved from %s_\n\n", feedURL)
}

func (m *Markdown) Summary(run *core.Run) {
	if run == nil {
		return
	}
	writeSummaryTable(m.out, run)
}

func writeEntry(w io.Writer, entry scan.Entry) {
	fmt.Fprintf(w, "- [%s](%s)  \n  %s: %s\n", escapeInline(entry.Title), entry.Link, DateLabel(entry.Kind), entry.Timestamp)
}

func writeSummaryTable(w io.Writer, run *core.Run) {
	fmt.Fprintln(w, "| Feed | Category | Accepted |")
	fmt.Fprintln(w, "| --- | --- | ---: |")
	for _, result := range run.Feeds {
		count := fmt.Sprintf("%d", result.Count)
		if result.Failed() {
			count = "failed"
		}
		fmt.Fprintf(w, "| %s | %s | %s |\n", result.Feed.URL, result.Feed.Category, count)
	}
	fmt.Fprintf(w, "\n**Total entries:** %d\n", run.Total)
}

var inlineEscaper = strings.NewReplacer(
	`\`, `\\`,
	"[", `\[`,
	"]", `\]`,
	"*", `\*`,
	"_", `\_`,
	"`", "\\`",
	"|", `\|`,
	"\n", " ",
)

func escapeInline(s string) string {
	return inlineEscaper.Replace(s)
}
