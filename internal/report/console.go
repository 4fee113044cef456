package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/bakkerme/feedscan/internal/core"
	"github.com/bakkerme/feedscan/internal/scan"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
)

// Console writes coloured entry blocks to out and failure notices to errOut.
type Console struct {
	out    io.Writer
	errOut io.Writer

	fetching  *color.Color
	label     *color.Color
	rssTitle  *color.Color
	atomTitle *color.Color
	link      *color.Color
	date      *color.Color
	noPosts   *color.Color
	failure   *color.Color
}

// NewConsole builds a Console. With colour disabled the output is plain text.
func NewConsole(out, errOut io.Writer, useColor bool) *Console {
	c := &Console{
		out:       out,
		errOut:    errOut,
		fetching:  color.New(color.FgGreen),
		label:     color.RGB(255, 255, 255),
		rssTitle:  color.RGB(255, 255, 255).Add(color.Bold),
		atomTitle: color.RGB(0, 255, 0),
		link:      color.RGB(0, 255, 255),
		date:      color.RGB(100, 50, 255),
		noPosts:   color.RGB(255, 255, 0),
		failure:   color.New(color.FgRed),
	}
	for _, col := range []*color.Color{c.fetching, c.label, c.rssTitle, c.atomTitle, c.link, c.date, c.noPosts, c.failure} {
		if useColor {
			col.EnableColor()
		} else {
			col.DisableColor()
		}
	}
	return c
}

func (c *Console) FeedStarted(feedURL string) {
	fmt.Fprintf(c.out, "Fetching: %s\n", c.fetching.Sprint(feedURL))
}

func (c *Console) Entry(feedURL string, entry scan.Entry) {
	title := c.rssTitle
	if entry.Kind == scan.KindAtom {
		title = c.atomTitle
	}
	fmt.Fprintf(c.out, "%s: %s\n", c.label.Sprint("Headline"), title.Sprint(entry.Title))
	fmt.Fprintf(c.out, "%s: %s\n", c.link.Sprint("URL"), c.link.Sprint(entry.Link))
	fmt.Fprintf(c.out, "%s: %s\n\n", c.date.Sprint(DateLabel(entry.Kind)), c.date.Sprint(entry.Timestamp))
}

func (c *Console) FeedFailed(feedURL string, err error) {
	fmt.Fprintf(c.errOut, "%s %s: %v\n", c.failure.Sprint("Error fetching feed"), feedURL, err)
}

func (c *Console) NoPosts(feedURL string) {
	fmt.Fprintln(c.out, c.noPosts.Sprint("No posts retrieved from "+feedURL))
}

// Summary prints one row per feed and the total accepted entries.
func (c *Console) Summary(run *core.Run) {
	if run == nil {
		return
	}
	table := tablewriter.NewWriter(c.out)
	table.SetHeader([]string{"Feed", "Category", "Accepted", "Status"})
	table.SetAutoWrapText(false)
	for _, result := range run.Feeds {
		status := "ok"
		if result.Failed() {
			status = "failed"
		}
		table.Append([]string{result.Feed.URL, result.Feed.Category, strconv.Itoa(result.Count), status})
	}
	table.SetFooter([]string{"", "", "Total", strconv.Itoa(run.Total)})
	table.Render()
}
