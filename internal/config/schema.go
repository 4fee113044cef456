package config

import (
	"fmt"
	"net/mail"
	"strings"

	"github.com/bakkerme/feedscan/internal/core"
)

// Category names, in flattening order.
const (
	CategoryMain          = "main"
	CategoryCybersecurity = "cybersecurity"
	CategoryScience       = "science"
	CategoryFavorites     = "favorites"
)

// Document is the feed source document (feeds.yaml, feeds.json or feeds.toml).
type Document struct {
	Feeds      Categories      `yaml:"feeds" toml:"feeds"`
	RSSFeeds   []string        `yaml:"rss_feeds,omitempty" toml:"rss_feeds"`
	OtherFeeds []string        `yaml:"other_feeds,omitempty" toml:"other_feeds"`
	Include    *Selection      `yaml:"include,omitempty" toml:"include"`
	Fetch      FetchConfig     `yaml:"fetch,omitempty" toml:"fetch"`
	Schedule   *ScheduleConfig `yaml:"schedule,omitempty" toml:"schedule"`
	Rules      []RuleConfig    `yaml:"rules,omitempty" toml:"rules"`
	Dedupe     DedupeConfig    `yaml:"dedupe,omitempty" toml:"dedupe"`
	Snapshot   *SnapshotConfig `yaml:"snapshot,omitempty" toml:"snapshot"`
	Output     OutputConfig    `yaml:"output,omitempty" toml:"output"`
}

// Categories groups feed URLs. Each list keeps its document order.
type Categories struct {
	Main          []string `yaml:"main,omitempty" toml:"main"`
	Cybersecurity []string `yaml:"cybersecurity,omitempty" toml:"cybersecurity"`
	Science       []string `yaml:"science,omitempty" toml:"science"`
	Favorites     []string `yaml:"favorites,omitempty" toml:"favorites"`
}

// Selection chooses which categories are loaded.
type Selection struct {
	IncludeMain          bool `yaml:"main" toml:"main"`
	IncludeCybersecurity bool `yaml:"cybersecurity" toml:"cybersecurity"`
	IncludeScience       bool `yaml:"science" toml:"science"`
	IncludeFavorites     bool `yaml:"favorites" toml:"favorites"`
}

// AllCategories selects every category.
func AllCategories() Selection {
	return Selection{IncludeMain: true, IncludeCybersecurity: true, IncludeScience: true, IncludeFavorites: true}
}

// ParseSelection reads a comma separated category list such as "main,science".
func ParseSelection(raw string) (Selection, error) {
	var sel Selection
	for _, part := range strings.Split(raw, ",") {
		switch strings.ToLower(strings.TrimSpace(part)) {
		case "":
		case CategoryMain:
			sel.IncludeMain = true
		case CategoryCybersecurity:
			sel.IncludeCybersecurity = true
		case CategoryScience:
			sel.IncludeScience = true
		case CategoryFavorites:
			sel.IncludeFavorites = true
		case "all":
			sel = AllCategories()
		default:
			return Selection{}, fmt.Errorf("unknown feed category %q", part)
		}
	}
	return sel, nil
}

// FetchConfig controls retrieval.
type FetchConfig struct {
	Timeout        Duration `yaml:"timeout,omitempty" toml:"timeout"`
	UserAgent      string   `yaml:"user_agent,omitempty" toml:"user_agent"`
	Attempts       int      `yaml:"attempts,omitempty" toml:"attempts"`
	MaxConcurrency int      `yaml:"max_concurrency,omitempty" toml:"max_concurrency"`
	MaxBytes       int64    `yaml:"max_bytes,omitempty" toml:"max_bytes"`
	// Parser is "scan" (default) or "gofeed".
	Parser string `yaml:"parser,omitempty" toml:"parser"`
}

// ScheduleConfig defines the cron schedule used in watch mode.
type ScheduleConfig struct {
	Cron     string `yaml:"cron" toml:"cron"`
	Timezone string `yaml:"timezone,omitempty" toml:"timezone"`
}

// RuleConfig is an expression evaluated against each accepted entry.
type RuleConfig struct {
	Name string `yaml:"name" toml:"name"`
	Rule string `yaml:"rule" toml:"rule"`
	// Result is "drop" (matching entries are removed) or "pass" (only matching entries are kept).
	Result string `yaml:"result" toml:"result"`
}

// DedupeConfig enables suppression of links reported by earlier runs.
type DedupeConfig struct {
	Enabled bool     `yaml:"enabled,omitempty" toml:"enabled"`
	DSN     string   `yaml:"dsn,omitempty" toml:"dsn"`
	Table   string   `yaml:"table,omitempty" toml:"table"`
	TTL     Duration `yaml:"ttl,omitempty" toml:"ttl"`
}

// SnapshotConfig records fetched documents to Path, or replays them from it.
type SnapshotConfig struct {
	Snapshot bool   `json:"snapshot" yaml:"snapshot" toml:"snapshot"`
	Restore  bool   `json:"restore" yaml:"restore" toml:"restore"`
	Path     string `json:"path" yaml:"path" toml:"path"`
}

type OutputConfig struct {
	Markdown *FileOutput  `yaml:"markdown,omitempty" toml:"markdown"`
	HTML     *FileOutput  `yaml:"html,omitempty" toml:"html"`
	Email    *EmailOutput `yaml:"email,omitempty" toml:"email"`
}

// FileOutput writes the run digest to Path.
type FileOutput struct {
	Path string `yaml:"path" toml:"path"`
}

// EmailOutput defines email delivery of the run digest
type EmailOutput struct {
	// Template is an optional html/template; the rendered digest is used when empty.
	Template     string `yaml:"template,omitempty" toml:"template"`
	To           string `yaml:"to" toml:"to"`
	From         string `yaml:"from,omitempty" toml:"from"`
	Subject      string `yaml:"subject" toml:"subject"`
	SMTPHost     string `yaml:"smtp_host,omitempty" toml:"smtp_host"`
	SMTPPort     int    `yaml:"smtp_port,omitempty" toml:"smtp_port"`
	SMTPUser     string `yaml:"smtp_user,omitempty" toml:"smtp_user"`
	SMTPPassword string `yaml:"smtp_password,omitempty" toml:"smtp_password"`
	TLSMode      string `yaml:"tls_mode,omitempty" toml:"tls_mode"`
	// SkipEmpty suppresses the email when no entries were accepted.
	SkipEmpty bool `yaml:"skip_empty,omitempty" toml:"skip_empty"`
}

// Selection returns the document's include block, or every category when absent.
func (d *Document) Selection() Selection {
	if d.Include == nil {
		return AllCategories()
	}
	return *d.Include
}

// FeedRefs flattens the selected categories in the order main, cybersecurity,
// science, favorites. Exact duplicate URLs keep their first occurrence.
func (d *Document) FeedRefs(sel Selection) []core.FeedRef {
	groups := []struct {
		name    string
		include bool
		urls    [][]string
	}{
		{CategoryMain, sel.IncludeMain, [][]string{d.Feeds.Main, d.RSSFeeds}},
		{CategoryCybersecurity, sel.IncludeCybersecurity, [][]string{d.Feeds.Cybersecurity}},
		{CategoryScience, sel.IncludeScience, [][]string{d.Feeds.Science}},
		{CategoryFavorites, sel.IncludeFavorites, [][]string{d.Feeds.Favorites, d.OtherFeeds}},
	}

	refs := []core.FeedRef{}
	seen := map[string]bool{}
	for _, group := range groups {
		if !group.include {
			continue
		}
		for _, list := range group.urls {
			for _, raw := range list {
				u := strings.TrimSpace(raw)
				if u == "" || seen[u] {
					continue
				}
				seen[u] = true
				refs = append(refs, core.FeedRef{Category: group.name, URL: u})
			}
		}
	}
	return refs
}

// FeedURLs is FeedRefs without the category labels.
func (d *Document) FeedURLs(sel Selection) []string {
	refs := d.FeedRefs(sel)
	urls := make([]string, 0, len(refs))
	for _, ref := range refs {
		urls = append(urls, ref.URL)
	}
	return urls
}

// Validate performs validation on the feed document. Feed URLs are not
// checked here; an unusable URL fails only its own feed at fetch time.
func (d *Document) Validate() error {
	if d.Fetch.Attempts < 0 {
		return fmt.Errorf("fetch: attempts must be >= 0")
	}
	if d.Fetch.MaxConcurrency < 0 {
		return fmt.Errorf("fetch: max_concurrency must be >= 0")
	}
	if d.Fetch.MaxBytes < 0 {
		return fmt.Errorf("fetch: max_bytes must be >= 0")
	}
	switch d.Fetch.Parser {
	case "", ParserScan, ParserGofeed:
	default:
		return fmt.Errorf("fetch: parser must be %q or %q", ParserScan, ParserGofeed)
	}

	if d.Schedule != nil && strings.TrimSpace(d.Schedule.Cron) == "" {
		return fmt.Errorf("schedule: cron expression is required")
	}

	for i, rule := range d.Rules {
		if rule.Name == "" || rule.Rule == "" {
			return fmt.Errorf("rule %d: name and rule expression are required", i)
		}
		if rule.Result != "pass" && rule.Result != "drop" {
			return fmt.Errorf("rule %d: result must be 'pass' or 'drop'", i)
		}
	}

	if d.Dedupe.TTL < 0 {
		return fmt.Errorf("dedupe: ttl must be >= 0")
	}

	if err := validateSnapshotConfig("snapshot", d.Snapshot); err != nil {
		return err
	}

	if d.Output.Markdown != nil && d.Output.Markdown.Path == "" {
		return fmt.Errorf("output markdown: path is required")
	}
	if d.Output.HTML != nil && d.Output.HTML.Path == "" {
		return fmt.Errorf("output html: path is required")
	}
	if email := d.Output.Email; email != nil {
		if email.To == "" || email.Subject == "" {
			return fmt.Errorf("output email: 'to' and 'subject' are required")
		}
		if _, err := mail.ParseAddressList(email.To); err != nil {
			return fmt.Errorf("output email: invalid to address")
		}
		if email.From != "" { // From is optional, but if provided must be valid
			if _, err := mail.ParseAddress(email.From); err != nil {
				return fmt.Errorf("output email: invalid from address")
			}
		}
	}

	return nil
}

const (
	ParserScan   = "scan"
	ParserGofeed = "gofeed"
)

func validateSnapshotConfig(label string, cfg *SnapshotConfig) error {
	if cfg == nil {
		return nil
	}
	if cfg.Snapshot && cfg.Restore {
		return fmt.Errorf("%s: snapshot and restore cannot both be true", label)
	}
	if (cfg.Snapshot || cfg.Restore) && cfg.Path == "" {
		return fmt.Errorf("%s: snapshot path is required", label)
	}
	return nil
}
