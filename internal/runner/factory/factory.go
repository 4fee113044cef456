package factory

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bakkerme/feedscan/internal/config"
	"github.com/bakkerme/feedscan/internal/core"
	"github.com/bakkerme/feedscan/internal/dedupe"
	"github.com/bakkerme/feedscan/internal/outputs/email"
	"github.com/bakkerme/feedscan/internal/outputs/email/smtp"
	"github.com/bakkerme/feedscan/internal/processors/output"
	"github.com/bakkerme/feedscan/internal/processors/quality"
	"github.com/bakkerme/feedscan/internal/processors/source"
	"github.com/bakkerme/feedscan/internal/processors/trigger"
	"github.com/bakkerme/feedscan/internal/runner/snapshot"
	"github.com/bakkerme/feedscan/internal/scan"
	"github.com/bakkerme/feedscan/internal/sources/feed"
	"github.com/bakkerme/feedscan/internal/sources/feed/gofeedx"
	feedimpl "github.com/bakkerme/feedscan/internal/sources/feed/impl"
)

// Options are the command-line choices layered over the feed document.
type Options struct {
	// AcceptAll disables the recency filter.
	AcceptAll bool
	// Selection overrides the document's include block when set.
	Selection *config.Selection
	// Parser overrides fetch.parser when set.
	Parser string
	// NewOnly enables link dedupe even when the document leaves it off.
	NewOnly bool
}

// Factory builds flows. Fields left nil are built from the environment;
// tests set them to mocks.
type Factory struct {
	Logger      *slog.Logger
	Env         config.EnvConfig
	Fetcher     feed.Fetcher
	EmailSender email.Sender
	SeenStore   dedupe.SeenStore
	Now         func() time.Time

	ownedStore dedupe.SeenStore
}

func NewFromEnvConfig(logger *slog.Logger, env config.EnvConfig) *Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{Logger: logger, Env: env}
}

// Close releases resources the factory opened itself.
func (f *Factory) Close() error {
	if f.ownedStore == nil {
		return nil
	}
	err := f.ownedStore.Close()
	f.ownedStore = nil
	return err
}

// BuildFlow turns a validated feed document into a runnable flow.
func (f *Factory) BuildFlow(ctx context.Context, doc *config.Document, opts Options) (*core.Flow, error) {
	if doc == nil {
		return nil, fmt.Errorf("feed document is required")
	}
	sel := doc.Selection()
	if opts.Selection != nil {
		sel = *opts.Selection
	}

	flow := &core.Flow{
		ID:             f.Env.FlowID,
		Feeds:          doc.FeedRefs(sel),
		MaxConcurrency: doc.Fetch.MaxConcurrency,
		NewOnly:        opts.NewOnly || doc.Dedupe.Enabled,
	}
	if flow.ID == "" {
		flow.ID = "feedscan"
	}

	src, err := f.NewFeedSource(doc, opts)
	if err != nil {
		return nil, err
	}
	flow.Source = src

	for i := range doc.Rules {
		rule, err := quality.NewRuleProcessor(&doc.Rules[i])
		if err != nil {
			return nil, err
		}
		flow.Quality = append(flow.Quality, rule)
	}
	if flow.NewOnly {
		seen, err := f.NewSeenFilter(ctx, doc.Dedupe)
		if err != nil {
			return nil, err
		}
		flow.Quality = append(flow.Quality, seen)
	}

	if doc.Schedule != nil {
		cron, err := trigger.NewCronProcessor(doc.Schedule)
		if err != nil {
			return nil, err
		}
		flow.Triggers = append(flow.Triggers, cron)
	}

	outputs, err := f.NewOutputs(doc.Output)
	if err != nil {
		return nil, err
	}
	flow.Outputs = outputs
	return flow, nil
}

func (f *Factory) NewFeedSource(doc *config.Document, opts Options) (core.SourceProcessor, error) {
	fetcher := f.Fetcher
	if fetcher == nil {
		fetcher = feedimpl.NewFetcher(f.fetchOptions(doc.Fetch))
	}
	fetcher = snapshot.WrapFetcher(fetcher, doc.Snapshot)

	parser := doc.Fetch.Parser
	if opts.Parser != "" {
		parser = opts.Parser
	}
	var extractor scan.Extractor
	switch parser {
	case "", config.ParserScan:
		extractor = scan.Scanner{}
	case config.ParserGofeed:
		extractor = gofeedx.New()
	default:
		return nil, fmt.Errorf("unknown parser %q", parser)
	}

	return source.NewFeedProcessor(fetcher, extractor, scan.Options{AcceptAll: opts.AcceptAll, Now: f.Now})
}

func (f *Factory) fetchOptions(cfg config.FetchConfig) feedimpl.Options {
	options := feedimpl.Options{
		Timeout:   f.Env.Feed.HTTPTimeout,
		UserAgent: f.Env.Feed.UserAgent,
		Attempts:  f.Env.Feed.Attempts,
		MaxBytes:  f.Env.Feed.MaxBytes,
	}
	if cfg.Timeout > 0 {
		options.Timeout = cfg.Timeout.Std()
	}
	if cfg.UserAgent != "" {
		options.UserAgent = cfg.UserAgent
	}
	if cfg.Attempts > 0 {
		options.Attempts = cfg.Attempts
	}
	if cfg.MaxBytes > 0 {
		options.MaxBytes = cfg.MaxBytes
	}
	if options.UserAgent == "" {
		options.UserAgent = config.DefaultUserAgent
	}
	return options
}

func (f *Factory) NewSeenFilter(ctx context.Context, cfg config.DedupeConfig) (core.QualityProcessor, error) {
	store := f.SeenStore
	if store == nil {
		dsn := cfg.DSN
		if dsn == "" {
			dsn = f.Env.DedupeDSN
		}
		opened, err := dedupe.NewSQLiteStore(dsn, cfg.Table, cfg.TTL.Std())
		if err != nil {
			return nil, fmt.Errorf("open seen store: %w", err)
		}
		f.ownedStore = opened
		store = opened
	}
	if removed, err := store.Prune(ctx); err != nil {
		f.Logger.Warn("prune seen links failed", "error", err)
	} else if removed > 0 {
		f.Logger.Info("pruned seen links", "removed", removed)
	}
	return quality.NewSeenProcessor(store)
}

func (f *Factory) NewOutputs(cfg config.OutputConfig) ([]core.OutputProcessor, error) {
	var outputs []core.OutputProcessor
	if cfg.Markdown != nil {
		p, err := output.NewFileProcessor(cfg.Markdown.Path, output.FileFormatMarkdown)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, p)
	}
	if cfg.HTML != nil {
		p, err := output.NewFileProcessor(cfg.HTML.Path, output.FileFormatHTML)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, p)
	}
	if cfg.Email != nil {
		p, err := f.NewEmailOutput(cfg.Email)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, p)
	}
	return outputs, nil
}

func (f *Factory) NewEmailOutput(cfg *config.EmailOutput) (core.OutputProcessor, error) {
	merged := f.mergeEmailConfig(cfg)
	sender := f.EmailSender
	if sender == nil {
		smtpSender, err := smtp.NewSender(smtp.Config{
			Host:               merged.SMTPHost,
			Port:               merged.SMTPPort,
			Username:           merged.SMTPUser,
			Password:           merged.SMTPPassword,
			TLSMode:            merged.TLSMode,
			InsecureSkipVerify: f.Env.SMTP.InsecureSkipVerify,
		})
		if err != nil {
			return nil, fmt.Errorf("email output: %w", err)
		}
		sender = smtpSender
	}
	return output.NewEmailProcessor(merged, sender)
}

func (f *Factory) mergeEmailConfig(cfg *config.EmailOutput) *config.EmailOutput {
	if cfg == nil {
		return &config.EmailOutput{}
	}
	merged := *cfg
	if merged.SMTPHost == "" {
		merged.SMTPHost = f.Env.SMTP.Host
	}
	if merged.SMTPPort == 0 {
		merged.SMTPPort = f.Env.SMTP.Port
	}
	if merged.SMTPUser == "" {
		merged.SMTPUser = f.Env.SMTP.User
	}
	if merged.SMTPPassword == "" {
		merged.SMTPPassword = f.Env.SMTP.Password
	}
	if merged.TLSMode == "" {
		merged.TLSMode = f.Env.SMTP.TLSMode
	}
	return &merged
}
