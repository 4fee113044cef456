package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"

	"github.com/bakkerme/feedscan/internal/config"
	"github.com/bakkerme/feedscan/internal/core"
	"github.com/bakkerme/feedscan/internal/observability/otelx"
	"github.com/bakkerme/feedscan/internal/report"
	"github.com/bakkerme/feedscan/internal/runner"
	"github.com/bakkerme/feedscan/internal/runner/factory"
)

const (
	exitOK     = 0
	exitFailed = 1
	exitUsage  = 2
)

type cliOptions struct {
	all        bool
	today      bool
	configPath string
	categories string
	parser     string
	newOnly    bool
	watch      bool
	format     string
	noColor    bool
	logLevel   string
	logFile    string
}

var errUsage = errors.New("usage error")

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func parseFlags(args []string, env config.EnvConfig, stderr io.Writer) (cliOptions, error) {
	var opts cliOptions
	fs := flag.NewFlagSet("feedscan", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.BoolVar(&opts.all, "a", false, "report every valid entry regardless of date")
	fs.BoolVar(&opts.all, "all", false, "same as -a")
	fs.BoolVar(&opts.today, "t", false, "report only entries published today (default)")
	fs.BoolVar(&opts.today, "today", false, "same as -t")
	fs.StringVar(&opts.configPath, "config", env.ConfigPath, "feed document (yaml, json or toml)")
	fs.StringVar(&opts.categories, "categories", "", "comma separated categories to load, overrides include")
	fs.StringVar(&opts.parser, "parser", "", "entry extraction: scan or gofeed")
	fs.BoolVar(&opts.newOnly, "new-only", false, "suppress entries reported by earlier runs")
	fs.BoolVar(&opts.watch, "watch", false, "run on the document's cron schedule until interrupted")
	fs.StringVar(&opts.format, "format", "text", "report format: text or markdown")
	fs.BoolVar(&opts.noColor, "no-color", false, "disable coloured output")
	fs.StringVar(&opts.logLevel, "log-level", env.Log.Level, "debug, info, warn or error")
	fs.StringVar(&opts.logFile, "log-file", env.Log.File, "also write logs to this rotated file")

	if err := fs.Parse(args); err != nil {
		return opts, fmt.Errorf("%w: %w", errUsage, err)
	}
	if fs.NArg() > 0 {
		return opts, fmt.Errorf("%w: unexpected arguments %v", errUsage, fs.Args())
	}
	if opts.all && opts.today {
		return opts, fmt.Errorf("%w: -a/--all and -t/--today cannot be combined", errUsage)
	}
	switch opts.format {
	case "text", "markdown":
	default:
		return opts, fmt.Errorf("%w: unknown format %q", errUsage, opts.format)
	}
	switch opts.parser {
	case "", config.ParserScan, config.ParserGofeed:
	default:
		return opts, fmt.Errorf("%w: unknown parser %q", errUsage, opts.parser)
	}
	return opts, nil
}

func run(args []string, stdout, stderr io.Writer) int {
	env := config.LoadEnv()
	opts, err := parseFlags(args, env, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintln(stderr, err)
		return exitUsage
	}

	logCfg := env.Log
	logCfg.Level = opts.logLevel
	logCfg.File = opts.logFile
	logger, logCloser, err := core.NewLogger(logCfg)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}
	defer logCloser.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = core.WithLogger(ctx, logger)

	shutdown, err := otelx.Init(ctx, logger, env.OTel)
	if err != nil {
		logger.Warn("tracing disabled", "error", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			logger.Warn("otel shutdown failed", "error", err)
		}
	}()

	doc, err := config.Load(opts.configPath)
	if err != nil {
		logger.Error("failed to load feed document", "path", opts.configPath, "error", err)
		return exitFailed
	}

	buildOpts := factory.Options{
		AcceptAll: opts.all,
		Parser:    opts.parser,
		NewOnly:   opts.newOnly,
	}
	if opts.categories != "" {
		sel, err := config.ParseSelection(opts.categories)
		if err != nil {
			fmt.Fprintln(stderr, err)
			return exitUsage
		}
		buildOpts.Selection = &sel
	}

	f := factory.NewFromEnvConfig(logger, env)
	defer f.Close()
	flow, err := f.BuildFlow(ctx, doc, buildOpts)
	if err != nil {
		logger.Error("failed to build flow", "error", err)
		return exitFailed
	}

	r := runner.New(logger, newRenderer(opts, stdout, stderr))

	if !opts.watch {
		if _, err := r.RunOnce(ctx, flow); err != nil {
			logger.Error("run failed", "error", err)
			return exitFailed
		}
		return exitOK
	}

	if len(flow.Triggers) == 0 {
		fmt.Fprintln(stderr, "-watch needs a schedule.cron entry in the feed document")
		return exitUsage
	}
	if err := r.Start(ctx, flow); err != nil {
		logger.Error("failed to start watch mode", "error", err)
		return exitFailed
	}
	logger.Info("watching", "flow_id", flow.ID, "schedule", doc.Schedule.Cron)
	<-ctx.Done()
	return exitOK
}

func newRenderer(opts cliOptions, stdout, stderr io.Writer) report.Renderer {
	if opts.format == "markdown" {
		return report.NewMarkdown(stdout)
	}
	return report.NewConsole(stdout, stderr, !opts.noColor && !color.NoColor)
}
