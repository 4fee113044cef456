package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/bakkerme/feedscan/internal/core"
	"github.com/bakkerme/feedscan/internal/observability/otelx"
	"github.com/bakkerme/feedscan/internal/report"
)

type Runner struct {
	logger   *slog.Logger
	renderer report.Renderer
}

// New returns a Runner that reports progress to renderer. A nil renderer
// discards all events.
func New(logger *slog.Logger, renderer report.Renderer) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	if renderer == nil {
		renderer = discard{}
	}
	return &Runner{logger: logger, renderer: renderer}
}

// Start subscribes to the flow's triggers and runs the flow once per event
// until ctx is done.
func (r *Runner) Start(ctx context.Context, flow *core.Flow) error {
	if flow == nil {
		return fmt.Errorf("flow is required")
	}
	if len(flow.Triggers) == 0 {
		return fmt.Errorf("flow %s has no triggers", flow.ID)
	}
	for _, trigger := range flow.Triggers {
		if trigger == nil {
			continue
		}
		events, err := trigger.Start(ctx, flow.ID)
		if err != nil {
			return fmt.Errorf("start trigger %s: %w", trigger.Name(), err)
		}
		go r.listen(ctx, flow, events)
	}
	return nil
}

// feedOutcome carries a processed feed and any stage errors from a worker to
// the aggregating goroutine.
type feedOutcome struct {
	result core.FeedResult
	errs   []core.ProcessError
}

// RunOnce processes every feed of the flow, renders each one in configured
// order and delivers the finished run to the outputs. Feed failures are
// reported and never abort the run; output failures mark it failed.
func (r *Runner) RunOnce(ctx context.Context, flow *core.Flow) (*core.Run, error) {
	if flow == nil {
		return nil, fmt.Errorf("flow is required")
	}
	if flow.Source == nil {
		return nil, fmt.Errorf("flow %s has no source", flow.ID)
	}

	run := &core.Run{
		ID:        uuid.NewString(),
		FlowID:    flow.ID,
		StartedAt: time.Now().UTC(),
		Status:    core.RunStatusRunning,
		PerFeed:   map[string]int{},
		Feeds:     make([]core.FeedResult, 0, len(flow.Feeds)),
	}

	logger := r.logger.With("run_id", run.ID, "flow_id", flow.ID)
	ctx = core.WithLogger(ctx, logger)
	ctx = core.WithRunID(ctx, run.ID)

	ctx, span := otelx.Tracer().Start(ctx, "feedscan.run", trace.WithAttributes(
		attribute.String("run.id", run.ID),
		attribute.String("flow.id", flow.ID),
		attribute.Int("feeds", len(flow.Feeds)),
	))

	logger.Info("run started", "feeds", len(flow.Feeds), "max_concurrency", flow.MaxConcurrency)

	r.collect(ctx, flow, func(outcome feedOutcome) {
		report.Replay(r.renderer, outcome.result)
		run.Record(outcome.result)
		run.Errors = append(run.Errors, outcome.errs...)
	})
	r.renderer.Summary(run)

	var outputErrs []error
	for _, output := range flow.Outputs {
		if output == nil {
			continue
		}
		if err := output.Deliver(ctx, run); err != nil {
			logger.Error("output delivery failed", "output", output.Name(), "error", err)
			run.Errors = append(run.Errors, core.ProcessError{
				ProcessorName: output.Name(),
				Stage:         "output",
				Error:         err.Error(),
				OccurredAt:    time.Now().UTC(),
			})
			outputErrs = append(outputErrs, fmt.Errorf("output %s: %w", output.Name(), err))
		}
	}

	completedAt := time.Now().UTC()
	run.CompletedAt = &completedAt
	err := errors.Join(outputErrs...)
	switch {
	case err != nil:
		run.Status = core.RunStatusFailed
	case ctx.Err() != nil:
		run.Status = core.RunStatusCancelled
		err = ctx.Err()
	default:
		run.Status = core.RunStatusCompleted
	}

	span.SetAttributes(
		attribute.Int("entries.total", run.Total),
		attribute.Int("feeds.failed", run.Failed),
	)
	otelx.EndSpan(span, err)

	logger.Info("run finished",
		"status", run.Status,
		"total", run.Total,
		"failed_feeds", run.Failed,
		"duration", completedAt.Sub(run.StartedAt),
	)
	return run, err
}

// collect processes the flow's feeds and hands each outcome to handle in
// configured order, always from the calling goroutine. With MaxConcurrency
// above one, feeds are processed by a bounded set of workers.
func (r *Runner) collect(ctx context.Context, flow *core.Flow, handle func(feedOutcome)) {
	if flow.MaxConcurrency <= 1 || len(flow.Feeds) <= 1 {
		for _, ref := range flow.Feeds {
			handle(r.processFeed(ctx, flow, ref))
		}
		return
	}

	slots := make([]chan feedOutcome, len(flow.Feeds))
	for i := range slots {
		slots[i] = make(chan feedOutcome, 1)
	}

	sem := make(chan struct{}, flow.MaxConcurrency)
	go func() {
		for i, ref := range flow.Feeds {
			sem <- struct{}{}
			go func(slot chan<- feedOutcome, ref core.FeedRef) {
				defer func() { <-sem }()
				slot <- r.processFeed(ctx, flow, ref)
			}(slots[i], ref)
		}
	}()

	for _, slot := range slots {
		handle(<-slot)
	}
}

// processFeed fetches one feed and runs the quality stages over its entries.
// A failing stage leaves the entries it was given untouched.
func (r *Runner) processFeed(ctx context.Context, flow *core.Flow, ref core.FeedRef) feedOutcome {
	ctx, span := otelx.Tracer().Start(ctx, "feedscan.feed", trace.WithAttributes(
		attribute.String("feed.url", ref.URL),
		attribute.String("feed.category", ref.Category),
	))

	outcome := feedOutcome{result: flow.Source.Fetch(ctx, ref)}
	if outcome.result.Failed() {
		outcome.errs = append(outcome.errs, core.ProcessError{
			ProcessorName: flow.Source.Name(),
			Stage:         "source",
			Feed:          ref.URL,
			Error:         outcome.result.Err.Error(),
			OccurredAt:    time.Now().UTC(),
		})
		otelx.EndSpan(span, outcome.result.Err)
		return outcome
	}

	entries := outcome.result.Entries
	for _, stage := range flow.Quality {
		if stage == nil {
			continue
		}
		next, err := stage.Evaluate(ctx, ref, entries)
		if err != nil {
			core.LoggerFromContext(ctx).Warn("quality stage failed", "stage", stage.Name(), "feed_url", ref.URL, "error", err)
			outcome.errs = append(outcome.errs, core.ProcessError{
				ProcessorName: stage.Name(),
				Stage:         "quality",
				Feed:          ref.URL,
				Error:         err.Error(),
				OccurredAt:    time.Now().UTC(),
			})
			continue
		}
		entries = next
	}
	outcome.result.Entries = entries
	outcome.result.Count = len(entries)

	span.SetAttributes(
		attribute.Int("feed.entries", outcome.result.Count),
		attribute.String("feed.schema", outcome.result.Schema.String()),
	)
	otelx.EndSpan(span, nil)
	return outcome
}

func (r *Runner) listen(ctx context.Context, flow *core.Flow, events <-chan core.TriggerEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			r.logger.Info("trigger event", "flow_id", event.FlowID, "time", event.Timestamp)
			if _, err := r.RunOnce(ctx, flow); err != nil {
				r.logger.Error("flow run failed", "flow_id", flow.ID, "error", err)
			}
		}
	}
}
