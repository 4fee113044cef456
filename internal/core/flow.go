package core

import (
	"time"

	"github.com/bakkerme/feedscan/internal/scan"
)

// FeedRef is one configured feed URL and the category it was loaded from.
type FeedRef struct {
	Category string `json:"category" yaml:"category"`
	URL      string `json:"url" yaml:"url"`
}

// Flow is everything a run needs: the ordered feeds and the processors that
// act on them.
type Flow struct {
	ID             string             `json:"id" yaml:"id"`
	Feeds          []FeedRef          `json:"feeds" yaml:"feeds"`
	MaxConcurrency int                `json:"max_concurrency" yaml:"max_concurrency"`
	NewOnly        bool               `json:"new_only" yaml:"new_only"`
	Triggers       []TriggerProcessor `json:"-" yaml:"-"`
	Source         SourceProcessor    `json:"-" yaml:"-"`
	Quality        []QualityProcessor `json:"-" yaml:"-"`
	Outputs        []OutputProcessor  `json:"-" yaml:"-"`
}

// FeedResult is the outcome of processing a single feed.
type FeedResult struct {
	Feed     FeedRef       `json:"feed" yaml:"feed"`
	Schema   scan.Schema   `json:"schema" yaml:"schema"`
	Entries  []scan.Entry  `json:"entries" yaml:"entries"`
	Count    int           `json:"count" yaml:"count"`
	Err      error         `json:"-" yaml:"-"`
	Duration time.Duration `json:"duration" yaml:"duration"`
}

// Failed reports whether the feed could not be retrieved.
func (r FeedResult) Failed() bool {
	return r.Err != nil
}

// Run represents a single execution of a Flow
type Run struct {
	ID          string         `json:"id" yaml:"id"`
	FlowID      string         `json:"flow_id" yaml:"flow_id"`
	StartedAt   time.Time      `json:"started_at" yaml:"started_at"`
	CompletedAt *time.Time     `json:"completed_at,omitempty" yaml:"completed_at,omitempty"`
	Status      RunStatus      `json:"status" yaml:"status"`
	Feeds       []FeedResult   `json:"feeds" yaml:"feeds"`
	PerFeed     map[string]int `json:"per_feed" yaml:"per_feed"`
	Total       int            `json:"total" yaml:"total"`
	Failed      int            `json:"failed" yaml:"failed"`
	Errors      []ProcessError `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// Record appends a feed result and updates the running totals. It is the
// only place a Run's aggregates change and must be called from one goroutine.
func (r *Run) Record(result FeedResult) {
	if r.PerFeed == nil {
		r.PerFeed = map[string]int{}
	}
	r.Feeds = append(r.Feeds, result)
	r.PerFeed[result.Feed.URL] += result.Count
	r.Total += result.Count
	if result.Failed() {
		r.Failed++
	}
}

// RunStatus represents the current state of a run
type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
	RunStatusCancelled RunStatus = "cancelled"
)

// ProcessError tracks errors that occur during processing
type ProcessError struct {
	ProcessorName string    `json:"processor_name" yaml:"processor_name"`
	Stage         string    `json:"stage" yaml:"stage"` // "source", "quality", "dedupe", "output"
	Feed          string    `json:"feed,omitempty" yaml:"feed,omitempty"`
	Error         string    `json:"error" yaml:"error"`
	OccurredAt    time.Time `json:"occurred_at" yaml:"occurred_at"`
}
