package core

import (
	"context"
	"time"

	"github.com/bakkerme/feedscan/internal/scan"
)

// Processor is the base interface that all processors must implement
type Processor interface {
	// Name returns the processor name
	Name() string
	// Validate checks if the processor configuration is valid
	Validate() error
}

// TriggerEvent represents a trigger firing
type TriggerEvent struct {
	FlowID    string
	Timestamp time.Time
}

// TriggerProcessor defines when a run starts
type TriggerProcessor interface {
	Processor
	// Start begins the trigger and returns a channel of trigger events.
	// The processor manages its own lifecycle and closes the channel on Stop.
	Start(ctx context.Context, flowID string) (<-chan TriggerEvent, error)
	// Stop gracefully shuts down the trigger
	Stop() error
}

// SourceProcessor retrieves one feed and extracts its accepted entries.
// Retrieval failures are reported through FeedResult.Err, never returned.
type SourceProcessor interface {
	Processor
	Fetch(ctx context.Context, feed FeedRef) FeedResult
}

// QualityProcessor filters accepted entries
type QualityProcessor interface {
	Processor
	Evaluate(ctx context.Context, feed FeedRef, entries []scan.Entry) ([]scan.Entry, error)
}

// OutputProcessor delivers a finished run
type OutputProcessor interface {
	Processor
	Deliver(ctx context.Context, run *Run) error
}
