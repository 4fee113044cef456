package trigger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bakkerme/feedscan/internal/config"
	"github.com/bakkerme/feedscan/internal/core"
	"github.com/robfig/cron/v3"
)

// CronProcessor fires trigger events on a cron schedule. Events are delivered
// on a channel with a buffer of one; a tick that finds it full is dropped so
// runs never pile up.
type CronProcessor struct {
	name     string
	schedule string
	timezone string
	cron     *cron.Cron
	events   chan core.TriggerEvent
	stopOnce sync.Once
}

func NewCronProcessor(cfg *config.ScheduleConfig) (*CronProcessor, error) {
	if cfg == nil {
		return nil, fmt.Errorf("schedule config is required")
	}
	c := &CronProcessor{
		name:     "cron",
		schedule: cfg.Cron,
		timezone: cfg.Timezone,
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *CronProcessor) Name() string {
	return c.name
}

func (c *CronProcessor) Validate() error {
	if c.schedule == "" {
		return fmt.Errorf("cron schedule is required")
	}
	if _, err := cron.ParseStandard(c.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", c.schedule, err)
	}
	if c.timezone != "" {
		if _, err := time.LoadLocation(c.timezone); err != nil {
			return fmt.Errorf("invalid timezone: %w", err)
		}
	}
	return nil
}

func (c *CronProcessor) Start(ctx context.Context, flowID string) (<-chan core.TriggerEvent, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	location := time.UTC
	if c.timezone != "" {
		tz, err := time.LoadLocation(c.timezone)
		if err != nil {
			return nil, err
		}
		location = tz
	}

	c.events = make(chan core.TriggerEvent, 1)
	c.cron = cron.New(cron.WithLocation(location))
	_, err := c.cron.AddFunc(c.schedule, func() {
		c.fire(flowID)
	})
	if err != nil {
		return nil, err
	}

	c.cron.Start()

	go func() {
		<-ctx.Done()
		_ = c.Stop()
	}()

	return c.events, nil
}

func (c *CronProcessor) fire(flowID string) {
	select {
	case c.events <- core.TriggerEvent{FlowID: flowID, Timestamp: time.Now().UTC()}:
	default:
	}
}

// Next returns the next time the schedule fires after from.
func (c *CronProcessor) Next(from time.Time) (time.Time, error) {
	sched, err := cron.ParseStandard(c.schedule)
	if err != nil {
		return time.Time{}, err
	}
	if c.timezone != "" {
		tz, err := time.LoadLocation(c.timezone)
		if err != nil {
			return time.Time{}, err
		}
		from = from.In(tz)
	}
	return sched.Next(from), nil
}

func (c *CronProcessor) Stop() error {
	c.stopOnce.Do(func() {
		if c.cron != nil {
			ctx := c.cron.Stop()
			<-ctx.Done()
		}
		if c.events != nil {
			close(c.events)
		}
	})
	return nil
}
