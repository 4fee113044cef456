package trigger

import (
	"context"
	"testing"
	"time"

	"github.com/bakkerme/feedscan/internal/config"
)

func TestNewCronProcessorValidates(t *testing.T) {
	cases := []*config.ScheduleConfig{
		nil,
		{Cron: ""},
		{Cron: "not a schedule"},
		{Cron: "0 8 * * *", Timezone: "Mars/Olympus"},
	}
	for i, cfg := range cases {
		if _, err := NewCronProcessor(cfg); err == nil {
			t.Errorf("case %d: expected error", i)
		}
	}
}

func TestCronProcessorNextHonoursTimezone(t *testing.T) {
	c, err := NewCronProcessor(&config.ScheduleConfig{Cron: "0 8 * * *", Timezone: "UTC"})
	if err != nil {
		t.Fatalf("NewCronProcessor failed: %v", err)
	}
	next, err := c.Next(time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	want := time.Date(2024, 6, 16, 8, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Fatalf("Next=%v want %v", next, want)
	}
}

func TestCronProcessorDropsEventsWhileBusy(t *testing.T) {
	c, err := NewCronProcessor(&config.ScheduleConfig{Cron: "0 8 * * *"})
	if err != nil {
		t.Fatalf("NewCronProcessor failed: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	events, err := c.Start(ctx, "flow")
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	c.fire("flow")
	c.fire("flow")

	event, ok := <-events
	if !ok || event.FlowID != "flow" {
		t.Fatalf("expected a buffered event, got %+v ok=%v", event, ok)
	}

	cancel()
	if err := c.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if _, ok := <-events; ok {
		t.Fatalf("expected channel to be closed after the second tick was dropped")
	}
}
