package runner

import (
	"github.com/bakkerme/feedscan/internal/core"
	"github.com/bakkerme/feedscan/internal/scan"
)

type discard struct{}

func (discard) FeedStarted(string) {}

func (discard) Entry(string, scan.Entry) {}

func (discard) FeedFailed(string, error) {}

func (discard) NoPosts(string) {}

func (discard) Summary(*core.Run) {}
