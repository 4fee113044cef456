package mock

import (
	"context"
	"sync"

	"github.com/bakkerme/feedscan/internal/outputs/email"
)

type Sender struct {
	Err error

	mu       sync.Mutex
	Messages []email.Message
}

func (s *Sender) Send(ctx context.Context, message email.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.Err != nil {
		return s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Messages = append(s.Messages, message)
	return nil
}
