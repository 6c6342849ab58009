package service

import (
	"context"
	"fmt"
	"strconv"

	"github.com/Skotchmaster/blog_dashboard/internal/mykafka"
)

// publish hands the event to the background runner, keyed by user so one
// user's events stay ordered.
func publish(ctx context.Context, jobs *Background, p mykafka.Publisher, event mykafka.Event) {
	if p == nil {
		return
	}
	key := strconv.FormatUint(uint64(event.UserID), 10)
	jobs.Submit(ctx, uint64(event.UserID), "publish_event", func(ctx context.Context) error {
		if err := p.PublishEvent(ctx, key, event); err != nil {
			return fmt.Errorf("%s: %w", event.Type, err)
		}
		return nil
	})
}
