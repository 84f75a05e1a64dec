package pubsub

import "context"

// NoopPublisher discards all events. Used when no event bus is configured.
type NoopPublisher struct{}

func NewNoopPublisher() *NoopPublisher {
	return &NoopPublisher{}
}

func (NoopPublisher) Publish(ctx context.Context, channel string, event *Event) error {
	return nil
}

func (NoopPublisher) Close() error {
	return nil
}
