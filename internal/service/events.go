package service

import "context"

// EventPublisher emits domain events to downstream consumers.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, data interface{}) error
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, string, interface{}) error { return nil }

func publisherOrNoop(publisher EventPublisher) EventPublisher {
	if publisher == nil {
		return noopPublisher{}
	}
	return publisher
}
