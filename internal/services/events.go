package services

import (
	"context"
	"log"
)

// Routing keys for domain events.
const (
	EventUserCreated  = "user.created"
	EventUserFollowed = "user.followed"
	EventPostCreated  = "post.created"
)

// EventPublisher delivers domain events to interested consumers.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, payload interface{}) error
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, string, interface{}) error { return nil }

func publisherOrNoop(p EventPublisher) EventPublisher {
	if p == nil {
		return noopPublisher{}
	}
	return p
}

// publish is best effort: the request has already committed.
func publish(ctx context.Context, p EventPublisher, routingKey string, payload interface{}) {
	if err := p.Publish(ctx, routingKey, payload); err != nil {
		log.Printf("Failed to publish %s event: %v", routingKey, err)
	}
}
