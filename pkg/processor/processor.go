package processor

import (
	"context"

	"github.com/Ramsey-B/aster/pkg/kafka"
)

// EventPublisher emits entity events after a batch commits. Publishing is
// best effort; a broker outage never fails the message.
type EventPublisher interface {
	PublishEntityEvents(ctx context.Context, events []*kafka.EntityEvent) error
}
