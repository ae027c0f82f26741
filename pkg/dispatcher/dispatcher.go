package dispatcher

import (
	"context"

	"github.com/Gobusters/ectolinq"
	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/aster/pkg/kafka"
)

// Dispatcher runs the stream consumers side by side. The streams are
// independent: a failure on one topic never stalls the other, and shutdown
// waits for each consumer's in-flight message to drain.
type Dispatcher struct {
	consumers []*kafka.Consumer
	logger    ectologger.Logger
}

// NewDispatcher creates a new dispatcher over the given consumers
func NewDispatcher(logger ectologger.Logger, consumers ...*kafka.Consumer) *Dispatcher {
	return &Dispatcher{
		consumers: consumers,
		logger:    logger,
	}
}

// GetName implements startup.StartupDependency
func (d *Dispatcher) GetName() string {
	return "dispatcher"
}

// DependsOn implements startup.StartupDependency
func (d *Dispatcher) DependsOn() []string {
	return []string{"database", "redis"}
}

// Start launches every consumer. If one fails to start, the ones already
// running are stopped so a retry starts from a clean slate.
func (d *Dispatcher) Start(ctx context.Context) error {
	started := make([]*kafka.Consumer, 0, len(d.consumers))
	for _, consumer := range d.consumers {
		if err := consumer.Start(ctx); err != nil {
			d.logger.WithContext(ctx).WithError(err).Errorf("Failed to start consumer for topic %s", consumer.Topic())
			for _, c := range started {
				if stopErr := c.Stop(); stopErr != nil {
					d.logger.WithContext(ctx).WithError(stopErr).Errorf("Failed to stop consumer for topic %s", c.Topic())
				}
			}
			return err
		}
		started = append(started, consumer)
	}

	topics := ectolinq.Map(d.consumers, func(c *kafka.Consumer) string { return c.Topic() })
	d.logger.WithContext(ctx).WithFields(map[string]any{"topics": topics}).Info("Dispatcher started")
	return nil
}

// Stop stops every consumer, waiting for in-flight messages to finish.
func (d *Dispatcher) Stop(ctx context.Context) error {
	var firstErr error
	for _, consumer := range d.consumers {
		if err := consumer.Stop(); err != nil {
			d.logger.WithContext(ctx).WithError(err).Errorf("Failed to stop consumer for topic %s", consumer.Topic())
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// Health reports whether every consumer is healthy.
func (d *Dispatcher) Health() bool {
	for _, consumer := range d.consumers {
		if !consumer.Health() {
			return false
		}
	}
	return true
}
