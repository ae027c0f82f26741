package kafka

import (
	"fmt"
	"time"
)

// IncomingMessage wraps a raw Kafka message with parsed headers
type IncomingMessage struct {
	Key       string
	Value     []byte
	Headers   map[string]string
	Partition int
	Offset    int64
	Timestamp time.Time
	Topic     string

	// Trace context (extracted from Kafka headers)
	TraceParent string
	TraceState  string
}

// Reference identifies the message position within its topic. It keys the
// redelivery attempt counter and dead-letter entries.
func (m *IncomingMessage) Reference() string {
	return fmt.Sprintf("%s:%d:%d", m.Topic, m.Partition, m.Offset)
}
