package kafka

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/segmentio/kafka-go"

	asterctx "github.com/Ramsey-B/aster/pkg/context"
	"github.com/Ramsey-B/aster/pkg/metrics"
	"github.com/Ramsey-B/aster/pkg/models"
	"github.com/Ramsey-B/aster/pkg/tracing"
)

// MessageHandler processes incoming Kafka messages
type MessageHandler func(ctx context.Context, msg *IncomingMessage) error

// AttemptTracker counts delivery attempts per message reference so poison
// messages can be detected across redeliveries.
type AttemptTracker interface {
	Bump(ctx context.Context, ref string) (int64, error)
	Clear(ctx context.Context, ref string) error
}

// DeadLetter quarantines messages that can never be processed.
type DeadLetter interface {
	Quarantine(ctx context.Context, msg *IncomingMessage, reason string, cause error, attempts int64) error
}

// ConsumerConfig holds Kafka consumer configuration
type ConsumerConfig struct {
	Brokers             []string
	Topic               string
	ConsumerGroup       string
	MaxDeliveryAttempts int64
}

// Consumer handles Kafka message consumption. Offsets are committed only
// after the handler succeeds or the message is quarantined, so every message
// is processed at least once.
type Consumer struct {
	reader      *kafka.Reader
	logger      ectologger.Logger
	handler     MessageHandler
	attempts    AttemptTracker
	deadLetter  DeadLetter
	maxAttempts int64
	wg          sync.WaitGroup
	cancel      context.CancelFunc
}

// NewConsumer creates a new Kafka consumer
func NewConsumer(cfg ConsumerConfig, logger ectologger.Logger, handler MessageHandler, attempts AttemptTracker, deadLetter DeadLetter) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		Topic:          cfg.Topic,
		GroupID:        cfg.ConsumerGroup,
		MinBytes:       10e3, // 10KB
		MaxBytes:       10e6, // 10MB
		MaxWait:        500 * time.Millisecond,
		StartOffset:    kafka.FirstOffset,
		CommitInterval: time.Second,
	})

	return &Consumer{
		reader:      reader,
		logger:      logger,
		handler:     handler,
		attempts:    attempts,
		deadLetter:  deadLetter,
		maxAttempts: cfg.MaxDeliveryAttempts,
	}
}

// Topic returns the topic this consumer reads from.
func (c *Consumer) Topic() string {
	return c.reader.Config().Topic
}

// Start begins consuming messages
func (c *Consumer) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	c.wg.Add(1)
	go c.consumeLoop(ctx)

	c.logger.WithContext(ctx).WithFields(map[string]any{
		"topic": c.reader.Config().Topic,
	}).Info("Kafka consumer started")
	return nil
}

// Stop gracefully stops the consumer. The in-flight message finishes before
// the reader closes.
func (c *Consumer) Stop() error {
	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()
	return c.reader.Close()
}

func (c *Consumer) consumeLoop(ctx context.Context) {
	defer c.wg.Done()

	for {
		select {
		case <-ctx.Done():
			c.logger.WithContext(ctx).WithFields(map[string]any{
				"topic": c.reader.Config().Topic,
			}).Info("Consumer loop stopping")
			return
		default:
			msg, err := c.reader.FetchMessage(ctx)
			if err != nil {
				if err == context.Canceled || err == io.EOF {
					return
				}
				c.logger.WithContext(ctx).WithError(err).Error("Failed to fetch message")
				continue
			}

			// Detach from the loop context so a shutdown mid-message lets the
			// transaction and the commit finish instead of tearing them down.
			c.processMessage(context.WithoutCancel(ctx), msg)
		}
	}
}

func (c *Consumer) processMessage(ctx context.Context, msg kafka.Message) {
	ctx, span := tracing.StartSpan(ctx, "kafka.Consumer.processMessage")
	defer span.End()

	start := time.Now()

	headers := make(map[string]string)
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}

	incoming := &IncomingMessage{
		Key:         string(msg.Key),
		Value:       msg.Value,
		Headers:     headers,
		Partition:   msg.Partition,
		Offset:      msg.Offset,
		Timestamp:   msg.Time,
		Topic:       msg.Topic,
		TraceParent: headers["traceparent"],
		TraceState:  headers["tracestate"],
	}

	ctx = asterctx.SetTopic(ctx, msg.Topic)
	ctx = asterctx.SetMessageKey(ctx, incoming.Key)

	log := c.logger.WithContext(ctx).WithFields(map[string]any{
		"topic":     msg.Topic,
		"partition": msg.Partition,
		"offset":    msg.Offset,
	})

	attempts, err := c.attempts.Bump(ctx, incoming.Reference())
	if err != nil {
		// Attempt tracking is advisory; a tracking outage must not stop the
		// stream.
		log.WithError(err).Warn("Failed to track delivery attempt")
		attempts = 1
	}

	if err := c.handler(ctx, incoming); err != nil {
		c.handleFailure(ctx, msg, incoming, err, attempts, start)
		return
	}

	if err := c.reader.CommitMessages(ctx, msg); err != nil {
		log.WithError(err).Error("Failed to commit message")
	}
	if err := c.attempts.Clear(ctx, incoming.Reference()); err != nil {
		log.WithError(err).Warn("Failed to clear delivery attempts")
	}
	metrics.RecordMessage(msg.Topic, "processed", time.Since(start).Seconds())
}

func (c *Consumer) handleFailure(ctx context.Context, msg kafka.Message, incoming *IncomingMessage, procErr error, attempts int64, start time.Time) {
	log := c.logger.WithContext(ctx).WithFields(map[string]any{
		"topic":     msg.Topic,
		"partition": msg.Partition,
		"offset":    msg.Offset,
		"attempts":  attempts,
	})

	reason := ""
	switch {
	case models.IsMalformed(procErr):
		// Retrying can never fix a message that does not parse.
		reason = "malformed"
	case attempts >= c.maxAttempts:
		reason = "max_attempts"
	}

	if reason == "" {
		// Transient failure: leave the offset uncommitted so the message is
		// redelivered.
		log.WithError(procErr).Error("Failed to process message (not committing)")
		metrics.RecordMessage(msg.Topic, "failed", time.Since(start).Seconds())
		return
	}

	if err := c.deadLetter.Quarantine(ctx, incoming, reason, procErr, attempts); err != nil {
		// Quarantine failed; keep the offset so the message comes back.
		log.WithError(err).Error("Failed to quarantine message")
		metrics.RecordMessage(msg.Topic, "failed", time.Since(start).Seconds())
		return
	}

	log.WithError(procErr).WithFields(map[string]any{"reason": reason}).Warn("Quarantined message")
	if err := c.reader.CommitMessages(ctx, msg); err != nil {
		log.WithError(err).Error("Failed to commit quarantined message")
	}
	if err := c.attempts.Clear(ctx, incoming.Reference()); err != nil {
		log.WithError(err).Warn("Failed to clear delivery attempts")
	}
	metrics.RecordMessage(msg.Topic, "quarantined", time.Since(start).Seconds())
	metrics.RecordDLQMessage(msg.Topic, reason)
}

// Health returns the consumer health status
func (c *Consumer) Health() bool {
	return c.reader != nil
}
