// Package metrics provides Prometheus metrics for the Aster service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MessagesProcessedTotal tracks consumed stream messages by outcome
	MessagesProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aster",
			Subsystem: "consumer",
			Name:      "messages_total",
			Help:      "Total number of stream messages processed by outcome",
		},
		[]string{"topic", "status"},
	)

	// MessageProcessingDuration tracks per-message processing duration in seconds
	MessageProcessingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "aster",
			Subsystem: "consumer",
			Name:      "message_duration_seconds",
			Help:      "Duration of per-message processing in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"topic"},
	)

	// DLQMessagesTotal tracks messages quarantined to the dead letter stream
	DLQMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aster",
			Subsystem: "dlq",
			Name:      "messages_total",
			Help:      "Total number of messages sent to the dead letter stream",
		},
		[]string{"topic", "reason"},
	)

	// EntitiesMaterializedTotal tracks entity rows created or upgraded
	EntitiesMaterializedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aster",
			Subsystem: "store",
			Name:      "entities_total",
			Help:      "Total number of entity rows created or upgraded",
		},
		[]string{"entity_type", "action"},
	)

	// EdgesWrittenTotal tracks association edges written
	EdgesWrittenTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aster",
			Subsystem: "store",
			Name:      "edges_total",
			Help:      "Total number of association edge writes",
		},
		[]string{"edge_type"},
	)

	// KafkaMessagesPublished tracks Kafka messages published
	KafkaMessagesPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aster",
			Subsystem: "kafka",
			Name:      "messages_published_total",
			Help:      "Total number of messages published to Kafka",
		},
		[]string{"topic", "status"},
	)

	// RedisOperationDuration tracks Redis operation duration
	RedisOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "aster",
			Subsystem: "redis",
			Name:      "operation_duration_seconds",
			Help:      "Duration of Redis operations in seconds",
			Buckets:   []float64{0.0001, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1},
		},
		[]string{"operation"},
	)
)

// RecordMessage records the outcome of one consumed message
func RecordMessage(topic, status string, durationSeconds float64) {
	MessagesProcessedTotal.WithLabelValues(topic, status).Inc()
	MessageProcessingDuration.WithLabelValues(topic).Observe(durationSeconds)
}

// RecordDLQMessage records a message quarantined to the dead letter stream
func RecordDLQMessage(topic, reason string) {
	DLQMessagesTotal.WithLabelValues(topic, reason).Inc()
}

// RecordEntity records an entity row creation or upgrade
func RecordEntity(entityType, action string) {
	EntitiesMaterializedTotal.WithLabelValues(entityType, action).Inc()
}

// RecordEdge records an association edge write
func RecordEdge(edgeType string) {
	EdgesWrittenTotal.WithLabelValues(edgeType).Inc()
}

// RecordKafkaPublish records a Kafka publish operation
func RecordKafkaPublish(topic, status string) {
	KafkaMessagesPublished.WithLabelValues(topic, status).Inc()
}
