package config

import "time"

type Config struct {
	AppName            string `env:"APP_NAME" env-default:"aster"`
	Port               int    `env:"PORT" env-default:"3004"`
	LogLevel           string `env:"LOG_LEVEL" env-default:"info"`
	PrettyLogs         bool   `env:"PRETTY_LOGS" env-default:"false"`
	StartupMaxAttempts int    `env:"STARTUP_MAX_ATTEMPTS" env-default:"5"`

	// PostgreSQL (materialized listening graph)
	DatabaseDriver              string        `env:"DB_DRIVER" env-default:"postgres"`
	DatabaseHost                string        `env:"DB_HOST" env-default:""`
	DatabasePort                string        `env:"DB_PORT" env-default:"5432"`
	DatabaseUserName            string        `env:"DB_USER_NAME" env-default:""`
	DatabasePassword            string        `env:"DB_PASSWORD" env-default:""`
	DatabaseName                string        `env:"DB_NAME" env-default:"aster"`
	DatabaseSSLMode             string        `env:"DB_SSL_MODE" env-default:"disable"`
	DatabaseMaxOpenConns        int           `env:"DB_MAX_OPEN_CONNS" env-default:"25"`
	DatabaseMaxIdleConns        int           `env:"DB_MAX_IDLE_CONNS" env-default:"10"`
	DatabaseConnMaxLifetime     time.Duration `env:"DB_CONN_MAX_LIFETIME" env-default:"10s"`
	DatabaseMigrationFolderPath string        `env:"DB_MIGRATION_FOLDER_PATH" env-default:"db/pg"`

	// Redis (delivery attempt tracking + dead letter stream)
	RedisHost     string `env:"REDIS_HOST" env-default:"localhost"`
	RedisPort     int    `env:"REDIS_PORT" env-default:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD" env-default:""`
	RedisDB       int    `env:"REDIS_DB" env-default:"0"`

	// Kafka Consumers (one per upstream topic)
	KafkaBrokers              []string `env:"KAFKA_BROKERS" env-default:"localhost:9092"`
	KafkaUsersTopic           string   `env:"KAFKA_TOPIC_USERS" env-default:"uni-users"`
	KafkaArtistsTopic         string   `env:"KAFKA_TOPIC_ARTISTS" env-default:"uni-artists"`
	KafkaUsersConsumerGroup   string   `env:"KAFKA_USERS_CONSUMER_GROUP" env-default:"aster-users-consumer"`
	KafkaArtistsConsumerGroup string   `env:"KAFKA_ARTISTS_CONSUMER_GROUP" env-default:"aster-artists-consumer"`

	// Kafka Producer (entity events)
	KafkaOutputTopic   string `env:"KAFKA_OUTPUT_TOPIC" env-default:"listening-graph-events"`
	KafkaOutputEnabled bool   `env:"KAFKA_OUTPUT_ENABLED" env-default:"true"`
	KafkaBatchSize     int    `env:"KAFKA_BATCH_SIZE" env-default:"100"`
	KafkaBatchTimeout  int    `env:"KAFKA_BATCH_TIMEOUT_MS" env-default:"100"`
	KafkaRequiredAcks  int    `env:"KAFKA_REQUIRED_ACKS" env-default:"1"`
	KafkaCompression   string `env:"KAFKA_COMPRESSION" env-default:"snappy"`

	// Poison message policy
	MaxDeliveryAttempts int           `env:"MAX_DELIVERY_ATTEMPTS" env-default:"5"`
	AttemptTrackingTTL  time.Duration `env:"ATTEMPT_TRACKING_TTL" env-default:"24h"`
	DLQStream           string        `env:"DLQ_STREAM" env-default:"aster:dlq"`

	// Tracing
	TracingEnabled bool   `env:"TRACING_ENABLED" env-default:"false"`
	OTLPEndpoint   string `env:"OTLP_ENDPOINT" env-default:"localhost:4317"`
	OTLPProtocol   string `env:"OTLP_PROTOCOL" env-default:"grpc"`
	OTLPInsecure   bool   `env:"OTLP_INSECURE" env-default:"true"`
}
