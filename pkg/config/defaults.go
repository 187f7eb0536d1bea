package config

import "time"

const (
	StoreMongo  = "mongo"
	StoreSQLite = "sqlite"
)

const (
	DefaultStoreDriver = StoreMongo

	DefaultMongoURI          = "mongodb://localhost:27017/?replicaSet=rs0"
	DefaultMongoDatabaseName = "rentals"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultSQLitePath = "data/availability.db"

	DefaultStoreTxMaxRetries   = 3
	DefaultStoreTxRetryBackoff = 25 * time.Millisecond

	DefaultAvailabilityMaxWindowDays = 366

	DefaultKafkaEnabled           = false
	DefaultKafkaAvailabilityTopic = "availability-events"
	DefaultKafkaDLQTopic          = "availability-events-dlq"

	DefaultPort      = "8080"
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultRateLimitRequests = 60
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultPaginationLimit = 100
	MinPaginationLimit     = 10
)
