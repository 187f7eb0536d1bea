package config

const (
	EnvStoreDriver = "STORE_DRIVER"

	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvSQLitePath = "SQLITE_PATH"

	EnvStoreTxMaxRetries   = "STORE_TX_MAX_RETRIES"
	EnvStoreTxRetryBackoff = "STORE_TX_RETRY_BACKOFF"

	EnvAvailabilityMaxWindowDays = "AVAILABILITY_MAX_WINDOW_DAYS"

	EnvKafkaEnabled           = "KAFKA_ENABLED"
	EnvKafkaAvailabilityTopic = "KAFKA_AVAILABILITY_TOPIC"
	EnvKafkaDLQTopic          = "KAFKA_DLQ_TOPIC"

	EnvPort      = "PORT"
	EnvLogLevel  = "LOG_LEVEL"
	EnvLogFormat = "LOG_FORMAT"

	EnvServiceSigningSecret = "SERVICE_SIGNING_SECRET"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"
)
