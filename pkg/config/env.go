package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout       = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL       = "IDEMPOTENCY_TTL"
	EnvIdempotencyStorePath = "IDEMPOTENCY_STORE_PATH"
	EnvMaxRequestSize       = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvOmisePublicKey       = "OMISE_PUBLIC_KEY"
	EnvOmiseSecretKey       = "OMISE_SECRET_KEY"
	EnvPaymentCurrency      = "PAYMENT_CURRENCY"
	EnvGatewayTimeout       = "GATEWAY_TIMEOUT"
	EnvRefundMaxAttempts    = "REFUND_MAX_ATTEMPTS"
	EnvRefundBackoffInitial = "REFUND_BACKOFF_INITIAL"
	EnvRefundBackoffMax     = "REFUND_BACKOFF_MAX"

	EnvJWTSecret         = "JWT_SECRET"
	EnvAuthRequired      = "AUTH_REQUIRED"
	EnvIdentityCacheSize = "IDENTITY_CACHE_SIZE"
	EnvIdentityCacheTTL  = "IDENTITY_CACHE_TTL"

	EnvEventsEnabled       = "EVENTS_ENABLED"
	EnvBookingEventsTopic  = "KAFKA_BOOKING_TOPIC"
	EnvRefundTopic         = "KAFKA_REFUND_TOPIC"
	EnvRefundDLQTopic      = "KAFKA_REFUND_DLQ_TOPIC"
	EnvRefundConsumerGroup = "KAFKA_REFUND_CONSUMER_GROUP"
)
