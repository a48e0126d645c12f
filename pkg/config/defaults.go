package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "petrent"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultRateLimitRequests = 30
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultPaymentCurrency      = "usd"
	DefaultGatewayTimeout       = 5 * time.Second
	MinGatewayTimeout           = 1 * time.Second
	MaxGatewayTimeout           = 30 * time.Second
	DefaultRefundMaxAttempts    = 3
	DefaultRefundBackoffInitial = 200 * time.Millisecond
	DefaultRefundBackoffMax     = 2 * time.Second

	DefaultAuthRequired      = true
	DefaultIdentityCacheSize = 10000
	DefaultIdentityCacheTTL  = 10 * time.Minute

	DefaultEventsEnabled       = false
	DefaultBookingEventsTopic  = "petrent.bookings"
	DefaultRefundTopic         = "petrent.refunds"
	DefaultRefundDLQTopic      = "petrent.refunds.dlq"
	DefaultRefundConsumerGroup = "petrent-refunds"
)
