package kafka_config

import "time"

const (
	DefaultKafkaBrokers = "localhost:9092"

	DefaultProducerMaxAttempts  = 3
	DefaultProducerBatchTimeout = 10 * time.Millisecond
	DefaultProducerRequireAcks  = -1
	DefaultProducerCompression  = "snappy"
	DefaultProducerAsync        = false

	// Refund requests must not be skipped on a fresh consumer group.
	DefaultConsumerStartOffset = -2
	DefaultConsumerMinBytes    = 1
	DefaultConsumerMaxBytes    = 10 * 1024 * 1024
	DefaultConsumerMaxWait     = 500 * time.Millisecond
	// Zero commits synchronously after each message.
	DefaultConsumerCommitInterval    = time.Duration(0)
	DefaultConsumerHeartbeatInterval = 3 * time.Second
	DefaultConsumerSessionTimeout    = 10 * time.Second
	DefaultConsumerRebalanceTimeout  = 60 * time.Second
	DefaultConsumerMaxRetries        = 5
	DefaultConsumerRetryBackoff      = 30 * time.Second

	DefaultEnableMiddleware = true
)
