package app

import (
	"petrent/pkg/config"
	"petrent/pkg/events"
	"petrent/pkg/gateway"
	"petrent/pkg/kafka"
	kafka_config "petrent/pkg/kafka/config"
	kafka_middleware "petrent/pkg/kafka/middleware"
)

// NewGateway connects to the card processor. Missing keys are fatal.
func NewGateway(cfg *config.Config) gateway.Gateway {
	client, err := gateway.NewOmiseClient(cfg.OmisePublicKey, cfg.OmiseSecretKey)
	if err != nil {
		cfg.Log.Fatal("Failed to create payment processor client", "error", err)
	}
	return gateway.NewOmiseGateway(gateway.NewOmiseProcessor(client), gateway.Config{
		Currency: cfg.PaymentCurrency,
		Timeout:  cfg.GatewayTimeout,
		RefundPolicy: gateway.RetryPolicy{
			MaxAttempts:     cfg.RefundMaxAttempts,
			InitialInterval: cfg.RefundBackoffInitial,
			MaxInterval:     cfg.RefundBackoffMax,
		},
	}, cfg.Log)
}

// NewPublisher returns a Kafka publisher for lifecycle events and refund
// requests, or a Noop when events are disabled. The returned func closes the
// producers.
func NewPublisher(cfg *config.Config, kcfg *kafka_config.Config, metrics *kafka_middleware.Metrics) (events.Publisher, func()) {
	if !cfg.EventsEnabled {
		cfg.Log.Warn("Events disabled, refund requests will only be logged")
		return events.Noop{Log: cfg.Log}, func() {}
	}

	eventsProducer := newProducer(cfg, kcfg, metrics, cfg.BookingEventsTopic)
	refundsProducer := newProducer(cfg, kcfg, metrics, cfg.RefundTopic)

	return events.NewKafkaPublisher(eventsProducer, refundsProducer, cfg.Log), func() {
		for _, p := range []*kafka.Producer{eventsProducer, refundsProducer} {
			if err := p.Close(); err != nil {
				cfg.Log.Error("Failed to close Kafka producer", "topic", p.Topic(), "error", err)
			}
		}
	}
}

func newProducer(cfg *config.Config, kcfg *kafka_config.Config, metrics *kafka_middleware.Metrics, topic string) *kafka.Producer {
	producer, err := kafka.NewProducer(kcfg, topic, "", cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "topic", topic, "error", err)
	}
	if kcfg.EnableMiddleware {
		producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))
		producer.Use(metrics.ProducerMiddleware())
	}
	return producer
}
