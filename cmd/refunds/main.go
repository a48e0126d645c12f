package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"petrent/internal/payments/refunds"
	"petrent/internal/records/repository"
	"petrent/pkg/app"
	"petrent/pkg/config"
	"petrent/pkg/kafka"
	kafka_config "petrent/pkg/kafka/config"
	kafka_middleware "petrent/pkg/kafka/middleware"
)

const ServiceName = "refunds"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	kcfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	kcfg.LogConfiguration(cfg.Log)

	metrics := kafka_middleware.NewMetrics()
	defer metrics.Log(cfg.Log)

	publisher, closePublisher := app.NewPublisher(cfg, kcfg, metrics)
	defer closePublisher()

	repos := repository.NewMongoRepositories(cfg)
	handler := refunds.NewHandler(repos.Payments, app.NewGateway(cfg), publisher, cfg.Log)

	consumer, err := kafka.NewConsumer(kcfg, cfg.RefundTopic, cfg.RefundConsumerGroup, cfg.RefundDLQTopic, handler.Handle, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create refund consumer", "error", err)
	}
	consumer.Use(metrics.ConsumerMiddleware())
	if kcfg.EnableMiddleware {
		consumer.Use(kafka_middleware.LoggingConsumerMiddleware(cfg.Log))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg.Log.Info("Starting refund worker",
		"topic", cfg.RefundTopic,
		"group", cfg.RefundConsumerGroup,
		"dlq_topic", cfg.RefundDLQTopic,
	)
	if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		cfg.Log.Error("Refund consumer stopped", "error", err)
	}

	if err := consumer.Close(); err != nil {
		cfg.Log.Error("Failed to close refund consumer", "error", err)
	}
	cfg.Log.Info("Refund worker stopped")
}
