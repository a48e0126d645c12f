package main

import (
	bookinghandler "petrent/internal/bookings/handler"
	bookingservice "petrent/internal/bookings/service"
	"petrent/internal/bookings/validator"
	"petrent/internal/identity"
	paymenthandler "petrent/internal/payments/handler"
	paymentservice "petrent/internal/payments/service"
	"petrent/internal/records/repository"
	"petrent/pkg/app"
	"petrent/pkg/config"
	"petrent/pkg/contracts"
	kafka_config "petrent/pkg/kafka/config"
	kafka_middleware "petrent/pkg/kafka/middleware"
)

const ServiceName = "bookings"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()

	cfg.Log.Info("Starting Bookings service")
	serverApp := app.NewApplication(cfg)
	handlers := initServices(cfg, serverApp)
	serverApp.SetApp(cfg.Client.Mongo, handlers...)
	serverApp.Run()
}

func initServices(cfg *config.Config, serverApp *app.Application) []contracts.Handler {
	var kcfg *kafka_config.Config
	metrics := kafka_middleware.NewMetrics()
	if cfg.EventsEnabled {
		var err error
		if kcfg, err = kafka_config.Load(); err != nil {
			cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
		}
		kcfg.LogConfiguration(cfg.Log)
	}
	publisher, closePublisher := app.NewPublisher(cfg, kcfg, metrics)
	serverApp.OnShutdown(func() {
		closePublisher()
		metrics.Log(cfg.Log)
	})

	repos := repository.NewMongoRepositories(cfg)
	resolver := identity.NewResolver(repos.Owners, repos.Renters, identity.NewCache(cfg.IdentityCacheSize, cfg.IdentityCacheTTL))
	gw := app.NewGateway(cfg)

	bookingService := bookingservice.NewBookingService(
		repos,
		resolver,
		gw,
		validator.NewBookingValidator(cfg.Log),
		publisher,
		cfg,
	)
	paymentService := paymentservice.NewPaymentService(repos, resolver, gw, publisher, cfg)

	cfg.Log.Info("Booking and payment services initialized", "database", cfg.MongoDatabaseName)
	return []contracts.Handler{
		bookinghandler.NewBookingHandler(bookingService, cfg.Log),
		paymenthandler.NewPaymentHandler(paymentService, cfg.Log),
	}
}
