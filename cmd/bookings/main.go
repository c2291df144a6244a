package main

import (
	"context"
	"tripshare/internal/bookings/events"
	"tripshare/internal/bookings/handler"
	"tripshare/internal/bookings/repository"
	"tripshare/internal/bookings/service"
	"tripshare/internal/bookings/validator"
	"tripshare/pkg/app"
	"tripshare/pkg/config"
	"tripshare/pkg/kafka"
	kafka_config "tripshare/pkg/kafka/config"
	kafka_middleware "tripshare/pkg/kafka/middleware"
	"tripshare/pkg/payment"
)

const ServiceName = "bookings"

func main() {
	cfg := config.Load(ServiceName)
	cfg.RequireAdminSecret()
	cfg.SetMongo()

	cfg.Log.Info("Starting Bookings service")
	publisher, closePublisher := initPublisher(cfg)
	tripService, bookingService := initServices(cfg, publisher)

	serverApp := app.NewApplication(cfg,
		handler.NewHealthHandler(cfg.Client.Mongo, cfg.Log),
		handler.NewTripHandler(tripService, cfg.Log),
		handler.NewBookingHandler(bookingService, cfg.Log),
	)
	serverApp.OnShutdown(closePublisher)
	serverApp.Run()
}

func initGateway(cfg *config.Config) payment.Gateway {
	if cfg.PaymentGateway == config.GatewayStripe {
		cfg.Log.Info("Using Stripe payment gateway")
		return payment.NewStripeGateway(cfg.StripeSecretKey)
	}
	cfg.Log.Warn("Using in-memory mock payment gateway; no real funds move")
	return payment.NewMockGateway()
}

// initPublisher wires Kafka producers when enabled and falls back to
// logging events otherwise.
func initPublisher(cfg *config.Config) (service.EventPublisher, func(context.Context)) {
	if !cfg.KafkaEnabled {
		cfg.Log.Info("Kafka disabled, booking events go to the service log")
		return events.NewLogPublisher(cfg.Log), func(context.Context) {}
	}

	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	kafkaCfg.LogConfiguration(cfg.Log)

	eventsProducer, err := kafka.NewProducer(kafkaCfg, cfg.BookingEventsTopic, cfg.EventsDLQTopic, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create booking events producer", "error", err)
	}
	alertsProducer, err := kafka.NewProducer(kafkaCfg, cfg.AdminAlertsTopic, cfg.EventsDLQTopic, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create admin alerts producer", "error", err)
	}

	metrics := kafka_middleware.NewMetrics()
	if kafkaCfg.EnableMiddleware {
		for _, p := range []*kafka.Producer{eventsProducer, alertsProducer} {
			p.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))
			p.Use(metrics.ProducerMiddleware())
		}
	}

	closeProducers := func(context.Context) {
		metrics.Log(cfg.Log)
		for _, p := range []*kafka.Producer{eventsProducer, alertsProducer} {
			if err := p.Close(); err != nil {
				cfg.Log.Error("Failed to close Kafka producer", "topic", p.Topic(), "error", err)
			}
		}
	}
	return events.NewKafkaPublisher(eventsProducer, alertsProducer), closeProducers
}

func initServices(cfg *config.Config, publisher service.EventPublisher) (service.TripService, service.BookingService) {
	bookingValidator := validator.NewBookingValidator(cfg.Log)
	tripRepo := repository.NewMongoTripRepository(cfg)
	lockRepo := repository.NewTripLockRepository(cfg)

	tripService := service.NewTripService(tripRepo, lockRepo, bookingValidator, cfg)
	bookingService := service.NewBookingService(
		tripRepo,
		lockRepo,
		initGateway(cfg),
		publisher,
		bookingValidator,
		cfg,
	)

	cfg.Log.Info("Booking services initialized", "database", cfg.MongoDatabaseName)
	return tripService, bookingService
}
