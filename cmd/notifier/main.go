package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"tripshare/internal/notifications"
	"tripshare/pkg/config"
	"tripshare/pkg/kafka"
	kafka_config "tripshare/pkg/kafka/config"
	kafka_middleware "tripshare/pkg/kafka/middleware"

	"golang.org/x/sync/errgroup"
)

const ServiceName = "notifier"

func main() {
	cfg := config.Load(ServiceName)

	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	kafkaCfg.LogConfiguration(cfg.Log)

	renderer := notifications.NewRenderer(cfg.AdminEmail)
	sink := notifications.NewLogSink(cfg.Log)
	metrics := kafka_middleware.NewMetrics()

	topics := []struct {
		topic    string
		audience notifications.Audience
	}{
		{cfg.BookingEventsTopic, notifications.Parties},
		{cfg.AdminAlertsTopic, notifications.Operators},
	}

	var consumers []*kafka.Consumer
	for _, t := range topics {
		dispatcher := notifications.NewDispatcher(renderer, sink, t.audience, cfg.Log)
		consumer, err := kafka.NewConsumer(kafkaCfg, t.topic, cfg.NotifierGroupID, cfg.EventsDLQTopic, dispatcher.Handle, cfg.Log)
		if err != nil {
			cfg.Log.Fatal("Failed to create consumer", "topic", t.topic, "error", err)
		}
		if kafkaCfg.EnableMiddleware {
			consumer.Use(kafka_middleware.LoggingConsumerMiddleware(cfg.Log))
			consumer.Use(metrics.ConsumerMiddleware())
		}
		consumers = append(consumers, consumer)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	for _, c := range consumers {
		g.Go(func() error { return c.Start(ctx) })
	}

	cfg.Log.Info("Notifier started", "events_topic", cfg.BookingEventsTopic, "alerts_topic", cfg.AdminAlertsTopic)
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		cfg.Log.Error("Consumer stopped", "error", err)
	}

	for _, c := range consumers {
		if err := c.Close(); err != nil {
			cfg.Log.Error("Failed to close consumer", "error", err)
		}
	}
	metrics.Log(cfg.Log)
	cfg.Log.Info("Notifier stopped")
}
