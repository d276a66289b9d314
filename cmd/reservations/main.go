package main

import (
	"context"

	"reservatec/internal/catalog"
	"reservatec/internal/reservations/commands"
	"reservatec/internal/reservations/handler"
	"reservatec/internal/reservations/registry"
	"reservatec/internal/reservations/repository"
	"reservatec/internal/reservations/service"
	"reservatec/internal/reservations/validator"
	"reservatec/pkg/app"
	"reservatec/pkg/config"
	"reservatec/pkg/kafka"
	kafka_config "reservatec/pkg/kafka/config"
	kafka_middleware "reservatec/pkg/kafka/middleware"
)

const ServiceName = "reservations"

func main() {
	cfg := config.Load(ServiceName)
	application := app.NewApplication(cfg)

	var store repository.ReservationStore
	var pinger handler.Pinger
	if cfg.UsesMongo() {
		cfg.SetMongo()
		store = repository.NewMongoReservationStore(cfg)
		pinger = cfg.Client.Mongo
	} else {
		store = repository.NewMemoryReservationStore()
		cfg.Log.Warn("Using in-memory reservation store, reservations are lost on restart")
	}

	reservationValidator := validator.NewReservationValidator(cfg.Log)
	cat, err := catalog.Load(cfg.CatalogSpacesFile, cfg.CatalogRequestersFile, reservationValidator)
	if err != nil {
		cfg.Log.Fatal("Failed to load catalog", "error", err)
	}
	spaces, requesters := cat.Counts()
	cfg.Log.Info("Catalog loaded", "spaces", spaces, "requesters", requesters)

	var kafkaCfg *kafka_config.Config
	var metrics *kafka_middleware.Metrics
	if cfg.EventsEnabled || cfg.CommandsEnabled {
		kafkaCfg, err = kafka_config.Load()
		if err != nil {
			cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
		}
		kafkaCfg.LogConfiguration(cfg.Log)
		metrics = kafka_middleware.NewMetrics()
	}

	publisher := service.NewNoopPublisher()
	if cfg.EventsEnabled {
		producer, err := kafka.NewProducer(kafkaCfg, cfg.EventsTopic, cfg.EventsDLQTopic, cfg.Log)
		if err != nil {
			cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
		}
		if kafkaCfg.EnableMiddleware {
			producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))
			producer.Use(kafka_middleware.MetricsProducerMiddleware(metrics))
		}
		publisher = service.NewKafkaPublisher(producer, ServiceName)
		application.OnShutdown("kafka-producer", producer.Close)
	}

	reg := registry.New(store, nil, cfg.Log)
	reservationService := service.NewReservationService(reg, cat, reservationValidator, publisher, nil, cfg)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.MongoConnTimeout)
	if _, err := reservationService.Restore(ctx, store); err != nil {
		cancel()
		cfg.Log.Fatal("Failed to restore reservations", "error", err)
	}
	cancel()

	application.AddWorker(service.NewCompletionWorker(reservationService, cfg.CompletionInterval, cfg.Log))

	if cfg.CommandsEnabled {
		commandHandler := commands.NewHandler(reservationService, cfg.RequestTimeout, cfg.Log)
		consumer, err := kafka.NewConsumer(kafkaCfg, cfg.CommandsTopic, kafkaCfg.ConsumerGroupID, cfg.CommandsDLQ, commandHandler.Handle, cfg.Log)
		if err != nil {
			cfg.Log.Fatal("Failed to create Kafka consumer", "error", err)
		}
		if kafkaCfg.EnableMiddleware {
			consumer.Use(kafka_middleware.LoggingConsumerMiddleware(cfg.Log))
			consumer.Use(kafka_middleware.MetricsConsumerMiddleware(metrics))
		}
		application.AddConsumer(consumer)
	}

	if metrics != nil {
		application.OnShutdown("kafka-metrics", func() error {
			cfg.Log.Info("Kafka metrics", "snapshot", metrics.Snapshot())
			return nil
		})
	}

	application.SetApp(
		handler.NewHealthHandler(pinger, reg.Len, cfg.Log),
		handler.NewReservationHandler(reservationService, cfg.Log),
		handler.NewSpaceHandler(reservationService, cfg.Log),
	)
	application.Run()
}
