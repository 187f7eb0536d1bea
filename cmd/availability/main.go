package main

import (
	"context"

	availabilityhandler "rentals/internal/availability/handler"
	availabilityrepo "rentals/internal/availability/repository"
	availability "rentals/internal/availability/service"
	availabilityvalidator "rentals/internal/availability/validator"
	bookingshandler "rentals/internal/bookings/handler"
	bookingsrepo "rentals/internal/bookings/repository"
	bookings "rentals/internal/bookings/service"
	bookingsvalidator "rentals/internal/bookings/validator"
	sqlMigration "rentals/internal/migrations/sql"
	"rentals/pkg/app"
	"rentals/pkg/config"
	"rentals/pkg/db"
	"rentals/pkg/events"
	"rentals/pkg/kafka"
	kafka_config "rentals/pkg/kafka/config"
	kafka_middleware "rentals/pkg/kafka/middleware"
)

const ServiceName = "availability"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetStore()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting Availability service", "store", cfg.StoreDriver)

	publisher := initPublisher(cfg)
	store, bookingRepo := initStores(cfg)

	engine := availability.NewAvailabilityEngine(
		store,
		availabilityvalidator.NewRuleValidator(cfg.Log),
		publisher,
		cfg,
	)
	bookingService := bookings.NewBookingService(
		bookingRepo,
		engine,
		bookingsvalidator.NewBookingValidator(cfg.Log),
		publisher,
		cfg,
	)

	serverApp := app.NewApplication()
	serverApp.SetApp(cfg,
		availabilityhandler.NewHealthHandler(store, cfg.Log),
		availabilityhandler.NewAvailabilityHandler(engine, cfg.Log),
		bookingshandler.NewBookingHandler(bookingService, cfg.Log),
	)
	serverApp.OnShutdown(publisher.Close)
	serverApp.Run()
}

func initStores(cfg *config.Config) (availabilityrepo.BookingStore, bookingsrepo.BookingRepository) {
	if cfg.StoreDriver == config.StoreSQLite {
		// An embedded database is migrated in place on startup.
		if err := sqlMigration.RunMigration(context.Background(), cfg.Client.SQL, cfg.Log); err != nil {
			cfg.Log.Fatal("Failed to migrate SQLite database", "error", err)
		}
		policy := db.RetryPolicy{
			MaxRetries: cfg.StoreTxMaxRetries,
			Backoff:    cfg.StoreTxRetryBackoff,
		}
		cfg.Log.Info("Stores initialized", "driver", cfg.StoreDriver, "path", cfg.SQLitePath)
		return availabilityrepo.NewSQLBookingStore(cfg.Client.SQL, policy),
			bookingsrepo.NewSQLBookingRepository(cfg.Client.SQL)
	}

	cfg.Log.Info("Stores initialized", "driver", cfg.StoreDriver, "database", cfg.MongoDatabaseName)
	return availabilityrepo.NewMongoBookingStore(cfg), bookingsrepo.NewMongoBookingRepository(cfg)
}

func initPublisher(cfg *config.Config) events.Publisher {
	if !cfg.KafkaEnabled {
		cfg.Log.Info("Kafka disabled, events will not be published")
		return events.Noop()
	}

	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	kafkaCfg.LogConfiguration(cfg.Log.Info)

	producer, err := kafka.NewProducer(kafkaCfg, cfg.KafkaAvailabilityTopic, cfg.KafkaDLQTopic, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}
	if kafkaCfg.EnableMiddleware {
		producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))
	}

	return events.NewKafkaPublisher(producer, ServiceName)
}
