package common

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	mongoMigration "rentals/internal/migrations/mongo"
	"rentals/pkg/client"
	"rentals/pkg/config"
	"rentals/pkg/logger"
)

const mongoConnectionTimeout = 10 * time.Second

// MongoHelper owns a throwaway database on the server at MONGO_URI.
type MongoHelper struct {
	Client *mongo.Client
	DBName string
}

// NewMongoHelper connects to MONGO_URI, skipping the test when it is unset.
// Transactions need a replica set, so point it at one (a single-node set is
// enough). The database is migrated on creation and dropped on cleanup.
func NewMongoHelper(t *testing.T) *MongoHelper {
	t.Helper()

	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		t.Skip("MONGO_URI not set, skipping Mongo store tests")
	}

	ctx, cancel := context.WithTimeout(context.Background(), mongoConnectionTimeout)
	defer cancel()

	mc, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		t.Fatalf("failed to connect to MongoDB: %v", err)
	}
	if err := mc.Ping(ctx, readpref.Primary()); err != nil {
		t.Fatalf("failed to ping MongoDB: %v", err)
	}

	h := &MongoHelper{
		Client: mc,
		DBName: fmt.Sprintf("rentals_test_%d", time.Now().UnixNano()),
	}
	if err := mongoMigration.RunMigration(ctx, mc, h.DBName, logger.Discard()); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	t.Cleanup(func() { h.close(t) })
	return h
}

// Config returns a service configuration bound to the helper's database.
func (h *MongoHelper) Config(maxRetries int) *config.Config {
	return &config.Config{
		StoreDriver:               config.StoreMongo,
		MongoDatabaseName:         h.DBName,
		StoreTxMaxRetries:         maxRetries,
		StoreTxRetryBackoff:       10 * time.Millisecond,
		AvailabilityMaxWindowDays: config.DefaultAvailabilityMaxWindowDays,
		ReadTimeout:               config.DefaultReadTimeout,
		WriteTimeout:              config.DefaultWriteTimeout,
		Log:                       logger.Discard(),
		Client:                    &client.Client{Mongo: h.Client},
	}
}

func (h *MongoHelper) close(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := h.Client.Database(h.DBName).Drop(ctx); err != nil {
		t.Logf("warning: failed to drop test database %s: %v", h.DBName, err)
	}
	if err := h.Client.Disconnect(ctx); err != nil {
		t.Logf("warning: failed to disconnect from MongoDB: %v", err)
	}
}
