package client

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	sqltx "rentals/pkg/db/sql"
	"rentals/pkg/logger"
)

const shutdownTimeout = 5 * time.Second

// Client holds the connection to whichever backing store is configured.
// Exactly one of Mongo or SQL is set once the service is running.
type Client struct {
	Mongo *mongo.Client
	SQL   *gorm.DB
}

func NewClient() *Client {
	return &Client{}
}

func (c *Client) SetMongo(log *logger.Logger, mongoURI string, mongoConnTimeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), mongoConnTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		log.Fatal("Failed to connect to MongoDB", "error", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		log.Fatal("Failed to ping MongoDB", "error", err)
	}

	log.Info("Successfully connected to MongoDB")
	c.Mongo = client
}

func (c *Client) SetSQLite(log *logger.Logger, path string) {
	db, err := OpenSQLite(path)
	if err != nil {
		log.Fatal("Failed to open SQLite database", "error", err, "path", path)
	}

	log.Info("Successfully opened SQLite database", "path", path)
	c.SQL = db
}

// OpenSQLite opens a file-backed SQLite database with immediate
// transactions and a busy timeout.
func OpenSQLite(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(sqltx.DSN(path)), &gorm.Config{
		Logger:  gormlogger.Default.LogMode(gormlogger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, err
	}
	return db, nil
}

func (c *Client) GracefulShutdown(log *logger.Logger) {
	if c.Mongo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := c.Mongo.Disconnect(ctx); err != nil {
			log.Error("Failed to disconnect from MongoDB", "error", err)
		} else {
			log.Info("Disconnected from MongoDB")
		}
	}

	if c.SQL != nil {
		sqlDB, err := c.SQL.DB()
		if err == nil {
			err = sqlDB.Close()
		}
		if err != nil {
			log.Error("Failed to close SQLite database", "error", err)
		} else {
			log.Info("Closed SQLite database")
		}
	}
}
