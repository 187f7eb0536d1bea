package main

import (
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"

	mongoMigration "rentals/internal/migrations/mongo"
	sqlMigration "rentals/internal/migrations/sql"
	"rentals/pkg/config"
)

const JobName = "migrate"

var timeout time.Duration

func main() {
	if err := rootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "migrate",
		Short:        "Create the collections, tables and indexes used by the availability service",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load(JobName)
			if cfg.StoreDriver == config.StoreSQLite {
				return runSQLite(cmd.Context(), cfg)
			}
			return runMongo(cmd.Context(), cfg)
		},
	}
	cmd.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Minute, "overall migration timeout")
	cmd.AddCommand(mongoCmd(), sqliteCmd())
	return cmd
}

func mongoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mongo",
		Short: "Migrate the MongoDB database named by MONGO_DATABASE_NAME",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load(JobName)
			return runMongo(cmd.Context(), cfg)
		},
	}
}

func sqliteCmd() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "sqlite",
		Short: "Migrate the SQLite database at SQLITE_PATH",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load(JobName)
			if path != "" {
				cfg.SQLitePath = path
			}
			return runSQLite(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVar(&path, "path", "", "database file, overrides SQLITE_PATH")
	return cmd
}

func runMongo(parent context.Context, cfg *config.Config) error {
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
	defer cfg.GracefulShutdown()

	if err := mongoMigration.RunMigration(ctx, cfg.Client.Mongo, cfg.MongoDatabaseName, cfg.Log); err != nil {
		cfg.Log.Error("Mongo migration failed", "error", err)
		return err
	}
	return nil
}

func runSQLite(parent context.Context, cfg *config.Config) error {
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	cfg.Client.SetSQLite(cfg.Log, cfg.SQLitePath)
	defer cfg.GracefulShutdown()

	if err := sqlMigration.RunMigration(ctx, cfg.Client.SQL, cfg.Log); err != nil {
		cfg.Log.Error("SQL migration failed", "error", err)
		return err
	}
	return nil
}
