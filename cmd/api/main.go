package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"taskManager/internal/app"
	"taskManager/internal/config"
	"taskManager/internal/logger"
	"taskManager/internal/repository/task/gormrepo"

	gfshutdown "github.com/gelmium/graceful-shutdown"
)

func main() {
	configPath := flag.String("config", envOr("TASKS_CONFIG", "config.yml"), "path to the YAML config file")
	migrate := flag.String("migrate", "", "apply (up) or roll back (down) the database schema and exit")
	printConfig := flag.Bool("print-config", false, "print the effective configuration as YAML and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	if *printConfig {
		out, err := cfg.YAML()
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		os.Stdout.Write(out)
		return
	}

	if *migrate != "" {
		if err := runMigrations(context.Background(), *migrate, cfg); err != nil {
			fmt.Fprintf(os.Stderr, "migrate %s: %v\n", *migrate, err)
			os.Exit(1)
		}
		return
	}

	application, err := app.New(cfg).Init(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "init app: %v\n", err)
		os.Exit(1)
	}

	errCh := application.Start()

	// waits for SIGINT/SIGTERM, then stops within the shutdown timeout
	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		cfg.Server.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			"task-manager": application.Stop,
		},
	)

	select {
	case code := <-wait:
		os.Exit(code)
	case err, failed := <-errCh:
		if !failed {
			os.Exit(<-wait)
		}
		logger.Error("App: Stopped with error", err)
		application.Shutdown()
		os.Exit(1)
	}
}

func runMigrations(ctx context.Context, direction string, cfg *config.Config) error {
	if err := logger.Init(cfg.Logging.Development); err != nil {
		return err
	}
	defer logger.Sync()

	opts := gormrepo.Options{SlowQueryThreshold: cfg.Database.SlowQueryThreshold}

	var (
		storage *gormrepo.Storage
		err     error
	)
	switch cfg.Repository.Type {
	case config.RepositoryPostgres:
		storage, err = gormrepo.OpenPostgres(ctx, cfg.Database.URL, opts)
	case config.RepositorySQLite:
		storage, err = gormrepo.OpenSQLite(ctx, cfg.Repository.SQLitePath, opts)
	default:
		return fmt.Errorf("repository type %q has no schema", cfg.Repository.Type)
	}
	if err != nil {
		return err
	}
	defer storage.Close()

	switch direction {
	case "up":
		return storage.Migrate(ctx)
	case "down":
		return storage.Down(ctx)
	default:
		return fmt.Errorf("unknown direction %q, want up or down", direction)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
