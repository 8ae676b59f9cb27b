/*
main.go - Application entry point

PURPOSE:
  Starts the training report server. Loads configuration, the institution
  grouping table and the store, then serves the API with graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags
  2. Load config (YAML file + TRAINING_* env), apply flag overrides
  3. Build the slog logger
  4. Load the institution group table (built-in default if none configured)
  5. Open the store (SQLite or memory)
  6. Create API handler and router
  7. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -config  YAML config file (overrides TRAINING_CONFIG_FILE)
  -port    HTTP server port
  -db      SQLite database path, ":memory:" for in-memory

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests (server.shutdown_timeout)
  3. Close database connection

EXAMPLES:
  ./server -db="./data/training.db"
  TRAINING_REPORT_GROUP_TABLE_PATH=groups.yaml ./server -port=3000

SEE ALSO:
  - config/config.go: Configuration sources
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warp/training-report/api"
	"github.com/warp/training-report/config"
	"github.com/warp/training-report/course"
	"github.com/warp/training-report/course/store"
	"github.com/warp/training-report/factory"
	"github.com/warp/training-report/generic"
	"github.com/warp/training-report/institution"
	"github.com/warp/training-report/store/sqlite"
)

func main() {
	configPath := flag.String("config", "", "YAML config file")
	port := flag.Int("port", 0, "HTTP server port")
	dbPath := flag.String("db", "", "SQLite database path")
	flag.Parse()

	path := *configPath
	if path == "" {
		path = os.Getenv(config.FileEnv)
	}
	cfg, err := config.LoadFile(path)
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *dbPath != "" {
		cfg.Database.Driver = "sqlite"
		cfg.Database.Path = *dbPath
	}

	logger := config.NewLogger(cfg.Logging, os.Stdout)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	table := institution.DefaultTable()
	if cfg.Report.GroupTablePath != "" {
		var err error
		table, err = factory.NewTableFactory().LoadFile(cfg.Report.GroupTablePath)
		if err != nil {
			return err
		}
		logger.Info("institution groups loaded",
			slog.String("path", cfg.Report.GroupTablePath),
			slog.Int("groups", table.Len()),
		)
	}

	st, closer, err := openStore(cfg.Database)
	if err != nil {
		return err
	}
	defer closer.Close()

	var clock generic.Clock = generic.SystemClock{}
	if today, ok := cfg.FixedToday(); ok {
		clock = generic.FixedClock(today)
		logger.Info("using fixed evaluation date", slog.String("today", cfg.Report.Today))
	}

	handler := api.NewHandler(st, institution.NewGrouper(table), clock, logger)
	handler.EligibilityDays = cfg.Report.EligibilityDays
	handler.MaxUploadBytes = cfg.Server.MaxUploadBytes

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      api.NewRouter(handler, cfg.Server.AllowedOrigins),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			slog.String("addr", server.Addr),
			slog.String("database", cfg.Database.Driver),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}

func openStore(cfg config.DatabaseConfig) (course.Store, io.Closer, error) {
	if cfg.Driver == "memory" {
		return store.NewMemory(), io.NopCloser(nil), nil
	}
	s, err := sqlite.New(cfg.Path)
	if err != nil {
		return nil, nil, err
	}
	return s, s, nil
}
