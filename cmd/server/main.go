/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the rent billing engine server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load .env (if present) and parse command-line flags
  2. Build the zap logger
  3. Initialize SQLite store
  4. Wire the billing engine and API handler
  5. Start the daily billing scheduler
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS (env var defaults in parentheses):
  -port        HTTP server port (PORT, default: 8080)
  -db          SQLite database path (DB_PATH, default: rent.db)
               Use ":memory:" for in-memory database
  -interval    Scheduler pass interval (RUN_INTERVAL, default: 1h)
  -dev-log     Human-readable console logging instead of JSON

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the scheduler
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Close database connection
  5. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/rent.db"

  # Run with in-memory database
  ./server -db=":memory:"

  # Run a pass every ten minutes
  ./server -interval=10m

SEE ALSO:
  - api/server.go: Router configuration
  - api/scheduler.go: Billing scheduler
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/warp/rent-engine/api"
	"github.com/warp/rent-engine/billing"
	"github.com/warp/rent-engine/store/sqlite"
)

func main() {
	// Optional .env for local development. Missing file is fine.
	_ = godotenv.Load()

	// Flags, with environment defaults
	port := flag.Int("port", envInt("PORT", 8080), "HTTP server port")
	dbPath := flag.String("db", envStr("DB_PATH", "rent.db"), "SQLite database path")
	interval := flag.Duration("interval", envDuration("RUN_INTERVAL", time.Hour), "scheduler pass interval")
	devLog := flag.Bool("dev-log", false, "human-readable console logging")
	flag.Parse()

	logger := buildLogger(*devLog)
	defer logger.Sync()

	// Initialize store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer store.Close()

	// Wire the engine and handler
	engine := billing.NewEngine(store, store, store, billing.SystemClock{}, logger.Named("engine"))
	handler := api.NewHandler(store, engine, logger.Named("api"))

	// Start the billing scheduler
	scheduler := api.NewBillingScheduler(store, engine, logger.Named("scheduler"))
	scheduler.CheckInterval = *interval
	scheduler.Start()
	defer scheduler.Stop()

	// Create router
	router := api.NewRouter(handler)

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("server starting",
			zap.Int("port", *port),
			zap.String("db", *dbPath),
			zap.Duration("interval", *interval))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}

func buildLogger(dev bool) *zap.Logger {
	var logger *zap.Logger
	var err error
	if dev {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	return logger
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		var n int
		if _, err := fmt.Sscanf(v, "%d", &n); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
