/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the loyalty engine server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags, load TOML config
  2. Initialize structured logger (zap)
  3. Initialize SQLite store
  4. Build loyalty engine and order service
  5. Start the opening-hours board
  6. Configure HTTP router
  7. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -config  TOML config path (optional; defaults apply when absent)
  -port    HTTP server port (overrides config)
  -db      SQLite database path (overrides config)
           Use ":memory:" for in-memory database

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the opening-hours board
  4. Close database connection
  5. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/loyalty.db"

  # Run with a config file
  ./server -config="./loyalty.toml"

  # Run on different port
  ./server -port=3000

SEE ALSO:
  - api/server.go: Router configuration
  - config/config.go: TOML settings
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

	"go.uber.org/zap"

	"github.com/crave/loyalty-engine/api"
	"github.com/crave/loyalty-engine/config"
	"github.com/crave/loyalty-engine/loyalty"
	"github.com/crave/loyalty-engine/orders"
	"github.com/crave/loyalty-engine/schedule"
	"github.com/crave/loyalty-engine/store/sqlite"
)

func main() {
	// Flags
	configPath := flag.String("config", "", "TOML config path")
	port := flag.Int("port", 0, "HTTP server port (overrides config)")
	dbPath := flag.String("db", "", "SQLite database path (overrides config)")
	flag.Parse()

	log, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Config, with flag overrides
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal("Failed to load config", zap.Error(err))
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}

	// Initialize store
	store, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer store.Close()

	// Domain wiring
	rule := loyalty.EarnRule{
		AmountThreshold:    cfg.Loyalty.Threshold(),
		PointsPerThreshold: loyalty.Points(cfg.Loyalty.PointsPerThreshold),
	}
	engine := loyalty.NewEngine(store, rule, log)
	orderService := orders.NewService(store, engine, log)

	checkInterval, err := time.ParseDuration(cfg.Schedule.CheckInterval)
	if err != nil {
		checkInterval = 30 * time.Second
	}
	board := schedule.NewBoard(cfg.Schedule.OpenHour, cfg.Schedule.CloseHour, checkInterval, log)
	board.Start()
	defer board.Stop()

	// Router + server
	handler := api.NewHandler(store, engine, orderService, board, log)
	router := api.NewRouter(handler, cfg.Server.CORSOrigins)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting",
			zap.String("addr", server.Addr),
			zap.Int("open_hour", cfg.Schedule.OpenHour),
			zap.Int("close_hour", cfg.Schedule.CloseHour))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server stopped")
}
