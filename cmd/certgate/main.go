package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aescanero/certgate/internal/application/pool"
	"github.com/aescanero/certgate/internal/application/records"
	"github.com/aescanero/certgate/internal/config"
	"github.com/aescanero/certgate/pkg/adapters/metrics/prometheus"
	mysqlstorage "github.com/aescanero/certgate/pkg/adapters/storage/mysql"
	"github.com/aescanero/certgate/pkg/api/http"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Version is set by build flags
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := initLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("starting certificate gateway",
		zap.String("version", Version),
		zap.String("build_time", BuildTime))

	loc, err := cfg.Database.Location()
	if err != nil {
		logger.Fatal("invalid database timezone", zap.Error(err))
	}

	// Initialize the connection pool
	db, err := mysqlstorage.NewPool(&mysqlstorage.Config{
		Host:           cfg.Database.Host,
		Port:           cfg.Database.Port,
		User:           cfg.Database.User,
		Password:       cfg.Database.Password,
		Database:       cfg.Database.Name,
		MaxOpenConns:   cfg.Database.MaxConns,
		ConnectTimeout: cfg.Database.ConnectTimeout,
		Location:       loc,
	})
	if err != nil {
		logger.Fatal("failed to create database pool", zap.Error(err))
	}

	// Connectivity is only reported; requests surface failures themselves.
	go checkDatabase(db, cfg, logger)

	recordOpts := []records.Option{records.WithLocation(loc)}
	httpCfg := &http.Config{
		Port:         cfg.Port,
		Logger:       logger,
		RedactErrors: cfg.RedactErrors,
	}

	var metricsServer *http.MetricsServer
	if cfg.MetricsEnabled() {
		collector := prometheus.NewCollector()
		if err := collector.RegisterPool(db, cfg.Database.Name); err != nil {
			logger.Fatal("failed to register pool metrics", zap.Error(err))
		}
		recordOpts = append(recordOpts, records.WithObserver(collector))
		httpCfg.Metrics = collector
		metricsServer = http.NewMetricsServer(cfg.MetricsPort, collector.Handler(), logger)
	}

	httpCfg.Records = records.NewService(db, logger, recordOpts...)
	httpServer := http.NewServer(httpCfg)

	var poolMonitor *pool.HealthMonitor
	if cfg.Database.StatsInterval > 0 {
		poolMonitor = pool.NewHealthMonitor(db, cfg.Database.StatsInterval, logger)
		poolMonitor.Start()
	}

	// Start servers
	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	if metricsServer != nil {
		go func() {
			if err := metricsServer.Start(); err != nil {
				logger.Fatal("metrics server failed", zap.Error(err))
			}
		}()
	}

	logger.Info("certificate gateway started",
		zap.String("url", fmt.Sprintf("http://localhost:%d", cfg.Port)),
		zap.Int("db_max_conns", cfg.Database.MaxConns),
		zap.Bool("metrics_enabled", cfg.MetricsEnabled()))

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	logger.Info("received shutdown signal")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Timeouts.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("metrics server shutdown error", zap.Error(err))
		}
	}

	if poolMonitor != nil {
		poolMonitor.Stop()
	}

	if err := db.Close(); err != nil {
		logger.Error("database pool close error", zap.Error(err))
	}

	logger.Info("certificate gateway shut down complete")
}

// checkDatabase acquires one pooled connection and logs the outcome
func checkDatabase(db *sql.DB, cfg *config.Config, logger *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Database.ConnectTimeout+5*time.Second)
	defer cancel()

	if err := mysqlstorage.CheckConnection(ctx, db); err != nil {
		logger.Error("database connection failed",
			zap.String("addr", fmt.Sprintf("%s:%d", cfg.Database.Host, cfg.Database.Port)),
			zap.String("kind", string(mysqlstorage.Classify(err))),
			zap.Error(err))
		return
	}

	logger.Info("connected to MySQL database",
		zap.String("addr", fmt.Sprintf("%s:%d", cfg.Database.Host, cfg.Database.Port)),
		zap.String("database", cfg.Database.Name))
}

// initLogger initializes the logger based on log level
func initLogger(level string) *zap.Logger {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(zapLevel)
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := config.Build()
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}

	return logger
}
