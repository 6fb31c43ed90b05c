package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/aescanero/certgate/internal/application/records"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Records is the query executor behind the API
type Records interface {
	All(ctx context.Context) ([]records.Row, error)
	Summary(ctx context.Context) (*records.Summary, error)
}

// RequestObserver receives every served request
type RequestObserver interface {
	ObserveHTTPRequest(method, route string, status int, duration time.Duration)
}

// Server represents the HTTP API server
type Server struct {
	router       *gin.Engine
	server       *http.Server
	records      Records
	redactErrors bool
	logger       *zap.Logger
}

// Config holds HTTP server configuration
type Config struct {
	Port    int
	Records Records
	Logger  *zap.Logger

	// RedactErrors hides driver errors from clients behind a correlation id
	RedactErrors bool

	// Metrics is optional
	Metrics RequestObserver
}

// maxBodyBytes caps JSON request bodies
const maxBodyBytes = 100 << 10

// NewServer creates a new HTTP server
func NewServer(cfg *Config) *Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestID())
	router.Use(requestLogger(cfg.Logger))
	if cfg.Metrics != nil {
		router.Use(requestMetrics(cfg.Metrics))
	}
	router.Use(corsMiddleware())
	router.Use(jsonBody(maxBodyBytes))

	s := &Server{
		router:       router,
		records:      cfg.Records,
		redactErrors: cfg.RedactErrors,
		logger:       cfg.Logger,
	}

	s.setupRoutes()

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: router,
	}

	return s
}

// setupRoutes configures API routes
func (s *Server) setupRoutes() {
	api := s.router.Group("/api")
	{
		api.GET("/getalldata", s.handleGetAllData)
		api.GET("/data-summary", s.handleDataSummary)
	}
}

// Handler returns the router, for embedding and tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("server running", zap.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}

	s.logger.Info("HTTP server shut down complete")
	return nil
}
