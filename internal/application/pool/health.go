package pool

import (
	"database/sql"
	"sync"
	"time"

	"go.uber.org/zap"
)

// StatsSource reports connection pool statistics. *sql.DB implements it.
type StatsSource interface {
	Stats() sql.DBStats
}

// HealthMonitor periodically logs connection pool usage
type HealthMonitor struct {
	source   StatsSource
	interval time.Duration
	logger   *zap.Logger

	mu            sync.RWMutex
	running       bool
	stopCh        chan struct{}
	lastWaitCount int64
}

// HealthStatus represents the health status of the connection pool
type HealthStatus struct {
	MaxOpen   int
	Open      int
	InUse     int
	Idle      int
	WaitCount int64
	// Acquisitions that had to queue since the previous check
	NewWaits  int64
	Saturated bool
	Timestamp time.Time
}

// NewHealthMonitor creates a new health monitor
func NewHealthMonitor(source StatsSource, interval time.Duration, logger *zap.Logger) *HealthMonitor {
	return &HealthMonitor{
		source:   source,
		interval: interval,
		logger:   logger,
		stopCh:   make(chan struct{}),
	}
}

// Start starts the health monitor
func (h *HealthMonitor) Start() {
	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		return
	}
	h.running = true
	h.mu.Unlock()

	go h.run()
}

// Stop stops the health monitor
func (h *HealthMonitor) Stop() {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return
	}
	h.running = false
	h.mu.Unlock()

	close(h.stopCh)
}

// run is the main monitoring loop
func (h *HealthMonitor) run() {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-h.stopCh:
			return
		case <-ticker.C:
			h.checkHealth()
		}
	}
}

// checkHealth logs pool status and warns when callers are queuing
func (h *HealthMonitor) checkHealth() {
	status := h.GetStatus()

	h.logger.Info("connection pool health check",
		zap.Int("max_open", status.MaxOpen),
		zap.Int("open", status.Open),
		zap.Int("in_use", status.InUse),
		zap.Int("idle", status.Idle),
		zap.Int64("wait_count", status.WaitCount))

	if status.NewWaits > 0 {
		h.logger.Warn("queries waited for a free connection",
			zap.Int64("waits", status.NewWaits),
			zap.Int("max_open", status.MaxOpen))
	}

	if status.Saturated {
		h.logger.Warn("all connections are in use",
			zap.Int("max_open", status.MaxOpen))
	}
}

// GetStatus returns the current health status
func (h *HealthMonitor) GetStatus() *HealthStatus {
	stats := h.source.Stats()

	h.mu.Lock()
	newWaits := stats.WaitCount - h.lastWaitCount
	h.lastWaitCount = stats.WaitCount
	h.mu.Unlock()

	return &HealthStatus{
		MaxOpen:   stats.MaxOpenConnections,
		Open:      stats.OpenConnections,
		InUse:     stats.InUse,
		Idle:      stats.Idle,
		WaitCount: stats.WaitCount,
		NewWaits:  newWaits,
		Saturated: stats.MaxOpenConnections > 0 && stats.InUse >= stats.MaxOpenConnections,
		Timestamp: time.Now(),
	}
}
