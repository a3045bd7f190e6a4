package services

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	api "consolidator/pkg/contracts/api/v1"
)

// HealthService provides health check functionality
type HealthService struct {
	version   string
	startTime time.Time
	now       func() time.Time
	logger    *slog.Logger
}

// NewHealthService creates a new health service
func NewHealthService(version string, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("HealthService initialized", slog.String("version", version))

	return &HealthService{
		version:   version,
		startTime: time.Now(),
		now:       time.Now,
		logger:    logger,
	}
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) api.HealthResponse {
	now := hs.now()
	status := api.HealthResponse{
		Status:    "ok",
		Version:   hs.version,
		Timestamp: now.UTC(),
		Uptime:    now.Sub(hs.startTime).Round(time.Second).String(),
		GoVersion: runtime.Version(),
	}

	hs.logger.DebugContext(ctx, "HealthCheck: completed",
		slog.String("status", status.Status),
		slog.String("uptime", status.Uptime))
	return status
}
