package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// HealthStatus reports database reachability for the /health endpoint.
type HealthStatus struct {
	Healthy bool   `json:"healthy"`
	Latency string `json:"latency"`
	Error   string `json:"error,omitempty"`
}

// CheckHealth pings the database with a short deadline.
func CheckHealth(ctx context.Context, pool *pgxpool.Pool) HealthStatus {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	start := time.Now()
	err := pool.Ping(ctx)
	latency := time.Since(start)

	status := HealthStatus{
		Healthy: err == nil,
		Latency: latency.String(),
	}
	if err != nil {
		status.Error = err.Error()
	}
	return status
}
