package controllers

import (
	"context"
	"net/http"

	"github.com/birrflow/birrflow-backend/api/responses"
	"github.com/birrflow/birrflow-backend/pkg/config"
	"github.com/birrflow/birrflow-backend/pkg/logger"
)

type pinger interface {
	Ping(ctx context.Context) error
}

// HealthLive reports process liveness.
func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]any{
			"status": "ok",
			"env":    cfg.App.Env,
		})
	}
}

// HealthReady reports readiness, checking downstream dependencies.
func HealthReady(cfg *config.Config, logg *logger.Logger, database, cache pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		checks := map[string]string{}
		healthy := true

		if database != nil {
			if err := database.Ping(ctx); err != nil {
				healthy = false
				checks["database"] = "unreachable"
				logg.Warn(logg.WithFields(ctx, map[string]any{"error": err.Error()}), "health.database.unreachable")
			} else {
				checks["database"] = "ok"
			}
		}
		if cache != nil {
			if err := cache.Ping(ctx); err != nil {
				healthy = false
				checks["redis"] = "unreachable"
				logg.Warn(logg.WithFields(ctx, map[string]any{"error": err.Error()}), "health.redis.unreachable")
			} else {
				checks["redis"] = "ok"
			}
		}

		status := http.StatusOK
		state := "ready"
		if !healthy {
			status = http.StatusServiceUnavailable
			state = "degraded"
		}
		responses.WriteSuccessStatus(w, status, map[string]any{
			"status": state,
			"env":    cfg.App.Env,
			"checks": checks,
		})
	}
}
