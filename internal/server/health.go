package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/hlog"

	"github.com/andrasnagy-data/feedback/internal/shared/config"
)

type (
	pinger interface {
		Ping(ctx context.Context) error
	}

	// HealthSrvc handles business logic for health check functionality
	HealthSrvc struct {
		db      pinger
		version string
	}

	// HealthResponse represents the response structure for health check endpoint
	HealthResponse struct {
		Status    string    `json:"status"`
		Version   string    `json:"version"`
		Timestamp time.Time `json:"timestamp"`
		Database  bool      `json:"database"`
	}
)

func NewHealthHandler(srvc *HealthSrvc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		logger := hlog.FromRequest(r)

		response := srvc.check(ctx)

		w.Header().Set("Content-Type", "application/json")

		if response.Database {
			logger.Debug().Msg("Database healthcheck ok")
			w.WriteHeader(http.StatusOK)
		} else {
			logger.Error().Msg("Database healthcheck failed")
			w.WriteHeader(http.StatusServiceUnavailable)
		}

		if err := json.NewEncoder(w).Encode(response); err != nil {
			logger.Error().Err(err).Msg("Failed to encode health check response")
		}
	}
}

func NewHealthSrvc(pool *pgxpool.Pool, cfg *config.Config) *HealthSrvc {
	return &HealthSrvc{db: pool, version: cfg.Version}
}

func (s *HealthSrvc) check(ctx context.Context) HealthResponse {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	dbOk := s.db.Ping(ctx) == nil

	status := "serving"
	if !dbOk {
		status = "not serving"
	}
	return HealthResponse{
		Status:    status,
		Version:   s.version,
		Timestamp: time.Now().UTC(),
		Database:  dbOk,
	}
}
