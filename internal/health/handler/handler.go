// Package handler serves liveness and readiness probes.
package handler

import (
	"context"
	"log"
	"net/http"
	"time"

	"crm-campaigns/backend/internal/platform/httpx"
)

// pingTimeout bounds the readiness database check.
const pingTimeout = 2 * time.Second

// Pinger checks a dependency. *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Server serves /health and /ready.
type Server struct {
	db Pinger
}

// NewServer returns a health server. db may be nil, in which case readiness always succeeds.
func NewServer(db Pinger) *Server {
	return &Server{db: db}
}

// Health reports that the process is up. It never touches dependencies.
func (s *Server) Health(w http.ResponseWriter, _ *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready reports whether the database is reachable.
func (s *Server) Ready(w http.ResponseWriter, r *http.Request) {
	if s.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
		defer cancel()
		if err := s.db.PingContext(ctx); err != nil {
			log.Printf("health: database ping failed: %v", err)
			httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
