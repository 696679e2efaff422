package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

const readinessTimeout = 5 * time.Second

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

type dependencyCheck struct {
	name  string
	probe func(ctx context.Context) error
}

// HealthHandler serves the liveness and readiness probes. Readiness
// checks every configured dependency and reports each one by name.
type HealthHandler struct {
	checks []dependencyCheck
}

// NewHealthHandler builds the probes. A nil pool or redis client is
// skipped, which is how the ledger runs without the idempotency cache.
func NewHealthHandler(pool Pinger, redisClient redis.Cmdable) *HealthHandler {
	h := &HealthHandler{}
	if pool != nil {
		h.checks = append(h.checks, dependencyCheck{name: "postgres", probe: pool.Ping})
	}
	if redisClient != nil {
		h.checks = append(h.checks, dependencyCheck{name: "redis", probe: func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}})
	}
	return h
}

func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readiness answers 503 when any dependency fails its ping.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	body := map[string]string{"status": "ready"}
	code := http.StatusOK
	for _, c := range h.checks {
		if err := c.probe(ctx); err != nil {
			body[c.name] = err.Error()
			body["status"] = "unavailable"
			code = http.StatusServiceUnavailable
			continue
		}
		body[c.name] = "ok"
	}

	writeJSON(w, code, body)
}
