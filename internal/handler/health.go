package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/segyhp/lending-engine/pkg/response"
)

const (
	checkOK       = "ok"
	checkDisabled = "disabled"
)

// Pinger is satisfied by *sqlx.DB and *sql.DB
type Pinger interface {
	PingContext(ctx context.Context) error
}

type dependency struct {
	name  string
	probe func(ctx context.Context) error
}

type HealthHandler struct {
	deps     []dependency
	disabled []string
	timeout  time.Duration
	started  time.Time
}

// NewHealthHandler creates the health endpoints. redis may be nil when the
// service runs without it.
func NewHealthHandler(db Pinger, rdb *redis.Client, timeout time.Duration) *HealthHandler {
	h := &HealthHandler{timeout: timeout, started: time.Now()}

	if db != nil {
		h.deps = append(h.deps, dependency{name: "database", probe: db.PingContext})
	}
	if rdb != nil {
		h.deps = append(h.deps, dependency{name: "redis", probe: func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}})
	} else {
		h.disabled = append(h.disabled, "redis")
	}

	return h
}

type HealthStatus struct {
	Status    string            `json:"status"`
	Uptime    string            `json:"uptime,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// Health handles GET /health. It never touches dependencies.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	response.Success(w, HealthStatus{
		Status:    checkOK,
		Uptime:    time.Since(h.started).Truncate(time.Second).String(),
		Timestamp: time.Now(),
	})
}

// Ready handles GET /health/ready, answering 503 when any dependency fails
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	status := HealthStatus{
		Status:    checkOK,
		Timestamp: time.Now(),
		Checks:    make(map[string]string, len(h.deps)+len(h.disabled)),
	}
	for _, name := range h.disabled {
		status.Checks[name] = checkDisabled
	}
	for _, dep := range h.deps {
		if err := dep.probe(ctx); err != nil {
			status.Status = "error"
			status.Checks[dep.name] = "failed: " + err.Error()
			continue
		}
		status.Checks[dep.name] = checkOK
	}

	if status.Status != checkOK {
		response.JSON(w, http.StatusServiceUnavailable, status)
		return
	}

	response.Success(w, status)
}
