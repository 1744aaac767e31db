package api

import (
	"context"
	"net/http"
	"time"

	"github.com/phrazzld/portrait-generator/internal/api/shared"
	"github.com/phrazzld/portrait-generator/internal/redact"
)

// Health statuses.
const (
	HealthOK       = "ok"
	HealthDegraded = "degraded"
	HealthFailed   = "failed"
)

// HealthProbe checks one dependency. A non-nil error marks it failed.
type HealthProbe func(ctx context.Context) error

// HealthHandler serves GET /health.
type HealthHandler struct {
	version  string
	model    string
	required map[string]HealthProbe
	optional map[string]HealthProbe
	timeout  time.Duration
}

// NewHealthHandler creates a HealthHandler reporting the build version and
// the configured image model.
func NewHealthHandler(version, model string) *HealthHandler {
	return &HealthHandler{
		version:  version,
		model:    model,
		required: map[string]HealthProbe{},
		optional: map[string]HealthProbe{},
		timeout:  3 * time.Second,
	}
}

// Require adds a probe whose failure makes the service unavailable.
func (h *HealthHandler) Require(name string, probe HealthProbe) *HealthHandler {
	h.required[name] = probe
	return h
}

// Optional adds a probe whose failure only degrades the service.
func (h *HealthHandler) Optional(name string, probe HealthProbe) *HealthHandler {
	h.optional[name] = probe
	return h
}

// Check runs every probe. It is shared by the endpoint and the
// health-check command.
func (h *HealthHandler) Check(ctx context.Context) HealthResponse {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	resp := HealthResponse{
		Status:    HealthOK,
		Version:   h.version,
		Model:     h.model,
		Checks:    map[string]HealthCheck{},
		Timestamp: time.Now().UTC(),
	}
	for name, probe := range h.required {
		check := runProbe(ctx, probe)
		if check.Status != HealthOK {
			resp.Status = HealthFailed
		}
		resp.Checks[name] = check
	}
	for name, probe := range h.optional {
		check := runProbe(ctx, probe)
		if check.Status != HealthOK && resp.Status == HealthOK {
			resp.Status = HealthDegraded
		}
		resp.Checks[name] = check
	}
	return resp
}

// ServeHTTP answers 200, or 503 when a required probe fails.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	resp := h.Check(r.Context())
	status := http.StatusOK
	if resp.Status == HealthFailed {
		status = http.StatusServiceUnavailable
	}
	shared.RespondWithJSON(w, r, status, resp)
}

func runProbe(ctx context.Context, probe HealthProbe) HealthCheck {
	if err := probe(ctx); err != nil {
		return HealthCheck{Status: HealthFailed, Detail: redact.Error(err)}
	}
	return HealthCheck{Status: HealthOK}
}
