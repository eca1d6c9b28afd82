package http

import (
	"context"
	"net/http"
	"time"
)

// HealthChecker probes a dependency.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// HealthHandler serves liveness plus detection service reachability. The
// endpoint answers 200 as long as this process is up.
type HealthHandler struct {
	detection HealthChecker
	timeout   time.Duration
}

func NewHealthHandler(detection HealthChecker) *HealthHandler {
	return &HealthHandler{detection: detection, timeout: 2 * time.Second}
}

type healthResponse struct {
	Status         string `json:"status"`
	Detection      string `json:"detection"`
	DetectionError string `json:"detectionError,omitempty"`
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Detection: "reachable"}
	if h.detection == nil {
		resp.Detection = "unconfigured"
		writeJSON(w, http.StatusOK, resp)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()
	if err := h.detection.Health(ctx); err != nil {
		resp.Detection = "unreachable"
		resp.DetectionError = err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}
