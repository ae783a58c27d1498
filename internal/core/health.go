package core

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// HealthStatus represents the health state of the faceover service
type HealthStatus struct {
	Status           string  `json:"status"` // "healthy", "degraded", "unhealthy"
	UptimeSeconds    int64   `json:"uptime_seconds"`
	CaptureConnected bool    `json:"capture_connected"`
	CaptureFPS       float64 `json:"capture_fps"`
	MQTTConnected    bool    `json:"mqtt_connected"`
	FramesCaptured   uint64  `json:"frames_captured"`
	FramesRendered   uint64  `json:"frames_rendered"`
	RenderErrors     uint64  `json:"render_errors"`
	SkippedNoFrame   uint64  `json:"skipped_no_frame"`
}

// HealthCheck returns the current health status of the service
func (a *App) HealthCheck() HealthStatus {
	a.mu.RLock()
	running := a.isRunning
	started := a.started
	a.mu.RUnlock()

	capStats := a.provider.Stats()
	pipeStats := a.pipe.Stats()

	status := HealthStatus{
		Status:           "healthy",
		UptimeSeconds:    int64(time.Since(started).Seconds()),
		CaptureConnected: capStats.IsConnected,
		CaptureFPS:       capStats.FPSReal,
		FramesCaptured:   capStats.FrameCount,
		FramesRendered:   pipeStats.Rendered,
		RenderErrors:     pipeStats.RenderErrors,
		SkippedNoFrame:   pipeStats.SkippedNoFrame,
	}

	if a.mqttClient != nil && a.mqttClient.IsConnected() {
		status.MQTTConnected = true
	}

	if !running {
		status.Status = "unhealthy"
	} else if !status.CaptureConnected {
		status.Status = "degraded"
	}

	return status
}

// LivenessHandler handles /health (simple liveness check)
func (a *App) LivenessHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status": "alive",
		"uptime": int64(time.Since(a.started).Seconds()),
	})
}

// ReadinessHandler handles /readiness (detailed readiness check)
func (a *App) ReadinessHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	health := a.HealthCheck()
	statusCode := http.StatusOK
	if health.Status == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}

	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(health)
}

// StartHealthServer starts the HTTP health check server on the given port.
// Runs in a separate goroutine and does not block.
func (a *App) StartHealthServer(port int) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", a.LivenessHandler)
	mux.HandleFunc("/readiness", a.ReadinessHandler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	slog.Info("starting health check server",
		"port", port,
		"endpoints", []string{"/health", "/readiness"},
	)

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("health check server failed", "error", err)
		}
	}()
}
