package api

import (
	"context"
	"net/http"
	"runtime"
	"sort"
	"time"

	"github.com/nerrad567/gray-logic-sockclient/internal/sockclient"
)

// healthCheckTimeout bounds each dependency check.
const healthCheckTimeout = 2 * time.Second

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status     string            `json:"status"`
	State      string            `json:"state"`
	ClientID   string            `json:"client_id"`
	Version    string            `json:"version"`
	Components map[string]string `json:"components,omitempty"`
}

// SystemMetrics is the body of GET /metrics.
type SystemMetrics struct {
	Timestamp     string         `json:"timestamp"`
	Version       string         `json:"version"`
	UptimeSeconds int64          `json:"uptime_seconds"`
	Runtime       RuntimeMetrics `json:"runtime"`
	Client        ClientMetrics  `json:"client"`
}

// RuntimeMetrics contains Go runtime statistics.
type RuntimeMetrics struct {
	Goroutines    int     `json:"goroutines"`
	MemoryAllocMB float64 `json:"memory_alloc_mb"`
	MemoryTotalMB float64 `json:"memory_total_mb"`
	NumGC         uint32  `json:"num_gc"`
}

// ClientMetrics mirrors sockclient.Stats.
type ClientMetrics struct {
	State               string `json:"state"`
	ConnectAttempts     uint64 `json:"connect_attempts"`
	ReconnectsScheduled uint64 `json:"reconnects_scheduled"`
	Failures            uint64 `json:"failures"`
	PermanentFailures   uint64 `json:"permanent_failures"`
	MessagesReceived    uint64 `json:"messages_received"`
	HandlerErrors       uint64 `json:"handler_errors"`
	LiveSubscriptions   int    `json:"live_subscriptions"`
}

// handleHealth reports the connection state. It answers 503 unless the
// client is connected; failing components are listed but do not change
// the status code.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	state := s.client.State()
	resp := HealthResponse{
		Status:   "ok",
		State:    state.String(),
		ClientID: s.client.ID(),
		Version:  s.version,
	}

	if len(s.checks) > 0 {
		resp.Components = make(map[string]string, len(s.checks))
		names := make([]string, 0, len(s.checks))
		for name := range s.checks {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
			err := s.checks[name].HealthCheck(ctx)
			cancel()
			if err != nil {
				resp.Components[name] = err.Error()
				continue
			}
			resp.Components[name] = "ok"
		}
	}

	status := http.StatusOK
	if state != sockclient.StateConnected {
		resp.Status = "unavailable"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

// handleMetrics returns runtime and client counters.
func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	stats := s.client.Stats()
	writeJSON(w, http.StatusOK, SystemMetrics{
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Version:       s.version,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		Runtime: RuntimeMetrics{
			Goroutines:    runtime.NumGoroutine(),
			MemoryAllocMB: float64(memStats.Alloc) / 1024 / 1024,
			MemoryTotalMB: float64(memStats.TotalAlloc) / 1024 / 1024,
			NumGC:         memStats.NumGC,
		},
		Client: ClientMetrics{
			State:               stats.State.String(),
			ConnectAttempts:     stats.ConnectAttempts,
			ReconnectsScheduled: stats.ReconnectsScheduled,
			Failures:            stats.Failures,
			PermanentFailures:   stats.PermanentFailures,
			MessagesReceived:    stats.MessagesReceived,
			HandlerErrors:       stats.HandlerErrors,
			LiveSubscriptions:   stats.LiveSubscriptions,
		},
	})
}
