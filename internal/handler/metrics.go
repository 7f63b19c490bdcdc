package handler

import (
	"fmt"
	"net/http"

	"github.com/recipevault/recipevault/internal/metrics"
)

// MetricsHandler exposes in-memory metrics.
type MetricsHandler struct {
	snapshotter metrics.Snapshotter
}

// NewMetricsHandler creates a new MetricsHandler.
func NewMetricsHandler(snapshotter metrics.Snapshotter) *MetricsHandler {
	return &MetricsHandler{snapshotter: snapshotter}
}

// Metrics returns metrics in Prometheus exposition format.
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.snapshotter == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	snap := h.snapshotter.Snapshot()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	writeMetric(w, "recipevault_auth_decisions_total{effect=\"allow\"} %d\n", snap.AuthAllowed)
	writeMetric(w, "recipevault_auth_decisions_total{effect=\"deny\"} %d\n", snap.AuthDenied)

	writeMetric(w, "recipevault_key_cache_hits_total %d\n", snap.KeyCacheHits)
	writeMetric(w, "recipevault_key_cache_misses_total %d\n", snap.KeyCacheMisses)
	writeMetric(w, "recipevault_verify_duration_seconds_count %d\n", snap.VerifyDurationCount)
	writeMetric(w, "recipevault_verify_duration_seconds_sum %.6f\n", float64(snap.VerifyDurationTotalNs)/1e9)

	writeMetric(w, "recipevault_recipes_created_total %d\n", snap.RecipesCreated)
	writeMetric(w, "recipevault_recipes_updated_total %d\n", snap.RecipesUpdated)
	writeMetric(w, "recipevault_recipes_deleted_total %d\n", snap.RecipesDeleted)
	writeMetric(w, "recipevault_attachments_assigned_total %d\n", snap.AttachmentsAssigned)
}

func writeMetric(w http.ResponseWriter, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
