package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/recipevault/recipevault/internal/metrics"
)

func TestMetrics_Exposition(t *testing.T) {
	recorder := metrics.NewInMemory()
	recorder.IncAuthAllowed()
	recorder.IncAuthAllowed()
	recorder.IncAuthDenied()
	recorder.IncKeyCacheHit()
	recorder.IncRecipeCreated()
	recorder.IncAttachmentAssigned()
	recorder.ObserveVerifyDuration(250 * time.Millisecond)

	h := NewMetricsHandler(recorder)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	h.Metrics(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("Content-Type = %q, want text/plain exposition", ct)
	}

	body := rec.Body.String()
	expected := []string{
		`recipevault_auth_decisions_total{effect="allow"} 2`,
		`recipevault_auth_decisions_total{effect="deny"} 1`,
		"recipevault_key_cache_hits_total 1",
		"recipevault_key_cache_misses_total 0",
		"recipevault_verify_duration_seconds_count 1",
		"recipevault_verify_duration_seconds_sum 0.250000",
		"recipevault_recipes_created_total 1",
		"recipevault_recipes_updated_total 0",
		"recipevault_attachments_assigned_total 1",
	}
	for _, line := range expected {
		if !strings.Contains(body, line) {
			t.Errorf("exposition missing %q, got:\n%s", line, body)
		}
	}
}

func TestMetrics_NilSnapshotter(t *testing.T) {
	h := NewMetricsHandler(nil)

	rec := httptest.NewRecorder()
	h.Metrics(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}
