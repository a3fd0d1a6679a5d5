package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/eivy/smartir-learn/metrics"
)

func TestMetricsEndpoint(t *testing.T) {
	// Create a new registry to avoid conflicts
	registry := prometheus.NewRegistry()

	collector := metrics.NewCollector()
	registry.MustRegister(collector)

	// Update some test metrics
	collector.CommandLearned(true, 1200*time.Millisecond)
	collector.CommandLearned(false, 30*time.Second)
	collector.CellSkipped()

	// Create HTTP server with metrics handler
	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	body := w.Body.String()

	// Check for expected metrics
	expectedMetrics := []string{
		"smartir_learn_commands_total",
		"smartir_learn_cells_skipped_total",
		"smartir_learn_last_capture_duration_seconds",
		"smartir_learn_last_update_timestamp",
	}

	for _, metric := range expectedMetrics {
		if !strings.Contains(body, metric) {
			t.Errorf("Expected metric %s not found in output", metric)
		}
	}

	// Check for labels
	if !strings.Contains(body, `result="captured"`) {
		t.Error("Expected captured result label not found")
	}

	if !strings.Contains(body, `result="timeout"`) {
		t.Error("Expected timeout result label not found")
	}

	t.Logf("Metrics output:\n%s", body)
}

func TestNilCollectorIsSafe(t *testing.T) {
	var collector *metrics.Collector
	collector.CommandLearned(true, time.Second)
	collector.CellSkipped()
}
