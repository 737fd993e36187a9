package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestMetricsManagerCreation(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewManager(
		WithNamespace("test"),
		WithSubsystem("unit"),
		WithPrometheusRegistry(registry),
	)
	if m == nil {
		t.Fatal("manager is nil")
	}
	if m.namespace != "test" || m.subsystem != "unit" {
		t.Errorf("options not applied: %s/%s", m.namespace, m.subsystem)
	}

	// Counters without observations do not appear yet; force one.
	m.providerCacheHits.Inc()
	families, err := registry.Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}
	if len(families) == 0 {
		t.Error("no metric families registered")
	}
}

func TestMetricsOptionsValidation(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewManager(
		WithNamespace(""),
		WithSubsystem(""),
		WithHistogramBuckets(nil),
		WithPrometheusRegistry(registry),
	)
	if m.namespace != "vireo" || m.subsystem != "recommender" {
		t.Errorf("empty options should keep defaults: %s/%s", m.namespace, m.subsystem)
	}
	if len(m.histogramBuckets) == 0 {
		t.Error("nil buckets should keep defaults")
	}
}

func TestGlobalHelpers(t *testing.T) {
	// The global manager is initialized in init(); helpers must not panic.
	RecordProviderRequest("observations", "ok")
	RecordProviderRequest("observations", "error")
	RecordCacheHit()
	RecordCacheMiss()
	UpdateTaxonomySize(17000)
	RecordModelRequest()
	RecordModelError()
	RecordModelLatency(1.25)
	ObserveRecommendations("day_window", 4)
	RecordRecommenderError("model")
	RecordEvalDatapoint()
	RecordEvalError()
	RecordHTTPRequest("recommendations", "POST", "200")
	RecordHTTPRequestDuration("recommendations", "POST", "200", 12.5)

	if GetRegistry() == nil {
		t.Fatal("custom registry is nil")
	}
	families, err := GetRegistry().Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}
	if len(families) == 0 {
		t.Error("expected registered metric families")
	}
}
