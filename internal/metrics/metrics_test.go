package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestNewRegistry(t *testing.T) {
	reg := NewRegistry()
	if reg == nil {
		t.Fatal("expected non-nil registry")
	}
}

func TestRegistry_HTTPMetrics(t *testing.T) {
	reg := NewRegistry()

	// Verify HTTP metrics are registered
	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}

	// Should have go runtime metrics at minimum
	if len(mfs) == 0 {
		t.Error("expected some metrics to be registered")
	}
}

func TestRegistry_RecordRequest(t *testing.T) {
	reg := NewRegistry()

	reg.RecordRequest("POST", "/api/backtest", 200, 0.05)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}

	found := false
	for _, mf := range mfs {
		if mf.GetName() == "http_requests_total" {
			found = true
			break
		}
	}
	if !found {
		t.Error("expected http_requests_total metric")
	}
}

func TestRegistry_RecordRequest_StatusCodes(t *testing.T) {
	tests := []struct {
		status   int
		expected string
	}{
		{100, "1xx"},
		{200, "2xx"},
		{201, "2xx"},
		{301, "3xx"},
		{400, "4xx"},
		{404, "4xx"},
		{500, "5xx"},
		{503, "5xx"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			reg := NewRegistry()
			reg.RecordRequest("GET", "/test", tt.status, 0.01)

			mfs, err := reg.Gather()
			if err != nil {
				t.Fatalf("gather failed: %v", err)
			}

			found := false
			for _, mf := range mfs {
				if mf.GetName() == "http_requests_total" {
					for _, m := range mf.GetMetric() {
						for _, label := range m.GetLabel() {
							if label.GetName() == "status" && label.GetValue() == tt.expected {
								found = true
							}
						}
					}
				}
			}
			if !found {
				t.Errorf("expected status label %s for status code %d", tt.expected, tt.status)
			}
		})
	}
}

func TestRegistry_InFlight(t *testing.T) {
	reg := NewRegistry()

	reg.InFlightInc()
	reg.InFlightInc()
	reg.InFlightDec()

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}

	found := false
	for _, mf := range mfs {
		if mf.GetName() == "http_requests_in_flight" {
			found = true
			for _, m := range mf.GetMetric() {
				if m.GetGauge().GetValue() != 1 {
					t.Errorf("expected in-flight gauge to be 1, got %v", m.GetGauge().GetValue())
				}
			}
		}
	}
	if !found {
		t.Error("expected http_requests_in_flight metric")
	}
}

func TestRegistry_RecordBacktest(t *testing.T) {
	reg := NewRegistry()

	reg.RecordBacktest("success", 0.25, 3)
	reg.RecordBacktest("error", 0.01, 0)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}

	statuses := map[string]bool{}
	var durationSamples, tradeSamples uint64
	var tradesSum float64
	for _, mf := range mfs {
		switch mf.GetName() {
		case "stratlab_backtests_total":
			for _, m := range mf.GetMetric() {
				for _, label := range m.GetLabel() {
					if label.GetName() == "status" {
						statuses[label.GetValue()] = true
					}
				}
			}
		case "stratlab_backtest_duration_seconds":
			for _, m := range mf.GetMetric() {
				durationSamples = m.GetHistogram().GetSampleCount()
			}
		case "stratlab_backtest_trades":
			for _, m := range mf.GetMetric() {
				tradeSamples = m.GetHistogram().GetSampleCount()
				tradesSum = m.GetHistogram().GetSampleSum()
			}
		}
	}
	if !statuses["success"] || !statuses["error"] {
		t.Errorf("expected both success and error status labels, got %v", statuses)
	}
	if durationSamples != 2 {
		t.Errorf("expected 2 duration samples, got %d", durationSamples)
	}
	if tradeSamples != 1 {
		t.Errorf("expected trades observed only for the successful run, got %d samples", tradeSamples)
	}
	if tradesSum != 3 {
		t.Errorf("expected trades sum 3, got %v", tradesSum)
	}
}

func TestRegistry_RecordProviderRequest(t *testing.T) {
	reg := NewRegistry()

	reg.RecordProviderRequest("success", 250)
	reg.RecordProviderRequest("error", 0)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}

	var barsSum float64
	var barSamples uint64
	statuses := map[string]bool{}
	for _, mf := range mfs {
		switch mf.GetName() {
		case "stratlab_provider_requests_total":
			for _, m := range mf.GetMetric() {
				for _, label := range m.GetLabel() {
					if label.GetName() == "status" {
						statuses[label.GetValue()] = true
					}
				}
			}
		case "stratlab_provider_bars":
			for _, m := range mf.GetMetric() {
				barSamples = m.GetHistogram().GetSampleCount()
				barsSum = m.GetHistogram().GetSampleSum()
			}
		}
	}
	if !statuses["success"] || !statuses["error"] {
		t.Errorf("expected both success and error status labels, got %v", statuses)
	}
	if barSamples != 1 {
		t.Errorf("expected bars observed only for the successful fetch, got %d samples", barSamples)
	}
	if barsSum != 250 {
		t.Errorf("expected bars sum 250, got %v", barsSum)
	}
}

func TestRegistry_RecordPersistenceError(t *testing.T) {
	reg := NewRegistry()

	reg.RecordPersistenceError()
	reg.RecordPersistenceError()

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}

	for _, mf := range mfs {
		if mf.GetName() == "stratlab_persistence_errors_total" {
			for _, m := range mf.GetMetric() {
				if m.GetCounter().GetValue() != 2 {
					t.Errorf("expected counter 2, got %v", m.GetCounter().GetValue())
				}
			}
			return
		}
	}
	t.Error("expected stratlab_persistence_errors_total metric")
}

// Ensure the registry implements prometheus.Gatherer interface
func TestRegistry_ImplementsGatherer(t *testing.T) {
	reg := NewRegistry()
	var _ prometheus.Gatherer = reg
}
