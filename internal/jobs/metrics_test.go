package jobmetrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestTrackerRecordsOutcomes(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewMetrics(registry)

	if err := metrics.Track("mail_send").End(nil); err != nil {
		t.Fatalf("success run returned %v", err)
	}

	failure := errors.New("smtp down")
	if err := metrics.Track("mail_send").End(failure); !errors.Is(err, failure) {
		t.Fatalf("tracker must return the error untouched, got %v", err)
	}

	if got := testutil.ToFloat64(metrics.runs.WithLabelValues("mail_send", "success")); got != 1 {
		t.Fatalf("success runs = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.runs.WithLabelValues("mail_send", "failure")); got != 1 {
		t.Fatalf("failure runs = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.failures.WithLabelValues("mail_send")); got != 1 {
		t.Fatalf("failures = %v, want 1", got)
	}
}

func TestNilTrackerPassesErrorsThrough(t *testing.T) {
	var metrics *Metrics
	failure := errors.New("boom")
	if err := metrics.Track("job").End(failure); !errors.Is(err, failure) {
		t.Fatalf("nil metrics tracker must pass the error through, got %v", err)
	}
}
