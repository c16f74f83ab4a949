package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestServeRegistersMetrics(t *testing.T) {
	srv := Serve(":0")
	defer srv.Close()

	OutcomesTotal.WithLabelValues("sell", "executed").Inc()
	BroadcastsTotal.WithLabelValues("limit_order_create").Inc()

	mfs, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	found := map[string]bool{}
	for _, mf := range mfs {
		found[mf.GetName()] = true
	}
	if !found["outcomes_total"] || !found["broadcasts_total"] {
		t.Fatalf("expected outcomes_total and broadcasts_total to be registered, got %v", found)
	}
}
