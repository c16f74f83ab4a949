package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	OutcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "outcomes_total", Help: "Per-account outcomes by operation and decision"},
		[]string{"operation", "decision"},
	)
	BroadcastsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "broadcasts_total", Help: "Transactions broadcast to the chain"},
		[]string{"operation"},
	)
)

func init() {
	prometheus.MustRegister(OutcomesTotal, BroadcastsTotal)
}

// Serve exposes /metrics on addr for runs that are scraped while active.
func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
