// Package metrics exposes Prometheus metrics on a side listener,
// separate from the API port.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// TokensIssued counts locally issued access tokens by client class.
	TokensIssued = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "telemetry_device_tokens_issued_total",
		Help: "Access tokens issued by the local trust domain, by client class.",
	}, []string{"client"})

	// AuthFailures counts rejected authentication attempts by surface.
	// The label names the endpoint class, never the failing check.
	AuthFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "telemetry_device_auth_failures_total",
		Help: "Rejected authentication attempts, by surface.",
	}, []string{"surface"})

	// PairingChallenges counts issued pairing challenges.
	PairingChallenges = promauto.NewCounter(prometheus.CounterOpts{
		Name: "telemetry_device_pairing_challenges_total",
		Help: "Pairing challenge envelopes issued.",
	})
)

// MetricsServer serves the Prometheus scrape endpoint.
type MetricsServer struct {
	srv *http.Server
}

// New creates a metrics server listening on addr.
func New(addr string) (*MetricsServer, error) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	return &MetricsServer{
		srv: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
	}, nil
}

// ListenAndServe blocks serving the scrape endpoint.
func (m *MetricsServer) ListenAndServe() error {
	return m.srv.ListenAndServe()
}

// Shutdown gracefully stops the metrics server.
func (m *MetricsServer) Shutdown(ctx context.Context) error {
	return m.srv.Shutdown(ctx)
}
