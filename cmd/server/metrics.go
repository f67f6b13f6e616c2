package main

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type metrics struct {
	requests *prometheus.CounterVec
	failures prometheus.Counter
	running  prometheus.Gauge
	relayed  prometheus.Counter
}

func newMetrics(reg prometheus.Registerer) *metrics {
	f := promauto.With(reg)
	return &metrics{
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "prnd",
			Name:      "spawn_requests_total",
			Help:      "Spawn requests received, by body kind.",
		}, []string{"kind"}),
		failures: f.NewCounter(prometheus.CounterOpts{
			Namespace: "prnd",
			Name:      "spawn_failures_total",
			Help:      "Spawn requests rejected or failed to start.",
		}),
		running: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "prnd",
			Name:      "peas_running",
			Help:      "Peas started by this agent and not yet stopped.",
		}),
		relayed: f.NewCounter(prometheus.CounterOpts{
			Namespace: "prnd",
			Name:      "log_records_relayed_total",
			Help:      "Output lines relayed to spawners.",
		}),
	}
}

// serveMetrics exposes g on addr in the background.
func serveMetrics(addr string, g prometheus.Gatherer) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		logger.Info().Str("addr", addr).Msg("metrics listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics server failed")
		}
	}()
	return srv
}
