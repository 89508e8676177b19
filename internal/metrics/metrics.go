// Package metrics exposes Prometheus collectors for provider traffic,
// snapshot loads and the HTTP API.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "muckraker"

// Registry holds every collector of this process. A dedicated registry keeps
// tests independent of the global default one.
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

var (
	ProviderRequests = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "provider",
		Name:      "requests_total",
		Help:      "Requests sent to the campaign finance provider.",
	}, []string{"endpoint", "outcome"})

	ProviderLatency = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "provider",
		Name:      "request_duration_seconds",
		Help:      "Latency of provider requests.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"endpoint"})

	SnapshotLoads = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "snapshot",
		Name:      "loads_total",
		Help:      "Snapshot loads by source.",
	}, []string{"source"})

	SnapshotRecords = factory.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "snapshot",
		Name:      "records",
		Help:      "Records in the most recently loaded snapshot.",
	}, []string{"kind"})

	HTTPRequests = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests served.",
	}, []string{"route", "status"})
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// Handler serves the registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
