package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	Registry = prometheus.NewRegistry()

	// PendingReplies tracks the size of the reply correlation table. The
	// table has no eviction, so a climbing gauge is the operator's signal
	// that peers stopped answering.
	PendingReplies = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "maelnode",
			Name:      "pending_replies",
			Help:      "Number of outstanding requests awaiting a reply.",
		},
	)

	EnvelopesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "maelnode",
			Name:      "envelopes_total",
			Help:      "Total envelopes processed, by direction and body type.",
		},
		[]string{"direction", "type"},
	)

	DecodeFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "maelnode",
			Name:      "decode_failures_total",
			Help:      "Inbound lines dropped by the codec, by failure kind.",
		},
		[]string{"kind"},
	)

	HandlerPanics = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "maelnode",
			Name:      "handler_panics_total",
			Help:      "Handler invocations recovered at the dispatch boundary.",
		},
	)
)

func init() {
	Registry.MustRegister(PendingReplies, EnvelopesTotal, DecodeFailures, HandlerPanics)
}

// Handler exposes the metrics endpoint. Mount it on a side listener; protocol
// output on stdout is never mixed with diagnostics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
