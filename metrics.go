package sirc

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Registry is the Prometheus registry used by this package.
	Registry = prometheus.NewRegistry()

	linesReceived = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "sirc_lines_received_total",
			Help: "Parsed lines received from the server, by command",
		},
		[]string{"command"},
	)

	linesSent = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Name: "sirc_lines_sent_total",
			Help: "Lines written to the server",
		},
	)

	linesDropped = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "sirc_lines_dropped_total",
			Help: "Incoming lines discarded because they could not be decoded or parsed",
		},
		[]string{"reason"},
	)

	queueDepth = promauto.With(Registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "sirc_outbound_queue_depth",
			Help: "Lines waiting in the outbound queue",
		},
	)
)
