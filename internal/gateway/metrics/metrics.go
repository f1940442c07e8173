package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	gateDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "admingate",
		Subsystem: "gate",
		Name:      "decisions_total",
		Help:      "Access gate decisions by outcome.",
	}, []string{"outcome"})

	handshakeResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "admingate",
		Subsystem: "session",
		Name:      "handshake_results_total",
		Help:      "Session startup handshake outcomes.",
	}, []string{"result"})

	identityRequests = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "admingate",
		Subsystem: "identity",
		Name:      "request_duration_seconds",
		Help:      "Latency of calls to the backend identity endpoints.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"endpoint", "outcome"})
)

// ObserveGateDecision counts one access gate decision.
func ObserveGateDecision(outcome string) {
	gateDecisions.WithLabelValues(outcome).Inc()
}

// ObserveHandshake counts one session startup resolution.
func ObserveHandshake(result string) {
	handshakeResults.WithLabelValues(result).Inc()
}

// ObserveIdentityRequest records one backend identity call.
func ObserveIdentityRequest(endpoint string, elapsed time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	identityRequests.WithLabelValues(endpoint, outcome).Observe(elapsed.Seconds())
}
