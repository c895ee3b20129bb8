package metrics

import (
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Package-level Prometheus collectors. They are registered via Register.
var (
	regOK atomic.Bool

	launches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "harvestr",
			Subsystem: "fleet",
			Name:      "launches_total",
			Help:      "Number of monitor launch attempts by outcome.",
		}, []string{"status"},
	)
	fleetSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "harvestr",
			Subsystem: "fleet",
			Name:      "size",
			Help:      "Monitors launched in the current session.",
		},
	)
	sessions = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "harvestr",
			Subsystem: "fleet",
			Name:      "sessions_total",
			Help:      "Number of harvesting sessions started.",
		},
	)
	logWriteFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "harvestr",
			Subsystem: "eventlog",
			Name:      "write_failures_total",
			Help:      "Audit events that could not be appended to a sink.",
		},
	)
)

// Register registers all collectors on reg. Safe to call once; subsequent
// calls are no-ops.
func Register(reg prometheus.Registerer) error {
	if !regOK.CompareAndSwap(false, true) {
		return nil
	}
	for _, c := range []prometheus.Collector{launches, fleetSize, sessions, logWriteFailures} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Handler exposes the default registry over HTTP.
func Handler() http.Handler { return promhttp.Handler() }

func IncSession()         { sessions.Inc() }
func IncLaunchSuccess()   { launches.WithLabelValues("success").Inc(); fleetSize.Inc() }
func IncLaunchFailure()   { launches.WithLabelValues("failure").Inc() }
func IncLogWriteFailure() { logWriteFailures.Inc() }
func ResetFleetSize()     { fleetSize.Set(0) }
