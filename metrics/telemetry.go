package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	trackedItems      *prometheus.CounterVec
	preInitDropped    prometheus.Counter
	initializerErrors *prometheus.CounterVec
)

func initTelemetry() {
	trackedItems = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "telemetry",
		Name:      "items",
	}, []string{"kind"})
	preInitDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "telemetry",
		Name:      "preinit_queue_dropped",
	})
	initializerErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "telemetry",
		Name:      "context_initializer_errors",
	}, []string{"initializer"})
}

func ItemTracked(kind string) {
	if Enabled {
		trackedItems.WithLabelValues(kind).Inc()
	}
}

func PreInitItemDropped() {
	if Enabled {
		preInitDropped.Inc()
	}
}

func ContextInitializerError(initializer string) {
	if Enabled {
		initializerErrors.WithLabelValues(initializer).Inc()
	}
}
