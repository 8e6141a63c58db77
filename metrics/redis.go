package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var redisErrors *prometheus.CounterVec

func initRedis() {
	redisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "settings",
		Name:      "redis_errors",
	}, []string{"error_type"})
}

func RedisErrors(errorType string) {
	if Enabled {
		redisErrors.WithLabelValues(errorType).Inc()
	}
}
