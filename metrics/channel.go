package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	transmissionsEnqueued prometheus.Counter
	transmissionsDropped  prometheus.Counter
	transmissionsSent     prometheus.Counter
	transmissionsFailed   prometheus.Counter
	storageSizeBytes      prometheus.Gauge
	storageFiles          prometheus.Gauge
)

func initChannel() {
	transmissionsEnqueued = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "channel",
		Name:      "transmissions_enqueued",
	})
	transmissionsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "channel",
		Name:      "transmissions_dropped",
	})
	transmissionsSent = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "channel",
		Name:      "transmissions_sent",
	})
	transmissionsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "channel",
		Name:      "transmissions_failed",
	})
	storageSizeBytes = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "channel",
		Name:      "storage_size_bytes",
	})
	storageFiles = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "channel",
		Name:      "storage_files",
	})
}

func TransmissionEnqueued() {
	if Enabled {
		transmissionsEnqueued.Inc()
	}
}

func TransmissionDropped() {
	if Enabled {
		transmissionsDropped.Inc()
	}
}

func TransmissionSent() {
	if Enabled {
		transmissionsSent.Inc()
	}
}

func TransmissionFailed() {
	if Enabled {
		transmissionsFailed.Inc()
	}
}

func StorageUsage(sizeBytes int64, files int) {
	if Enabled {
		storageSizeBytes.Set(float64(sizeBytes))
		storageFiles.Set(float64(files))
	}
}
