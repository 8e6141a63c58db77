package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	crashesSaved      prometheus.Counter
	crashesUploaded   prometheus.Counter
	crashesDiscarded  *prometheus.CounterVec
	crashesRetryLater prometheus.Counter
	uploadPassesBusy  prometheus.Counter
)

func initCrashes() {
	crashesSaved = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "crashes",
		Name:      "saved",
	})
	crashesUploaded = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "crashes",
		Name:      "uploaded",
	})
	crashesDiscarded = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "crashes",
		Name:      "discarded",
	}, []string{"reason"})
	crashesRetryLater = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "crashes",
		Name:      "retry_later",
	})
	uploadPassesBusy = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "crashes",
		Name:      "upload_passes_rejected",
	})
}

func CrashSaved() {
	if Enabled {
		crashesSaved.Inc()
	}
}

func CrashUploaded() {
	if Enabled {
		crashesUploaded.Inc()
	}
}

func CrashDiscarded(reason string) {
	if Enabled {
		crashesDiscarded.WithLabelValues(reason).Inc()
	}
}

func CrashRetryLater() {
	if Enabled {
		crashesRetryLater.Inc()
	}
}

func UploadPassRejected() {
	if Enabled {
		uploadPassesBusy.Inc()
	}
}
