package metrics

import (
	"sync"
)

const namespace = "crashnative"

var (
	Enabled = false
	once    sync.Once
)

//Init registers all collectors once
func Init(enabled bool) {
	Enabled = enabled
	if Enabled {
		once.Do(func() {
			initCrashes()
			initChannel()
			initTelemetry()
			initRedis()
		})
	}
}
