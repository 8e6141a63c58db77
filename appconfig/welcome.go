package appconfig

import (
	"github.com/jitsucom/crashnative/logging"
)

func logWelcomeBanner(version string) {
	logging.Infof("\nWelcome to crashnative agent %s\n  * Crash and telemetry capture-and-upload pipeline\n", version)
}
