package timestamp

import (
	"sync"
	"time"

	"go.uber.org/atomic"
)

var (
	// The value of freezed time that is used in all tests
	freezedTime   = time.Date(2020, 06, 16, 23, 0, 0, 0, time.UTC)
	freezedTimeMu sync.RWMutex

	// Indicator shows that time was freezed or was not freezed
	timeFreezed = atomic.NewBool(false)
)

func Now() time.Time {
	if timeFreezed.Load() {
		freezedTimeMu.RLock()
		defer freezedTimeMu.RUnlock()
		return freezedTime
	}
	return time.Now()
}

func FreezeTime() {
	timeFreezed.Store(true)
}

//SetFreezedTime freezes time at t
func SetFreezedTime(t time.Time) {
	freezedTimeMu.Lock()
	freezedTime = t
	freezedTimeMu.Unlock()
	timeFreezed.Store(true)
}

//Advance moves freezed time forward by d
func Advance(d time.Duration) {
	freezedTimeMu.Lock()
	freezedTime = freezedTime.Add(d)
	freezedTimeMu.Unlock()
}

func UnfreezeTime() {
	timeFreezed.Store(false)
}
