package safego

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
)

func TestHandlePanicAndRestart(t *testing.T) {
	defer func() {
		if r := recover(); r != nil {
			t.Fail()
		}
	}()

	GlobalRecoverHandler = func(value interface{}) {
	}

	counter := atomic.NewInt64(0)

	RunWithRestart(func() {
		counter.Inc()
		panic("panic")
	}).WithRestartTimeout(50 * time.Millisecond)

	require.Eventually(t, func() bool { return counter.Load() > 1 }, 5*time.Second, 10*time.Millisecond, "counter must be > 1")
	require.Eventually(t, func() bool { return counter.Load() > 2 }, 5*time.Second, 10*time.Millisecond, "counter must be > 2")
}

func TestRunWithoutRestart(t *testing.T) {
	GlobalRecoverHandler = func(value interface{}) {
	}

	counter := atomic.NewInt64(0)
	Run(func() {
		counter.Inc()
		panic("panic")
	})

	time.Sleep(100 * time.Millisecond)
	require.Equal(t, int64(1), counter.Load())
}
