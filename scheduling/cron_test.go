package scheduling

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
)

func TestSchedule(t *testing.T) {
	scheduler := NewCronScheduler()
	scheduler.Start()
	defer scheduler.Close()

	runs := atomic.NewInt32(0)
	require.NoError(t, scheduler.Schedule("upload", "@every 1s", func() { runs.Inc() }))
	require.True(t, scheduler.Scheduled("upload"))
	require.Error(t, scheduler.Schedule("upload", "@every 1s", func() {}), "duplicate job")
	require.Error(t, scheduler.Schedule("bad", "not a schedule", func() {}))

	require.Eventually(t, func() bool { return runs.Load() > 0 }, 5*time.Second, 100*time.Millisecond)

	scheduler.Remove("upload")
	require.False(t, scheduler.Scheduled("upload"))
}

func TestPanickingJobKeepsScheduler(t *testing.T) {
	scheduler := NewCronScheduler()
	scheduler.Start()
	defer scheduler.Close()

	runs := atomic.NewInt32(0)
	require.NoError(t, scheduler.Schedule("panics", "@every 1s", func() {
		runs.Inc()
		panic("job failure")
	}))

	require.Eventually(t, func() bool { return runs.Load() > 1 }, 5*time.Second, 100*time.Millisecond)
}
