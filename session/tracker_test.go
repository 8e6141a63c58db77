package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jitsucom/crashnative/meta"
	"github.com/jitsucom/crashnative/telemetry"
	"github.com/jitsucom/crashnative/timestamp"
	"github.com/stretchr/testify/require"
)

type recordingEmitter struct {
	mu    sync.Mutex
	items []*telemetry.Item
}

func (re *recordingEmitter) Emit(item *telemetry.Item) {
	re.mu.Lock()
	defer re.mu.Unlock()
	re.items = append(re.items, item)
}

func (re *recordingEmitter) states() []telemetry.SessionState {
	re.mu.Lock()
	defer re.mu.Unlock()

	var states []telemetry.SessionState
	for _, item := range re.items {
		states = append(states, item.Data.BaseData.(*telemetry.SessionStateData).State)
	}
	return states
}

func (re *recordingEmitter) reset() {
	re.mu.Lock()
	defer re.mu.Unlock()
	re.items = nil
}

var stopAt = time.Date(2021, 3, 10, 12, 0, 0, 0, time.UTC)

func TestFirstSession(t *testing.T) {
	timestamp.SetFreezedTime(stopAt)
	defer timestamp.UnfreezeTime()

	emitter := &recordingEmitter{}
	tracker := NewTracker(meta.NewInMemory(), emitter, 0)

	require.Equal(t, NoPriorSession, tracker.Initialize(context.Background()))
	require.NotEmpty(t, tracker.SessionID())
	require.True(t, tracker.IsFirst())
	require.Equal(t, []telemetry.SessionState{telemetry.SessionStart}, emitter.states())
	require.Equal(t, tracker.SessionID(), emitter.items[0].Tags[telemetry.TagSessionID])
}

func TestSessionContinuationBoundary(t *testing.T) {
	tests := []struct {
		name          string
		elapsed       time.Duration
		expectedState State
		expectedItems []telemetry.SessionState
	}{
		{"just before timeout", 19999 * time.Millisecond, ActiveContinuedSession, nil},
		{"exactly timeout", 20 * time.Second, NewSession, []telemetry.SessionState{telemetry.SessionEnd, telemetry.SessionStart}},
		{"long after timeout", time.Hour, NewSession, []telemetry.SessionState{telemetry.SessionEnd, telemetry.SessionStart}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			timestamp.SetFreezedTime(stopAt)
			defer timestamp.UnfreezeTime()

			settings := meta.NewInMemory()
			emitter := &recordingEmitter{}

			previous := NewTracker(settings, emitter, DefaultTimeout)
			previous.Initialize(context.Background())
			priorID := previous.SessionID()
			require.NoError(t, previous.HandleStop(context.Background()))

			timestamp.Advance(tt.elapsed)
			emitter.reset()

			tracker := NewTracker(settings, emitter, DefaultTimeout)
			require.Equal(t, tt.expectedState, tracker.Initialize(context.Background()))
			require.Equal(t, tt.expectedItems, emitter.states())
			require.False(t, tracker.IsFirst())

			if tt.expectedState == ActiveContinuedSession {
				require.Equal(t, priorID, tracker.SessionID())
				return
			}

			require.NotEqual(t, priorID, tracker.SessionID())
			end := emitter.items[0]
			require.Equal(t, priorID, end.Tags[telemetry.TagSessionID])
			require.True(t, stopAt.Equal(end.Time))
			require.Equal(t, tracker.SessionID(), emitter.items[1].Tags[telemetry.TagSessionID])
		})
	}
}

func TestResumeUsesInMemoryStop(t *testing.T) {
	timestamp.SetFreezedTime(stopAt)
	defer timestamp.UnfreezeTime()

	emitter := &recordingEmitter{}
	tracker := NewTracker(meta.NewInMemory(), emitter, 10*time.Second)
	tracker.Initialize(context.Background())
	first := tracker.SessionID()

	require.NoError(t, tracker.HandleStop(context.Background()))
	timestamp.Advance(5 * time.Second)
	require.Equal(t, ActiveContinuedSession, tracker.HandleResume(context.Background()))
	require.Equal(t, first, tracker.SessionID())

	require.NoError(t, tracker.HandleStop(context.Background()))
	timestamp.Advance(10 * time.Second)
	emitter.reset()
	require.Equal(t, NewSession, tracker.HandleResume(context.Background()))
	require.NotEqual(t, first, tracker.SessionID())
	require.Equal(t, []telemetry.SessionState{telemetry.SessionEnd, telemetry.SessionStart}, emitter.states())
}

func TestResumeWithoutStopKeepsLiveSession(t *testing.T) {
	timestamp.SetFreezedTime(stopAt)
	defer timestamp.UnfreezeTime()

	settings := meta.NewInMemory()
	previous := NewTracker(settings, nil, DefaultTimeout)
	previous.Initialize(context.Background())
	require.NoError(t, previous.HandleStop(context.Background()))
	timestamp.Advance(time.Hour)

	emitter := &recordingEmitter{}
	tracker := NewTracker(settings, emitter, DefaultTimeout)
	require.Equal(t, NewSession, tracker.Initialize(context.Background()))
	live := tracker.SessionID()

	emitter.reset()
	require.Equal(t, ActiveContinuedSession, tracker.HandleResume(context.Background()))
	require.Empty(t, emitter.states())
	require.Equal(t, live, tracker.SessionID())
}

func TestRepeatedResumeMeasuresFromLastStop(t *testing.T) {
	timestamp.SetFreezedTime(stopAt)
	defer timestamp.UnfreezeTime()

	emitter := &recordingEmitter{}
	tracker := NewTracker(meta.NewInMemory(), emitter, DefaultTimeout)
	tracker.Initialize(context.Background())
	live := tracker.SessionID()

	require.NoError(t, tracker.HandleStop(context.Background()))
	timestamp.Advance(10 * time.Second)
	require.Equal(t, ActiveContinuedSession, tracker.HandleResume(context.Background()))

	timestamp.Advance(15 * time.Second)
	emitter.reset()
	require.Equal(t, ActiveContinuedSession, tracker.HandleResume(context.Background()))
	require.Empty(t, emitter.states())
	require.Equal(t, live, tracker.SessionID())
}

func TestInitializeItemIsNonDestructive(t *testing.T) {
	tracker := NewTracker(meta.NewInMemory(), nil, 0)
	tracker.Initialize(context.Background())

	own := telemetry.NewEvent("e", nil, nil)
	own.Tags[telemetry.TagSessionID] = "caller-session"
	tracker.InitializeItem(own)
	require.Equal(t, "caller-session", own.Tags[telemetry.TagSessionID])
	require.Equal(t, "true", own.Tags[telemetry.TagSessionIsFirst])

	plain := telemetry.NewEvent("e", nil, nil)
	tracker.InitializeItem(plain)
	require.Equal(t, tracker.SessionID(), plain.Tags[telemetry.TagSessionID])
}
