package session

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/jitsucom/crashnative/logging"
	"github.com/jitsucom/crashnative/meta"
	"github.com/jitsucom/crashnative/telemetry"
	"github.com/jitsucom/crashnative/timestamp"
	"github.com/jitsucom/crashnative/uuid"
)

const DefaultTimeout = 20 * time.Second

//State is the result of the last session evaluation
type State int

const (
	Unknown State = iota
	NoPriorSession
	ActiveContinuedSession
	NewSession
)

func (s State) String() string {
	switch s {
	case NoPriorSession:
		return "no_prior_session"
	case ActiveContinuedSession:
		return "active_continued_session"
	case NewSession:
		return "new_session"
	default:
		return "unknown"
	}
}

//Emitter receives session boundary items
type Emitter interface {
	Emit(item *telemetry.Item)
}

//EmitterFunc is an adapter to allow the use of ordinary functions as Emitter
type EmitterFunc func(item *telemetry.Item)

func (f EmitterFunc) Emit(item *telemetry.Item) {
	f(item)
}

//Tracker decides session continuation on start/resume and persists session state on stop
type Tracker struct {
	mu       sync.Mutex
	settings meta.Storage
	emitter  Emitter
	timeout  time.Duration

	id       string
	isFirst  bool
	stopTime time.Time
	state    State
}

func NewTracker(settings meta.Storage, emitter Emitter, timeout time.Duration) *Tracker {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Tracker{
		settings: settings,
		emitter:  emitter,
		timeout:  timeout,
	}
}

//Initialize reads the persisted session and evaluates it against the current time
func (t *Tracker) Initialize(ctx context.Context) State {
	priorID, priorStop, ok := t.readPersisted(ctx)

	t.mu.Lock()
	emit := t.evaluate(priorID, priorStop, ok)
	state := t.state
	t.mu.Unlock()

	t.emitAll(emit)
	return state
}

//HandleStop persists current session id and stop time. It is the only place session state is saved
func (t *Tracker) HandleStop(ctx context.Context) error {
	t.mu.Lock()
	id := t.id
	t.stopTime = timestamp.Now()
	stopTime := t.stopTime
	t.mu.Unlock()

	if id == "" {
		return nil
	}

	if err := t.settings.WriteAllText(ctx, meta.SessionIDKey, id); err != nil {
		return fmt.Errorf("Error persisting session id: %v", err)
	}
	if err := t.settings.WriteAllText(ctx, meta.SessionStopTimeKey, stopTime.UTC().Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("Error persisting session stop time: %v", err)
	}

	return nil
}

//HandleResume evaluates the live session against the stop time recorded by HandleStop.
//Persisted state is used only if no session has been initialized yet
func (t *Tracker) HandleResume(ctx context.Context) State {
	t.mu.Lock()
	priorID, priorStop := t.id, t.stopTime
	if priorID != "" && priorStop.IsZero() {
		//resumed without a recorded stop
		t.state = ActiveContinuedSession
		t.mu.Unlock()
		return ActiveContinuedSession
	}
	t.mu.Unlock()

	ok := priorID != ""
	if !ok {
		priorID, priorStop, ok = t.readPersisted(ctx)
	}

	t.mu.Lock()
	emit := t.evaluate(priorID, priorStop, ok)
	state := t.state
	t.mu.Unlock()

	t.emitAll(emit)
	return state
}

//InitializeItem sets session tags if they aren't already set on the item
func (t *Tracker) InitializeItem(item *telemetry.Item) {
	t.mu.Lock()
	id, isFirst := t.id, t.isFirst
	t.mu.Unlock()

	if id == "" {
		return
	}
	if item.Tags == nil {
		item.Tags = map[string]string{}
	}
	if _, ok := item.Tags[telemetry.TagSessionID]; !ok {
		item.Tags[telemetry.TagSessionID] = id
	}
	if _, ok := item.Tags[telemetry.TagSessionIsFirst]; !ok {
		item.Tags[telemetry.TagSessionIsFirst] = strconv.FormatBool(isFirst)
	}
}

func (t *Tracker) SessionID() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.id
}

func (t *Tracker) IsFirst() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.isFirst
}

func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.state
}

//evaluate must be called under the lock. Returns items which must be emitted after unlocking
func (t *Tracker) evaluate(priorID string, priorStop time.Time, hasPrior bool) []*telemetry.Item {
	now := timestamp.Now()

	if !hasPrior {
		t.start(true)
		t.state = NoPriorSession
		return []*telemetry.Item{t.sessionItem(telemetry.SessionStart, t.id, true, now)}
	}

	if now.Sub(priorStop) < t.timeout {
		t.id = priorID
		t.isFirst = false
		t.stopTime = time.Time{}
		t.state = ActiveContinuedSession
		return nil
	}

	end := t.sessionItem(telemetry.SessionEnd, priorID, false, priorStop)
	t.start(false)
	t.state = NewSession
	logging.Debugf("Session [%s] expired after %s of inactivity. New session: [%s]", priorID, now.Sub(priorStop), t.id)

	return []*telemetry.Item{end, t.sessionItem(telemetry.SessionStart, t.id, false, now)}
}

func (t *Tracker) start(isFirst bool) {
	t.id = uuid.New()
	t.isFirst = isFirst
	t.stopTime = time.Time{}
}

func (t *Tracker) sessionItem(state telemetry.SessionState, id string, isFirst bool, at time.Time) *telemetry.Item {
	item := telemetry.NewSessionState(state)
	item.Time = at.UTC()
	item.Tags[telemetry.TagSessionID] = id
	item.Tags[telemetry.TagSessionIsFirst] = strconv.FormatBool(isFirst)
	return item
}

func (t *Tracker) emitAll(items []*telemetry.Item) {
	if t.emitter == nil {
		return
	}
	for _, item := range items {
		t.emitter.Emit(item)
	}
}

//readPersisted returns persisted session id and stop time. Read errors are logged and treated as absent state
func (t *Tracker) readPersisted(ctx context.Context) (string, time.Time, bool) {
	id, ok, err := t.settings.ReadAllText(ctx, meta.SessionIDKey)
	if err != nil {
		logging.Warnf("Error reading persisted session id: %v", err)
		return "", time.Time{}, false
	}
	if !ok || id == "" {
		return "", time.Time{}, false
	}

	value, ok, err := t.settings.ReadAllText(ctx, meta.SessionStopTimeKey)
	if err != nil {
		logging.Warnf("Error reading persisted session stop time: %v", err)
		return "", time.Time{}, false
	}
	if !ok {
		return "", time.Time{}, false
	}

	stopTime, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		logging.Warnf("Malformed persisted session stop time [%s]: %v", value, err)
		return "", time.Time{}, false
	}

	return id, stopTime, true
}
