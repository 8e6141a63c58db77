package client

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/jitsucom/crashnative/channel"
	"github.com/jitsucom/crashnative/crashes"
	"github.com/jitsucom/crashnative/locks/inmemory"
	"github.com/jitsucom/crashnative/logging"
	"github.com/jitsucom/crashnative/metrics"
	"github.com/jitsucom/crashnative/safego"
	"github.com/jitsucom/crashnative/session"
	"github.com/jitsucom/crashnative/system"
	"github.com/jitsucom/crashnative/telemetry"
	"github.com/jitsucom/crashnative/transport"
	"github.com/jitsucom/crashnative/uuid"
	"go.uber.org/atomic"
)

var (
	errNotConfigured = errors.New("Client isn't configured")
	errNotStarted    = errors.New("Client isn't started")
)

//Client captures crashes and telemetry. Items tracked before Start are buffered in memory
type Client struct {
	//lifecycleMu serializes Configure, Start and Close. The crash path never takes it
	lifecycleMu sync.Mutex
	configured  atomic.Bool
	started     atomic.Bool
	closed      atomic.Bool
	userID      atomic.String

	cfg Config

	queue     *telemetry.Queue
	collector *telemetry.Collector

	store    *crashes.Store
	uploader *crashes.Uploader

	provider *telemetry.ContextProvider
	tc       *telemetry.Context
	tracker  *session.Tracker
	channel  *channel.Channel
	storage  *channel.Storage

	handlerMu            sync.RWMutex
	internalErrorHandler func(error)
}

//NewUnconfigured returns Client which buffers tracked items until Configure and Start
func NewUnconfigured() *Client {
	return &Client{
		queue:     telemetry.NewQueue(telemetry.DefaultQueueCapacity),
		collector: &telemetry.Collector{},
	}
}

//New returns configured Client
func New(cfg Config, deps Dependencies) (*Client, error) {
	c := NewUnconfigured()
	if err := c.Configure(cfg, deps); err != nil {
		return nil, err
	}
	return c, nil
}

//Configure wires the client. Configuration errors are returned immediately; second call returns ErrAlreadyConfigured
func (c *Client) Configure(cfg Config, deps Dependencies) error {
	c.lifecycleMu.Lock()
	defer c.lifecycleMu.Unlock()

	if c.configured.Load() {
		return ErrAlreadyConfigured
	}
	if err := cfg.validate(); err != nil {
		return fmt.Errorf("Invalid client configuration: %v", err)
	}
	if err := deps.validate(); err != nil {
		return fmt.Errorf("Invalid client dependencies: %v", err)
	}
	cfg.setDefaults()

	sender := deps.Sender
	if sender == nil {
		sender = transport.NewHTTPSender(nil, cfg.SDK.Name+"/"+cfg.SDK.Version)
	}
	connectivity := deps.Connectivity
	if connectivity == nil {
		connectivity = transport.InterfacesProbe{}
	}
	lockFactory := deps.LockFactory
	if lockFactory == nil {
		lockFactory = inmemory.NewLockFactory()
	}

	environment := crashEnvironment(cfg)
	c.store = crashes.NewStore(deps.Files, cfg.CrashesFolder, cfg.SDK, func() crashes.Environment {
		return environment
	}, c.reportInternalError)
	c.uploader = crashes.NewUploader(c.store, sender, connectivity, lockFactory, cfg.CrashesEndpoint, cfg.AppID, c.reportInternalError)

	storage, err := channel.NewStorage(context.Background(), deps.Files, cfg.ChannelFolder, cfg.ChannelMaxSizeBytes, cfg.ChannelMaxFiles)
	if err != nil {
		return fmt.Errorf("Error creating telemetry storage: %v", err)
	}
	channelSender, err := channel.NewSender(storage, sender, connectivity, channel.SenderConfig{
		SendInterval: cfg.SendInterval,
		PoolSize:     cfg.SenderPoolSize,
		MaxPerSecond: cfg.SenderMaxPerSecond,
	})
	if err != nil {
		return fmt.Errorf("Error creating telemetry sender: %v", err)
	}
	c.storage = storage
	c.channel = channel.New(storage, channelSender, channel.Config{
		Endpoint:         cfg.TelemetryEndpoint,
		MaxBatchSize:     cfg.MaxBatchSize,
		MaxBatchInterval: cfg.MaxBatchInterval,
	})

	initializers := deps.Initializers
	if initializers == nil {
		initializers = []telemetry.ContextInitializer{
			&telemetry.DeviceInitializer{},
			&telemetry.ComponentInitializer{Version: cfg.AppVersion},
			&telemetry.UserInitializer{Settings: deps.Settings},
		}
	}
	c.provider = telemetry.NewContextProvider(cfg.InstrumentationKey, cfg.SDK.Name+":"+cfg.SDK.Version, initializers...)
	c.tracker = session.NewTracker(deps.Settings, session.EmitterFunc(c.track), cfg.SessionTimeout)

	c.cfg = cfg
	c.configured.Store(true)

	return nil
}

//crashEnvironment is computed eagerly: it is used on the crash path
func crashEnvironment(cfg Config) crashes.Environment {
	info := system.GetInfo()
	return crashes.Environment{
		Package:          cfg.AppPackage,
		Version:          cfg.AppVersion,
		OS:               info.OS + " " + info.OSVersion,
		Model:            info.Model,
		CrashReporterKey: info.DeviceID,
	}
}

//Start initializes telemetry context and session, then sends items buffered before start
func (c *Client) Start(ctx context.Context) error {
	c.lifecycleMu.Lock()
	defer c.lifecycleMu.Unlock()

	if !c.configured.Load() {
		return errNotConfigured
	}
	if c.started.Load() || c.closed.Load() {
		return nil
	}

	c.store.SweepTemp(ctx)

	tc, err := c.provider.Get(ctx)
	if err != nil {
		return fmt.Errorf("Error initializing telemetry context: %v", err)
	}
	c.tc = tc
	c.userID.Store(tc.User.ID)

	c.channel.Start()
	state := c.tracker.Initialize(ctx)
	logging.Debugf("Session [%s] has been initialized: %s", c.tracker.SessionID(), state)

	c.queue.DrainInto(c.dispatch)
	c.started.Store(true)

	return nil
}

//Suspend persists session state and telemetry buffer. Call it when the host goes to background
func (c *Client) Suspend(ctx context.Context) error {
	if !c.isStarted() {
		return errNotStarted
	}

	c.channel.Flush(ctx)
	return c.tracker.HandleStop(ctx)
}

//Resume re-evaluates the session. Call it when the host comes to foreground
func (c *Client) Resume(ctx context.Context) session.State {
	if !c.isStarted() {
		return session.Unknown
	}

	return c.tracker.HandleResume(ctx)
}

//Close persists buffered telemetry and stops background goroutines
func (c *Client) Close() error {
	c.lifecycleMu.Lock()
	defer c.lifecycleMu.Unlock()

	if !c.configured.Load() || !c.closed.CAS(false, true) {
		return nil
	}

	if c.started.Load() {
		if err := c.tracker.HandleStop(context.Background()); err != nil {
			logging.Errorf("Error persisting session state on close: %v", err)
		}
	}
	c.channel.Close()
	return nil
}

//OnInternalError sets the handler of SDK internal errors. By default they are logged only
func (c *Client) OnInternalError(handler func(error)) {
	c.handlerMu.Lock()
	defer c.handlerMu.Unlock()

	c.internalErrorHandler = handler
}

func (c *Client) reportInternalError(err error) {
	logging.SystemError(err)

	c.handlerMu.RLock()
	handler := c.internalErrorHandler
	c.handlerMu.RUnlock()

	if handler != nil {
		handler(err)
	}
}

//recoverInternal must be deferred in every public method which runs SDK logic on behalf of the host
func (c *Client) recoverInternal() {
	if r := recover(); r != nil {
		c.reportInternalError(fmt.Errorf("internal panic: %v\n%s", r, debug.Stack()))
	}
}

//HandlePanic records the panic as a crash and re-panics. Usage: defer client.HandlePanic()
func (c *Client) HandlePanic() {
	r := recover()
	if r == nil {
		return
	}

	c.recordPanic(r, debug.Stack())
	panic(r)
}

func (c *Client) recordPanic(value interface{}, stack []byte) {
	defer c.recoverInternal()

	if !c.isConfigured() {
		logging.Error("Panic can't be recorded: client isn't configured")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.CrashFlushTimeout)
	defer cancel()

	record := c.store.RecordFromPanic(value, stack, crashes.Details{UserID: c.userID.Load()})
	c.store.SaveSafe(ctx, record)

	done := make(chan struct{})
	safego.Run(func() {
		defer close(done)
		c.channel.Flush(ctx)
	})

	select {
	case <-done:
	case <-ctx.Done():
		logging.Warnf("Telemetry flush on crash exceeded %s", c.cfg.CrashFlushTimeout)
	}
}

//TrackError saves err as a crash record. Returns false if it hasn't been saved
func (c *Client) TrackError(err error, description string) bool {
	defer c.recoverInternal()

	if err == nil || !c.isConfigured() {
		return false
	}

	record := c.store.RecordFromError(err, crashes.Details{Description: description, UserID: c.userID.Load()})
	return c.store.SaveSafe(context.Background(), record)
}

//SaveCrash saves a crash report built by an outer process (e.g. submitted to the agent)
func (c *Client) SaveCrash(ctx context.Context, log string, details crashes.Details) (*crashes.Record, error) {
	if !c.isConfigured() {
		return nil, errNotConfigured
	}
	if log == "" {
		return nil, errors.New("crash log can't be empty")
	}

	record := c.store.NewRecord(log, details)
	if err := c.store.Save(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

//SendCrashes runs one crash upload pass. Returns true if at least one crash has been sent
func (c *Client) SendCrashes(ctx context.Context) (sent bool) {
	defer c.recoverInternal()

	if !c.isConfigured() {
		return false
	}
	return c.uploader.SendAllAndDeleteOnSuccess(ctx)
}

//PendingCrashes returns stored crash file names
func (c *Client) PendingCrashes(ctx context.Context) ([]string, error) {
	if !c.isConfigured() {
		return nil, errNotConfigured
	}
	return c.store.ListPending(ctx)
}

func (c *Client) TrackEvent(name string, properties map[string]string, measurements map[string]float64) {
	c.Track(telemetry.NewEvent(name, properties, measurements))
}

func (c *Client) TrackTrace(message string, severity telemetry.SeverityLevel, properties map[string]string) {
	c.Track(telemetry.NewTrace(message, severity, properties))
}

func (c *Client) TrackMetric(name string, value float64, properties map[string]string) {
	c.Track(telemetry.NewMetric(name, value, properties))
}

func (c *Client) TrackPageView(name, url string, duration time.Duration, properties map[string]string) {
	c.Track(telemetry.NewPageView(name, url, duration, properties))
}

func (c *Client) TrackException(err error, properties map[string]string) {
	if err == nil {
		return
	}
	c.Track(telemetry.NewException(err, telemetry.Error, properties))
}

func (c *Client) TrackDependency(dependencyType, target, name string, success bool, duration time.Duration, properties map[string]string) {
	c.Track(telemetry.NewDependency(dependencyType, target, name, success, duration, properties))
}

func (c *Client) TrackRequest(name, url, responseCode string, success bool, duration time.Duration, properties map[string]string) {
	c.Track(telemetry.NewRequest(uuid.NewCompact(), name, url, responseCode, success, duration, properties))
}

//Track tracks a prebuilt item
func (c *Client) Track(item *telemetry.Item) {
	defer c.recoverInternal()

	c.collector.Item(item.Kind())
	metrics.ItemTracked(string(item.Kind()))
	c.track(item)
}

func (c *Client) track(item *telemetry.Item) {
	if c.queue.Enqueue(item) {
		return
	}
	c.dispatch(item)
}

//dispatch stamps the item and hands it to the channel. It is called only after Start
func (c *Client) dispatch(item *telemetry.Item) {
	c.tracker.InitializeItem(item)
	c.tc.Stamp(item)
	c.channel.Send(item)
}

//Flush persists buffered telemetry and triggers background sending
func (c *Client) Flush(ctx context.Context) {
	defer c.recoverInternal()

	if c.isStarted() {
		c.channel.Flush(ctx)
	}
}

//FlushAndSend persists buffered telemetry and sends stored transmissions synchronously
func (c *Client) FlushAndSend(ctx context.Context) int {
	if !c.isConfigured() {
		return 0
	}
	return c.channel.FlushAndSend(ctx)
}

//Status is a snapshot of pending work
type Status struct {
	PendingCrashes  int                       `json:"pending_crashes"`
	QueuedItems     int                       `json:"queued_items"`
	BufferedItems   int                       `json:"buffered_items"`
	Transmissions   channel.Stats             `json:"transmissions"`
	SessionID       string                    `json:"session_id,omitempty"`
	TrackedSinceCut map[telemetry.Kind]uint64 `json:"tracked_since_last_status"`
}

//Status returns pending crashes and transmissions
func (c *Client) Status(ctx context.Context) (*Status, error) {
	if !c.isConfigured() {
		return nil, errNotConfigured
	}

	crashFiles, err := c.store.ListPending(ctx)
	if err != nil {
		return nil, err
	}
	stats, err := c.storage.Stats(ctx)
	if err != nil {
		return nil, err
	}

	return &Status{
		PendingCrashes:  len(crashFiles),
		QueuedItems:     c.queue.Len(),
		BufferedItems:   c.channel.Buffered(),
		Transmissions:   stats,
		SessionID:       c.tracker.SessionID(),
		TrackedSinceCut: c.collector.Cut(),
	}, nil
}

func (c *Client) isConfigured() bool {
	return c.configured.Load()
}

func (c *Client) isStarted() bool {
	return c.started.Load()
}
