package client

import (
	"context"
	"errors"
	"io"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jitsucom/crashnative/crashes"
	"github.com/jitsucom/crashnative/meta"
	"github.com/jitsucom/crashnative/storages"
	"github.com/jitsucom/crashnative/telemetry"
	"github.com/jitsucom/crashnative/transport"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	mu       sync.Mutex
	requests []*transport.Request
}

func (rs *recordingSender) Send(ctx context.Context, req *transport.Request) (*transport.Response, error) {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	rs.requests = append(rs.requests, req)
	return &transport.Response{StatusCode: 200}, nil
}

func (rs *recordingSender) byURLSuffix(suffix string) []*transport.Request {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	var result []*transport.Request
	for _, req := range rs.requests {
		if strings.HasSuffix(req.URL, suffix) {
			result = append(result, req)
		}
	}
	return result
}

type readOnlyFiles struct {
	*storages.InMemory
}

func (readOnlyFiles) WriteFile(ctx context.Context, folder, name string, content io.Reader) error {
	return errors.New("read-only file system")
}

//blockingInitializer holds the context initialization until release is closed
type blockingInitializer struct {
	entered chan struct{}
	release chan struct{}
}

func (bi *blockingInitializer) Name() string {
	return "blocking"
}

func (bi *blockingInitializer) Initialize(ctx context.Context, tc *telemetry.Context) error {
	close(bi.entered)
	select {
	case <-bi.release:
	case <-ctx.Done():
	}
	return nil
}

func testConfig() Config {
	return Config{
		SDK:                crashes.SDKInfo{Name: "crashnative", Version: "1.0.0"},
		AppID:              "app1",
		AppVersion:         "2.0.0",
		AppPackage:         "com.example.app",
		InstrumentationKey: "ikey",
		TelemetryEndpoint:  "https://dc.example.com",
		CrashesEndpoint:    "https://rink.example.com",
	}
}

func testDependencies(sender transport.Sender) Dependencies {
	settings := meta.NewInMemory()
	return Dependencies{
		Files:        storages.NewInMemory(),
		Settings:     settings,
		Sender:       sender,
		Connectivity: transport.AlwaysOnline{},
		Initializers: []telemetry.ContextInitializer{
			&telemetry.ComponentInitializer{Version: "2.0.0"},
			&telemetry.UserInitializer{Settings: settings},
		},
	}
}

func TestConfigurationErrors(t *testing.T) {
	cfg := testConfig()
	cfg.AppID = ""
	_, err := New(cfg, testDependencies(&recordingSender{}))
	require.Error(t, err)

	_, err = New(testConfig(), Dependencies{Settings: meta.NewInMemory()})
	require.Error(t, err)

	c, err := New(testConfig(), testDependencies(&recordingSender{}))
	require.NoError(t, err)
	defer c.Close()
	require.Equal(t, ErrAlreadyConfigured, c.Configure(testConfig(), testDependencies(&recordingSender{})))
}

func TestItemsTrackedBeforeStartAreSent(t *testing.T) {
	ctx := context.Background()
	sender := &recordingSender{}

	c := NewUnconfigured()
	c.TrackEvent("early", map[string]string{"k": "v"}, nil)
	c.TrackTrace("early trace", telemetry.Information, nil)

	require.NoError(t, c.Configure(testConfig(), testDependencies(sender)))
	require.NoError(t, c.Start(ctx))
	defer c.Close()

	c.TrackMetric("late", 1, nil)
	require.Equal(t, 1, c.FlushAndSend(ctx))

	requests := sender.byURLSuffix("/v2/track")
	require.Len(t, requests, 1)
	require.Equal(t, "https://dc.example.com/v2/track", requests[0].URL)

	items, err := telemetry.DeserializeBatch(requests[0].Body)
	require.NoError(t, err)

	var names []string
	sessionIDs := map[string]bool{}
	for _, item := range items {
		names = append(names, item["name"].(string))
		require.Equal(t, "ikey", item["iKey"])
		tags := item["tags"].(map[string]interface{})
		require.Equal(t, "2.0.0", tags[telemetry.TagApplicationVersion])
		sessionIDs[tags[telemetry.TagSessionID].(string)] = true
	}
	require.Equal(t, []string{
		"Microsoft.ApplicationInsights.ikey.Event",
		"Microsoft.ApplicationInsights.ikey.Message",
		"Microsoft.ApplicationInsights.ikey.SessionState",
		"Microsoft.ApplicationInsights.ikey.Metric",
	}, names)
	require.Len(t, sessionIDs, 1, "all items are stamped with the same session")
}

func TestHandlePanicRecordsCrash(t *testing.T) {
	ctx := context.Background()
	sender := &recordingSender{}
	c, err := New(testConfig(), testDependencies(sender))
	require.NoError(t, err)
	require.NoError(t, c.Start(ctx))
	defer c.Close()

	require.PanicsWithValue(t, "boom", func() {
		defer c.HandlePanic()
		panic("boom")
	})

	pending, err := c.PendingCrashes(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	require.True(t, c.SendCrashes(ctx))
	requests := sender.byURLSuffix("/crashes")
	require.Len(t, requests, 1)
	require.Equal(t, "https://rink.example.com/api/2/apps/app1/crashes", requests[0].URL)

	values, err := url.ParseQuery(string(requests[0].Body))
	require.NoError(t, err)
	require.Contains(t, values.Get("raw"), "Package: com.example.app")
	require.Contains(t, values.Get("raw"), "boom")
	require.NotEmpty(t, values.Get("userID"))

	pending, err = c.PendingCrashes(ctx)
	require.NoError(t, err)
	require.Empty(t, pending)
}

func TestTrackErrorReportsInternalErrors(t *testing.T) {
	deps := testDependencies(&recordingSender{})
	deps.Files = readOnlyFiles{InMemory: storages.NewInMemory()}

	c, err := New(testConfig(), deps)
	require.NoError(t, err)
	defer c.Close()

	var internal []error
	c.OnInternalError(func(err error) {
		internal = append(internal, err)
	})

	require.NotPanics(t, func() {
		require.False(t, c.TrackError(errors.New("handled"), "while saving"))
	})
	require.Len(t, internal, 1)
}

func TestSuspendPersistsSession(t *testing.T) {
	ctx := context.Background()
	deps := testDependencies(&recordingSender{})
	c, err := New(testConfig(), deps)
	require.NoError(t, err)
	require.Error(t, c.Suspend(ctx), "client isn't started")

	require.NoError(t, c.Start(ctx))
	defer c.Close()
	require.NoError(t, c.Suspend(ctx))

	id, ok, err := deps.Settings.ReadAllText(ctx, meta.SessionIDKey)
	require.NoError(t, err)
	require.True(t, ok)

	status, err := c.Status(ctx)
	require.NoError(t, err)
	require.Equal(t, id, status.SessionID)
}

func TestTrackErrorDoesNotWaitForStart(t *testing.T) {
	ctx := context.Background()
	deps := testDependencies(&recordingSender{})
	initializer := &blockingInitializer{entered: make(chan struct{}), release: make(chan struct{})}
	deps.Initializers = append(deps.Initializers, initializer)

	c, err := New(testConfig(), deps)
	require.NoError(t, err)
	defer c.Close()

	started := make(chan error)
	go func() {
		started <- c.Start(ctx)
	}()

	select {
	case <-initializer.entered:
	case <-time.After(5 * time.Second):
		t.Fatal("context initialization hasn't started")
	}

	saved := make(chan bool)
	go func() {
		saved <- c.TrackError(errors.New("boom"), "while starting")
	}()

	select {
	case ok := <-saved:
		require.True(t, ok)
	case <-time.After(time.Second):
		t.Fatal("TrackError waits for context initialization")
	}

	close(initializer.release)
	require.NoError(t, <-started)

	pending, err := c.PendingCrashes(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
}
