package routers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/jitsucom/crashnative/client"
	"github.com/jitsucom/crashnative/crashes"
	"github.com/jitsucom/crashnative/handlers"
	"github.com/jitsucom/crashnative/meta"
	"github.com/jitsucom/crashnative/middleware"
	"github.com/jitsucom/crashnative/storages"
	"github.com/jitsucom/crashnative/telemetry"
	"github.com/jitsucom/crashnative/transport"
	"github.com/stretchr/testify/require"
)

const testToken = "secret"

type countingSender struct {
	mu    sync.Mutex
	count int
}

func (cs *countingSender) Send(ctx context.Context, req *transport.Request) (*transport.Response, error) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.count++
	return &transport.Response{StatusCode: 200}, nil
}

func newTestRouter(t *testing.T) (http.Handler, *client.Client, *transport.StaticConnectivity) {
	settings := meta.NewInMemory()
	connectivity := transport.NewStaticConnectivity(true)
	c, err := client.New(client.Config{
		SDK:                crashes.SDKInfo{Name: "crashnative", Version: "1.0.0"},
		AppID:              "app1",
		InstrumentationKey: "ikey",
	}, client.Dependencies{
		Files:        storages.NewInMemory(),
		Settings:     settings,
		Sender:       &countingSender{},
		Connectivity: connectivity,
		Initializers: []telemetry.ContextInitializer{&telemetry.UserInitializer{Settings: settings}},
	})
	require.NoError(t, err)
	require.NoError(t, c.Start(context.Background()))
	t.Cleanup(func() { c.Close() })

	return SetupRouter(c, connectivity, testToken), c, connectivity
}

func doRequest(t *testing.T, router http.Handler, method, path string, body interface{}, response interface{}) int {
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(middleware.TokenHeader, testToken)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if response != nil {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), response), w.Body.String())
	}
	return w.Code
}

func TestCrashesAPI(t *testing.T) {
	router, _, _ := newTestRouter(t)

	saved := &handlers.CrashSavedResponse{}
	require.Equal(t, http.StatusOK, doRequest(t, router, http.MethodPost, "/api/v1/crashes",
		handlers.CrashRequest{Log: "Package: x\n\npanic: boom", Description: "crashed on start"}, saved))
	require.NotEmpty(t, saved.ID)

	require.Equal(t, http.StatusBadRequest, doRequest(t, router, http.MethodPost, "/api/v1/crashes", map[string]string{"description": "no log"}, nil))

	list := &handlers.CrashesListResponse{}
	require.Equal(t, http.StatusOK, doRequest(t, router, http.MethodGet, "/api/v1/crashes", nil, list))
	require.Equal(t, []string{crashes.FileName(saved.ID)}, list.Files)

	sent := &handlers.CrashesSentResponse{}
	require.Equal(t, http.StatusOK, doRequest(t, router, http.MethodPost, "/api/v1/crashes/send", nil, sent))
	require.True(t, sent.Sent)

	require.Equal(t, http.StatusOK, doRequest(t, router, http.MethodGet, "/api/v1/crashes", nil, list))
	require.Empty(t, list.Files)
}

func TestTrackAPI(t *testing.T) {
	router, c, _ := newTestRouter(t)

	require.Equal(t, http.StatusOK, doRequest(t, router, http.MethodPost, "/api/v1/track", handlers.TrackRequest{
		Kind:       "event",
		Name:       "checkout",
		Properties: map[string]interface{}{"items": 3},
	}, nil))
	require.Equal(t, http.StatusOK, doRequest(t, router, http.MethodPost, "/api/v1/track", handlers.TrackRequest{
		Kind:      "exception",
		Exception: &handlers.ExceptionRequest{TypeName: "IOError", Message: "disk failure"},
	}, nil))
	require.Equal(t, http.StatusBadRequest, doRequest(t, router, http.MethodPost, "/api/v1/track", handlers.TrackRequest{Kind: "unknown"}, nil))
	require.Equal(t, http.StatusBadRequest, doRequest(t, router, http.MethodPost, "/api/v1/track", handlers.TrackRequest{Kind: "event"}, nil))

	status, err := c.Status(context.Background())
	require.NoError(t, err)
	require.Equal(t, uint64(1), status.TrackedSinceCut[telemetry.EventKind])
	require.Equal(t, uint64(1), status.TrackedSinceCut[telemetry.ExceptionKind])
}

func TestLifecycleAPI(t *testing.T) {
	router, _, connectivity := newTestRouter(t)

	require.Equal(t, http.StatusOK, doRequest(t, router, http.MethodPost, "/api/v1/lifecycle/suspend", nil, nil))

	resumed := &handlers.LifecycleResponse{}
	require.Equal(t, http.StatusOK, doRequest(t, router, http.MethodPost, "/api/v1/lifecycle/resume", nil, resumed))
	require.Equal(t, "active_continued_session", resumed.State)

	require.Equal(t, http.StatusOK, doRequest(t, router, http.MethodPost, "/api/v1/lifecycle/offline", nil, nil))
	require.False(t, connectivity.IsOnline())

	require.Equal(t, http.StatusBadRequest, doRequest(t, router, http.MethodPost, "/api/v1/lifecycle/reboot", nil, nil))
}

func TestUnauthorized(t *testing.T) {
	router, _, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/status", nil))
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.Equal(t, http.StatusOK, w.Code)
}
