package telemetry

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jitsucom/crashnative/meta"
	"github.com/jitsucom/crashnative/system"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
)

type funcInitializer struct {
	name string
	f    func(ctx context.Context, tc *Context) error
}

func (fi *funcInitializer) Name() string { return fi.name }

func (fi *funcInitializer) Initialize(ctx context.Context, tc *Context) error { return fi.f(ctx, tc) }

func TestProviderIsolatesFailingInitializers(t *testing.T) {
	calls := atomic.NewInt32(0)
	provider := NewContextProvider("ikey", "go:1.0",
		&funcInitializer{name: "failing", f: func(ctx context.Context, tc *Context) error {
			calls.Inc()
			return errors.New("no device info")
		}},
		&funcInitializer{name: "panicking", f: func(ctx context.Context, tc *Context) error {
			calls.Inc()
			panic("boom")
		}},
		&ComponentInitializer{Version: "3.2.1"},
	)

	tc, err := provider.Get(context.Background())
	require.NoError(t, err)
	require.Equal(t, "3.2.1", tc.Component.Version)
	require.Equal(t, "ikey", tc.InstrumentationKey)
	require.True(t, provider.Ready())

	again, err := provider.Get(context.Background())
	require.NoError(t, err)
	require.Same(t, tc, again)
	require.Equal(t, int32(2), calls.Load(), "initializers must run once")
}

func TestProviderConcurrentCallers(t *testing.T) {
	release := make(chan struct{})
	calls := atomic.NewInt32(0)
	provider := NewContextProvider("ikey", "go:1.0", &funcInitializer{name: "slow", f: func(ctx context.Context, tc *Context) error {
		calls.Inc()
		<-release
		return nil
	}})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := provider.Get(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.False(t, provider.Ready())

	wg := sync.WaitGroup{}
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tc, err := provider.Get(context.Background())
			require.NoError(t, err)
			require.NotNil(t, tc)
		}()
	}

	close(release)
	wg.Wait()
	require.Equal(t, int32(1), calls.Load())
}

func TestProviderAbandonsInitializerIgnoringTimeout(t *testing.T) {
	stuck := make(chan struct{})
	defer close(stuck)

	provider := NewContextProvider("ikey", "go:1.0",
		&funcInitializer{name: "stuck", f: func(ctx context.Context, tc *Context) error {
			<-stuck
			tc.Component.Version = "late"
			return nil
		}},
		&ComponentInitializer{Version: "3.2.1"},
	)
	provider.timeout = 20 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tc, err := provider.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, "3.2.1", tc.Component.Version)
}

func TestUserInitializerPersistsUser(t *testing.T) {
	settings := meta.NewInMemory()

	first := &Context{}
	require.NoError(t, (&UserInitializer{Settings: settings}).Initialize(context.Background(), first))
	require.NotEmpty(t, first.User.ID)
	require.False(t, first.User.AcquisitionDate.IsZero())

	second := &Context{}
	require.NoError(t, (&UserInitializer{Settings: settings}).Initialize(context.Background(), second))
	require.Equal(t, first.User.ID, second.User.ID)
	require.True(t, first.User.AcquisitionDate.Equal(second.User.AcquisitionDate))
}

func TestDeviceInitializer(t *testing.T) {
	tc := &Context{}
	initializer := &DeviceInitializer{InfoFunc: func() *system.Info {
		return &system.Info{DeviceID: "dev1", Model: "x86_64", OEM: "debian", OSVersion: "debian 12", Locale: "en_US"}
	}}
	require.NoError(t, initializer.Initialize(context.Background(), tc))

	tags := tc.ToTags()
	require.Equal(t, "dev1", tags[TagDeviceID])
	require.Equal(t, "x86_64", tags[TagDeviceModel])
	require.Equal(t, "debian 12", tags[TagDeviceOSVersion])
	require.NotEmpty(t, tags[TagDeviceNetwork])
}
