package client

import (
	"errors"
	"time"

	"github.com/jitsucom/crashnative/crashes"
	"github.com/jitsucom/crashnative/locks"
	"github.com/jitsucom/crashnative/meta"
	"github.com/jitsucom/crashnative/storages"
	"github.com/jitsucom/crashnative/telemetry"
	"github.com/jitsucom/crashnative/transport"
)

const (
	DefaultCrashesEndpoint   = "https://rink.hockeyapp.net"
	DefaultTelemetryEndpoint = "https://dc.services.visualstudio.com"
	DefaultCrashFlushTimeout = 2 * time.Second
)

var ErrAlreadyConfigured = errors.New("Client has been already configured")

//Config is the client configuration. Zero values mean defaults
type Config struct {
	SDK crashes.SDKInfo

	AppID      string
	AppVersion string
	AppPackage string

	InstrumentationKey string
	TelemetryEndpoint  string
	CrashesEndpoint    string

	CrashesFolder     string
	CrashFlushTimeout time.Duration

	ChannelFolder       string
	ChannelMaxSizeBytes int64
	ChannelMaxFiles     int
	MaxBatchSize        int
	MaxBatchInterval    time.Duration
	SendInterval        time.Duration
	SenderPoolSize      int
	SenderMaxPerSecond  float64

	SessionTimeout time.Duration
}

//Dependencies are platform capabilities. Files and Settings are required
type Dependencies struct {
	Files    storages.FileStorage
	Settings meta.Storage

	Sender       transport.Sender
	Connectivity transport.Connectivity
	LockFactory  locks.LockFactory
	//Initializers override default device, component and user context initializers
	Initializers []telemetry.ContextInitializer
}

func (c *Config) validate() error {
	if c.AppID == "" {
		return errors.New("app id is required")
	}
	if c.InstrumentationKey == "" {
		return errors.New("telemetry instrumentation key is required")
	}
	if c.SDK.Name == "" || c.SDK.Version == "" {
		return errors.New("sdk name and version are required")
	}

	return nil
}

func (c *Config) setDefaults() {
	if c.CrashesEndpoint == "" {
		c.CrashesEndpoint = DefaultCrashesEndpoint
	}
	if c.TelemetryEndpoint == "" {
		c.TelemetryEndpoint = DefaultTelemetryEndpoint
	}
	if c.CrashesFolder == "" {
		c.CrashesFolder = crashes.DefaultFolder
	}
	if c.CrashFlushTimeout <= 0 {
		c.CrashFlushTimeout = DefaultCrashFlushTimeout
	}
}

func (d *Dependencies) validate() error {
	if d.Files == nil {
		return errors.New("file storage is required")
	}
	if d.Settings == nil {
		return errors.New("settings storage is required")
	}

	return nil
}
