package appconfig

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jitsucom/crashnative/client"
	"github.com/jitsucom/crashnative/crashes"
	"github.com/jitsucom/crashnative/logging"
	"github.com/jitsucom/crashnative/meta"
	"github.com/jitsucom/crashnative/metrics"
	"github.com/jitsucom/crashnative/storages"
	"github.com/jitsucom/crashnative/transport"
	"github.com/spf13/viper"
)

//AppConfig is a main Application Global Configuration
type AppConfig struct {
	ServerName string
	Authority  string
	AuthToken  string

	Settings meta.Storage
	Files    storages.FileStorage
	Client   *client.Client

	//Connectivity can be switched by the lifecycle API
	Connectivity *transport.StaticConnectivity

	closeMe []io.Closer
}

var (
	Instance   *AppConfig
	RawVersion = "dev"
	BuiltAt    string
)

func setDefaultParams() {
	defaultServerName, _ := os.Hostname()
	if defaultServerName == "" {
		defaultServerName = "unnamed-server"
	}
	viper.SetDefault("server.name", defaultServerName)
	viper.SetDefault("server.port", "8002")
	viper.SetDefault("server.metrics.enabled", false)
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.rotation_min", 1440)
	viper.SetDefault("log.max_backups", 10)

	viper.SetDefault("sdk.name", "crashnative")
	viper.SetDefault("sdk.version", RawVersion)
	viper.SetDefault("app.version", "1.0.0")

	viper.SetDefault("storage.path", "./data")
	viper.SetDefault("settings.type", meta.FileType)

	viper.SetDefault("telemetry.endpoint", client.DefaultTelemetryEndpoint)
	viper.SetDefault("crashes.endpoint", client.DefaultCrashesEndpoint)
	viper.SetDefault("crashes.dir", crashes.DefaultFolder)
	viper.SetDefault("crashes.upload_schedule", "@every 1m")
	viper.SetDefault("crashes.flush_timeout_ms", 2000)

	viper.SetDefault("channel.folder", "Telemetry")
	viper.SetDefault("channel.max_size_bytes", 10*1024*1024)
	viper.SetDefault("channel.max_files", 5000)
	viper.SetDefault("channel.send_interval_sec", 10)
	viper.SetDefault("channel.max_batch_size", 500)
	viper.SetDefault("channel.max_batch_interval_sec", 30)
	viper.SetDefault("channel.sender.pool_size", 3)
	viper.SetDefault("channel.sender.max_per_second", 0)

	viper.SetDefault("session.timeout_sec", 20)
}

//Init creates logger, storages and the client from viper configuration
func Init() error {
	setDefaultParams()

	serverName := viper.GetString("server.name")
	globalLoggerConfig := logging.Config{
		FileName:    serverName + "-main",
		FileDir:     viper.GetString("log.path"),
		RotationMin: viper.GetInt64("log.rotation_min"),
		MaxBackups:  viper.GetInt("log.max_backups")}

	var appConfig AppConfig

	//Global logger writes logs and sends system error notifications
	//
	//  configured file logger            no file logger configured
	//    /             \                            |
	//os.Stdout      FileWriter                  os.Stdout
	if globalLoggerConfig.FileDir != "" {
		if err := logging.EnsureDir(globalLoggerConfig.FileDir); err != nil {
			return fmt.Errorf("Error creating log directory %s: %v", globalLoggerConfig.FileDir, err)
		}
		if !logging.IsDirWritable(globalLoggerConfig.FileDir) {
			return fmt.Errorf("log.path %s is not writable", globalLoggerConfig.FileDir)
		}
		fileWriter := logging.NewRollingWriter(globalLoggerConfig)
		logging.GlobalLogsWriter = logging.Dual{
			FileWriter: fileWriter,
			Stdout:     os.Stdout,
		}
		appConfig.ScheduleClosing(fileWriter)
	} else {
		logging.GlobalLogsWriter = os.Stdout
	}
	if err := logging.InitGlobalLogger(logging.GlobalLogsWriter, viper.GetString("log.level")); err != nil {
		return err
	}

	logWelcomeBanner(RawVersion)
	metrics.Init(viper.GetBool("server.metrics.enabled"))

	logging.Info("*** Creating new AppConfig ***")
	logging.Info("Server Name:", serverName)

	appConfig.ServerName = serverName
	appConfig.Authority = "0.0.0.0:" + viper.GetString("server.port")
	appConfig.AuthToken = viper.GetString("server.auth_token")
	if appConfig.AuthToken == "" {
		logging.Warn("server.auth_token isn't configured: agent API is open")
	}

	storagePath := viper.GetString("storage.path")
	files, err := storages.NewLocal(storagePath)
	if err != nil {
		return fmt.Errorf("Error creating file storage in [%s]: %v", storagePath, err)
	}
	appConfig.Files = files

	settings, err := meta.NewStorage(viper.Sub("settings"), storagePath)
	if err != nil {
		return fmt.Errorf("Error creating settings storage: %v", err)
	}
	appConfig.Settings = settings
	logging.Infof("Settings storage: %s", settings.Type())

	appConfig.Connectivity = transport.NewStaticConnectivity(true)
	crashClient, err := client.New(ClientConfig(), client.Dependencies{
		Files:        files,
		Settings:     settings,
		Connectivity: appConfig.Connectivity,
	})
	if err != nil {
		settings.Close()
		return err
	}
	crashClient.OnInternalError(func(err error) {
		logging.Debugf("Internal error has been reported: %v", err)
	})
	appConfig.Client = crashClient

	//closers run in reverse order: the client is closed before settings and the log writer
	appConfig.ScheduleClosing(settings)
	appConfig.ScheduleClosing(crashClient)

	Instance = &appConfig
	return nil
}

//ClientConfig builds client configuration from viper keys
func ClientConfig() client.Config {
	return client.Config{
		SDK: crashes.SDKInfo{
			Name:    viper.GetString("sdk.name"),
			Version: viper.GetString("sdk.version"),
		},
		AppID:              viper.GetString("app.id"),
		AppVersion:         viper.GetString("app.version"),
		AppPackage:         viper.GetString("app.package"),
		InstrumentationKey: viper.GetString("telemetry.instrumentation_key"),
		TelemetryEndpoint:  viper.GetString("telemetry.endpoint"),
		CrashesEndpoint:    viper.GetString("crashes.endpoint"),
		CrashesFolder:      viper.GetString("crashes.dir"),
		CrashFlushTimeout:  time.Duration(viper.GetInt64("crashes.flush_timeout_ms")) * time.Millisecond,

		ChannelFolder:       viper.GetString("channel.folder"),
		ChannelMaxSizeBytes: viper.GetInt64("channel.max_size_bytes"),
		ChannelMaxFiles:     viper.GetInt("channel.max_files"),
		MaxBatchSize:        viper.GetInt("channel.max_batch_size"),
		MaxBatchInterval:    time.Duration(viper.GetInt64("channel.max_batch_interval_sec")) * time.Second,
		SendInterval:        time.Duration(viper.GetInt64("channel.send_interval_sec")) * time.Second,
		SenderPoolSize:      viper.GetInt("channel.sender.pool_size"),
		SenderMaxPerSecond:  viper.GetFloat64("channel.sender.max_per_second"),

		SessionTimeout: time.Duration(viper.GetInt64("session.timeout_sec")) * time.Second,
	}
}

func (a *AppConfig) ScheduleClosing(c io.Closer) {
	a.closeMe = append(a.closeMe, c)
}

//Close closes resources in reverse order of ScheduleClosing
func (a *AppConfig) Close() {
	for i := len(a.closeMe) - 1; i >= 0; i-- {
		if err := a.closeMe[i].Close(); err != nil {
			logging.Error(err)
		}
	}
}
