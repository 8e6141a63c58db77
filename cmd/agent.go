package cmd

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jitsucom/crashnative/appconfig"
	"github.com/jitsucom/crashnative/logging"
	"github.com/jitsucom/crashnative/middleware"
	"github.com/jitsucom/crashnative/routers"
	"github.com/jitsucom/crashnative/safego"
	"github.com/jitsucom/crashnative/scheduling"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const crashesUploadJob = "crashes_upload"

var agentCmd = &cobra.Command{
	Use:   "agent",
	Short: "Run local API which accepts crashes, telemetry and lifecycle events",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := readInViperConfig(); err != nil {
			return err
		}
		return runAgent()
	},
}

func runAgent() error {
	//Setup default timezone for time.Now() calls
	time.Local = time.UTC

	if err := appconfig.Init(); err != nil {
		return err
	}

	safego.GlobalRecoverHandler = func(value interface{}) {
		logging.SystemErrorf("panic in background goroutine: %v", value)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	crashClient := appconfig.Instance.Client
	if err := crashClient.Start(ctx); err != nil {
		appconfig.Instance.Close()
		return err
	}

	scheduler := scheduling.NewCronScheduler()
	if err := scheduler.Schedule(crashesUploadJob, viper.GetString("crashes.upload_schedule"), func() {
		if crashClient.SendCrashes(ctx) {
			logging.Info("Pending crash reports have been sent")
		}
	}); err != nil {
		appconfig.Instance.Close()
		return err
	}
	scheduler.Start()

	//send crashes left by the previous run
	safego.Run(func() {
		crashClient.SendCrashes(ctx)
	})

	router := routers.SetupRouter(crashClient, appconfig.Instance.Connectivity, appconfig.Instance.AuthToken)
	server := &http.Server{
		Addr:              appconfig.Instance.Authority,
		Handler:           middleware.Cors(router),
		ReadTimeout:       time.Second * 60,
		ReadHeaderTimeout: time.Second * 60,
		IdleTimeout:       time.Second * 65,
	}

	//listen to shutdown signal to free up all resources
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGTERM, syscall.SIGINT, syscall.SIGHUP)
	safego.Run(func() {
		<-c
		logging.Info("Shutting down the agent")
		cancel()
		scheduler.Close()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logging.Errorf("Error shutting down http server: %v", err)
		}
	})

	logging.Info("Started server: " + appconfig.Instance.Authority)
	err := server.ListenAndServe()
	appconfig.Instance.Close()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}
