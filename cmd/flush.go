package cmd

import (
	"context"
	"time"

	"github.com/jitsucom/crashnative/appconfig"
	"github.com/jitsucom/crashnative/logging"
	"github.com/spf13/cobra"
)

var flushTimeout time.Duration

var flushCmd = &cobra.Command{
	Use:   "flush",
	Short: "Send pending crash reports and telemetry transmissions once and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := readInViperConfig(); err != nil {
			return err
		}
		if err := appconfig.Init(); err != nil {
			return err
		}
		defer appconfig.Instance.Close()

		ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
		defer cancel()

		crashClient := appconfig.Instance.Client
		if err := crashClient.Start(ctx); err != nil {
			return err
		}

		crashesSent := crashClient.SendCrashes(ctx)
		transmissions := crashClient.FlushAndSend(ctx)
		logging.Infof("Flush finished. Crashes sent: %t, telemetry transmissions sent: %d", crashesSent, transmissions)
		return nil
	},
}

func init() {
	flushCmd.Flags().DurationVar(&flushTimeout, "timeout", time.Minute, "flush timeout")
}
