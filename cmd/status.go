package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jitsucom/crashnative/appconfig"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print pending crash reports and telemetry storage usage",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := readInViperConfig(); err != nil {
			return err
		}
		if err := appconfig.Init(); err != nil {
			return err
		}
		defer appconfig.Instance.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		crashClient := appconfig.Instance.Client
		pending, err := crashClient.PendingCrashes(ctx)
		if err != nil {
			return err
		}
		status, err := crashClient.Status(ctx)
		if err != nil {
			return err
		}

		b, err := json.MarshalIndent(map[string]interface{}{
			"crash_files": pending,
			"status":      status,
		}, "", "  ")
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), string(b))
		return nil
	},
}
