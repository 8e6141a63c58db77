package cmd

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/gookit/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	configFilePath   string
	containerizedRun bool
)

//rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "crashnative",
	Short: "crashnative captures crash reports and telemetry and uploads them with at-least-once delivery",
	Long: `crashnative captures crash reports and telemetry, keeps them in durable local queues
and uploads them to the collection endpoints. Run 'crashnative agent' to serve the local API.`,
	SilenceUsage: true,
}

//Execute adds all child commands to the root command and sets flags appropriately.
//This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.Red.Sprintf("Error: %v", err))
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFilePath, "cfg", "", "config file path")
	rootCmd.PersistentFlags().BoolVar(&containerizedRun, "cr", false, "containerised run marker")

	rootCmd.AddCommand(agentCmd, flushCmd, statusCmd)
}

func readInViperConfig() error {
	viper.AutomaticEnv()
	//support OS env variables as lower case and dot divided variables e.g. SERVER_PORT as server.port
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if configFilePath == "" {
		log.Println("Custom config wasn't provided: configuration is read from env variables")
		return nil
	}

	viper.SetConfigFile(configFilePath)
	if err := viper.ReadInConfig(); err != nil {
		//failfast for running service from source (not containerised) and with wrong config
		if !containerizedRun {
			return fmt.Errorf("Error reading config file [%s]: %v", configFilePath, err)
		}
		log.Println("Custom config wasn't read:", err)
	}
	return nil
}
