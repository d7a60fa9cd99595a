/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: main.go
Description: Command-line interface for the CHAOS fault-injection core. A
cobra root command with global logging flags bound through viper, and one
subcommand per operation this repository exposes (run, check, stats, logs).
*/

package main

import (
	"fmt"
	"os"

	"github.com/kleascm/chaos-faultinjector/cmd/chaosctl/commands"
	"github.com/kleascm/chaos-faultinjector/pkg/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	logLevel  string
	logFormat string
	logDir    string
	jsonLogs  bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "chaosctl",
		Short: "CHAOS fault-injection core: drive and inspect the REG/CACHE/MEM engines",
		Long: `chaosctl drives the CHAOS stochastic fault-injection engines (register,
cache-block, and main-memory bit corruption) against the bundled demo host, or
validates a config file without running it.`,
		Version: "1.0.0",
	}

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Logging level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "custom", "Log format (text, json, custom, injection)")
	rootCmd.PersistentFlags().StringVar(&logDir, "log-dir", "./logs", "Operational log output directory")
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "json-logs", false, "Shorthand for --log-format=json")

	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log_format", rootCmd.PersistentFlags().Lookup("log-format"))
	viper.BindPFlag("log_dir", rootCmd.PersistentFlags().Lookup("log-dir"))

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if jsonLogs {
			logFormat = "json"
		}
		logger, err := logging.NewLogger(&logging.LoggerConfig{
			Level:     logging.LogLevel(logLevel),
			Format:    logging.LogFormat(logFormat),
			OutputDir: logDir,
			MaxFiles:  10,
			MaxSize:   100 * 1024 * 1024,
			Timestamp: true,
			Caller:    false,
			Colors:    true,
		})
		if err != nil {
			return err
		}
		commands.Logger = logger
		return nil
	}

	rootCmd.AddCommand(commands.NewRunCommand())
	rootCmd.AddCommand(commands.NewCheckCommand())
	rootCmd.AddCommand(commands.NewStatsCommand())
	rootCmd.AddCommand(commands.NewLogsCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
