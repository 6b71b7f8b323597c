package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"shakalnost/internal/config"
	"shakalnost/internal/logging"
)

const AppVersion = "1.0.0"

var rootCmd = &cobra.Command{
	Use:     "shakal",
	Short:   "Degrade images through a chain of deliberate quality-destroying stages",
	Version: AppVersion,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if debug, _ := cmd.Flags().GetBool("debug"); debug {
			os.Setenv("SHAKAL_LOG_LEVEL", "debug")
			os.Setenv("SHAKAL_LOG_FORMAT", "text")
		}
		return nil
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug mode with verbose logging")
}

// setup loads the environment configuration and builds the logger.
func setup() (*config.Config, *logrus.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, nil, err
	}
	logger.WithFields(logrus.Fields{
		"version":    AppVersion,
		"jpeg_codec": cfg.JPEGCodec,
		"filters":    cfg.Filters,
		"gpu":        cfg.GPUEmulation,
	}).Debug("Configuration loaded")
	return cfg, logger, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
