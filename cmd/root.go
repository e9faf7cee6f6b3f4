package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jsphweid/boomparts/config"
	"github.com/jsphweid/boomparts/logging"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "boomparts",
	Short: "Boomwhacker part assignment",
	Long: `boomparts reads a score, decides which tube copy sounds each note and which
performer holds it, and writes one part per performer plus a manifest for rendering.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default $BOOMPARTS_CONFIG, ./boomparts.toml or ~/.config/boomparts/config.toml)")
}

func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

func loadConfig() (*config.Config, *zap.Logger, error) {
	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}
