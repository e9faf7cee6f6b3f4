package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jsphweid/boomparts/config"
)

var configInitPath string

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd, configShowCmd)
	configInitCmd.Flags().StringVarP(&configInitPath, "path", "p", "", "destination for the configuration file")
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration utilities",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Creates a sample configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := strings.TrimSpace(configInitPath)
		if target == "" {
			defaultPath, err := config.DefaultConfigPath()
			if err != nil {
				return fmt.Errorf("determine default config path: %w", err)
			}
			target = defaultPath
		}
		if err := config.CreateSample(target); err != nil {
			return fmt.Errorf("create sample config: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote sample configuration to %s\n", target)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Prints the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, resolved, exists, err := config.Load(configPath)
		if err != nil {
			return err
		}
		data, err := cfg.Encode()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if exists {
			fmt.Fprintf(out, "# loaded from %s\n", resolved)
		} else {
			fmt.Fprintln(out, "# no config file found, showing defaults")
		}
		_, err = out.Write(data)
		return err
	},
}
