package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Gyana491/contentflow/internal/config"
)

var initServerURL string

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	Long:  "Create the configuration file and the state directory for contentflow",
	RunE: func(cmd *cobra.Command, args []string) error {
		defer func() { initServerURL = "" }()

		configDir := config.GetConfigDir()
		configPath := config.GetConfigPath()

		if _, err := os.Stat(configPath); err == nil {
			return fmt.Errorf("configuration already exists at %s\n\nTo reconfigure, either:\n  1. Edit the file directly, or\n  2. Delete it and run 'contentflow init' again, or\n  3. Use 'contentflow config set <key> <value>' to update specific values", configPath)
		}

		cfg := config.Default()
		if initServerURL != "" {
			cfg.Server.URL = initServerURL
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		if err := os.MkdirAll(cfg.Storage.Directory, 0o700); err != nil {
			return fmt.Errorf("failed to create state directory: %w", err)
		}
		if err := cfg.Save(); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}

		cmd.Printf("Configuration initialized at %s\n", configDir)
		return nil
	},
}

func init() {
	initCmd.Flags().StringVar(&initServerURL, "server", "", "Backend API URL (default http://localhost:8080/api)")
	rootCmd.AddCommand(initCmd)
}
