package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Gyana491/contentflow/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long:  "View and update contentflow configuration settings",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Display current configuration",
	Long:  "Display the current effective configuration including environment variable overrides",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		cmd.Printf("Server:\n")
		cmd.Printf("  URL: %s\n", cfg.Server.URL)
		cmd.Printf("  Timeout: %s\n", cfg.Server.Timeout)
		cmd.Printf("\n")
		cmd.Printf("Storage:\n")
		cmd.Printf("  Backend: %s\n", cfg.Storage.Backend)
		cmd.Printf("  Directory: %s\n", cfg.Storage.Directory)
		if cfg.Storage.RedisURL != "" {
			cmd.Printf("  Redis URL: %s\n", cfg.Storage.RedisURL)
		}
		cmd.Printf("\n")
		cmd.Printf("LinkedIn:\n")
		cmd.Printf("  Callback address: %s\n", cfg.LinkedIn.CallbackAddr)
		cmd.Printf("  Refresh interval: %s\n", cfg.LinkedIn.RefreshInterval)
		cmd.Printf("  Refresh window: %s\n", cfg.LinkedIn.RefreshWindow)
		cmd.Printf("  Redirect delay: %s\n", cfg.LinkedIn.RedirectDelay)
		cmd.Printf("\n")
		cmd.Printf("Schedule:\n")
		cmd.Printf("  Timezone: %s\n", cfg.TimezoneName())
		cmd.Printf("\n")
		cmd.Printf("Logging:\n")
		cmd.Printf("  Level: %s\n", cfg.Logging.Level)
		cmd.Printf("  Format: %s\n", cfg.Logging.Format)
		cmd.Printf("\n")
		cmd.Printf("Tracing:\n")
		cmd.Printf("  Enabled: %t\n", cfg.Tracing.Enabled)
		cmd.Printf("  Exporter: %s\n", cfg.Tracing.Exporter)

		if cfg.IsInsecure() {
			cmd.Printf("\nWarning: the server URL uses plain http on a non-local host\n")
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:               "set <key> <value>",
	Short:             "Update configuration value",
	Long:              "Update a configuration value in the config file. Example: contentflow config set server.url https://api.example.com/api",
	Args:              cobra.ExactArgs(2),
	ValidArgsFunction: configKeyCompletion,
	RunE: func(cmd *cobra.Command, args []string) error {
		key := args[0]
		value := args[1]

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		parts := strings.Split(key, ".")
		if len(parts) != 2 {
			return fmt.Errorf("invalid key format. Expected format: section.field (e.g., server.url)")
		}
		if err := setConfigField(cfg, parts[0], parts[1], value); err != nil {
			return err
		}

		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		if err := cfg.Save(); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}

		cmd.Printf("Updated %s to: %s\n", key, value)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	rootCmd.AddCommand(configCmd)
}

func parseDuration(key, value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid duration for %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive", key)
	}
	return d, nil
}

func setConfigField(cfg *config.Config, section, field, value string) error {
	var err error
	switch section {
	case "server":
		switch field {
		case "url":
			cfg.Server.URL = strings.TrimRight(value, "/")
		case "timeout":
			cfg.Server.Timeout, err = parseDuration("server.timeout", value)
		default:
			return fmt.Errorf("unknown server field: %s", field)
		}
	case "storage":
		switch field {
		case "backend":
			cfg.Storage.Backend = value
		case "directory":
			cfg.Storage.Directory = value
		case "redis_url":
			cfg.Storage.RedisURL = value
		default:
			return fmt.Errorf("unknown storage field: %s", field)
		}
	case "linkedin":
		switch field {
		case "callback_addr":
			cfg.LinkedIn.CallbackAddr = value
		case "refresh_interval":
			cfg.LinkedIn.RefreshInterval, err = parseDuration("linkedin.refresh_interval", value)
		case "refresh_window":
			cfg.LinkedIn.RefreshWindow, err = parseDuration("linkedin.refresh_window", value)
		case "redirect_delay":
			cfg.LinkedIn.RedirectDelay, err = parseDuration("linkedin.redirect_delay", value)
		default:
			return fmt.Errorf("unknown linkedin field: %s", field)
		}
	case "schedule":
		switch field {
		case "timezone":
			cfg.Schedule.Timezone = value
		default:
			return fmt.Errorf("unknown schedule field: %s", field)
		}
	case "logging":
		switch field {
		case "level":
			cfg.Logging.Level = value
		case "format":
			cfg.Logging.Format = value
		default:
			return fmt.Errorf("unknown logging field: %s", field)
		}
	case "tracing":
		switch field {
		case "enabled":
			cfg.Tracing.Enabled, err = strconv.ParseBool(value)
			if err != nil {
				err = fmt.Errorf("invalid boolean for tracing.enabled: %w", err)
			}
		case "exporter":
			cfg.Tracing.Exporter = value
		default:
			return fmt.Errorf("unknown tracing field: %s", field)
		}
	default:
		return fmt.Errorf("unknown config section: %s", section)
	}
	return err
}

// configKeyCompletion provides tab completion for config keys
func configKeyCompletion(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) >= 1 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	validKeys := []string{
		"server.url\tBackend API URL including the /api prefix",
		"server.timeout\tPer-request timeout, e.g. 15s",
		"storage.backend\tState storage backend (file, redis)",
		"storage.directory\tDirectory for file-backed state",
		"storage.redis_url\tRedis URL for the redis backend",
		"linkedin.callback_addr\tLoopback address receiving the OAuth redirect",
		"linkedin.refresh_interval\tHow often the token expiry is checked",
		"linkedin.refresh_window\tRefresh when the token expires within this window",
		"linkedin.redirect_delay\tPause after connecting before returning",
		"schedule.timezone\tIANA timezone for scheduled posts",
		"logging.level\tLogging level (debug, info, warn, error)",
		"logging.format\tLog format (text, json)",
		"tracing.enabled\tExport request traces (true, false)",
		"tracing.exporter\tTrace exporter (stdout)",
	}

	return validKeys, cobra.ShellCompDirectiveNoFileComp
}
