package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"procaredl/pkg/config"
	"procaredl/pkg/logger"
	"procaredl/pkg/ui"
)

const defaultConfigPath = ".procaredl.yaml"

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage procaredl configuration files.

Configuration is merged from, highest priority first:
  - Command line flags
  - Environment variables (PROCAREDL_*)
  - A .env file in the working directory or ~/.procaredl.env
  - The configuration file
  - Default values

The password is never written to a configuration file.`,
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a configuration file with default values",
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the effective configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(showCmd)
	configCmd.AddCommand(validateCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := configFile
	if path == "" {
		path = defaultConfigPath
	}

	if _, err := os.Stat(path); err == nil {
		return &exitError{code: 1, err: fmt.Errorf("configuration file already exists: %s", path)}
	}

	cfg := config.DefaultConfig()
	cfg.Sync.StartDate = "2024-01-01"
	if err := cfg.Save(path); err != nil {
		return &exitError{code: 1, err: err}
	}

	ui.PrintSuccess("Configuration file created: " + path)
	fmt.Fprintln(ui.Output, "\nNext steps:")
	fmt.Fprintln(ui.Output, "1. Set procare.email and sync.start_date in the file")
	fmt.Fprintln(ui.Output, "2. Export PROCAREDL_PASSWORD or use --password-stdin")
	fmt.Fprintln(ui.Output, "3. Run 'procaredl config validate', then 'procaredl sync'")
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, collectFlags(cmd))
	if err != nil {
		return &exitError{code: 1, err: err}
	}

	display := *cfg
	display.Procare.Email = logger.MaskEmail(display.Procare.Email)

	data, err := yaml.Marshal(&display)
	if err != nil {
		return fmt.Errorf("failed to format configuration: %w", err)
	}

	fmt.Fprint(cmd.OutOrStdout(), string(data))
	if cfg.Procare.Password != "" {
		fmt.Fprintln(cmd.OutOrStdout(), "# password: set (hidden)")
	}
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, collectFlags(cmd))
	if err != nil {
		ui.PrintError("Configuration validation failed", err)
		return &exitError{code: 1, err: err}
	}

	if cfg.Procare.Email == "" {
		ui.PrintWarning("procare.email is not set; pass --email when syncing")
	}
	if cfg.Procare.Password == "" {
		ui.PrintWarning("no password in the environment; sync will prompt for it")
	}

	ui.PrintSuccess("Configuration is valid")
	ui.PrintInfo("Start date", cfg.Sync.StartDate)
	ui.PrintInfo("Target directory", cfg.Sync.TargetDirectory)
	ui.PrintInfo("Concurrent downloads", fmt.Sprint(cfg.Download.ConcurrentDownloads))
	ui.PrintInfo("Rate limit", fmt.Sprintf("%d requests/minute", cfg.RateLimit.RequestsPerMinute))
	ui.PrintInfo("Log level", cfg.Logging.Level)
	return nil
}
