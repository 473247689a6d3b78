package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"procaredl/pkg/auth"
	"procaredl/pkg/config"
	errs "procaredl/pkg/errors"
	"procaredl/pkg/logger"
	"procaredl/pkg/scraper"
	"procaredl/pkg/ui"
)

var (
	// Sync command flags
	email         string
	baseURL       string
	startDate     string
	targetDir     string
	concurrent    int
	rateLimit     int
	maxRetries    int
	timeout       time.Duration
	passwordStdin bool
)

// syncCmd downloads every photo not yet present in the target directory
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Download new photos into the target directory",
	Long: `Download every photo shared since --start-date that is not yet present in
the target directory.

The password is never stored. It is read, in order, from:
  - the PROCAREDL_PASSWORD environment variable (or a .env file)
  - standard input when --password-stdin is set
  - an interactive prompt when stdin is a terminal`,
	Example: `  # Archive everything since the start of the school year
  procaredl sync --email parent@example.com --start-date 2024-09-01 --target-dir ~/Pictures/daycare

  # Non-interactive, password from a secret manager
  pass show procare | procaredl sync --password-stdin --email parent@example.com --start-date 2024-09-01

  # Be gentle with the API
  procaredl sync --concurrent 4 --rate-limit 30`,
	Args: cobra.NoArgs,
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)
	addSyncFlags(syncCmd)
}

func addSyncFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&email, "email", "e", "", "Procare account email")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "Procare API base URL")
	cmd.Flags().StringVarP(&startDate, "start-date", "s", "", "earliest day to fetch (YYYY-MM-DD)")
	cmd.Flags().StringVarP(&targetDir, "target-dir", "o", "", "directory photos are written to")
	cmd.Flags().IntVar(&concurrent, "concurrent", 0, "maximum simultaneous downloads")
	cmd.Flags().IntVar(&rateLimit, "rate-limit", 0, "photo index requests per minute")
	cmd.Flags().IntVar(&maxRetries, "max-retries", -1, "attempts per request (0 disables retries)")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "timeout for a single photo download")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "read the password from stdin")
}

// collectFlags returns only the flags the user set, keyed as config expects
func collectFlags(cmd *cobra.Command) map[string]interface{} {
	flags := make(map[string]interface{})
	set := func(name string, value interface{}) {
		if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
			flags[name] = value
		}
	}

	set("email", email)
	set("base-url", baseURL)
	set("start-date", startDate)
	set("target-dir", targetDir)
	set("concurrent", concurrent)
	set("rate-limit", rateLimit)
	set("max-retries", maxRetries)
	set("timeout", timeout)
	set("notifications", notifications)
	set("log-level", logLevel)
	return flags
}

func runSync(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, collectFlags(cmd))
	if err != nil {
		return &exitError{code: 1, err: err}
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return &exitError{code: 1, err: err}
	}
	log := logger.GetLogger()

	creds, err := resolveCredentials(cfg)
	if err != nil {
		return &exitError{code: 1, err: err}
	}

	ui.PrintBanner()
	ui.PrintInfo("Account", logger.MaskEmail(creds.Email))
	ui.PrintInfo("Since", cfg.Sync.StartDate)
	ui.PrintInfo("Target", cfg.Sync.TargetDirectory)

	s, err := scraper.New(cfg, creds, log)
	if err != nil {
		return &exitError{code: 1, err: err}
	}
	s.SetProgressReporter(ui.NewProgressPrinter(os.Stdout))

	summary, err := s.Run(cmd.Context())
	if summary != nil {
		ui.PrintSummary(s.Tracker().Snapshot())
		if summary.PageFailures > 0 {
			ui.PrintWarning(fmt.Sprintf("%d window(s) could not be fully listed; rerun to pick up the rest", summary.PageFailures))
		}
	}

	var authErr *errs.AuthenticationError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &authErr):
		return &exitError{code: 1, err: err}
	case errors.Is(err, context.Canceled):
		return &exitError{code: 130, err: errors.New("interrupted, completed files were kept")}
	default:
		return &exitError{code: 1, err: err}
	}
}

func resolveCredentials(cfg *config.Config) (*auth.Credentials, error) {
	sources := []auth.Source{auth.StaticSource{Value: cfg.Procare.Password}}
	if passwordStdin {
		sources = append(sources, auth.ReaderSource{Reader: os.Stdin})
	} else {
		sources = append(sources, auth.NewTerminalSource())
	}

	creds, err := auth.NewManager(sources...).Resolve(cfg.Procare.Email)
	if err != nil {
		if errors.Is(err, auth.ErrMissingEmail) {
			return nil, fmt.Errorf("%w: use --email or PROCAREDL_EMAIL", err)
		}
		return nil, fmt.Errorf("%w: set PROCAREDL_PASSWORD, use --password-stdin or run in a terminal", err)
	}
	return creds, nil
}
