package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DateLayout is the layout accepted for the sync start date.
const DateLayout = "2006-01-02"

// DefaultBaseURL is the Procare web API root.
const DefaultBaseURL = "https://api-school.procareconnect.com/api/web"

// Config holds all configuration options for procaredl
type Config struct {
	// Procare account and API endpoint
	Procare ProcareConfig `yaml:"procare" json:"procare"`

	// What to sync and where to put it
	Sync SyncConfig `yaml:"sync" json:"sync"`

	// Download settings
	Download DownloadConfig `yaml:"download" json:"download"`

	// Rate limiting for photo index requests
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Retry behaviour for transient HTTP failures
	Retry RetryConfig `yaml:"retry" json:"retry"`

	// Notification preferences
	Notifications NotificationConfig `yaml:"notifications" json:"notifications"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// ProcareConfig holds the account identity and API settings. The password
// is never read from or written to the config file.
type ProcareConfig struct {
	Email     string `yaml:"email" json:"email"`
	Password  string `yaml:"-" json:"-"`
	BaseURL   string `yaml:"base_url" json:"base_url"`
	UserAgent string `yaml:"user_agent" json:"user_agent"`
}

// SyncConfig describes the requested date span and target directory
type SyncConfig struct {
	StartDate       string `yaml:"start_date" json:"start_date"`
	TargetDirectory string `yaml:"target_directory" json:"target_directory"`
}

// DownloadConfig holds download-specific configuration
type DownloadConfig struct {
	ConcurrentDownloads int           `yaml:"concurrent_downloads" json:"concurrent_downloads"`
	DownloadTimeout     time.Duration `yaml:"download_timeout" json:"download_timeout"`
	RequestTimeout      time.Duration `yaml:"request_timeout" json:"request_timeout"`
	MaxCaptionBytes     int           `yaml:"max_caption_bytes" json:"max_caption_bytes"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute" json:"requests_per_minute"`
	BurstSize         int `yaml:"burst_size" json:"burst_size"`
}

// RetryConfig holds retry configuration
type RetryConfig struct {
	Enabled     bool          `yaml:"enabled" json:"enabled"`
	MaxAttempts int           `yaml:"max_attempts" json:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay" json:"base_delay"`
	MaxDelay    time.Duration `yaml:"max_delay" json:"max_delay"`
	Multiplier  float64       `yaml:"multiplier" json:"multiplier"`
}

// NotificationConfig holds notification preferences
type NotificationConfig struct {
	Enabled          bool   `yaml:"enabled" json:"enabled"`
	OnComplete       bool   `yaml:"on_complete" json:"on_complete"`
	OnError          bool   `yaml:"on_error" json:"on_error"`
	NotificationType string `yaml:"notification_type" json:"notification_type"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Procare: ProcareConfig{
			BaseURL:   DefaultBaseURL,
			UserAgent: "procaredl/1.0",
		},
		Sync: SyncConfig{
			TargetDirectory: "./procare-photos",
		},
		Download: DownloadConfig{
			ConcurrentDownloads: 8,
			DownloadTimeout:     30 * time.Second,
			RequestTimeout:      30 * time.Second,
			MaxCaptionBytes:     1024,
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 60,
			BurstSize:         10,
		},
		Retry: RetryConfig{
			Enabled:     true,
			MaxAttempts: 3,
			BaseDelay:   time.Second,
			MaxDelay:    30 * time.Second,
			Multiplier:  2.0,
		},
		Notifications: NotificationConfig{
			Enabled:          false,
			OnComplete:       true,
			OnError:          true,
			NotificationType: "terminal",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	var errs []error

	if email := os.Getenv("PROCAREDL_EMAIL"); email != "" {
		c.Procare.Email = email
	}
	if password := os.Getenv("PROCAREDL_PASSWORD"); password != "" {
		c.Procare.Password = password
	}
	if baseURL := os.Getenv("PROCAREDL_BASE_URL"); baseURL != "" {
		c.Procare.BaseURL = baseURL
	}
	if userAgent := os.Getenv("PROCAREDL_USER_AGENT"); userAgent != "" {
		c.Procare.UserAgent = userAgent
	}
	if startDate := os.Getenv("PROCAREDL_START_DATE"); startDate != "" {
		c.Sync.StartDate = startDate
	}
	if targetDir := os.Getenv("PROCAREDL_TARGET_DIR"); targetDir != "" {
		c.Sync.TargetDirectory = targetDir
	}

	if concurrent := os.Getenv("PROCAREDL_CONCURRENT_DOWNLOADS"); concurrent != "" {
		val, err := strconv.Atoi(concurrent)
		if err != nil {
			errs = append(errs, fmt.Errorf("PROCAREDL_CONCURRENT_DOWNLOADS: %w", err))
		} else if val > 0 {
			c.Download.ConcurrentDownloads = val
		}
	}
	if timeout := os.Getenv("PROCAREDL_DOWNLOAD_TIMEOUT"); timeout != "" {
		val, err := time.ParseDuration(timeout)
		if err != nil {
			errs = append(errs, fmt.Errorf("PROCAREDL_DOWNLOAD_TIMEOUT: %w", err))
		} else {
			c.Download.DownloadTimeout = val
		}
	}
	if rpm := os.Getenv("PROCAREDL_REQUESTS_PER_MINUTE"); rpm != "" {
		val, err := strconv.Atoi(rpm)
		if err != nil {
			errs = append(errs, fmt.Errorf("PROCAREDL_REQUESTS_PER_MINUTE: %w", err))
		} else if val > 0 {
			c.RateLimit.RequestsPerMinute = val
		}
	}
	if retryEnabled := os.Getenv("PROCAREDL_RETRY_ENABLED"); retryEnabled != "" {
		c.Retry.Enabled = strings.ToLower(retryEnabled) == "true"
	}
	if notifEnabled := os.Getenv("PROCAREDL_NOTIFICATIONS_ENABLED"); notifEnabled != "" {
		c.Notifications.Enabled = strings.ToLower(notifEnabled) == "true"
	}
	if logLevel := os.Getenv("PROCAREDL_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}
	if logFile := os.Getenv("PROCAREDL_LOG_FILE"); logFile != "" {
		c.Logging.File = logFile
	}

	return errors.Join(errs...)
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		".procaredl.yaml",
		".procaredl.yml",
		filepath.Join(home, ".config", "procaredl", "config.yaml"),
		filepath.Join(home, ".config", "procaredl", "config.yml"),
		filepath.Join(home, ".procaredl.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid. Credentials are checked
// separately by the auth package because they may still be prompted for.
func (c *Config) Validate() error {
	var errs []error

	if c.Procare.BaseURL == "" {
		errs = append(errs, errors.New("procare base URL is required"))
	}

	if c.Sync.StartDate == "" {
		errs = append(errs, errors.New("start date is required"))
	} else if _, err := c.StartTime(); err != nil {
		errs = append(errs, fmt.Errorf("start date must use YYYY-MM-DD: %w", err))
	}
	if c.Sync.TargetDirectory == "" {
		errs = append(errs, errors.New("target directory is required"))
	}

	if c.Download.ConcurrentDownloads <= 0 {
		errs = append(errs, errors.New("concurrent downloads must be positive"))
	}
	if c.Download.ConcurrentDownloads > 64 {
		errs = append(errs, errors.New("concurrent downloads should not exceed 64"))
	}
	if c.Download.DownloadTimeout <= 0 {
		errs = append(errs, errors.New("download timeout must be positive"))
	}
	if c.Download.RequestTimeout <= 0 {
		errs = append(errs, errors.New("request timeout must be positive"))
	}
	if c.Download.MaxCaptionBytes <= 0 {
		errs = append(errs, errors.New("max caption bytes must be positive"))
	}

	if c.RateLimit.RequestsPerMinute <= 0 {
		errs = append(errs, errors.New("requests per minute must be positive"))
	}
	if c.RateLimit.BurstSize <= 0 {
		errs = append(errs, errors.New("burst size must be positive"))
	}

	if c.Retry.Enabled && c.Retry.MaxAttempts <= 0 {
		errs = append(errs, errors.New("retry max attempts must be positive when retry is enabled"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	validNotifTypes := map[string]bool{
		"terminal": true, "desktop": true, "none": true,
	}
	if !validNotifTypes[strings.ToLower(c.Notifications.NotificationType)] {
		errs = append(errs, errors.New("invalid notification type"))
	}

	return errors.Join(errs...)
}

// StartTime parses the configured start date as local midnight.
func (c *Config) StartTime() (time.Time, error) {
	return time.ParseInLocation(DateLayout, c.Sync.StartDate, time.Local)
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration.
// Only flags the user actually set should be present in the map.
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if email, ok := flags["email"].(string); ok && email != "" {
		c.Procare.Email = email
	}
	if password, ok := flags["password"].(string); ok && password != "" {
		c.Procare.Password = password
	}
	if baseURL, ok := flags["base-url"].(string); ok && baseURL != "" {
		c.Procare.BaseURL = baseURL
	}
	if startDate, ok := flags["start-date"].(string); ok && startDate != "" {
		c.Sync.StartDate = startDate
	}
	if targetDir, ok := flags["target-dir"].(string); ok && targetDir != "" {
		c.Sync.TargetDirectory = targetDir
	}
	if concurrent, ok := flags["concurrent"].(int); ok && concurrent > 0 {
		c.Download.ConcurrentDownloads = concurrent
	}
	if timeout, ok := flags["timeout"].(time.Duration); ok && timeout > 0 {
		c.Download.DownloadTimeout = timeout
	}
	if rpm, ok := flags["rate-limit"].(int); ok && rpm > 0 {
		c.RateLimit.RequestsPerMinute = rpm
	}
	if retries, ok := flags["max-retries"].(int); ok && retries >= 0 {
		c.Retry.MaxAttempts = retries
		c.Retry.Enabled = retries > 0
	}
	if notify, ok := flags["notifications"].(bool); ok {
		c.Notifications.Enabled = notify
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".procaredl.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
