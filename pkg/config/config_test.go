package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, DefaultBaseURL, cfg.Procare.BaseURL)
	assert.Empty(t, cfg.Procare.Email, "no compiled-in credentials")
	assert.Empty(t, cfg.Procare.Password, "no compiled-in credentials")
	assert.Equal(t, 8, cfg.Download.ConcurrentDownloads)
	assert.Equal(t, 30*time.Second, cfg.Download.DownloadTimeout)
	assert.Equal(t, 1024, cfg.Download.MaxCaptionBytes)
	assert.Equal(t, 60, cfg.RateLimit.RequestsPerMinute)
	assert.True(t, cfg.Retry.Enabled)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PROCAREDL_EMAIL", "parent@example.com")
	t.Setenv("PROCAREDL_PASSWORD", "hunter2")
	t.Setenv("PROCAREDL_START_DATE", "2024-01-01")
	t.Setenv("PROCAREDL_TARGET_DIR", "/tmp/photos")
	t.Setenv("PROCAREDL_CONCURRENT_DOWNLOADS", "4")
	t.Setenv("PROCAREDL_DOWNLOAD_TIMEOUT", "45s")
	t.Setenv("PROCAREDL_REQUESTS_PER_MINUTE", "30")
	t.Setenv("PROCAREDL_RETRY_ENABLED", "false")
	t.Setenv("PROCAREDL_LOG_LEVEL", "debug")

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromEnv())

	assert.Equal(t, "parent@example.com", cfg.Procare.Email)
	assert.Equal(t, "hunter2", cfg.Procare.Password)
	assert.Equal(t, "2024-01-01", cfg.Sync.StartDate)
	assert.Equal(t, "/tmp/photos", cfg.Sync.TargetDirectory)
	assert.Equal(t, 4, cfg.Download.ConcurrentDownloads)
	assert.Equal(t, 45*time.Second, cfg.Download.DownloadTimeout)
	assert.Equal(t, 30, cfg.RateLimit.RequestsPerMinute)
	assert.False(t, cfg.Retry.Enabled)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadFromEnvInvalidNumbers(t *testing.T) {
	t.Setenv("PROCAREDL_CONCURRENT_DOWNLOADS", "lots")
	t.Setenv("PROCAREDL_DOWNLOAD_TIMEOUT", "soon")

	cfg := DefaultConfig()
	err := cfg.LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PROCAREDL_CONCURRENT_DOWNLOADS")
	assert.Contains(t, err.Error(), "PROCAREDL_DOWNLOAD_TIMEOUT")
	assert.Equal(t, 8, cfg.Download.ConcurrentDownloads)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
procare:
  email: file@example.com
  base_url: http://localhost:9999/api/web
sync:
  start_date: "2023-06-01"
  target_directory: /data/photos
download:
  concurrent_downloads: 2
  download_timeout: 10s
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromFile(path))

	assert.Equal(t, "file@example.com", cfg.Procare.Email)
	assert.Equal(t, "http://localhost:9999/api/web", cfg.Procare.BaseURL)
	assert.Equal(t, "2023-06-01", cfg.Sync.StartDate)
	assert.Equal(t, "/data/photos", cfg.Sync.TargetDirectory)
	assert.Equal(t, 2, cfg.Download.ConcurrentDownloads)
	assert.Equal(t, 10*time.Second, cfg.Download.DownloadTimeout)
	// untouched sections keep their defaults
	assert.Equal(t, 60, cfg.RateLimit.RequestsPerMinute)
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestSaveNeverWritesPassword(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Procare.Email = "parent@example.com"
	cfg.Procare.Password = "super-secret"
	require.NoError(t, cfg.Save(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "parent@example.com")
	assert.NotContains(t, string(data), "super-secret")

	loaded := DefaultConfig()
	require.NoError(t, loaded.LoadFromFile(path))
	assert.Equal(t, "parent@example.com", loaded.Procare.Email)
	assert.Empty(t, loaded.Procare.Password)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := DefaultConfig()
		cfg.Sync.StartDate = "2024-01-01"
		return cfg
	}

	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{name: "valid", modify: func(*Config) {}},
		{name: "missing start date", modify: func(c *Config) { c.Sync.StartDate = "" }, wantErr: "start date is required"},
		{name: "bad start date", modify: func(c *Config) { c.Sync.StartDate = "01/02/2024" }, wantErr: "YYYY-MM-DD"},
		{name: "missing target", modify: func(c *Config) { c.Sync.TargetDirectory = "" }, wantErr: "target directory is required"},
		{name: "zero concurrency", modify: func(c *Config) { c.Download.ConcurrentDownloads = 0 }, wantErr: "concurrent downloads must be positive"},
		{name: "too much concurrency", modify: func(c *Config) { c.Download.ConcurrentDownloads = 100 }, wantErr: "should not exceed"},
		{name: "zero timeout", modify: func(c *Config) { c.Download.DownloadTimeout = 0 }, wantErr: "download timeout"},
		{name: "zero caption cap", modify: func(c *Config) { c.Download.MaxCaptionBytes = 0 }, wantErr: "max caption bytes"},
		{name: "bad log level", modify: func(c *Config) { c.Logging.Level = "loud" }, wantErr: "invalid log level"},
		{name: "bad notification type", modify: func(c *Config) { c.Notifications.NotificationType = "pager" }, wantErr: "invalid notification type"},
		{name: "retry without attempts", modify: func(c *Config) { c.Retry.MaxAttempts = 0 }, wantErr: "retry max attempts"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestStartTime(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Sync.StartDate = "2024-01-15"

	start, err := cfg.StartTime()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.Local), start)
}

func TestMergeCommandLineFlags(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MergeCommandLineFlags(map[string]interface{}{
		"email":       "flag@example.com",
		"start-date":  "2022-02-02",
		"target-dir":  "/flags",
		"concurrent":  16,
		"timeout":     5 * time.Second,
		"rate-limit":  120,
		"max-retries": 0,
		"log-level":   "warn",
	})

	assert.Equal(t, "flag@example.com", cfg.Procare.Email)
	assert.Equal(t, "2022-02-02", cfg.Sync.StartDate)
	assert.Equal(t, "/flags", cfg.Sync.TargetDirectory)
	assert.Equal(t, 16, cfg.Download.ConcurrentDownloads)
	assert.Equal(t, 5*time.Second, cfg.Download.DownloadTimeout)
	assert.Equal(t, 120, cfg.RateLimit.RequestsPerMinute)
	assert.False(t, cfg.Retry.Enabled)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sync:\n  start_date: \"2020-01-01\"\n  target_directory: /from-file\n"), 0600))

	t.Setenv("HOME", dir)
	t.Setenv("PROCAREDL_TARGET_DIR", "/from-env")

	cfg, err := Load(path, map[string]interface{}{"start-date": "2021-05-05"})
	require.NoError(t, err)

	assert.Equal(t, "2021-05-05", cfg.Sync.StartDate, "flags beat file")
	assert.Equal(t, "/from-env", cfg.Sync.TargetDirectory, "env beats file")
}
