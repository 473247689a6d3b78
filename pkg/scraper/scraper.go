package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"procaredl/internal/downloader"
	"procaredl/pkg/auth"
	"procaredl/pkg/config"
	"procaredl/pkg/daterange"
	errs "procaredl/pkg/errors"
	"procaredl/pkg/logger"
	"procaredl/pkg/metadata"
	"procaredl/pkg/procare"
	"procaredl/pkg/ratelimit"
	"procaredl/pkg/retry"
	"procaredl/pkg/storage"
	"procaredl/pkg/ui"
)

// Summary describes the outcome of one sync run
type Summary struct {
	RunID          string        `json:"run_id"`
	Windows        int           `json:"windows"`
	Photos         int           `json:"photos"`
	Downloaded     int           `json:"downloaded"`
	Skipped        int           `json:"skipped"`
	Failed         int           `json:"failed"`
	MetadataFailed int           `json:"metadata_failed"`
	PageFailures   int           `json:"page_failures"`
	Dropped        int           `json:"dropped"`
	Duration       time.Duration `json:"duration"`
}

// Scraper runs the sync pipeline: authenticate, walk the monthly windows
// newest first, then download everything that is not on disk yet.
type Scraper struct {
	client      PhotoAPI
	credentials auth.Credentials
	config      *config.Config
	tracker     *ui.Tracker
	progress    downloader.ProgressReporter
	notifier    *ui.Notifier
	logger      logger.Logger
	now         func() time.Time
	runID       string
}

// New creates a scraper backed by the Procare web API
func New(cfg *config.Config, creds *auth.Credentials, log logger.Logger) (*Scraper, error) {
	if creds == nil {
		return nil, errors.New("credentials are required")
	}
	if log == nil {
		log = logger.GetLogger()
	}

	// the client-wide timeout must not cut downloads short; DownloadPhoto
	// applies DownloadTimeout per attempt
	timeout := cfg.Download.RequestTimeout
	if cfg.Download.DownloadTimeout > timeout {
		timeout = cfg.Download.DownloadTimeout
	}

	client := procare.NewClient(cfg.Procare.BaseURL, timeout, log)
	client.SetHTTPClient(&http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxConnsPerHost:     cfg.Download.ConcurrentDownloads,
			MaxIdleConnsPerHost: cfg.Download.ConcurrentDownloads,
			IdleConnTimeout:     90 * time.Second,
		},
	})
	client.SetDownloadTimeout(cfg.Download.DownloadTimeout)
	if cfg.Procare.UserAgent != "" {
		client.SetHeader("User-Agent", cfg.Procare.UserAgent)
	}
	client.SetRateLimiter(ratelimit.NewTokenBucket(
		cfg.RateLimit.RequestsPerMinute,
		time.Minute,
		cfg.RateLimit.BurstSize,
	))
	client.SetRetryConfig(retry.FromSettings(cfg.Retry, log))

	return NewWithClient(cfg, creds, client, log), nil
}

// NewWithClient creates a scraper around an existing API client
func NewWithClient(cfg *config.Config, creds *auth.Credentials, client PhotoAPI, log logger.Logger) *Scraper {
	if log == nil {
		log = logger.GetLogger()
	}
	runID := uuid.NewString()

	s := &Scraper{
		client:   client,
		config:   cfg,
		tracker:  ui.NewTracker(),
		notifier: nil,
		logger:   log.WithField("run_id", runID),
		now:      time.Now,
		runID:    runID,
	}
	if creds != nil {
		s.credentials = *creds
	}
	if cfg.Notifications.Enabled {
		s.notifier = ui.NewNotifier(cfg.Notifications.NotificationType)
	}
	return s
}

// SetProgressReporter sets where "processed/total" lines go
func (s *Scraper) SetProgressReporter(r downloader.ProgressReporter) {
	s.progress = r
}

// SetNotifier overrides the notifier built from config
func (s *Scraper) SetNotifier(n *ui.Notifier) {
	s.notifier = n
}

// SetClock overrides the time source used to partition the date range
func (s *Scraper) SetClock(now func() time.Time) {
	s.now = now
}

// Tracker exposes the live progress counters
func (s *Scraper) Tracker() *ui.Tracker {
	return s.tracker
}

// RunID identifies this run in logs
func (s *Scraper) RunID() string {
	return s.runID
}

// Run executes one sync. Only configuration and authentication failures
// are returned before downloading starts; page and photo failures are
// counted in the Summary. A cancelled ctx returns the partial summary
// together with ctx's error.
func (s *Scraper) Run(ctx context.Context) (*Summary, error) {
	started := time.Now()
	s.tracker.Reset(0)

	start, err := s.config.StartTime()
	if err != nil {
		return nil, fmt.Errorf("invalid start date: %w", err)
	}

	store, err := storage.NewManager(s.config.Sync.TargetDirectory)
	if err != nil {
		return nil, err
	}

	logger.LogComponentStart(s.logger, "sync", map[string]interface{}{
		"start_date":  s.config.Sync.StartDate,
		"target_dir":  store.Dir(),
		"concurrency": s.config.Download.ConcurrentDownloads,
	})

	token, err := s.client.Authenticate(ctx, s.credentials.Email, s.credentials.Password)
	if err != nil {
		s.notifyError("Authentication failed", err.Error())
		return nil, err
	}
	s.client.SetAuthToken(token)

	windows := daterange.Partition(start, s.now())
	summary := &Summary{RunID: s.runID, Windows: len(windows)}

	photos := s.fetchAll(ctx, windows, summary)
	summary.Photos = len(photos)
	s.logger.InfoWithFields("Photo index collected", map[string]interface{}{
		"windows":       len(windows),
		"photos":        len(photos),
		"page_failures": summary.PageFailures,
	})

	if ctx.Err() == nil {
		dispatcher := downloader.NewDispatcher(
			s.config.Download.ConcurrentDownloads,
			s.client,
			store,
			metadata.NewWriter(s.config.Download.MaxCaptionBytes),
			s.tracker,
			s.progress,
			s.logger,
		)
		snap := dispatcher.Run(ctx, photos)
		summary.Downloaded = snap.Downloaded
		summary.Skipped = snap.Skipped
		summary.Failed = snap.Failed
		summary.MetadataFailed = snap.MetadataFailed
	}
	summary.Duration = time.Since(started)

	s.logSummary(summary)
	if err := ctx.Err(); err != nil {
		return summary, err
	}
	s.notifySummary(summary)
	return summary, nil
}

// fetchAll walks the windows one after another and collapses photos that
// appear in more than one window.
func (s *Scraper) fetchAll(ctx context.Context, windows []daterange.Window, summary *Summary) []procare.Photo {
	seen := make(map[string]struct{})
	var photos []procare.Photo

	for _, w := range windows {
		if ctx.Err() != nil {
			break
		}

		found, dropped, err := s.FetchWindow(ctx, w)
		summary.Dropped += dropped
		if err != nil {
			summary.PageFailures++
			s.logger.WithError(err).WithField("window", w.String()).
				Warn("Window pagination aborted, keeping photos fetched so far")
		}

		for _, p := range found {
			if _, dup := seen[p.URL]; dup {
				continue
			}
			seen[p.URL] = struct{}{}
			photos = append(photos, p)
		}
	}
	return photos
}

// FetchWindow pages through the photo index of one window until
// page*per_page reaches total. On a page failure it returns the photos
// gathered so far together with a PageFetchError.
func (s *Scraper) FetchWindow(ctx context.Context, w daterange.Window) ([]procare.Photo, int, error) {
	var photos []procare.Photo
	dropped := 0

	for page := 1; ; page++ {
		if err := ctx.Err(); err != nil {
			return photos, dropped, &errs.PageFetchError{From: w.From, To: w.To, Page: page, Err: err}
		}

		result, err := s.client.FetchPhotoPage(ctx, w.From, w.To, page)
		if err != nil {
			return photos, dropped, &errs.PageFetchError{From: w.From, To: w.To, Page: page, Err: err}
		}

		photos = append(photos, result.Photos...)
		dropped += result.Dropped

		s.logger.DebugWithFields("Photo page fetched", map[string]interface{}{
			"window":   w.String(),
			"page":     page,
			"count":    len(result.Photos),
			"total":    result.Total,
			"per_page": result.PerPage,
		})

		if result.PerPage <= 0 || page*result.PerPage >= result.Total {
			return photos, dropped, nil
		}
	}
}

func (s *Scraper) logSummary(sum *Summary) {
	s.logger.InfoWithFields("Sync finished", map[string]interface{}{
		"photos":          sum.Photos,
		"downloaded":      sum.Downloaded,
		"skipped":         sum.Skipped,
		"failed":          sum.Failed,
		"metadata_failed": sum.MetadataFailed,
		"page_failures":   sum.PageFailures,
		"dropped":         sum.Dropped,
		"duration":        sum.Duration,
	})
}

func (s *Scraper) notifySummary(sum *Summary) {
	if s.notifier == nil {
		return
	}
	msg := fmt.Sprintf("%d downloaded, %d skipped, %d failed", sum.Downloaded, sum.Skipped, sum.Failed)
	if sum.Failed > 0 || sum.PageFailures > 0 {
		if s.config.Notifications.OnError {
			s.notifier.SendError("Sync finished with errors", msg)
		}
		return
	}
	if s.config.Notifications.OnComplete {
		s.notifier.SendSuccess("Sync complete", msg)
	}
}

func (s *Scraper) notifyError(title, msg string) {
	if s.notifier != nil && s.config.Notifications.OnError {
		s.notifier.SendError(title, msg)
	}
}
