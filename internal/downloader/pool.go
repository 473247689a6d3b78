package downloader

import (
	"bytes"
	"context"
	"io"
	"sync"
	"time"

	errs "procaredl/pkg/errors"
	"procaredl/pkg/logger"
	"procaredl/pkg/procare"
	"procaredl/pkg/ui"
)

// DownloadJob is one photo paired with the filename it will be stored under
type DownloadJob struct {
	Photo    procare.Photo
	Filename string
}

// DownloadResult is the terminal state of a job
type DownloadResult struct {
	Job     DownloadJob
	Outcome ui.Outcome
	// Error is set when Outcome is OutcomeFailed
	Error error
	// MetadataError is set when the photo was saved but its metadata was not
	MetadataError error
	Duration      time.Duration
	Size          int
}

// PhotoDownloader fetches photo bytes
type PhotoDownloader interface {
	DownloadPhoto(ctx context.Context, url string) ([]byte, error)
}

// PhotoStorage persists photos in the target directory
type PhotoStorage interface {
	Exists(filename string) bool
	Reserve(filename string) bool
	Save(r io.Reader, filename string) (string, error)
}

// MetadataWriter embeds capture time and caption into a saved photo
type MetadataWriter interface {
	Write(path string, capturedAt time.Time, caption string) error
}

// WorkerPool runs a fixed number of download workers
type WorkerPool struct {
	numWorkers     int
	jobQueue       chan DownloadJob
	resultQueue    chan DownloadResult
	wg             sync.WaitGroup
	client         PhotoDownloader
	storageManager PhotoStorage
	metadata       MetadataWriter
	logger         logger.Logger
}

// NewWorkerPool creates a pool of numWorkers workers. numWorkers below one
// is raised to one.
func NewWorkerPool(
	numWorkers int,
	client PhotoDownloader,
	storageManager PhotoStorage,
	metadata MetadataWriter,
	log logger.Logger,
) *WorkerPool {
	if numWorkers < 1 {
		numWorkers = 1
	}
	if log == nil {
		log = logger.GetLogger()
	}

	return &WorkerPool{
		numWorkers:     numWorkers,
		jobQueue:       make(chan DownloadJob, numWorkers*2),
		resultQueue:    make(chan DownloadResult, numWorkers),
		client:         client,
		storageManager: storageManager,
		metadata:       metadata,
		logger:         log,
	}
}

// Start launches the workers. Jobs processed after ctx is cancelled fail
// immediately, so every submitted job still yields exactly one result.
func (wp *WorkerPool) Start(ctx context.Context) {
	wp.logger.InfoWithFields("Starting worker pool", map[string]interface{}{
		"num_workers": wp.numWorkers,
	})

	for i := 0; i < wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(ctx, i)
	}
}

// Stop closes the job queue, waits for the workers to drain it and then
// closes the result channel.
func (wp *WorkerPool) Stop() {
	close(wp.jobQueue)
	wp.wg.Wait()
	close(wp.resultQueue)
	wp.logger.Debug("Worker pool stopped")
}

// Submit queues a job, blocking while the queue is full
func (wp *WorkerPool) Submit(job DownloadJob) {
	wp.jobQueue <- job
	wp.logger.DebugWithFields("Job submitted to queue", map[string]interface{}{
		"file": job.Filename,
	})
}

// Results returns the result channel. It must be drained for the workers
// to make progress.
func (wp *WorkerPool) Results() <-chan DownloadResult {
	return wp.resultQueue
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	defer wp.wg.Done()

	for job := range wp.jobQueue {
		wp.resultQueue <- wp.processJob(ctx, job, id)
	}
}

func (wp *WorkerPool) processJob(ctx context.Context, job DownloadJob, workerID int) (result DownloadResult) {
	start := time.Now()
	result = DownloadResult{Job: job, Outcome: ui.OutcomeFailed}
	defer func() { result.Duration = time.Since(start) }()

	if err := ctx.Err(); err != nil {
		result.Error = &errs.DownloadError{URL: job.Photo.URL, Filename: job.Filename, Err: err}
		return result
	}

	if wp.storageManager.Exists(job.Filename) || !wp.storageManager.Reserve(job.Filename) {
		result.Outcome = ui.OutcomeSkipped
		return result
	}

	data, err := wp.client.DownloadPhoto(ctx, job.Photo.URL)
	if err != nil {
		result.Error = &errs.DownloadError{URL: job.Photo.URL, Filename: job.Filename, Err: err}
		return result
	}
	result.Size = len(data)

	path, err := wp.storageManager.Save(bytes.NewReader(data), job.Filename)
	if err != nil {
		result.Error = &errs.DownloadError{URL: job.Photo.URL, Filename: job.Filename, Err: err}
		return result
	}
	result.Outcome = ui.OutcomeDownloaded

	if wp.metadata != nil {
		if err := wp.metadata.Write(path, job.Photo.CreatedAt, job.Photo.Caption); err != nil {
			result.MetadataError = err
		}
	}

	wp.logger.DebugWithFields("Worker completed job", map[string]interface{}{
		"worker_id": workerID,
		"file":      job.Filename,
		"size":      result.Size,
	})
	return result
}
