package downloader

import (
	"context"

	"golang.org/x/sync/errgroup"

	"procaredl/pkg/logger"
	"procaredl/pkg/procare"
	"procaredl/pkg/storage"
	"procaredl/pkg/ui"
)

// ProgressReporter receives the counters after every completed photo
type ProgressReporter interface {
	Report(ui.Snapshot)
}

// Dispatcher downloads a set of photos with bounded concurrency and
// reports progress through an injected tracker.
type Dispatcher struct {
	workers  int
	client   PhotoDownloader
	storage  PhotoStorage
	metadata MetadataWriter
	tracker  *ui.Tracker
	reporter ProgressReporter
	logger   logger.Logger
}

// NewDispatcher wires a dispatcher. reporter may be nil.
func NewDispatcher(
	workers int,
	client PhotoDownloader,
	store PhotoStorage,
	metadata MetadataWriter,
	tracker *ui.Tracker,
	reporter ProgressReporter,
	log logger.Logger,
) *Dispatcher {
	if log == nil {
		log = logger.GetLogger()
	}
	if tracker == nil {
		tracker = ui.NewTracker()
	}
	return &Dispatcher{
		workers:  workers,
		client:   client,
		storage:  store,
		metadata: metadata,
		tracker:  tracker,
		reporter: reporter,
		logger:   log,
	}
}

// Tracker returns the progress tracker the dispatcher reports into
func (d *Dispatcher) Tracker() *ui.Tracker {
	return d.tracker
}

// Run processes every photo and returns once each one has reached a
// terminal state. Individual failures are counted, never returned. The
// tracker is reset first, so counters only ever describe this call.
//
// The errgroup only joins the submitter and the result consumer; neither
// can fail, so Run has no error to return.
func (d *Dispatcher) Run(ctx context.Context, photos []procare.Photo) ui.Snapshot {
	d.tracker.Reset(len(photos))
	if len(photos) == 0 {
		return d.tracker.Snapshot()
	}

	pool := NewWorkerPool(d.workers, d.client, d.storage, d.metadata, d.logger)
	pool.Start(ctx)

	var g errgroup.Group
	g.Go(func() error {
		for _, photo := range photos {
			pool.Submit(DownloadJob{
				Photo:    photo,
				Filename: storage.FilenameFromURL(photo.URL),
			})
		}
		pool.Stop()
		return nil
	})
	g.Go(func() error {
		for result := range pool.Results() {
			d.record(result)
		}
		return nil
	})
	// both goroutines return nil; Wait is the join barrier
	_ = g.Wait()

	return d.tracker.Snapshot()
}

// record runs on a single goroutine, so progress lines come out in order
func (d *Dispatcher) record(result DownloadResult) {
	if result.MetadataError != nil {
		d.tracker.MetadataFailed()
		d.logger.WithField("file", result.Job.Filename).
			WithError(result.MetadataError).
			Warn("Photo saved without metadata")
	}

	snapshot := d.tracker.Complete(result.Outcome)
	logger.LogDownload(d.logger, result.Job.Filename, result.Outcome.String(), result.Error)

	if d.reporter != nil {
		d.reporter.Report(snapshot)
	}
}
