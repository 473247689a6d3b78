// Package scraper runs a full Procare photo sync.
//
// A run authenticates once, splits the period from the configured start
// date to the end of today into monthly windows (newest first), pages
// through the photo index of each window in turn and finally hands the
// collected photos to the download dispatcher. Only configuration and
// authentication errors stop a run; failed pages and failed downloads are
// logged and counted in the returned Summary.
//
// Usage:
//
//	s, err := scraper.New(cfg, creds, log)
//	if err != nil {
//	    return err
//	}
//	s.SetProgressReporter(ui.NewProgressPrinter(os.Stdout))
//	summary, err := s.Run(ctx)
package scraper
