// Package retry retries transient failures of photo index and photo byte
// requests with exponential backoff.
//
// Only typed API errors classified as transient (network, rate_limit,
// server_error) are retried. Authentication is never routed through here.
//
//	cfg := retry.FromSettings(appCfg.Retry, log)
//	page, err := retry.DoWithResult(ctx, func(ctx context.Context) (*procare.PhotoPage, error) {
//	    return client.FetchPhotoPage(ctx, window, n)
//	}, cfg)
package retry
