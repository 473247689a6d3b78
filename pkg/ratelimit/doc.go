// Package ratelimit throttles requests to the Procare photo index.
//
// TokenBucket refills continuously at a configured rate and allows short
// bursts up to its capacity. Wait honours context cancellation so an
// interrupted run stops promptly.
//
//	limiter := ratelimit.NewTokenBucket(cfg.RateLimit.RequestsPerMinute, time.Minute, cfg.RateLimit.BurstSize)
//	if err := limiter.Wait(ctx); err != nil {
//	    return err
//	}
package ratelimit
