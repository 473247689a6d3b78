// Package procare is a client for the Procare Connect parent web API.
//
// It covers the three calls procaredl needs: exchanging credentials for a
// bearer token, reading one page of the parent photo index for a date
// window, and fetching photo bytes. Failures are reported as typed
// errors from pkg/errors so callers can decide what is fatal.
package procare
