package errors

import (
	"fmt"
	"time"
)

// ErrorType represents different types of errors that can occur
type ErrorType string

const (
	ErrorTypeNetwork     ErrorType = "network"
	ErrorTypeRateLimit   ErrorType = "rate_limit"
	ErrorTypeAuth        ErrorType = "auth"
	ErrorTypeParsing     ErrorType = "parsing"
	ErrorTypeNotFound    ErrorType = "not_found"
	ErrorTypeServerError ErrorType = "server_error"
	ErrorTypeUnknown     ErrorType = "unknown"
)

// Error represents an API error with type information
type Error struct {
	Type    ErrorType
	Message string
	Code    int
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s error (code %d): %s", e.Type, e.Code, e.Message)
}

// IsRetryable checks if an error type should be retried
func IsRetryable(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeNetwork, ErrorTypeRateLimit, ErrorTypeServerError:
		return true
	default:
		return false
	}
}

// IsRetryableStatusCode checks if an HTTP status code indicates a retryable error
func IsRetryableStatusCode(statusCode int) bool {
	switch statusCode {
	case 0, 429:
		return true
	case 401, 403, 404:
		return false
	default:
		return statusCode >= 500
	}
}

// AuthenticationError is returned when the session endpoint rejects the
// credentials or answers without a token. It is fatal to a run.
type AuthenticationError struct {
	StatusCode int
	Reason     string
	Err        error
}

func (e *AuthenticationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("authentication failed (status %d): %s: %v", e.StatusCode, e.Reason, e.Err)
	}
	return fmt.Sprintf("authentication failed (status %d): %s", e.StatusCode, e.Reason)
}

func (e *AuthenticationError) Unwrap() error { return e.Err }

// PageFetchError reports a failed photo index page. Only the window it
// belongs to is abandoned.
type PageFetchError struct {
	From time.Time
	To   time.Time
	Page int
	Err  error
}

func (e *PageFetchError) Error() string {
	return fmt.Sprintf("failed to fetch page %d of window %s..%s: %v",
		e.Page, e.From.Format("2006-01-02"), e.To.Format("2006-01-02"), e.Err)
}

func (e *PageFetchError) Unwrap() error { return e.Err }

// DownloadError reports a photo whose bytes could not be fetched or saved.
type DownloadError struct {
	URL      string
	Filename string
	Err      error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("failed to download %s: %v", e.Filename, e.Err)
}

func (e *DownloadError) Unwrap() error { return e.Err }

// MetadataError reports a downloaded photo whose metadata could not be
// updated. The file itself is kept.
type MetadataError struct {
	Path string
	Err  error
}

func (e *MetadataError) Error() string {
	return fmt.Sprintf("failed to write metadata to %s: %v", e.Path, e.Err)
}

func (e *MetadataError) Unwrap() error { return e.Err }
