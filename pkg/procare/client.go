package procare

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	errs "procaredl/pkg/errors"
	"procaredl/pkg/logger"
	"procaredl/pkg/ratelimit"
	"procaredl/pkg/retry"
)

// maxErrorBody bounds how much of an error response is kept for logging
const maxErrorBody = 200

// Client talks to the Procare web API
type Client struct {
	httpClient      *http.Client
	headers         map[string]string
	baseURL         string
	downloadTimeout time.Duration
	limiter         ratelimit.Limiter
	retryConfig     *retry.Config
	logger          logger.Logger
}

// NewClient creates a client for baseURL. requestTimeout bounds index and
// session calls; photo downloads use SetDownloadTimeout.
func NewClient(baseURL string, requestTimeout time.Duration, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
		headers: map[string]string{
			"Accept":     "application/json, text/plain, */*",
			"User-Agent": "procaredl/1.0",
		},
		baseURL:         baseURL,
		downloadTimeout: requestTimeout,
		limiter:         ratelimit.Unlimited{},
		retryConfig:     &retry.Config{MaxAttempts: 1, Logger: log},
		logger:          log,
	}
}

// SetHeader sets a custom header for every request
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

// SetAuthToken attaches the session token to every subsequent request
func (c *Client) SetAuthToken(token string) {
	c.SetHeader("Authorization", "Bearer "+token)
}

// SetDownloadTimeout bounds each photo byte fetch
func (c *Client) SetDownloadTimeout(d time.Duration) {
	c.downloadTimeout = d
}

// SetRateLimiter throttles photo index requests
func (c *Client) SetRateLimiter(l ratelimit.Limiter) {
	if l == nil {
		l = ratelimit.Unlimited{}
	}
	c.limiter = l
}

// SetRetryConfig enables retries of transient index and download failures
func (c *Client) SetRetryConfig(cfg *retry.Config) {
	if cfg != nil {
		c.retryConfig = cfg
	}
}

// SetHTTPClient replaces the underlying HTTP client
func (c *Client) SetHTTPClient(hc *http.Client) {
	c.httpClient = hc
}

// Authenticate exchanges credentials for a bearer token with a single
// request. It is never retried and every failure is an AuthenticationError.
func (c *Client) Authenticate(ctx context.Context, email, password string) (string, error) {
	body, err := json.Marshal(authRequest{
		Email:    email,
		Password: password,
		Platform: Platform,
		Role:     Role,
	})
	if err != nil {
		return "", &errs.AuthenticationError{Reason: "failed to encode credentials", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, AuthURL(c.baseURL), bytes.NewReader(body))
	if err != nil {
		return "", &errs.AuthenticationError{Reason: "failed to create request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	c.logger.InfoWithFields("Authenticating", map[string]interface{}{
		"email": logger.MaskEmail(email),
	})

	resp, err := c.doRequest(req)
	if err != nil {
		return "", &errs.AuthenticationError{Reason: "session request failed", Err: err}
	}
	defer resp.Body.Close()

	if err := c.checkResponseStatus(resp); err != nil {
		return "", &errs.AuthenticationError{
			StatusCode: resp.StatusCode,
			Reason:     "session endpoint rejected the credentials",
			Err:        err,
		}
	}

	var parsed authResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", &errs.AuthenticationError{
			StatusCode: resp.StatusCode,
			Reason:     "failed to parse session response",
			Err:        err,
		}
	}

	token := parsed.token()
	if token == "" {
		return "", &errs.AuthenticationError{
			StatusCode: resp.StatusCode,
			Reason:     "session response has no auth_token",
		}
	}

	c.logger.Info("Authenticated")
	return token, nil
}

// FetchPhotoPage reads one page of the photo index limited to [from, to].
// Entries without a usable URL are dropped and counted in Dropped.
func (c *Client) FetchPhotoPage(ctx context.Context, from, to time.Time, page int) (*PhotoPage, error) {
	pageURL := PhotosURL(c.baseURL, from, to, page)

	return retry.DoWithResult(ctx, func(ctx context.Context) (*PhotoPage, error) {
		if !c.limiter.Allow() {
			logger.LogRateLimit(c.logger, PhotosPath)
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		var raw photosResponse
		if err := c.getJSON(ctx, pageURL, &raw); err != nil {
			return nil, err
		}
		return decodePage(raw), nil
	}, c.retryConfig)
}

func decodePage(raw photosResponse) *PhotoPage {
	page := &PhotoPage{
		Photos:  make([]Photo, 0, len(raw.Photos)),
		Total:   raw.Total,
		PerPage: raw.PerPage,
	}

	for _, entry := range raw.Photos {
		var p rawPhoto
		if err := json.Unmarshal(entry, &p); err != nil || !usableURL(p.MainURL) {
			page.Dropped++
			continue
		}
		photo := Photo{
			URL:       p.MainURL,
			CreatedAt: parseCreatedAt(p.CreatedAt),
		}
		if p.Caption != nil {
			photo.Caption = *p.Caption
		}
		page.Photos = append(page.Photos, photo)
	}
	return page
}

func usableURL(raw string) bool {
	if raw == "" {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// DownloadPhoto fetches the raw bytes of a photo, bounded by the download
// timeout. Transient failures are retried per the retry config.
func (c *Client) DownloadPhoto(ctx context.Context, photoURL string) ([]byte, error) {
	return retry.DoWithResult(ctx, func(ctx context.Context) ([]byte, error) {
		ctx, cancel := context.WithTimeout(ctx, c.downloadTimeout)
		defer cancel()

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, photoURL, nil)
		if err != nil {
			return nil, &errs.Error{
				Type:    errs.ErrorTypeUnknown,
				Message: fmt.Sprintf("failed to create request: %v", err),
			}
		}

		resp, err := c.doRequest(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if err := c.checkResponseStatus(resp); err != nil {
			return nil, err
		}

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, &errs.Error{
				Type:    errs.ErrorTypeNetwork,
				Message: fmt.Sprintf("failed to read photo body: %v", err),
				Code:    resp.StatusCode,
			}
		}
		return data, nil
	}, c.retryConfig)
}

// doRequest performs an HTTP request with the configured headers
func (c *Client) doRequest(req *http.Request) (*http.Response, error) {
	for key, value := range c.headers {
		if req.Header.Get(key) == "" {
			req.Header.Set(key, value)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil && stderrors.Is(ctxErr, context.Canceled) {
			return nil, ctxErr
		}
		c.logger.DebugWithFields("HTTP request failed", map[string]interface{}{
			"method":   req.Method,
			"path":     req.URL.Path,
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, &errs.Error{
			Type:    errs.ErrorTypeNetwork,
			Message: fmt.Sprintf("network error: %v", err),
		}
	}

	c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"method":   req.Method,
		"path":     req.URL.Path,
		"status":   resp.StatusCode,
		"duration": duration,
	})
	return resp, nil
}

// getJSON performs a GET request and decodes the JSON response
func (c *Client) getJSON(ctx context.Context, rawURL string, target interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return &errs.Error{
			Type:    errs.ErrorTypeUnknown,
			Message: fmt.Sprintf("failed to create request: %v", err),
		}
	}

	resp, err := c.doRequest(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkResponseStatus(resp); err != nil {
		return err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &errs.Error{
			Type:    errs.ErrorTypeNetwork,
			Message: fmt.Sprintf("failed to read response body: %v", err),
			Code:    resp.StatusCode,
		}
	}

	if err := json.Unmarshal(body, target); err != nil {
		preview := string(body)
		if len(preview) > maxErrorBody {
			preview = preview[:maxErrorBody] + "..."
		}
		c.logger.ErrorWithFields("failed to parse JSON response", map[string]interface{}{
			"path":         req.URL.Path,
			"status":       resp.StatusCode,
			"error":        err.Error(),
			"body_preview": preview,
		})
		return &errs.Error{
			Type:    errs.ErrorTypeParsing,
			Message: fmt.Sprintf("failed to parse JSON: %v", err),
			Code:    resp.StatusCode,
		}
	}
	return nil
}

// checkResponseStatus maps non-2xx statuses to typed errors
func (c *Client) checkResponseStatus(resp *http.Response) error {
	code := resp.StatusCode
	if code >= 200 && code < 300 {
		return nil
	}

	var errType errs.ErrorType
	var message string
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		errType, message = errs.ErrorTypeAuth, "not authorized"
	case code == http.StatusNotFound:
		errType, message = errs.ErrorTypeNotFound, "resource not found"
	case code == http.StatusTooManyRequests:
		errType, message = errs.ErrorTypeRateLimit, "rate limit exceeded"
	case code >= 500:
		errType, message = errs.ErrorTypeServerError, "server error"
	default:
		errType, message = errs.ErrorTypeUnknown, fmt.Sprintf("unexpected status code: %d", code)
	}

	c.logger.DebugWithFields("API error response", map[string]interface{}{
		"status": code,
		"type":   string(errType),
	})
	return &errs.Error{Type: errType, Message: message, Code: code}
}
