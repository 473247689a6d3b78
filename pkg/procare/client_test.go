package procare

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	errs "procaredl/pkg/errors"
	"procaredl/pkg/logger"
	"procaredl/pkg/retry"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/api/web", 5*time.Second, logger.NewTestLogger()), srv
}

func TestAuthenticate(t *testing.T) {
	var got authRequest
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/web/auth/", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"auth_token":"tok-123"}`))
	})

	token, err := client.Authenticate(context.Background(), "parent@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "tok-123", token)
	assert.Equal(t, authRequest{Email: "parent@example.com", Password: "pw", Platform: "web", Role: "carer"}, got)
}

func TestAuthenticateNestedToken(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"user":{"auth_token":"nested"}}`))
	})

	token, err := client.Authenticate(context.Background(), "a@b.c", "pw")
	require.NoError(t, err)
	assert.Equal(t, "nested", token)
}

func TestAuthenticateFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		reason string
	}{
		{name: "rejected", status: http.StatusUnauthorized, body: `{"error":"bad"}`, reason: "rejected"},
		{name: "server error", status: http.StatusInternalServerError, body: ``, reason: "rejected"},
		{name: "missing token", status: http.StatusOK, body: `{"user":{}}`, reason: "no auth_token"},
		{name: "garbage", status: http.StatusOK, body: `<html>`, reason: "failed to parse"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&calls, 1)
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})
			client.SetRetryConfig(&retry.Config{MaxAttempts: 5, Backoff: &retry.ConstantBackoff{}})

			_, err := client.Authenticate(context.Background(), "a@b.c", "pw")
			require.Error(t, err)

			var authErr *errs.AuthenticationError
			require.True(t, errors.As(err, &authErr))
			assert.Contains(t, authErr.Reason, tt.reason)
			assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "authentication is never retried")
		})
	}
}

func TestFetchPhotoPage(t *testing.T) {
	from := time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 3, 16, 0, 0, 0, 0, time.UTC)

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/web/parent/photos/", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "2024-02-15 00:00", r.URL.Query().Get("filters[photo][datetime_from]"))
		assert.Equal(t, "2024-03-16 00:00", r.URL.Query().Get("filters[photo][datetime_to]"))
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		w.Write([]byte(`{
			"total": 3, "per_page": 50,
			"photos": [
				{"main_url": "https://cdn.example.com/p/a.jpg", "created_at": "2024-03-01T10:20:30.000-05:00", "caption": "Painting"},
				{"main_url": "", "created_at": "2024-03-01T10:20:30Z"},
				{"main_url": "https://cdn.example.com/p/b_jpg", "created_at": "not a date", "caption": null}
			]
		}`))
	})
	client.SetAuthToken("tok")

	page, err := client.FetchPhotoPage(context.Background(), from, to, 2)
	require.NoError(t, err)

	assert.Equal(t, 3, page.Total)
	assert.Equal(t, 50, page.PerPage)
	assert.Equal(t, 1, page.Dropped)
	require.Len(t, page.Photos, 2)

	assert.Equal(t, "https://cdn.example.com/p/a.jpg", page.Photos[0].URL)
	assert.Equal(t, "Painting", page.Photos[0].Caption)
	want := time.Date(2024, 3, 1, 10, 20, 30, 0, time.FixedZone("", -5*3600))
	assert.True(t, want.Equal(page.Photos[0].CreatedAt))

	assert.True(t, page.Photos[1].CreatedAt.IsZero())
	assert.Empty(t, page.Photos[1].Caption)
}

func TestFetchPhotoPageDropsMalformedEntries(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"total": 5, "per_page": 50,
			"photos": [
				{"main_url": "https://cdn.example.com/p/a.jpg", "created_at": "2024-03-01T10:00:00Z"},
				{"main_url": 123, "created_at": "2024-03-01T10:00:00Z"},
				{"main_url": "https://cdn.example.com/p/c.jpg", "caption": 7},
				"not an object",
				{"main_url": "https://cdn.example.com/p/e.jpg", "created_at": 20240301}
			]
		}`))
	})

	page, err := client.FetchPhotoPage(context.Background(), time.Now().AddDate(0, -1, 0), time.Now(), 1)
	require.NoError(t, err)
	assert.Equal(t, 4, page.Dropped)
	require.Len(t, page.Photos, 1)
	assert.Equal(t, "https://cdn.example.com/p/a.jpg", page.Photos[0].URL)
}

func TestFetchPhotoPageRetriesServerErrors(t *testing.T) {
	var calls int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"total":0,"per_page":50,"photos":[]}`))
	})
	client.SetRetryConfig(&retry.Config{MaxAttempts: 3, Backoff: &retry.ConstantBackoff{Delay: time.Millisecond}})

	page, err := client.FetchPhotoPage(context.Background(), time.Now().AddDate(0, -1, 0), time.Now(), 1)
	require.NoError(t, err)
	assert.Empty(t, page.Photos)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestFetchPhotoPageParsingError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	})

	_, err := client.FetchPhotoPage(context.Background(), time.Now().AddDate(0, -1, 0), time.Now(), 1)
	var apiErr *errs.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, errs.ErrorTypeParsing, apiErr.Type)
}

func TestDownloadPhoto(t *testing.T) {
	client, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		if r.URL.Path == "/missing.jpg" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("jpeg-bytes"))
	})
	client.SetAuthToken("tok")

	data, err := client.DownloadPhoto(context.Background(), srv.URL+"/a.jpg")
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg-bytes"), data)

	_, err = client.DownloadPhoto(context.Background(), srv.URL+"/missing.jpg")
	var apiErr *errs.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, errs.ErrorTypeNotFound, apiErr.Type)
}

func TestDownloadPhotoTimeout(t *testing.T) {
	client, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})
	client.SetDownloadTimeout(50 * time.Millisecond)

	start := time.Now()
	_, err := client.DownloadPhoto(context.Background(), srv.URL+"/slow.jpg")
	require.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)
}

func TestEndpoints(t *testing.T) {
	assert.Equal(t, "https://x/api/web/auth/", AuthURL("https://x/api/web/"))
	u := PhotosURL("https://x/api/web", time.Date(2024, 1, 1, 13, 5, 0, 0, time.UTC), time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), 1)
	assert.Contains(t, u, "https://x/api/web/parent/photos/?")
	assert.Contains(t, u, "page=1")
	assert.Contains(t, u, "2024-01-01+13%3A05")
}
