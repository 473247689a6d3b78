package scraper

import (
	"context"
	"time"

	"procaredl/pkg/procare"
)

// PhotoAPI is the subset of the Procare client the scraper drives
type PhotoAPI interface {
	Authenticate(ctx context.Context, email, password string) (string, error)
	SetAuthToken(token string)
	FetchPhotoPage(ctx context.Context, from, to time.Time, page int) (*procare.PhotoPage, error)
	DownloadPhoto(ctx context.Context, url string) ([]byte, error)
}
