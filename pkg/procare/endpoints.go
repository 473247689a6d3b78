package procare

import (
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	// AuthPath is the session endpoint relative to the API base URL
	AuthPath = "/auth/"
	// PhotosPath is the parent photo index relative to the API base URL
	PhotosPath = "/parent/photos/"

	// FilterLayout formats the datetime_from/datetime_to filters (24-hour clock)
	FilterLayout = "2006-01-02 15:04"

	// Platform and Role are the fixed values the session endpoint expects
	Platform = "web"
	Role     = "carer"
)

// AuthURL returns the session endpoint for baseURL
func AuthURL(baseURL string) string {
	return strings.TrimRight(baseURL, "/") + AuthPath
}

// PhotosURL returns the photo index URL for one page of a date window
func PhotosURL(baseURL string, from, to time.Time, page int) string {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("filters[photo][datetime_from]", from.Format(FilterLayout))
	q.Set("filters[photo][datetime_to]", to.Format(FilterLayout))
	return strings.TrimRight(baseURL, "/") + PhotosPath + "?" + q.Encode()
}
