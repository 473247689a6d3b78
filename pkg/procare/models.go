package procare

import (
	"encoding/json"
	"strings"
	"time"
)

// Photo describes one remote photo as returned by the photo index
type Photo struct {
	URL       string
	CreatedAt time.Time
	Caption   string
}

// PhotoPage is one decoded page of the photo index
type PhotoPage struct {
	Photos  []Photo
	Total   int
	PerPage int
	// Dropped counts entries discarded for lacking a usable URL
	Dropped int
}

type authRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Platform string `json:"platform"`
	Role     string `json:"role"`
}

// authResponse accepts both the current flat shape and the older
// {"user": {"auth_token": ...}} shape.
type authResponse struct {
	AuthToken string `json:"auth_token"`
	User      *struct {
		AuthToken string `json:"auth_token"`
	} `json:"user"`
}

func (r authResponse) token() string {
	if r.AuthToken != "" {
		return r.AuthToken
	}
	if r.User != nil {
		return r.User.AuthToken
	}
	return ""
}

// photosResponse keeps entries raw so one malformed entry cannot fail
// the whole page
type photosResponse struct {
	Photos  []json.RawMessage `json:"photos"`
	Total   int               `json:"total"`
	PerPage int               `json:"per_page"`
}

type rawPhoto struct {
	MainURL   string  `json:"main_url"`
	CreatedAt string  `json:"created_at"`
	Caption   *string `json:"caption"`
}

var createdAtLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000Z0700",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// parseCreatedAt returns the zero time when value matches no known layout
func parseCreatedAt(value string) time.Time {
	value = strings.TrimSpace(value)
	for _, layout := range createdAtLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}
