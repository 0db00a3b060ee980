package strava

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrRateLimited matches any APIError carrying HTTP 429.
var ErrRateLimited = errors.New("strava: rate limit exceeded")

// APIError is returned for any non-2xx response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("strava: status %d", e.StatusCode)
	}
	return fmt.Sprintf("strava: status %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Is(target error) bool {
	return target == ErrRateLimited && e.StatusCode == http.StatusTooManyRequests
}
