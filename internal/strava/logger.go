package strava

import (
	"time"

	"github.com/stravasync/stravasync/internal/logging"
)

// logRequest logs an API request being made.
func logRequest(method, endpoint, url string) {
	logging.Debug().Str("provider", "strava").Str("endpoint", endpoint).Str("method", method).Str("url", url).Msg("request")
}

// logResponse logs an API response received.
func logResponse(endpoint string, statusCode int, duration time.Duration) {
	logging.Debug().Str("provider", "strava").Str("endpoint", endpoint).
		Int("status", statusCode).Int64("duration_ms", duration.Milliseconds()).Msg("response")
}

// logError logs an error from an API operation.
func logError(endpoint, operation string, err error) {
	logging.Warn().Str("provider", "strava").Str("endpoint", endpoint).Str("op", operation).Err(err).Msg("request failed")
}
