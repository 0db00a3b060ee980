package strava

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/stravasync/stravasync/internal/observability"
)

const (
	// BaseURL is the Strava v3 API root.
	BaseURL = "https://www.strava.com/api/v3"

	// TokenURL is the OAuth token endpoint used for the refresh-token grant.
	TokenURL = "https://www.strava.com/oauth/token"

	// PageMax is the largest per_page value the activities listing honors.
	PageMax = 200

	// RateWindow is the span of Strava's short-term request limit.
	RateWindow = 15 * time.Minute
)

// Config holds the endpoints and the long-lived refresh credential.
type Config struct {
	BaseURL      string
	TokenURL     string
	ClientID     string
	ClientSecret string
	RefreshToken string
	Timeout      time.Duration

	// RequestsPerWindow caps requests per RateWindow on this side of the
	// wire. Zero means unlimited.
	RequestsPerWindow int
}

// Client is an HTTP client for the Strava API. Access tokens are obtained
// from the refresh token on first use and reused until they expire.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a new Strava API client. ctx only scopes token refreshes.
func NewClient(ctx context.Context, cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = BaseURL
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = TokenURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	oauthCfg := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint: oauth2.Endpoint{
			TokenURL:  cfg.TokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}

	tokenCtx := context.WithValue(ctx, oauth2.HTTPClient, &http.Client{Timeout: cfg.Timeout})
	source := oauthCfg.TokenSource(tokenCtx, &oauth2.Token{RefreshToken: cfg.RefreshToken})

	httpClient := oauth2.NewClient(tokenCtx, source)
	httpClient.Timeout = cfg.Timeout

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RequestsPerWindow > 0 {
		limiter = rate.NewLimiter(rate.Every(RateWindow/time.Duration(cfg.RequestsPerWindow)), cfg.RequestsPerWindow)
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: httpClient,
		limiter:    limiter,
	}
}

// ListActivities returns one page of the athlete's activities, newest first.
func (c *Client) ListActivities(ctx context.Context, perPage, page int) ([]SummaryActivity, error) {
	params := url.Values{}
	params.Set("per_page", strconv.Itoa(perPage))
	params.Set("page", strconv.Itoa(page))

	var out []SummaryActivity
	if err := c.get(ctx, "activities", "/athlete/activities", params, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetActivity fetches one activity including its segment efforts.
func (c *Client) GetActivity(ctx context.Context, id int64) (*DetailedActivity, error) {
	var out DetailedActivity
	if err := c.get(ctx, "activity", "/activities/"+strconv.FormatInt(id, 10), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetSegment fetches one segment by segment id (not effort id).
func (c *Client) GetSegment(ctx context.Context, id int64) (*Segment, error) {
	var out Segment
	if err := c.get(ctx, "segment", "/segments/"+strconv.FormatInt(id, 10), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// HealthCheck verifies the credentials by fetching the authenticated athlete.
func (c *Client) HealthCheck(ctx context.Context) (*Athlete, error) {
	var out Athlete
	if err := c.get(ctx, "athlete", "/athlete", nil, &out); err != nil {
		return nil, fmt.Errorf("health check: %w", err)
	}
	return &out, nil
}

func (c *Client) get(ctx context.Context, endpoint, path string, params url.Values, out interface{}) error {
	fullURL := c.baseURL + path
	if len(params) > 0 {
		fullURL += "?" + params.Encode()
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("strava %s request budget: %w", endpoint, err)
	}

	start := time.Now()
	logRequest(http.MethodGet, endpoint, fullURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		observability.RecordAPIRequest(endpoint, 0)
		logError(endpoint, "fetch", err)
		return fmt.Errorf("strava %s request: %w", endpoint, err)
	}
	defer resp.Body.Close()

	observability.RecordAPIRequest(endpoint, resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := newAPIError(resp)
		logError(endpoint, "fetch", apiErr)
		return apiErr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		logError(endpoint, "decode", err)
		return fmt.Errorf("decode strava %s: %w", endpoint, err)
	}

	logResponse(endpoint, resp.StatusCode, time.Since(start))
	return nil
}

func newAPIError(resp *http.Response) *APIError {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var parsed apiErrorBody
	if json.Unmarshal(body, &parsed) == nil && parsed.Message != "" {
		apiErr.Message = parsed.Message
	} else {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}
