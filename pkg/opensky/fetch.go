package opensky

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the OpenSky REST API root
	DefaultBaseURL = "https://opensky-network.org/api"

	// DefaultTimeout for API requests
	DefaultTimeout = 15 * time.Second

	// DefaultUserAgent is sent when no other agent is configured
	DefaultUserAgent = "opensky-go"
)

// Fetcher performs one GET request against the API and returns the status
// code and the complete body. Implementations must not retry.
type Fetcher interface {
	Fetch(ctx context.Context, path string, query url.Values) (status int, body []byte, err error)
}

// HTTPFetcher is the net/http Fetcher used by default.
type HTTPFetcher struct {
	baseURL    string
	username   string
	password   string
	userAgent  string
	httpClient *http.Client
}

// NewHTTPFetcher creates a fetcher. Empty values fall back to the defaults;
// basic auth is only sent when username is set.
func NewHTTPFetcher(baseURL, username, password, userAgent string, timeout time.Duration) *HTTPFetcher {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPFetcher{
		baseURL:   strings.TrimRight(baseURL, "/"),
		username:  username,
		password:  password,
		userAgent: userAgent,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Fetch implements Fetcher. Transport and body read failures are returned
// as *TransportError with no body.
func (f *HTTPFetcher) Fetch(ctx context.Context, path string, query url.Values) (int, []byte, error) {
	u := f.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, nil, &TransportError{Path: path, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", f.userAgent)
	if f.username != "" {
		req.SetBasicAuth(f.username, f.password)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return 0, nil, &TransportError{Path: path, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, &TransportError{Path: path, Err: fmt.Errorf("read body: %w", err)}
	}
	return resp.StatusCode, body, nil
}
