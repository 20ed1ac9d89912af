// Package lookup resolves raw content identifiers against the external
// catalog lookup service and normalizes the result into a ResolvedIdentity.
package lookup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// defaultBaseURL is variable so tests can point the client at a local server.
var defaultBaseURL = "https://api.javdatabase.com"

// SetBaseURLForTesting temporarily overrides the default API base URL and
// returns the previous value so it can be restored.
func SetBaseURLForTesting(newURL string) string {
	oldURL := defaultBaseURL
	defaultBaseURL = newURL
	return oldURL
}

// ErrNotFound indicates the service definitively does not know the id (404
// or an error-bearing body). Other failures are transport errors; the
// resolver treats both the same way, but callers may want to distinguish.
var ErrNotFound = errors.New("identifier not found")

// Record is the useful subset of a successful lookup response. Either field
// may be empty even on success; the caller handles partial results.
type Record struct {
	DVDID       string `json:"dvd_id"`
	ReleaseDate string `json:"release_date"`
	Error       string `json:"error,omitempty"`
}

// Client queries the lookup service. Calls carry a fixed short timeout; a
// timeout is a recoverable per-variant failure, never fatal.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a lookup client. An empty baseURL selects the default
// service endpoint.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

// Fetch looks up one identifier verbatim. Returns ErrNotFound for a 404 or
// an error-bearing body; any other non-200 status is also treated as
// not-found for resolution purposes, per the service contract.
func (c *Client) Fetch(ctx context.Context, id string) (*Record, error) {
	apiURL := fmt.Sprintf("%s/movies/%s", c.baseURL, url.PathEscape(id))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create lookup request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("lookup request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, ErrNotFound
	}

	var record Record
	if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
		return nil, fmt.Errorf("failed to decode lookup response: %w", err)
	}
	if record.Error != "" {
		return nil, ErrNotFound
	}

	record.DVDID = strings.TrimSpace(record.DVDID)
	record.ReleaseDate = strings.TrimSpace(record.ReleaseDate)
	return &record, nil
}
