package httpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/go-querystring/query"
)

// Client manages making HTTP requests to the tracker API. The API token
// travels as a query parameter on every request, which is how the tracker
// authenticates API calls.
type Client struct {
	baseURL    string
	apiToken   string
	httpClient *http.Client
}

// New creates a tracker HTTP client with a fixed short timeout.
func New(baseURL, apiToken string) *Client {
	return &Client{
		baseURL:    baseURL,
		apiToken:   apiToken,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// GetJSON makes a GET request with query parameters encoded from the params
// struct (its `url` tags) and returns the raw response body. The body is
// returned rather than decoded because search responses come in two envelope
// shapes and the caller owns that normalization.
func (c *Client) GetJSON(ctx context.Context, path string, params interface{}) ([]byte, error) {
	fullURL, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	fullURL.Path += path

	values := url.Values{}
	if params != nil {
		values, err = query.Values(params)
		if err != nil {
			return nil, fmt.Errorf("failed to encode query parameters: %w", err)
		}
	}
	values.Set("api_token", c.apiToken)
	fullURL.RawQuery = values.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("api request failed: status %d, body: %s", resp.StatusCode, string(body))
	}
	return body, nil
}

// PostMultipart submits a prepared multipart body and decodes a JSON
// response into target when one is provided. contentType must be the
// writer's FormDataContentType.
func (c *Client) PostMultipart(ctx context.Context, path, contentType string, body io.Reader, target interface{}) error {
	fullURL, err := url.Parse(c.baseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	fullURL.Path += path
	values := url.Values{}
	values.Set("api_token", c.apiToken)
	fullURL.RawQuery = values.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fullURL.String(), body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("api request failed: status %d, body: %s", resp.StatusCode, string(respBody))
	}
	if target != nil {
		if err := json.Unmarshal(respBody, target); err != nil {
			return fmt.Errorf("failed to unmarshal response body: %w", err)
		}
	}
	return nil
}
