// Package tracker talks to the private tracker's API: duplicate search
// before a release is prepared, and the multipart upload afterwards.
package tracker

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/clearjav/torrentmeta/internal/httpclient"
)

const (
	searchPath = "/api/torrents/filter"
	uploadPath = "/api/torrents/upload"

	// Fixed classification constants for this tracker.
	CategoryID = 1
	TypeID     = 4
)

// Client wraps the tracker API endpoints used by the pipeline.
type Client struct {
	http *httpclient.Client
}

// NewClient creates a tracker client for the given base URL and API token.
func NewClient(baseURL, apiToken string) *Client {
	return &Client{http: httpclient.New(baseURL, apiToken)}
}

// TorrentRecord is one normalized search result.
type TorrentRecord struct {
	ID   int64
	Name string
}

// wireRecord covers both record shapes the API emits: flat fields, or the
// display data nested under an attributes wrapper.
type wireRecord struct {
	ID         json.Number `json:"id"`
	Name       string      `json:"name"`
	Attributes *struct {
		Name string `json:"name"`
	} `json:"attributes"`
}

func (w wireRecord) normalize() TorrentRecord {
	name := w.Name
	if name == "" && w.Attributes != nil {
		name = w.Attributes.Name
	}
	id, _ := w.ID.Int64()
	return TorrentRecord{ID: id, Name: name}
}

// decodeRecords normalizes the two response envelope shapes (a list
// wrapped under a data key, or a bare list) into one canonical slice.
func decodeRecords(body []byte) ([]TorrentRecord, error) {
	trimmed := strings.TrimSpace(string(body))

	var wire []wireRecord
	if strings.HasPrefix(trimmed, "[") {
		if err := json.Unmarshal(body, &wire); err != nil {
			return nil, fmt.Errorf("failed to decode bare record list: %w", err)
		}
	} else {
		var envelope struct {
			Data []wireRecord `json:"data"`
		}
		if err := json.Unmarshal(body, &envelope); err != nil {
			return nil, fmt.Errorf("failed to decode wrapped record list: %w", err)
		}
		wire = envelope.Data
	}

	records := make([]TorrentRecord, 0, len(wire))
	for _, w := range wire {
		records = append(records, w.normalize())
	}
	return records, nil
}
