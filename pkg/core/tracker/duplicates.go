package tracker

import (
	"context"
	"sort"
	"strings"

	log "github.com/sirupsen/logrus"
)

// searchParams carries one field strategy per query; exactly one of the
// search fields is set per call.
type searchParams struct {
	Name        string `url:"name,omitempty"`
	Description string `url:"description,omitempty"`
	Keywords    string `url:"keywords,omitempty"`
}

// FindDuplicates searches the tracker for releases that probably already
// cover the catalog id, using three independent field strategies and
// merging the results with de-duplication on the tracker's record id. A
// single failed query degrades to an empty result with a warning; the check
// as a whole never fails.
func (c *Client) FindDuplicates(ctx context.Context, catalogID string) []TorrentRecord {
	strategies := []struct {
		field  string
		params searchParams
	}{
		{"name", searchParams{Name: catalogID}},
		{"description", searchParams{Description: catalogID}},
		{"keywords", searchParams{Keywords: catalogID}},
	}

	needle := strings.ToLower(catalogID)
	seen := make(map[int64]struct{})
	var matches []TorrentRecord

	for _, s := range strategies {
		body, err := c.http.GetJSON(ctx, searchPath, s.params)
		if err != nil {
			log.Warnf("tracker: duplicate search by %s failed: %v", s.field, err)
			continue
		}
		records, err := decodeRecords(body)
		if err != nil {
			log.Warnf("tracker: duplicate search by %s returned an unreadable response: %v", s.field, err)
			continue
		}
		for _, rec := range records {
			// The search endpoints match loosely; only a display name that
			// actually contains the catalog id counts as a duplicate.
			if !strings.Contains(strings.ToLower(rec.Name), needle) {
				continue
			}
			if _, dup := seen[rec.ID]; dup {
				continue
			}
			seen[rec.ID] = struct{}{}
			matches = append(matches, rec)
		}
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].ID < matches[j].ID })
	return matches
}
