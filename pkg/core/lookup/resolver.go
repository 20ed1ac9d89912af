package lookup

import (
	"context"
	"regexp"
	"strings"

	log "github.com/sirupsen/logrus"
)

// ResolvedIdentity is the outcome of identifier resolution. Immutable once
// produced; a manual-input step yields a fresh value instead of mutating.
type ResolvedIdentity struct {
	RawID       string
	CatalogID   string // normalized catalog id, may be empty on success
	ReleaseDate string // YYYY-MM-DD, may be empty on success
	Exists      bool
}

// Partial reports whether resolution succeeded but left fields for the
// operator to fill in.
func (r ResolvedIdentity) Partial() bool {
	return r.Exists && (r.CatalogID == "" || r.ReleaseDate == "")
}

// Fetcher is the lookup call the resolver drives. *Client satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, id string) (*Record, error)
}

// Resolver tries a deterministic sequence of identifier variants until the
// service recognizes one.
type Resolver struct {
	client Fetcher
	logger *log.Logger
}

// NewResolver creates a Resolver. A nil logger falls back to the standard
// logrus logger.
func NewResolver(client Fetcher, logger *log.Logger) *Resolver {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Resolver{client: client, logger: logger}
}

var (
	letterDigitRE  = regexp.MustCompile(`^([A-Za-z]+)(\d+)$`)
	leadingZerosRE = regexp.MustCompile(`^([A-Za-z]+)0+([1-9]\d*)$`)
)

// Candidates returns the ordered variant list for a raw id: the id
// verbatim, the digit tail zero-padded to 5 then to 3, and finally the id
// with leading zeros stripped from the tail. Variants identical to an
// earlier one are dropped, so the sequence is deterministic and minimal.
func Candidates(rawID string) []string {
	ordered := []string{rawID}
	if m := letterDigitRE.FindStringSubmatch(rawID); m != nil {
		ordered = append(ordered, m[1]+pad(m[2], 5), m[1]+pad(m[2], 3))
	}
	if m := leadingZerosRE.FindStringSubmatch(rawID); m != nil {
		ordered = append(ordered, m[1]+m[2])
	}

	seen := make(map[string]struct{}, len(ordered))
	out := make([]string, 0, len(ordered))
	for _, id := range ordered {
		key := strings.ToUpper(id)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, id)
	}
	return out
}

func pad(digits string, width int) string {
	for len(digits) < width {
		digits = "0" + digits
	}
	return digits
}

// Resolve walks the candidate variants in order, returning on the first
// success. Not-found and transport failures (timeouts included) both just
// advance to the next variant; exhausting them yields Exists=false.
func (r *Resolver) Resolve(ctx context.Context, rawID string) ResolvedIdentity {
	for _, variant := range Candidates(rawID) {
		record, err := r.client.Fetch(ctx, variant)
		if err != nil {
			if err == ErrNotFound {
				r.logger.Debugf("lookup: %q not found", variant)
			} else {
				r.logger.Warnf("lookup: variant %q failed: %v", variant, err)
			}
			continue
		}
		r.logger.Infof("lookup: resolved %q via variant %q (dvd_id=%q, release_date=%q)",
			rawID, variant, record.DVDID, record.ReleaseDate)
		return ResolvedIdentity{
			RawID:       rawID,
			CatalogID:   record.DVDID,
			ReleaseDate: record.ReleaseDate,
			Exists:      true,
		}
	}
	r.logger.Warnf("lookup: all variants exhausted for %q", rawID)
	return ResolvedIdentity{RawID: rawID, Exists: false}
}
