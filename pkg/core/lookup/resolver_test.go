package lookup_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/clearjav/torrentmeta/pkg/core/lookup"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockFetcher records the ids it was asked for and answers from a canned map.
type mockFetcher struct {
	calls   []string
	records map[string]*lookup.Record
	err     error
}

func (m *mockFetcher) Fetch(ctx context.Context, id string) (*lookup.Record, error) {
	m.calls = append(m.calls, id)
	if m.err != nil {
		return nil, m.err
	}
	if rec, ok := m.records[id]; ok {
		return rec, nil
	}
	return nil, lookup.ErrNotFound
}

func TestCandidates(t *testing.T) {
	tests := []struct {
		rawID string
		want  []string
	}{
		// 5-digit pad is a new variant; 3-digit pad collapses into the raw id.
		{"abc123", []string{"abc123", "abc00123"}},
		// Both pads collapse; zero-stripping adds the final variant.
		{"abc00123", []string{"abc00123", "abc123"}},
		{"ab12", []string{"ab12", "ab00012", "ab012"}},
		// No letter/digit split: the raw id is the only variant.
		{"SDDE-300", []string{"SDDE-300"}},
		{"abc", []string{"abc"}},
	}
	for _, tc := range tests {
		t.Run(tc.rawID, func(t *testing.T) {
			assert.Equal(t, tc.want, lookup.Candidates(tc.rawID))
		})
	}
}

func TestResolveFirstVariantWins(t *testing.T) {
	fetcher := &mockFetcher{records: map[string]*lookup.Record{
		"abc123": {DVDID: "ABC-123", ReleaseDate: "2024-01-15"},
	}}
	resolver := lookup.NewResolver(fetcher, nil)

	identity := resolver.Resolve(context.Background(), "abc123")
	require.True(t, identity.Exists)
	assert.Equal(t, "ABC-123", identity.CatalogID)
	assert.Equal(t, "2024-01-15", identity.ReleaseDate)
	assert.Equal(t, []string{"abc123"}, fetcher.calls, "no further variants after a hit")
}

func TestResolveFallsThroughToPaddedVariant(t *testing.T) {
	fetcher := &mockFetcher{records: map[string]*lookup.Record{
		"abc00123": {DVDID: "ABC-00123", ReleaseDate: "2023-07-01"},
	}}
	resolver := lookup.NewResolver(fetcher, nil)

	identity := resolver.Resolve(context.Background(), "abc123")
	require.True(t, identity.Exists)
	assert.Equal(t, []string{"abc123", "abc00123"}, fetcher.calls)
}

func TestResolveExhaustedVariants(t *testing.T) {
	fetcher := &mockFetcher{}
	resolver := lookup.NewResolver(fetcher, nil)

	identity := resolver.Resolve(context.Background(), "abc123")
	assert.False(t, identity.Exists)
	assert.Equal(t, "abc123", identity.RawID)
	assert.Equal(t, []string{"abc123", "abc00123"}, fetcher.calls)
}

func TestResolveTransportFailureIsNotFatal(t *testing.T) {
	fetcher := &mockFetcher{err: errors.New("dial timeout")}
	resolver := lookup.NewResolver(fetcher, nil)

	identity := resolver.Resolve(context.Background(), "abc123")
	assert.False(t, identity.Exists)
	assert.Len(t, fetcher.calls, 2, "every variant is still attempted")
}

func TestPartial(t *testing.T) {
	assert.True(t, lookup.ResolvedIdentity{Exists: true, CatalogID: "ABC-123"}.Partial())
	assert.True(t, lookup.ResolvedIdentity{Exists: true, ReleaseDate: "2024-01-15"}.Partial())
	assert.False(t, lookup.ResolvedIdentity{Exists: true, CatalogID: "ABC-123", ReleaseDate: "2024-01-15"}.Partial())
	assert.False(t, lookup.ResolvedIdentity{Exists: false}.Partial())
}

func TestClientFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/movies/ABC123":
			w.Write([]byte(`{"dvd_id": " ABC-123 ", "release_date": "2024-01-15\n"}`))
		case "/movies/GONE1":
			http.NotFound(w, r)
		case "/movies/ERR1":
			w.Write([]byte(`{"error": "movie not found"}`))
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer server.Close()

	client := lookup.NewClient(server.URL)
	ctx := context.Background()

	record, err := client.Fetch(ctx, "ABC123")
	require.NoError(t, err)
	assert.Equal(t, "ABC-123", record.DVDID, "fields are whitespace-trimmed")
	assert.Equal(t, "2024-01-15", record.ReleaseDate)

	_, err = client.Fetch(ctx, "GONE1")
	assert.ErrorIs(t, err, lookup.ErrNotFound)

	_, err = client.Fetch(ctx, "ERR1")
	assert.ErrorIs(t, err, lookup.ErrNotFound, "error-bearing body means not-found")

	_, err = client.Fetch(ctx, "BOOM1")
	assert.ErrorIs(t, err, lookup.ErrNotFound, "other statuses are treated as not-found")
}
