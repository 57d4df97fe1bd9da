package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d-oit/code-guardian/internal/cgerrors"
	"github.com/d-oit/code-guardian/internal/match"
	"github.com/d-oit/code-guardian/internal/result"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()
	s, err := Open(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStoreScanThenLoadRoundTrips(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	r := result.ScanResult{
		Timestamp: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Root:      "/repo",
		Matches: []match.Match{
			{FilePath: "a.go", Line: 1, Column: 1, Pattern: "TODO", Message: "x", Severity: match.SeverityLow, Category: match.CategoryCodeQuality},
		},
	}

	id, err := s.StoreScan(ctx, r)
	require.NoError(t, err)
	assert.Positive(t, id)

	loaded, err := s.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "/repo", loaded.Root)
	require.Len(t, loaded.Matches, 1)
	assert.Equal(t, "a.go", loaded.Matches[0].FilePath)
}

func TestStoreLoadMissingScanErrors(t *testing.T) {
	s := openTestStore(t)
	_, err := s.Load(context.Background(), 999)
	assert.True(t, cgerrors.IsPersistenceError(err))
}

func TestStoreListHistoryNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	_, err := s.StoreScan(ctx, result.ScanResult{Timestamp: time.Unix(100, 0), Root: "/old"})
	require.NoError(t, err)
	_, err = s.StoreScan(ctx, result.ScanResult{Timestamp: time.Unix(200, 0), Root: "/new"})
	require.NoError(t, err)

	hist, err := s.ListHistory(ctx)
	require.NoError(t, err)
	require.Len(t, hist, 2)
	assert.Equal(t, "/new", hist[0].Root)
	assert.Equal(t, "/old", hist[1].Root)
}

func TestStoreCompareProducesDiff(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	idA, err := s.StoreScan(ctx, result.ScanResult{Timestamp: time.Unix(1, 0), Root: "/r",
		Matches: []match.Match{{FilePath: "a.go", Line: 1, Column: 1, Pattern: "TODO"}}})
	require.NoError(t, err)
	idB, err := s.StoreScan(ctx, result.ScanResult{Timestamp: time.Unix(2, 0), Root: "/r",
		Matches: []match.Match{{FilePath: "b.go", Line: 1, Column: 1, Pattern: "FIXME"}}})
	require.NoError(t, err)

	diff, err := s.Compare(ctx, idA, idB)
	require.NoError(t, err)
	assert.Len(t, diff.Added, 1)
	assert.Len(t, diff.Removed, 1)
}

func TestStoreFingerprintRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	err := s.UpdateFingerprints(ctx, "cfgfp", []FingerprintEntry{
		{Path: "a.go", ContentFingerprint: "fp1"},
		{Path: "b.go", ContentFingerprint: "fp2"},
	})
	require.NoError(t, err)

	idx, err := s.FingerprintIndex(ctx, "cfgfp")
	require.NoError(t, err)
	assert.Equal(t, "fp1", idx["a.go"])
	assert.Equal(t, "fp2", idx["b.go"])
}

func TestStoreFingerprintUpsertOverwrites(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, s.UpdateFingerprints(ctx, "cfgfp", []FingerprintEntry{{Path: "a.go", ContentFingerprint: "old"}}))
	require.NoError(t, s.UpdateFingerprints(ctx, "cfgfp", []FingerprintEntry{{Path: "a.go", ContentFingerprint: "new"}}))

	idx, err := s.FingerprintIndex(ctx, "cfgfp")
	require.NoError(t, err)
	assert.Equal(t, "new", idx["a.go"])
}
