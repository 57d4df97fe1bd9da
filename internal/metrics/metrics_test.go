package metrics

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d-oit/code-guardian/internal/result"
)

func TestObserveExposesCounters(t *testing.T) {
	r := NewRecorder()
	r.Observe(result.Metrics{
		ScanDurationMS:  2000,
		FilesScanned:    10,
		MatchesCritical: 3,
		CacheHits:       4,
		CacheMisses:     1,
	})

	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()
	r.Handler().ServeHTTP(w, req)

	require.Equal(t, 200, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "codeguardian_scans_total 1")
	assert.Contains(t, body, "codeguardian_files_scanned_total 10")
	assert.Contains(t, body, `codeguardian_matches_total{severity="critical"} 3`)
	assert.Contains(t, body, "codeguardian_cache_hits_total 4")
}

func TestObserveAccumulatesAcrossCalls(t *testing.T) {
	r := NewRecorder()
	r.Observe(result.Metrics{FilesScanned: 5})
	r.Observe(result.Metrics{FilesScanned: 7})

	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()
	r.Handler().ServeHTTP(w, req)

	assert.Contains(t, w.Body.String(), "codeguardian_files_scanned_total 12")
}
