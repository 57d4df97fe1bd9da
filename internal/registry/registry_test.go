package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d-oit/code-guardian/internal/config"
	"github.com/d-oit/code-guardian/internal/match"
)

func TestDetectorsForExpandsProfile(t *testing.T) {
	r, err := New()
	require.NoError(t, err)

	cfg := config.Default()
	cfg.EnabledDetectors = []string{"quality"}

	ds, err := r.DetectorsFor(cfg)
	require.NoError(t, err)
	assert.NotEmpty(t, ds)

	names := make(map[string]bool, len(ds))
	for _, d := range ds {
		names[d.Descriptor().Name] = true
	}
	assert.True(t, names["TODO"])
}

func TestDetectorsForDeduplicatesFirstOccurrenceWins(t *testing.T) {
	r, err := New()
	require.NoError(t, err)

	cfg := config.Default()
	cfg.EnabledDetectors = []string{"TODO", "TODO"}
	cfg.SeverityOverrides = map[string]match.Severity{}

	ds, err := r.DetectorsFor(cfg)
	require.NoError(t, err)
	assert.Len(t, ds, 1)
}

func TestDetectorsForUnknownNameErrors(t *testing.T) {
	r, err := New()
	require.NoError(t, err)

	cfg := config.Default()
	cfg.EnabledDetectors = []string{"NoSuchDetector"}

	_, err = r.DetectorsFor(cfg)
	assert.Error(t, err)
}

func TestDetectorsForCompilesCustomPattern(t *testing.T) {
	r, err := New()
	require.NoError(t, err)

	cfg := config.Default()
	cfg.CustomPatterns["my-check"] = "forbidden"
	cfg.EnabledDetectors = []string{"Custom(my-check)"}

	ds, err := r.DetectorsFor(cfg)
	require.NoError(t, err)
	require.Len(t, ds, 1)
	assert.Equal(t, "my-check", ds[0].Descriptor().Name)

	ms, err := ds[0].Detect("a.go", []byte("this is forbidden text"))
	require.NoError(t, err)
	assert.Len(t, ms, 1)
	assert.Equal(t, match.SeverityMedium, ms[0].Severity)
}

func TestDetectorsForAppliesSeverityOverride(t *testing.T) {
	r, err := New()
	require.NoError(t, err)

	cfg := config.Default()
	cfg.EnabledDetectors = []string{"TODO"}
	cfg.SeverityOverrides["TODO"] = match.SeverityCritical

	ds, err := r.DetectorsFor(cfg)
	require.NoError(t, err)
	require.Len(t, ds, 1)
	assert.Equal(t, match.SeverityCritical, ds[0].Descriptor().DefaultSeverity)

	ms, err := ds[0].Detect("a.go", []byte("// TODO: fix"))
	require.NoError(t, err)
	require.Len(t, ms, 1)
	assert.Equal(t, match.SeverityCritical, ms[0].Severity)
}
