package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandKnownProfile(t *testing.T) {
	names, err := Expand("security")
	require.NoError(t, err)
	assert.Contains(t, names, "HardcodedAPIKey")
}

func TestExpandUnknownProfile(t *testing.T) {
	_, err := Expand("bogus")
	assert.Error(t, err)
}

func TestExpandReturnsCopyNotSharedSlice(t *testing.T) {
	names, err := Expand("quality")
	require.NoError(t, err)
	names[0] = "mutated"

	again, err := Expand("quality")
	require.NoError(t, err)
	assert.NotEqual(t, "mutated", again[0])
}

func TestComprehensiveProfileCoversAllBuiltins(t *testing.T) {
	names, err := Expand("comprehensive")
	require.NoError(t, err)
	assert.NotEmpty(t, names)
}

func TestAllReturnsSortedProfileNames(t *testing.T) {
	all := All()
	assert.Contains(t, all, "security")
	assert.Contains(t, all, "quality")
	for i := 1; i < len(all); i++ {
		assert.LessOrEqual(t, all[i-1], all[i])
	}
}
