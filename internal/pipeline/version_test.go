package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveVersionExplicitRunID(t *testing.T) {
	v, err := ResolveVersion("finance_transactions", "2025-01-01T00-00-00Z")
	require.NoError(t, err)
	assert.Equal(t, "2025-01-01T00-00-00Z", v)
}

func TestResolveVersionDefaultsToTimestamp(t *testing.T) {
	before := time.Now().UTC()
	v, err := ResolveVersion("finance_transactions", "")
	require.NoError(t, err)

	parsed, err := time.Parse(versionTimestampLayout, v)
	require.NoError(t, err)
	assert.WithinDuration(t, before, parsed, 5*time.Second)
}

func TestResolveVersionRequiresDataset(t *testing.T) {
	_, err := ResolveVersion("", "v1")
	require.Error(t, err)
}

func TestVersionOrderIsChronological(t *testing.T) {
	earlier := time.Date(2025, 1, 1, 9, 59, 59, 0, time.UTC).Format(versionTimestampLayout)
	later := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC).Format(versionTimestampLayout)
	assert.Less(t, earlier, later)
}
