package jsonio

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syntheticlab/dataforge/pkg/errors"
)

func TestWriteReadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.json")
	in := map[string]interface{}{"b": 2.0, "a": 1.0}
	require.NoError(t, Write(path, in))

	var out map[string]interface{}
	require.NoError(t, Read(path, &out))
	assert.Equal(t, in, out)
}

func TestWriteIsDeterministic(t *testing.T) {
	dir := t.TempDir()
	doc := map[string]interface{}{"zeta": 1, "alpha": 2, "mid": 3}

	require.NoError(t, Write(filepath.Join(dir, "a.json"), doc))
	require.NoError(t, Write(filepath.Join(dir, "b.json"), doc))

	a, err := os.ReadFile(filepath.Join(dir, "a.json"))
	require.NoError(t, err)
	b, err := os.ReadFile(filepath.Join(dir, "b.json"))
	require.NoError(t, err)
	assert.Equal(t, a, b)

	// Map keys serialize sorted.
	content := string(a)
	assert.Less(t, strings.Index(content, "alpha"), strings.Index(content, "mid"))
	assert.Less(t, strings.Index(content, "mid"), strings.Index(content, "zeta"))
}

func TestReadMissingFile(t *testing.T) {
	err := Read(filepath.Join(t.TempDir(), "nope.json"), &struct{}{})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeNotFound))
}

func TestReadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	var out map[string]interface{}
	err := Read(path, &out)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeIO))
}

func TestWriteAtomicReplacesWholeFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.json")
	require.NoError(t, WriteAtomic(path, map[string]int{"version": 1}))
	require.NoError(t, WriteAtomic(path, map[string]int{"version": 2}))

	var out map[string]int
	require.NoError(t, Read(path, &out))
	assert.Equal(t, 2, out["version"])

	// No temp files survive a successful commit.
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "doc.json", entries[0].Name())
}
