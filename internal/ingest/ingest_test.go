package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syntheticlab/dataforge/internal/frame"
	"github.com/syntheticlab/dataforge/pkg/errors"
	"github.com/syntheticlab/dataforge/tests/helpers"
)

func TestIngestCSV(t *testing.T) {
	env := helpers.NewTestEnvironment(t)
	input := filepath.Join(env.Root, "export.csv")
	require.NoError(t, os.WriteFile(input,
		[]byte("zeta,alpha\n1,x\n2,y\n"), 0o644))
	runDir := env.RunDir("external", "v1")

	require.NoError(t, Ingest(input, runDir))

	dataPath, err := frame.Locate(runDir)
	require.NoError(t, err)
	f, err := frame.Read(dataPath)
	require.NoError(t, err)

	// Columns come out lexicographically ordered with row order preserved.
	assert.Equal(t, []string{"alpha", "zeta"}, f.Names())
	assert.Equal(t, 2, f.NumRows())
	assert.Equal(t, "x", f.Column("alpha").Value(0))
	assert.Equal(t, int64(1), f.Column("zeta").Value(0))
	assert.Equal(t, "y", f.Column("alpha").Value(1))
}

func TestIngestRejectsUnknownExtension(t *testing.T) {
	env := helpers.NewTestEnvironment(t)
	input := filepath.Join(env.Root, "export.xlsx")
	require.NoError(t, os.WriteFile(input, []byte("x"), 0o644))

	err := Ingest(input, env.RunDir("external", "v1"))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfiguration))
	assert.Contains(t, err.Error(), ".csv or .parquet")
}

func TestIngestMissingInput(t *testing.T) {
	env := helpers.NewTestEnvironment(t)
	err := Ingest(filepath.Join(env.Root, "nope.csv"), env.RunDir("external", "v1"))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeNotFound))
}

func TestIngestRequiresEmptyRunDir(t *testing.T) {
	env := helpers.NewTestEnvironment(t)
	input := filepath.Join(env.Root, "export.csv")
	require.NoError(t, os.WriteFile(input, []byte("a\n1\n"), 0o644))

	runDir := env.RunDir("external", "v1")
	require.NoError(t, os.WriteFile(filepath.Join(runDir, "leftover.txt"), []byte("x"), 0o644))

	err := Ingest(input, runDir)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConsistency))
	assert.Contains(t, err.Error(), "must be empty")
}

func TestIngestMissingRunDir(t *testing.T) {
	env := helpers.NewTestEnvironment(t)
	input := filepath.Join(env.Root, "export.csv")
	require.NoError(t, os.WriteFile(input, []byte("a\n1\n"), 0o644))

	err := Ingest(input, filepath.Join(env.Root, "runs", "external", "nope"))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeNotFound))
}

func TestIngestRejectsEmptyDataset(t *testing.T) {
	env := helpers.NewTestEnvironment(t)
	input := filepath.Join(env.Root, "export.csv")
	require.NoError(t, os.WriteFile(input, []byte("a,b\n"), 0o644))

	err := Ingest(input, env.RunDir("external", "v1"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty")
}
