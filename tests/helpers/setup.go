package helpers

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/syntheticlab/dataforge/internal/config"
	"github.com/syntheticlab/dataforge/internal/utils/jsonio"
	"github.com/syntheticlab/dataforge/pkg/models"
)

// TestEnvironment provides a test project layout with common utilities.
type TestEnvironment struct {
	Root   string
	Logger *logrus.Logger
	T      *testing.T
}

// NewTestEnvironment creates a project root under a temp directory.
func NewTestEnvironment(t *testing.T) *TestEnvironment {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	return &TestEnvironment{
		Root:   t.TempDir(),
		Logger: logger,
		T:      t,
	}
}

// DatasetDir creates datasets/<name> under the project root.
func (env *TestEnvironment) DatasetDir(name string) string {
	dir := filepath.Join(env.Root, "datasets", name)
	require.NoError(env.T, os.MkdirAll(dir, 0o755))
	return dir
}

// RunDir creates runs/<dataset>/<version> under the project root.
func (env *TestEnvironment) RunDir(dataset, version string) string {
	dir := filepath.Join(env.Root, "runs", dataset, version)
	require.NoError(env.T, os.MkdirAll(dir, 0o755))
	return dir
}

// RegistryPath creates registry/datasets.json seeded with an entry for each
// given dataset and returns its path.
func (env *TestEnvironment) RegistryPath(datasets ...string) string {
	dir := filepath.Join(env.Root, "registry")
	require.NoError(env.T, os.MkdirAll(dir, 0o755))
	reg := models.Registry{Datasets: map[string]models.RegistryEntry{}}
	for _, name := range datasets {
		reg.Datasets[name] = models.RegistryEntry{}
	}
	path := filepath.Join(dir, "datasets.json")
	require.NoError(env.T, jsonio.Write(path, &reg))
	return path
}

// FinanceDocuments returns the raw configuration documents for the
// finance_transactions fixture dataset.
func FinanceDocuments(rowCount int, fraudRate float64) config.Documents {
	return config.Documents{
		config.DatasetConfigFile: map[string]interface{}{
			"row_count": rowCount,
		},
		config.SchemaConfigFile: map[string]interface{}{
			"columns": map[string]interface{}{
				"account_id":        map[string]interface{}{"type": "integer"},
				"transaction_id":    map[string]interface{}{"type": "integer"},
				"amount": map[string]interface{}{
					"type": "float",
					"constraints": map[string]interface{}{"min": 0.0, "max": 1000.0},
				},
				"merchant_category": map[string]interface{}{"type": "string"},
				"is_fraud":          map[string]interface{}{"type": "boolean"},
				"timestamp":         map[string]interface{}{"type": "datetime"},
			},
		},
		config.EvolutionConfigFile: map[string]interface{}{
			"fraud_rate": fraudRate,
		},
	}
}

// ResolveFinance resolves the finance_transactions fixture configuration.
func ResolveFinance(t *testing.T, rowCount int, fraudRate float64) (config.Documents, *config.Resolved) {
	docs := FinanceDocuments(rowCount, fraudRate)
	cfg, err := config.Resolve(docs)
	require.NoError(t, err)
	return docs, cfg
}
