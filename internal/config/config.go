package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/syntheticlab/dataforge/pkg/errors"
)

// Logical configuration documents required for every dataset.
const (
	DatasetConfigFile   = "dataset.yaml"
	SchemaConfigFile    = "schema.yaml"
	EvolutionConfigFile = "evolution.yaml"
)

var requiredDocuments = []string{DatasetConfigFile, SchemaConfigFile, EvolutionConfigFile}

// Documents holds the raw parsed configuration documents keyed by file name.
// The raw form is what gets snapshotted verbatim into the run directory.
type Documents map[string]interface{}

// ColumnDef describes one schema column. Type, nullability and range
// constraints are all optional.
type ColumnDef struct {
	Type     string
	Nullable *bool
	Min      *float64
	Max      *float64
}

// Evolution holds the drift/evolution parameters for generation.
type Evolution struct {
	FraudRate   *float64
	Missingness map[string]float64
}

// Resolved is the typed configuration produced once by Resolve and passed to
// every later stage, replacing per-stage ad hoc validation of raw documents.
type Resolved struct {
	Columns   []string
	Defs      map[string]ColumnDef
	RowCount  int
	Evolution Evolution
}

// Load reads the three required YAML documents from a dataset directory.
func Load(datasetDir string) (Documents, error) {
	docs := make(Documents, len(requiredDocuments))
	for _, name := range requiredDocuments {
		path := filepath.Join(datasetDir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, errors.NewConfigError(errors.CodeMissingConfig,
					fmt.Sprintf("required config missing: %s", path))
			}
			return nil, errors.WrapError(err, errors.ErrorTypeIO, errors.CodeReadFailed,
				fmt.Sprintf("failed to read %s", path))
		}
		var doc interface{}
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, errors.WrapError(err, errors.ErrorTypeIO, errors.CodeParseFailed,
				fmt.Sprintf("failed to parse %s", path))
		}
		docs[name] = doc
	}
	return docs, nil
}

// Resolve extracts the typed configuration from the raw documents. Every
// missing or invalid required field is a configuration error naming the
// field; nothing is silently defaulted.
func Resolve(docs Documents) (*Resolved, error) {
	for _, name := range requiredDocuments {
		if doc, ok := docs[name]; !ok || doc == nil {
			return nil, errors.NewConfigError(errors.CodeMissingConfig,
				fmt.Sprintf("missing required config: %s", name))
		}
	}

	columns, defs, err := extractColumns(docs[SchemaConfigFile])
	if err != nil {
		return nil, err
	}
	rowCount, err := extractRowCount(docs[DatasetConfigFile])
	if err != nil {
		return nil, err
	}
	evolution, err := extractEvolution(docs[EvolutionConfigFile])
	if err != nil {
		return nil, err
	}

	return &Resolved{
		Columns:   columns,
		Defs:      defs,
		RowCount:  rowCount,
		Evolution: evolution,
	}, nil
}

// extractColumns supports the mapping form (names sorted lexicographically
// for determinism) and the legacy list form (order preserved as given).
func extractColumns(schemaDoc interface{}) ([]string, map[string]ColumnDef, error) {
	schema, ok := asMap(schemaDoc)
	if !ok {
		return nil, nil, errors.NewConfigError(errors.CodeInvalidField,
			"schema.yaml must be a mapping")
	}
	raw, ok := schema["columns"]
	if !ok {
		return nil, nil, errors.NewConfigError(errors.CodeMissingField,
			"schema.yaml must contain 'columns'")
	}

	switch cols := raw.(type) {
	case map[string]interface{}:
		if len(cols) == 0 {
			return nil, nil, errors.NewConfigError(errors.CodeEmptySchema,
				"schema.yaml 'columns' mapping is empty")
		}
		names := make([]string, 0, len(cols))
		defs := make(map[string]ColumnDef, len(cols))
		for name, rawDef := range cols {
			def, err := parseColumnDef(name, rawDef)
			if err != nil {
				return nil, nil, err
			}
			names = append(names, name)
			defs[name] = def
		}
		sort.Strings(names)
		return names, defs, nil

	case []interface{}:
		if len(cols) == 0 {
			return nil, nil, errors.NewConfigError(errors.CodeEmptySchema,
				"schema.yaml 'columns' list is empty")
		}
		names := make([]string, 0, len(cols))
		defs := make(map[string]ColumnDef, len(cols))
		for _, entry := range cols {
			switch e := entry.(type) {
			case string:
				names = append(names, e)
				defs[e] = ColumnDef{}
			case map[string]interface{}:
				name, ok := e["name"].(string)
				if !ok || name == "" {
					return nil, nil, errors.NewConfigError(errors.CodeInvalidField,
						"invalid column entry in schema.yaml; expected string or mapping with 'name'")
				}
				def, err := parseColumnDef(name, e)
				if err != nil {
					return nil, nil, err
				}
				names = append(names, name)
				defs[name] = def
			default:
				return nil, nil, errors.NewConfigError(errors.CodeInvalidField,
					"invalid column entry in schema.yaml; expected string or mapping with 'name'")
			}
		}
		return names, defs, nil

	default:
		return nil, nil, errors.NewConfigError(errors.CodeInvalidField,
			"schema.yaml 'columns' must be a mapping or a list")
	}
}

func parseColumnDef(name string, rawDef interface{}) (ColumnDef, error) {
	def := ColumnDef{}
	if rawDef == nil {
		return def, nil
	}
	m, ok := asMap(rawDef)
	if !ok {
		return def, errors.NewConfigError(errors.CodeInvalidField,
			fmt.Sprintf("schema.yaml column '%s' definition must be a mapping", name))
	}
	if t, ok := m["type"]; ok && t != nil {
		s, ok := t.(string)
		if !ok {
			return def, errors.NewConfigError(errors.CodeInvalidField,
				fmt.Sprintf("schema.yaml column '%s' type must be a string", name))
		}
		def.Type = s
	}
	if n, ok := m["nullable"]; ok && n != nil {
		b, ok := n.(bool)
		if !ok {
			return def, errors.NewConfigError(errors.CodeInvalidField,
				fmt.Sprintf("schema.yaml column '%s' nullable must be a boolean", name))
		}
		def.Nullable = &b
	}
	if c, ok := m["constraints"]; ok && c != nil {
		cm, ok := asMap(c)
		if !ok {
			return def, errors.NewConfigError(errors.CodeInvalidField,
				fmt.Sprintf("schema.yaml column '%s' constraints must be a mapping", name))
		}
		if v, ok := cm["min"]; ok && v != nil {
			f, ok := toFloat(v)
			if !ok {
				return def, errors.NewConfigError(errors.CodeInvalidField,
					fmt.Sprintf("schema.yaml column '%s' min constraint must be numeric", name))
			}
			def.Min = &f
		}
		if v, ok := cm["max"]; ok && v != nil {
			f, ok := toFloat(v)
			if !ok {
				return def, errors.NewConfigError(errors.CodeInvalidField,
					fmt.Sprintf("schema.yaml column '%s' max constraint must be numeric", name))
			}
			def.Max = &f
		}
	}
	return def, nil
}

// extractRowCount accepts 'row_count' or the alternate 'rows' field, both
// explicit and config-driven; no hardcoded default.
func extractRowCount(datasetDoc interface{}) (int, error) {
	dataset, ok := asMap(datasetDoc)
	if !ok {
		return 0, errors.NewConfigError(errors.CodeInvalidField,
			"dataset.yaml must be a mapping")
	}
	raw, ok := dataset["row_count"]
	if !ok || raw == nil {
		raw, ok = dataset["rows"]
	}
	if !ok || raw == nil {
		return 0, errors.NewConfigError(errors.CodeMissingField,
			"dataset.yaml must define 'row_count' (or 'rows')")
	}
	rc, ok := toInt(raw)
	if !ok {
		return 0, errors.NewConfigError(errors.CodeInvalidField,
			"row_count must be an integer")
	}
	if rc <= 0 {
		return 0, errors.NewConfigError(errors.CodeInvalidField,
			"row_count must be > 0")
	}
	return rc, nil
}

// extractEvolution resolves the fraud rate from one of several nesting
// conventions, first match wins: weekly_changes[0].fraud_rate, then a
// top-level fraud_rate, then fraud.rate.
func extractEvolution(evoDoc interface{}) (Evolution, error) {
	evo, ok := asMap(evoDoc)
	if !ok {
		return Evolution{}, errors.NewConfigError(errors.CodeInvalidField,
			"evolution.yaml must be a mapping")
	}

	var rawRate interface{}
	if weekly, ok := evo["weekly_changes"].([]interface{}); ok && len(weekly) > 0 {
		if first, ok := asMap(weekly[0]); ok {
			if r, ok := first["fraud_rate"]; ok {
				rawRate = r
			}
		}
	} else if r, ok := evo["fraud_rate"]; ok {
		rawRate = r
	} else if fraud, ok := asMap(evo["fraud"]); ok {
		rawRate = fraud["rate"]
	}

	result := Evolution{Missingness: map[string]float64{}}
	if rawRate != nil {
		rate, ok := toFloat(rawRate)
		if !ok {
			return Evolution{}, errors.NewConfigError(errors.CodeInvalidField,
				"fraud_rate must be numeric")
		}
		if rate < 0.0 || rate > 1.0 {
			return Evolution{}, errors.NewConfigError(errors.CodeInvalidField,
				"fraud_rate must be in [0,1]")
		}
		result.FraudRate = &rate
	}

	if rawMiss, ok := evo["missingness"]; ok && rawMiss != nil {
		miss, ok := asMap(rawMiss)
		if !ok {
			return Evolution{}, errors.NewConfigError(errors.CodeInvalidField,
				"missingness must be a mapping of column_name -> ratio")
		}
		for col, rawRatio := range miss {
			ratio, ok := toFloat(rawRatio)
			if !ok {
				return Evolution{}, errors.NewConfigError(errors.CodeInvalidField,
					fmt.Sprintf("missingness ratio for column '%s' must be numeric", col))
			}
			if ratio < 0.0 || ratio > 1.0 {
				return Evolution{}, errors.NewConfigError(errors.CodeInvalidField,
					fmt.Sprintf("missingness ratio for column '%s' must be in [0,1]", col))
			}
			result.Missingness[col] = ratio
		}
	}
	return result, nil
}

func asMap(v interface{}) (map[string]interface{}, bool) {
	m, ok := v.(map[string]interface{})
	return m, ok
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}

func toInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case uint64:
		return int(n), true
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int(n), true
	default:
		return 0, false
	}
}
