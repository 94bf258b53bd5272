package models

// Artifact file names inside a run directory.
const (
	ConfigsSnapshotFile  = "configs_snapshot.json"
	RunMetadataFile      = "run_metadata.json"
	PriorProfileFile     = "prior_profile.json"
	DataParquetFile      = "data.parquet"
	DataCSVFile          = "data.csv"
	ValidationReportFile = "validation_report.json"
	EvaluationReportFile = "evaluation_report.json"
	FinalMetadataFile    = "final_metadata.json"
)

// ColumnStats holds descriptive statistics for a numeric column. All fields
// are null for non-numeric columns or when no non-null value exists.
type ColumnStats struct {
	Mean *float64 `json:"mean"`
	Std  *float64 `json:"std"`
	Min  *float64 `json:"min"`
	Max  *float64 `json:"max"`
}

// ColumnProfile is the frozen per-column summary captured by the profiler.
type ColumnProfile struct {
	DType        string      `json:"dtype"`
	MissingRatio float64     `json:"missing_ratio"`
	Cardinality  int         `json:"cardinality"`
	Stats        ColumnStats `json:"stats"`
}

// Profile is the frozen statistical summary of a prior run's data, written
// into the current run directory as prior_profile.json.
type Profile struct {
	SourceVersion string                   `json:"source_version"`
	RowCount      int                      `json:"row_count"`
	ColumnCount   int                      `json:"column_count"`
	Columns       map[string]ColumnProfile `json:"columns"`
}

// ValidationReport records a passing schema validation. Failing runs never
// produce a report.
type ValidationReport struct {
	Status      string `json:"status"`
	RowCount    int    `json:"row_count"`
	ColumnCount int    `json:"column_count"`
}

// ColumnQuality holds the recomputed per-column statistics for the current run.
type ColumnQuality struct {
	MissingRatio float64     `json:"missing_ratio"`
	Cardinality  int         `json:"cardinality"`
	Stats        ColumnStats `json:"stats"`
}

// ColumnDrift holds absolute differences against the prior profile. Every
// field is null when the prior side is absent; null is meaningful and is
// never collapsed to zero or omitted.
type ColumnDrift struct {
	MeanDrift         *float64 `json:"mean_drift"`
	StdDrift          *float64 `json:"std_drift"`
	MinDrift          *float64 `json:"min_drift"`
	MaxDrift          *float64 `json:"max_drift"`
	MissingRatioDrift *float64 `json:"missing_ratio_drift"`
	CardinalityDrift  *int     `json:"cardinality_drift"`
}

// DatasetDrift holds dataset-level drift against the prior profile.
type DatasetDrift struct {
	RowCountDrift    *int `json:"row_count_drift"`
	ColumnCountDrift *int `json:"column_count_drift"`
}

// EvaluationReport is the quality/drift report for a run. It carries no
// thresholds and no verdict.
type EvaluationReport struct {
	RowCount     int                      `json:"row_count"`
	ColumnCount  int                      `json:"column_count"`
	DatasetDrift DatasetDrift             `json:"dataset_drift"`
	Quality      map[string]ColumnQuality `json:"quality"`
	Drift        map[string]ColumnDrift   `json:"drift"`
}

// Manifest is the immutable record of a finalized run. Field order is
// alphabetical so the serialized bytes are deterministic.
type Manifest struct {
	Artifacts      map[string]string `json:"artifacts"`
	Dataset        string            `json:"dataset"`
	FinalizedAtUTC string            `json:"finalized_at_utc"`
	RunDir         string            `json:"run_dir"`
}

// RunMetadata is the orchestrator-owned run context snapshot.
type RunMetadata struct {
	Dataset        string   `json:"dataset"`
	Version        string   `json:"version"`
	RunID          string   `json:"run_id"`
	TimestampUTC   string   `json:"timestamp_utc"`
	ProjectRoot    string   `json:"project_root"`
	DatasetDir     string   `json:"dataset_dir"`
	RunDir         string   `json:"run_dir"`
	ExecutionOrder []string `json:"execution_order"`
}
