package models

// VersionRecord is one append-only entry in a dataset's version history.
type VersionRecord struct {
	FinalizedAtUTC string `json:"finalized_at_utc"`
	RunDir         string `json:"run_dir"`
	Version        string `json:"version"`
}

// RegistryEntry tracks the ordered version history for a single dataset.
// Versions are append-only; existing records are never removed or reordered.
type RegistryEntry struct {
	LatestVersion string          `json:"latest_version"`
	Versions      []VersionRecord `json:"versions"`
}

// Registry is the durable dataset-keyed index of finalized runs. The core
// reads and atomically rewrites it; it never creates the document or a
// dataset entry implicitly.
type Registry struct {
	Datasets map[string]RegistryEntry `json:"datasets"`
}
