package types

import "time"

// WindowConfig holds the chunking parameters used to plan documents. The pair
// is recorded in the store manifest at first plan; re-opening the store with a
// different pair for an already-planned document is a ConfigDriftError.
type WindowConfig struct {
	// ChunkSize is the number of lines per chunk (default 300).
	ChunkSize int `json:"chunk_size" yaml:"chunk_size"`

	// OverlapSize is the number of lines consecutive chunks share (default 20).
	OverlapSize int `json:"overlap_size" yaml:"overlap_size"`
}

// StoreConfig holds settings for the progress store.
type StoreConfig struct {
	// StateDir is the directory holding the pipeline database (default "state").
	StateDir string `json:"state_dir" yaml:"state_dir"`
}

// VerificationConfig holds settings for the verification gate.
type VerificationConfig struct {
	// MinQuota is the count of confirmed/refuted records a chunk needs before
	// it may complete (default 5). Inconclusive records never count.
	MinQuota int `json:"min_quota" yaml:"min_quota"`
}

// LedgerConfig holds settings for the extraction ledger.
type LedgerConfig struct {
	// IdentityFields maps an insight type to the ordered field names whose
	// normalized values form the dedup key. Empty entries fall back to the
	// built-in defaults per type.
	IdentityFields map[InsightType][]string `json:"identity_fields,omitempty" yaml:"identity_fields,omitempty"`
}

// ExtractorMode selects how the external Extractor collaborator is invoked.
type ExtractorMode string

const (
	ExtractorExec ExtractorMode = "exec"
	ExtractorHTTP ExtractorMode = "http"
)

// ExtractorConfig holds settings for invoking the external Extractor.
type ExtractorConfig struct {
	// Mode selects the invocation style: exec or http.
	Mode ExtractorMode `json:"mode" yaml:"mode"`

	// Command is the program run in exec mode. The request is written to its
	// stdin as JSON; the result is read from its stdout as JSON.
	Command string `json:"command,omitempty" yaml:"command,omitempty"`

	// Args are additional arguments passed to Command.
	Args []string `json:"args,omitempty" yaml:"args,omitempty"`

	// URL is the endpoint POSTed to in http mode.
	URL string `json:"url,omitempty" yaml:"url,omitempty"`

	// Timeout bounds one Extractor call (default 5m). A timeout is recorded
	// as a chunk failure, never a hang.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// MaxRetries is the number of retry attempts for failed calls (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// PipelineConfig groups all component configurations.
type PipelineConfig struct {
	Store        StoreConfig        `json:"store" yaml:"store"`
	Window       WindowConfig       `json:"window" yaml:"window"`
	Verification VerificationConfig `json:"verification" yaml:"verification"`
	Ledger       LedgerConfig       `json:"ledger" yaml:"ledger"`
	Extractor    ExtractorConfig    `json:"extractor" yaml:"extractor"`
}
