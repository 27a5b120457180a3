// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the shared domain types for the corpus-engine pipeline:
// source documents, chunks, insights, cross-references, verification records,
// and the error taxonomy.
package types

// SourceDocument is a registered input document. TotalLines is measured once at
// registration and is immutable after chunk planning begins.
type SourceDocument struct {
	// ID identifies the document across the pipeline (derived from the file name).
	ID string `json:"id" yaml:"id"`

	// Path is the location of the document on disk.
	Path string `json:"path" yaml:"path"`

	// TotalLines is the document's line count at registration time.
	TotalLines int `json:"total_lines" yaml:"total_lines"`
}

// ChunkStatus is the processing state of a chunk. A chunk transitions strictly
// Pending -> InProgress -> {Complete | Failed} and never regresses from Complete.
// Failed is retryable: Begin may be called on a failed chunk.
type ChunkStatus string

const (
	ChunkPending    ChunkStatus = "pending"
	ChunkInProgress ChunkStatus = "in_progress"
	ChunkComplete   ChunkStatus = "complete"
	ChunkFailed     ChunkStatus = "failed"
)

// Chunk is the leaf unit of extraction work: a bounded line-range window of one
// source document. StartLine and EndLine are inclusive, 1-based. Consecutive
// chunks of a document overlap by the planned overlap size so that narrative
// context carries across window boundaries.
type Chunk struct {
	// ID is the chunk's identifier, "[document]#[index]" (e.g. "advisory-1#3").
	ID string `json:"id" yaml:"id"`

	// SourceID references the SourceDocument this chunk windows.
	SourceID string `json:"source_id" yaml:"source_id"`

	// Index is the chunk's zero-based position in the document's plan.
	Index int `json:"index" yaml:"index"`

	// StartLine is the first line covered, inclusive.
	StartLine int `json:"start_line" yaml:"start_line"`

	// EndLine is the last line covered, inclusive.
	EndLine int `json:"end_line" yaml:"end_line"`

	// Status is the chunk's position in the processing state machine.
	Status ChunkStatus `json:"status" yaml:"status"`

	// FailReason records why the chunk last failed. Empty unless Status is failed.
	FailReason string `json:"fail_reason,omitempty" yaml:"fail_reason,omitempty"`
}

// Lines returns the number of lines the chunk covers.
func (c Chunk) Lines() int {
	return c.EndLine - c.StartLine + 1
}
