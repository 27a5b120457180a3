// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"fmt"
)

// Exit codes for the CLI, one per invariant-violation kind. Mutating commands
// exit non-zero with the code of the first violation encountered; reporting
// commands (status, certify) always exit 0.
const (
	ExitOK             = 0
	ExitFailure        = 1
	ExitInvalidWindow  = 2
	ExitDoubleDispatch = 3
	ExitQuotaNotMet    = 4
	ExitCycle          = 5
	ExitConfigDrift    = 6
	ExitNotFound       = 7
)

// InvalidWindowError reports a chunk/overlap configuration that could never
// produce a valid plan: a non-positive chunk size, or an overlap at least as
// large as the chunk size (the window would never advance).
type InvalidWindowError struct {
	ChunkSize int
	Overlap   int
}

func (e *InvalidWindowError) Error() string {
	return fmt.Sprintf("invalid window: chunk_size=%d overlap=%d (need chunk_size > 0 and overlap < chunk_size)", e.ChunkSize, e.Overlap)
}

// DoubleDispatchError reports a Begin call on a chunk that is not dispatchable:
// another caller already holds it, it is complete, or a sibling chunk of the
// same document is in progress (HeldBy names the sibling in that case).
type DoubleDispatchError struct {
	ChunkID string
	Status  ChunkStatus
	HeldBy  string
}

func (e *DoubleDispatchError) Error() string {
	if e.HeldBy != "" {
		return fmt.Sprintf("chunk %s blocked: %s is already in progress in the same document", e.ChunkID, e.HeldBy)
	}
	return fmt.Sprintf("chunk %s is %s, not pending: refusing double dispatch", e.ChunkID, e.Status)
}

// QuotaNotMetError reports a Complete attempt on a chunk whose countable
// verification records (confirmed or refuted) fall short of the minimum.
// It is recoverable: record more verifications and retry Complete.
type QuotaNotMetError struct {
	ChunkID string
	Have    int
	Need    int
}

func (e *QuotaNotMetError) Error() string {
	return fmt.Sprintf("chunk %s has %d of %d required verification records (confirmed/refuted)", e.ChunkID, e.Have, e.Need)
}

// CycleError reports a depends_on edge insert that would close a cycle.
// The graph is unchanged after the rejected insert.
type CycleError struct {
	FromID string
	ToID   string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("depends_on edge %s -> %s would create a cycle", e.FromID, e.ToID)
}

// ConfigDriftError reports an attempt to re-plan a document with different
// window parameters than its existing chunks were derived from, or to change a
// document's line count after chunking began. Chunk boundaries cannot be
// silently changed mid-corpus.
type ConfigDriftError struct {
	DocumentID string
	Field      string
	Existing   int
	Requested  int
}

func (e *ConfigDriftError) Error() string {
	return fmt.Sprintf("document %s already planned with %s=%d, got %d", e.DocumentID, e.Field, e.Existing, e.Requested)
}

// NotFoundError reports a lookup of an entity that does not exist.
type NotFoundError struct {
	Kind string // "document", "chunk", "insight"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

func asErr[T error](err error) bool {
	var target T
	return errors.As(err, &target)
}

// ExitCode maps an error to the CLI exit code for its kind.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	switch {
	case asErr[*InvalidWindowError](err):
		return ExitInvalidWindow
	case asErr[*DoubleDispatchError](err):
		return ExitDoubleDispatch
	case asErr[*QuotaNotMetError](err):
		return ExitQuotaNotMet
	case asErr[*CycleError](err):
		return ExitCycle
	case asErr[*ConfigDriftError](err):
		return ExitConfigDrift
	case asErr[*NotFoundError](err):
		return ExitNotFound
	}
	return ExitFailure
}
