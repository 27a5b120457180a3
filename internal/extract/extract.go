// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract defines the Extractor collaborator contract and the runner
// that drives chunks through it: next pending chunk -> begin -> extract ->
// submit insights -> record verifications -> complete. The core is agnostic to
// how the Extractor produces its output (human analyst, LLM call, rule
// engine); it only requires the request/result shape.
package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/pdiddy/corpus-engine/internal/ledger"
	"github.com/pdiddy/corpus-engine/internal/registry"
	"github.com/pdiddy/corpus-engine/internal/scheduler"
	"github.com/pdiddy/corpus-engine/internal/verify"
	"github.com/pdiddy/corpus-engine/pkg/types"
)

// Extractor turns one chunk's text into candidate insights and answered
// verification questions.
type Extractor interface {
	Extract(ctx context.Context, req types.ExtractorRequest) (types.ExtractorResult, error)
}

// backoffBase controls the base duration for exponential backoff between
// Extractor retries. Tests override this to avoid real sleeps.
var backoffBase = time.Second

// Runner drives the extraction loop for one or more documents.
type Runner struct {
	reg       *registry.Registry
	sched     *scheduler.Scheduler
	led       *ledger.Ledger
	gate      *verify.Gate
	extractor Extractor

	overlap    int
	timeout    time.Duration
	maxRetries int
}

// NewRunner wires the pipeline components to an Extractor. The overlap size
// is reported to the Extractor so it can discount context lines it has
// already seen.
func NewRunner(reg *registry.Registry, sched *scheduler.Scheduler, led *ledger.Ledger, gate *verify.Gate, ex Extractor, w types.WindowConfig, cfg types.ExtractorConfig) *Runner {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &Runner{
		reg:        reg,
		sched:      sched,
		led:        led,
		gate:       gate,
		extractor:  ex,
		overlap:    w.OverlapSize,
		timeout:    timeout,
		maxRetries: maxRetries,
	}
}

// Summary holds counts from one extraction run.
type Summary struct {
	Completed     int
	Failed        int
	Insights      int
	Merged        int
	Verifications int
}

// Run processes the document's pending chunks in order until none remain or a
// chunk fails. Each chunk is durably completed or failed before the next is
// dispatched, so an interrupted run resumes where it stopped.
func (r *Runner) Run(ctx context.Context, documentID string, w io.Writer) (Summary, error) {
	var summary Summary
	for {
		chunk, err := r.sched.NextPending(ctx, documentID)
		if err != nil {
			return summary, err
		}
		if chunk == nil {
			fmt.Fprintf(w, "\ncompleted: %d, failed: %d, insights: %d (%d merged), verifications: %d\n",
				summary.Completed, summary.Failed, summary.Insights, summary.Merged, summary.Verifications)
			return summary, nil
		}
		if err := r.ProcessChunk(ctx, *chunk, w, &summary); err != nil {
			return summary, err
		}
	}
}

// ProcessChunk runs one chunk through the Extractor. Extraction errors and
// timeouts fail the chunk (leaving it retryable) and are not fatal to the run
// summary; invariant violations from the components propagate.
func (r *Runner) ProcessChunk(ctx context.Context, chunk types.Chunk, w io.Writer, summary *Summary) error {
	if err := r.sched.Begin(ctx, chunk.ID); err != nil {
		return err
	}

	req, err := r.buildRequest(ctx, chunk)
	if err != nil {
		return r.failChunk(ctx, chunk.ID, err, w, summary)
	}

	result, err := r.callWithRetry(ctx, req)
	if err != nil {
		return r.failChunk(ctx, chunk.ID, err, w, summary)
	}

	ref := types.SourceRef{SourceID: chunk.SourceID, StartLine: chunk.StartLine, EndLine: chunk.EndLine}
	for i, cand := range result.Insights {
		if !types.ValidInsightType(cand.Type) {
			return r.failChunk(ctx, chunk.ID,
				fmt.Errorf("insight %d: invalid type %q", i, cand.Type), w, summary)
		}
		_, merged, err := r.led.Submit(ctx, cand.Type, cand.Fields, ref)
		if err != nil {
			return err
		}
		summary.Insights++
		if merged {
			summary.Merged++
		}
	}

	for _, cand := range result.VerificationRecords {
		_, err := r.gate.Record(ctx, types.VerificationRecord{
			ChunkID:     chunk.ID,
			ClaimRef:    cand.ClaimRef,
			Question:    cand.Question,
			Answer:      cand.Answer,
			EvidenceRef: cand.EvidenceRef,
			Verdict:     cand.Verdict,
		})
		if err != nil {
			return err
		}
		summary.Verifications++
	}

	if err := r.sched.Complete(ctx, chunk.ID, r.gate); err != nil {
		var quota *types.QuotaNotMetError
		if errors.As(err, &quota) {
			// Shallow extraction: fail the chunk so it stays retryable.
			return r.failChunk(ctx, chunk.ID, quota, w, summary)
		}
		return err
	}

	fmt.Fprintf(w, "completed %s (%d insights, %d verifications)\n",
		chunk.ID, len(result.Insights), len(result.VerificationRecords))
	summary.Completed++
	return nil
}

func (r *Runner) buildRequest(ctx context.Context, chunk types.Chunk) (types.ExtractorRequest, error) {
	lines, err := r.reg.ReadLines(ctx, chunk.SourceID, chunk.StartLine, chunk.EndLine)
	if err != nil {
		return types.ExtractorRequest{}, err
	}
	overlap := 0
	if chunk.Index > 0 {
		overlap = r.overlap
	}
	return types.ExtractorRequest{
		DocumentID:          chunk.SourceID,
		ChunkID:             chunk.ID,
		StartLine:           chunk.StartLine,
		EndLine:             chunk.EndLine,
		OverlapContextLines: overlap,
		Text:                strings.Join(lines, "\n"),
	}, nil
}

// callWithRetry calls the Extractor with a per-attempt timeout and exponential
// backoff between attempts.
func (r *Runner) callWithRetry(ctx context.Context, req types.ExtractorRequest) (types.ExtractorResult, error) {
	var lastErr error
	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * backoffBase
			select {
			case <-ctx.Done():
				return types.ExtractorResult{}, ctx.Err()
			case <-time.After(backoff):
			}
		}

		callCtx, cancel := context.WithTimeout(ctx, r.timeout)
		result, err := r.extractor.Extract(callCtx, req)
		cancel()
		if err == nil {
			return result, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return types.ExtractorResult{}, ctx.Err()
		}
	}
	return types.ExtractorResult{}, fmt.Errorf("after %d retries: %w", r.maxRetries, lastErr)
}

// failChunk records the failure durably and reports it on w. The returned
// error is nil so the caller's run loop can move to the next pending chunk;
// the failed chunk stays retryable via Begin.
func (r *Runner) failChunk(ctx context.Context, chunkID string, cause error, w io.Writer, summary *Summary) error {
	if err := r.sched.Fail(ctx, chunkID, cause.Error()); err != nil {
		return err
	}
	fmt.Fprintf(w, "failed  %s: %v\n", chunkID, cause)
	summary.Failed++
	return nil
}
