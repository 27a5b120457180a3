// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/corpus-engine/internal/ledger"
	"github.com/pdiddy/corpus-engine/internal/scheduler"
	"github.com/pdiddy/corpus-engine/internal/verify"
	"github.com/pdiddy/corpus-engine/pkg/types"
)

var submitCmd = &cobra.Command{
	Use:   "submit <chunk> <insights-json>",
	Short: "Submit extracted insights for a chunk",
	Long: `Submit records candidate insights produced for a chunk. The JSON argument
is a file path or "-" for stdin, holding either one insight or an array:

  [{"type": "user_journey", "fields": {"persona": "...", ...}}, ...]

A submission whose identity fields normalize equal to an existing insight of
the same type merges into it: the chunk's line range is appended to the
existing record's provenance instead of creating a duplicate. With --preview,
submit reports the dedup key and merge outcome of each candidate without
writing anything.`,
	Args: cobra.ExactArgs(2),
	RunE: runSubmit,
}

func runSubmit(cmd *cobra.Command, args []string) error {
	data, err := readArg(args[1])
	if err != nil {
		return err
	}

	var candidates []types.CandidateInsight
	if err := json.Unmarshal(data, &candidates); err != nil {
		var single types.CandidateInsight
		if err := json.Unmarshal(data, &single); err != nil {
			return fmt.Errorf("parsing insight JSON: %w", err)
		}
		candidates = []types.CandidateInsight{single}
	}

	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := context.Background()
	led := ledger.New(st, ledgerConfig())
	if preview, _ := cmd.Flags().GetBool("preview"); preview {
		lines, err := previewSubmission(ctx, led, candidates)
		if err != nil {
			return err
		}
		for _, line := range lines {
			fmt.Println(line)
		}
		return nil
	}

	chunk, err := scheduler.New(st).Get(ctx, args[0])
	if err != nil {
		return err
	}
	ref := types.SourceRef{SourceID: chunk.SourceID, StartLine: chunk.StartLine, EndLine: chunk.EndLine}

	for _, cand := range candidates {
		ins, merged, err := led.Submit(ctx, cand.Type, cand.Fields, ref)
		if err != nil {
			return err
		}
		if merged {
			fmt.Printf("merged  %s (%d source refs)\n", ins.ID, len(ins.SourceRefs))
		} else {
			fmt.Printf("created %s\n", ins.ID)
		}
	}
	return nil
}

// previewSubmission reports, per candidate, the dedup key a submission would
// use and whether it would merge into an existing insight or create a new one.
// Nothing is written.
func previewSubmission(ctx context.Context, led *ledger.Ledger, candidates []types.CandidateInsight) ([]string, error) {
	lines := make([]string, 0, len(candidates))
	for _, cand := range candidates {
		if !types.ValidInsightType(cand.Type) {
			return nil, fmt.Errorf("invalid insight type %q", cand.Type)
		}
		key := led.Key(cand.Type, cand.Fields)
		existing, err := led.FindByDedupKey(ctx, cand.Type, key)
		var notFound *types.NotFoundError
		switch {
		case err == nil:
			lines = append(lines, fmt.Sprintf("%s  would merge into %s", key, existing.ID))
		case errors.As(err, &notFound):
			lines = append(lines, fmt.Sprintf("%s  would create a new %s insight", key, cand.Type))
		default:
			return nil, err
		}
	}
	return lines, nil
}

var verifyCmd = &cobra.Command{
	Use:   "verify <chunk> <qa-json>",
	Short: "Record answered verification questions for a chunk",
	Long: `Verify appends claim/question/answer/verdict records to a chunk. The JSON
argument is a file path or "-" for stdin, holding one record or an array:

  [{"claim_ref": "UJ-001", "question": "...", "answer": "...",
    "verdict": "confirmed"}, ...]

Records are immutable; corrections are new records referencing the old one
via evidence_ref. Only confirmed and refuted verdicts count toward the
chunk's completion quota.`,
	Args: cobra.ExactArgs(2),
	RunE: runVerify,
}

func runVerify(cmd *cobra.Command, args []string) error {
	data, err := readArg(args[1])
	if err != nil {
		return err
	}

	var candidates []types.CandidateVerification
	if err := json.Unmarshal(data, &candidates); err != nil {
		var single types.CandidateVerification
		if err := json.Unmarshal(data, &single); err != nil {
			return fmt.Errorf("parsing verification JSON: %w", err)
		}
		candidates = []types.CandidateVerification{single}
	}

	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := context.Background()
	// The chunk must exist; verifications for unknown chunks would certify nothing.
	if _, err := scheduler.New(st).Get(ctx, args[0]); err != nil {
		return err
	}

	gate := verify.New(st, verificationConfig(cmd))
	for _, cand := range candidates {
		rec, err := gate.Record(ctx, types.VerificationRecord{
			ChunkID:     args[0],
			ClaimRef:    cand.ClaimRef,
			Question:    cand.Question,
			Answer:      cand.Answer,
			EvidenceRef: cand.EvidenceRef,
			Verdict:     cand.Verdict,
		})
		if err != nil {
			return err
		}
		fmt.Printf("recorded #%d (%s)\n", rec.ID, rec.Verdict)
	}

	have, need, err := gate.Quota(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Printf("\nquota: %d of %d\n", have, need)
	return nil
}

// readArg reads a JSON payload from a file path or stdin ("-").
func readArg(arg string) ([]byte, error) {
	if arg == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(arg)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", arg, err)
	}
	return data, nil
}

func init() {
	submitCmd.Flags().Bool("preview", false, "report dedup keys and merge outcomes without writing")
	verifyCmd.Flags().Int("min-quota", 0, "required confirmed/refuted verification records (default 5)")

	rootCmd.AddCommand(submitCmd)
	rootCmd.AddCommand(verifyCmd)
}
