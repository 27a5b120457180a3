// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/corpus-engine/internal/scheduler"
	"github.com/pdiddy/corpus-engine/internal/verify"
)

// chunkIDArg requires a single argument that parses as a chunk identifier,
// so a malformed ID fails before the store is opened.
func chunkIDArg(cmd *cobra.Command, args []string) error {
	if err := cobra.ExactArgs(1)(cmd, args); err != nil {
		return err
	}
	_, _, err := scheduler.ParseChunkID(args[0])
	return err
}

// --- plan ---

var planCmd = &cobra.Command{
	Use:   "plan <document>",
	Short: "Plan a document's overlapping chunk windows",
	Long: `Plan derives the document's ordered chunk sequence from its line count and
the window parameters. Planning is deterministic and idempotent; re-planning
with different parameters than the existing chunks is a configuration error,
since chunk boundaries cannot be silently changed mid-corpus.`,
	Args: cobra.ExactArgs(1),
	RunE: runPlan,
}

func runPlan(cmd *cobra.Command, args []string) error {
	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	chunks, err := scheduler.New(st).Plan(context.Background(), args[0], windowConfig(cmd))
	if err != nil {
		return err
	}
	for _, c := range chunks {
		fmt.Printf("%-16s  lines %d-%d  %s\n", c.ID, c.StartLine, c.EndLine, c.Status)
	}
	fmt.Printf("\n%d chunks planned for %s\n", len(chunks), args[0])
	return nil
}

// --- next ---

var nextCmd = &cobra.Command{
	Use:   "next <document>",
	Short: "Show the next pending chunk of a document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		chunk, err := scheduler.New(st).NextPending(context.Background(), args[0])
		if err != nil {
			return err
		}
		if chunk == nil {
			fmt.Printf("no pending chunks for %s\n", args[0])
			return nil
		}
		fmt.Printf("%s  lines %d-%d\n", chunk.ID, chunk.StartLine, chunk.EndLine)
		return nil
	},
}

// --- begin ---

var beginCmd = &cobra.Command{
	Use:   "begin <chunk>",
	Short: "Dispatch a chunk for extraction",
	Long: `Begin transitions a pending (or failed, for retry) chunk to in-progress.
At most one chunk per document can be in progress at a time: a second begin
on the same chunk, or on any sibling chunk while the first is still held, is
a double-dispatch error.`,
	Args: chunkIDArg,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := scheduler.New(st).Begin(context.Background(), args[0]); err != nil {
			return err
		}
		fmt.Printf("chunk %s in progress\n", args[0])
		return nil
	},
}

// --- complete ---

var completeCmd = &cobra.Command{
	Use:   "complete <chunk>",
	Short: "Mark a chunk complete, subject to its verification quota",
	Long: `Complete transitions an in-progress chunk to complete, but only once the
chunk carries the minimum count of confirmed or refuted verification records.
Inconclusive records never count. A quota failure is recoverable: record more
verifications and retry.`,
	Args: chunkIDArg,
	RunE: runComplete,
}

func runComplete(cmd *cobra.Command, args []string) error {
	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	gate := verify.New(st, verificationConfig(cmd))
	if err := scheduler.New(st).Complete(context.Background(), args[0], gate); err != nil {
		return err
	}
	fmt.Printf("chunk %s complete\n", args[0])
	return nil
}

// --- fail ---

var failCmd = &cobra.Command{
	Use:   "fail <chunk>",
	Short: "Mark an in-progress chunk failed (retryable)",
	Args:  chunkIDArg,
	RunE: func(cmd *cobra.Command, args []string) error {
		reason, _ := cmd.Flags().GetString("reason")
		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := scheduler.New(st).Fail(context.Background(), args[0], reason); err != nil {
			return err
		}
		fmt.Printf("chunk %s failed: %s\n", args[0], reason)
		return nil
	},
}

func init() {
	planCmd.Flags().Int("chunk-size", 0, "lines per chunk (default 300)")
	planCmd.Flags().Int("overlap", 0, "lines shared between consecutive chunks (default 20)")
	completeCmd.Flags().Int("min-quota", 0, "required confirmed/refuted verification records (default 5)")
	failCmd.Flags().String("reason", "", "why the chunk failed")

	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(nextCmd)
	rootCmd.AddCommand(beginCmd)
	rootCmd.AddCommand(completeCmd)
	rootCmd.AddCommand(failCmd)
}
