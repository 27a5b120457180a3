// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/corpus-engine/internal/progress"
	"github.com/pdiddy/corpus-engine/pkg/types"
)

var statusCmd = &cobra.Command{
	Use:   "status [<document>]",
	Short: "Report derived pipeline progress",
	Long: `Status recomputes progress from the entity tables: chunk counts, distinct
lines covered, insight totals by type, and cross-reference counts. Nothing is
read from a stored counter, so the report cannot drift from ground truth.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := context.Background()

	if len(args) == 1 {
		doc, err := progress.Document(ctx, st, args[0])
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(doc)
		}
		printDocumentProgress(doc)
		return nil
	}

	state, err := progress.Snapshot(ctx, st)
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(state)
	}

	if len(state.Documents) == 0 {
		fmt.Println("No documents registered.")
		return nil
	}
	fmt.Fprintf(os.Stdout, "%-24s  %12s  %8s  %8s  %7s\n",
		"Document", "Chunks", "Failed", "Lines", "Done")
	for _, doc := range state.Documents {
		fmt.Fprintf(os.Stdout, "%-24s  %5d/%-6d  %8d  %8d  %6.1f%%\n",
			doc.DocumentID, doc.ChunksComplete, doc.ChunksTotal,
			doc.ChunksFailed, doc.LinesCovered, doc.PercentLines)
	}

	fmt.Println()
	for _, t := range []types.InsightType{
		types.InsightUserJourney, types.InsightTechnicalInsight, types.InsightStrategicTheme,
	} {
		fmt.Printf("%-20s %d\n", t, state.InsightsTotalByType[t])
	}
	fmt.Printf("%-20s %d\n", "cross_refs", state.CrossRefsTotal)
	fmt.Printf("%-20s %d\n", "verifications", state.VerificationsTotal)
	return nil
}

func printDocumentProgress(doc progress.DocumentProgress) {
	fmt.Printf("%s: %d/%d chunks complete, %d failed, %d of %d lines (%.1f%%)\n",
		doc.DocumentID, doc.ChunksComplete, doc.ChunksTotal, doc.ChunksFailed,
		doc.LinesCovered, doc.TotalLines, doc.PercentLines)
}

func init() {
	statusCmd.Flags().Bool("json", false, "emit the report as JSON")

	rootCmd.AddCommand(statusCmd)
}
