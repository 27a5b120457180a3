// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/pdiddy/corpus-engine/internal/ledger"
	"github.com/pdiddy/corpus-engine/internal/registry"
)

var traceCmd = &cobra.Command{
	Use:   "trace <insight-id>",
	Short: "Show the source text behind an insight",
	Long: `Trace prints every line range an insight was derived from, with the source
text read back from the registered documents. Duplicate submissions that
merged into the insight appear as additional ranges.`,
	Args: cobra.ExactArgs(1),
	RunE: runTrace,
}

func runTrace(cmd *cobra.Command, args []string) error {
	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := context.Background()
	ins, err := ledger.New(st, ledgerConfig()).Get(ctx, args[0])
	if err != nil {
		return err
	}

	fmt.Printf("%s (%s)\n", ins.ID, ins.Type)
	names := make([]string, 0, len(ins.Fields))
	for name := range ins.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %s: %s\n", name, ins.Fields[name])
	}

	reg := registry.New(st)
	for _, ref := range ins.SourceRefs {
		fmt.Printf("\n--- %s lines %d-%d ---\n", ref.SourceID, ref.StartLine, ref.EndLine)
		lines, err := reg.ReadLines(ctx, ref.SourceID, ref.StartLine, ref.EndLine)
		if err != nil {
			return err
		}
		for i, line := range lines {
			fmt.Printf("%6d  %s\n", ref.StartLine+i, line)
		}
	}
	return nil
}

func init() {
	rootCmd.AddCommand(traceCmd)
}
