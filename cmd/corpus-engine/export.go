// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pdiddy/corpus-engine/internal/graph"
	"github.com/pdiddy/corpus-engine/internal/ledger"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the ledger and cross-reference graph to YAML or JSON",
	Long: `Export writes every insight (including retired ones) with its provenance
and outgoing links to export.yaml or export.json in the state directory.`,
	RunE: runExport,
}

func runExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")

	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := context.Background()
	edges, err := graph.New(st).Edges(ctx, "")
	if err != nil {
		return err
	}
	entries, err := ledger.New(st, ledgerConfig()).Export(ctx, edges)
	if err != nil {
		return err
	}

	switch format {
	case "yaml", "":
		path := filepath.Join(st.StateDir(), "export.yaml")
		if err := ledger.WriteExportYAML(path, entries); err != nil {
			return err
		}
		fmt.Printf("Exported %d insights to %s\n", len(entries), path)
	case "json":
		path := filepath.Join(st.StateDir(), "export.json")
		if err := ledger.WriteExportJSON(path, entries); err != nil {
			return err
		}
		fmt.Printf("Exported %d insights to %s\n", len(entries), path)
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}
	return nil
}

func init() {
	exportCmd.Flags().String("format", "yaml", "export format: yaml or json")

	rootCmd.AddCommand(exportCmd)
}
