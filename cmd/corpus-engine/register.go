// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/corpus-engine/internal/registry"
)

var registerCmd = &cobra.Command{
	Use:   "register <path>...",
	Short: "Catalog source documents and measure their line counts",
	Long: `Register catalogs one or more documents in the source registry, measuring
each file's line count. Re-registering an unchanged document is a no-op.
A document whose line count changed can only be re-registered before its
chunks are planned; afterwards the count is frozen.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRegister,
}

func runRegister(cmd *cobra.Command, args []string) error {
	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	reg := registry.New(st)
	for _, path := range args {
		doc, err := reg.Register(context.Background(), path)
		if err != nil {
			return err
		}
		fmt.Printf("registered %s (%d lines) from %s\n", doc.ID, doc.TotalLines, doc.Path)
	}
	return nil
}

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List registered source documents",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		docs, err := registry.New(st).List(context.Background())
		if err != nil {
			return err
		}
		if len(docs) == 0 {
			fmt.Println("No documents registered.")
			return nil
		}
		fmt.Fprintf(os.Stdout, "%-24s  %8s  %s\n", "ID", "Lines", "Path")
		for _, doc := range docs {
			fmt.Fprintf(os.Stdout, "%-24s  %8d  %s\n", doc.ID, doc.TotalLines, doc.Path)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(sourcesCmd)
}
