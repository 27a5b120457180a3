// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/corpus-engine/internal/graph"
	"github.com/pdiddy/corpus-engine/internal/ledger"
	"github.com/pdiddy/corpus-engine/pkg/types"
)

var linkCmd = &cobra.Command{
	Use:   "link <from-id> <to-id>",
	Short: "Link two insights in the cross-reference graph",
	Long: `Link inserts a directed, typed edge between two insights. Re-linking the
same triple is a no-op. A depends_on edge that would close a cycle is
rejected and the graph left unchanged. A supersedes edge retires the target
insight while preserving it for traceability.`,
	Args: cobra.ExactArgs(2),
	RunE: runLink,
}

func runLink(cmd *cobra.Command, args []string) error {
	relation, _ := cmd.Flags().GetString("relation")
	rel := types.Relation(relation)

	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := context.Background()
	led := ledger.New(st, ledgerConfig())

	// Both endpoints must exist before linking.
	for _, id := range args {
		if _, err := led.Get(ctx, id); err != nil {
			return err
		}
	}

	if err := graph.New(st).Link(ctx, args[0], args[1], rel, led); err != nil {
		return err
	}
	fmt.Printf("%s -[%s]-> %s\n", args[0], rel, args[1])
	return nil
}

var neighborsCmd = &cobra.Command{
	Use:   "neighbors <id>",
	Short: "List insights directly linked to one insight",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		relation, _ := cmd.Flags().GetString("relation")

		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		neighbors, err := graph.New(st).Neighbors(context.Background(), args[0], types.Relation(relation))
		if err != nil {
			return err
		}
		if len(neighbors) == 0 {
			fmt.Printf("%s has no links\n", args[0])
			return nil
		}
		fmt.Println(strings.Join(neighbors, "\n"))
		return nil
	},
}

var clusterCmd = &cobra.Command{
	Use:   "cluster <id>",
	Short: "List the synthesis cluster around one insight",
	Long: `Cluster walks the cross-reference graph breadth-first and prints every
insight transitively reachable from the given one, over any relation.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		component, err := graph.New(st).ConnectedComponent(context.Background(), args[0])
		if err != nil {
			return err
		}
		fmt.Println(strings.Join(component, "\n"))
		return nil
	},
}

func init() {
	linkCmd.Flags().String("relation", string(types.RelatesTo), "edge relation: relates_to, depends_on, or supersedes")
	neighborsCmd.Flags().String("relation", "", "restrict to one relation")

	rootCmd.AddCommand(linkCmd)
	rootCmd.AddCommand(neighborsCmd)
	rootCmd.AddCommand(clusterCmd)
}
