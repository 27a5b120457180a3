// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/corpus-engine/internal/coverage"
)

var certifyCmd = &cobra.Command{
	Use:   "certify [<document>]",
	Short: "Certify chunk coverage for a document or the whole corpus",
	Long: `Certify reconciles completed chunks against each document's line count and
reports gaps, excess overlap, and truncation as itemized findings. It always
succeeds and describes the world as it is: an incomplete document is a
status, not an error.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCertify,
}

func runCertify(cmd *cobra.Command, args []string) error {
	all, _ := cmd.Flags().GetBool("all")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	if len(args) == 0 && !all {
		return fmt.Errorf("document required: name a document or pass --all")
	}

	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	verifier := coverage.New(st)
	ctx := context.Background()

	if all {
		corpus, err := verifier.CertifyCorpus(ctx)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(corpus)
		}
		for _, cert := range corpus.Documents {
			printCertificate(cert)
		}
		fmt.Printf("corpus: %s, %.1f%% complete\n", corpus.Status, corpus.PercentComplete)
		return nil
	}

	cert, err := verifier.Certify(ctx, args[0])
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(cert)
	}
	printCertificate(cert)
	return nil
}

func printCertificate(cert coverage.Certificate) {
	fmt.Printf("%-24s  %-11s  %5.1f%%  chunks %d/%d\n",
		cert.DocumentID, cert.Status, cert.PercentComplete, cert.ChunksComplete, cert.ChunksTotal)
	for _, f := range cert.Findings {
		fmt.Printf("  %-15s lines %d-%d: %s\n", f.Kind, f.From, f.To, f.Detail)
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	certifyCmd.Flags().Bool("all", false, "certify every registered document")
	certifyCmd.Flags().Bool("json", false, "emit the certificate as JSON")

	rootCmd.AddCommand(certifyCmd)
}
