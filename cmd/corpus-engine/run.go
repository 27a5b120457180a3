// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/corpus-engine/internal/extract"
	"github.com/pdiddy/corpus-engine/internal/ledger"
	"github.com/pdiddy/corpus-engine/internal/registry"
	"github.com/pdiddy/corpus-engine/internal/scheduler"
	"github.com/pdiddy/corpus-engine/internal/secrets"
	"github.com/pdiddy/corpus-engine/internal/verify"
	"github.com/pdiddy/corpus-engine/pkg/types"
)

var runCmd = &cobra.Command{
	Use:   "run <document>",
	Short: "Drive the external Extractor over a document's pending chunks",
	Long: `Run processes a document's pending chunks in order through the configured
external Extractor: each chunk's text window is handed over, the returned
insights are submitted to the ledger (deduplicated), the verification records
are recorded, and the chunk completes once its quota is met. Each chunk is
durably completed or failed before the next is dispatched, so an interrupted
run resumes where it stopped.

The Extractor is configured via the config file (extractor.mode, command/url,
timeout) or the --extractor-command / --extractor-url flags.`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	cfg := extractorConfig(cmd)
	extractor, err := buildExtractor(cfg)
	if err != nil {
		return err
	}

	runner := extract.NewRunner(
		registry.New(st),
		scheduler.New(st),
		ledger.New(st, ledgerConfig()),
		verify.New(st, verificationConfig(cmd)),
		extractor,
		windowConfig(cmd),
		cfg,
	)

	summary, err := runner.Run(context.Background(), args[0], os.Stdout)
	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d chunk(s) failed extraction", summary.Failed)
	}
	return nil
}

func buildExtractor(cfg types.ExtractorConfig) (extract.Extractor, error) {
	switch cfg.Mode {
	case types.ExtractorExec:
		if cfg.Command == "" {
			return nil, fmt.Errorf("extractor.command required in exec mode")
		}
		return &extract.ExecExtractor{
			Command: cfg.Command,
			Args:    cfg.Args,
			Env:     secrets.Environ(loadedSecrets),
		}, nil
	case types.ExtractorHTTP:
		if cfg.URL == "" {
			return nil, fmt.Errorf("extractor.url required in http mode")
		}
		return &extract.HTTPExtractor{URL: cfg.URL, MaxRetries: cfg.MaxRetries}, nil
	case "":
		return nil, fmt.Errorf("no extractor configured: set extractor.mode to exec or http")
	}
	return nil, fmt.Errorf("unknown extractor mode %q", cfg.Mode)
}

func init() {
	runCmd.Flags().String("extractor-command", "", "run this command as the extractor (exec mode)")
	runCmd.Flags().String("extractor-url", "", "POST chunks to this endpoint (http mode)")
	runCmd.Flags().Duration("extractor-timeout", 0, "bound one extractor call (default 5m)")
	runCmd.Flags().Int("chunk-size", 0, "lines per chunk (default 300)")
	runCmd.Flags().Int("overlap", 0, "lines shared between consecutive chunks (default 20)")
	runCmd.Flags().Int("min-quota", 0, "required confirmed/refuted verification records (default 5)")

	rootCmd.AddCommand(runCmd)
}
