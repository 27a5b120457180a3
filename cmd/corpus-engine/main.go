// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the corpus-engine CLI: the incremental
// knowledge-extraction pipeline over large multi-document text corpora.
// Reporting commands (status, certify) always exit 0 and describe the world
// as it is; mutating commands fail loudly with a per-error-kind exit code.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/corpus-engine/internal/secrets"
	"github.com/pdiddy/corpus-engine/internal/store"
	"github.com/pdiddy/corpus-engine/internal/verify"
	"github.com/pdiddy/corpus-engine/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds credentials loaded from .secrets/ at startup, handed to
// the exec extractor's environment.
var loadedSecrets map[string]string

// rootCmd is the base command for the corpus-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "corpus-engine",
	Short: "Incremental knowledge extraction over large text corpora",
	Long: `corpus-engine schedules, deduplicates, links, and certifies knowledge
extraction over large multi-document text corpora. An external Extractor
(human analyst, LLM call, rule engine) turns chunk text into candidate
insights and verification records; the engine enforces windowing, dedup,
provenance, verification quotas, and coverage certification.

Typical flow: register a document, plan its chunks, then run the extractor
loop (or drive it manually with next/begin/submit/verify/complete), and
certify coverage at any point.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./corpus-engine.yaml or ~/.config/corpus-engine/config.yaml)")
	rootCmd.PersistentFlags().String("state-dir", "", "directory holding the pipeline database (default: state)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("corpus-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "corpus-engine"))
		}
	}

	viper.SetEnvPrefix("CORPUS_ENGINE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// openStore opens the pipeline database per flags and config.
func openStore(cmd *cobra.Command) (*store.Store, error) {
	stateDir, _ := cmd.Flags().GetString("state-dir")
	if stateDir == "" {
		stateDir = viper.GetString("store.state_dir")
	}
	return store.Open(types.StoreConfig{StateDir: stateDir})
}

// windowConfig resolves the chunking parameters: flag, then config file, then
// the built-in defaults. Zero is a value, not "unset": --overlap 0 disables
// the overlap, and --chunk-size 0 reaches the planner and is rejected there.
func windowConfig(cmd *cobra.Command) types.WindowConfig {
	size := 300
	if viper.IsSet("window.chunk_size") {
		size = viper.GetInt("window.chunk_size")
	}
	if cmd.Flags().Changed("chunk-size") {
		size, _ = cmd.Flags().GetInt("chunk-size")
	}
	overlap := 20
	if viper.IsSet("window.overlap_size") {
		overlap = viper.GetInt("window.overlap_size")
	}
	if cmd.Flags().Changed("overlap") {
		overlap, _ = cmd.Flags().GetInt("overlap")
	}
	return types.WindowConfig{ChunkSize: size, OverlapSize: overlap}
}

// verificationConfig resolves the completion quota.
func verificationConfig(cmd *cobra.Command) types.VerificationConfig {
	quota, _ := cmd.Flags().GetInt("min-quota")
	if quota == 0 {
		quota = viper.GetInt("verification.min_quota")
	}
	if quota == 0 {
		quota = verify.DefaultMinQuota
	}
	return types.VerificationConfig{MinQuota: quota}
}

// ledgerConfig resolves identity-field overrides from the config file.
func ledgerConfig() types.LedgerConfig {
	var cfg types.LedgerConfig
	raw := viper.GetStringMapStringSlice("ledger.identity_fields")
	if len(raw) > 0 {
		cfg.IdentityFields = make(map[types.InsightType][]string, len(raw))
		for t, fields := range raw {
			cfg.IdentityFields[types.InsightType(t)] = fields
		}
	}
	return cfg
}

// extractorConfig resolves the external Extractor invocation settings.
func extractorConfig(cmd *cobra.Command) types.ExtractorConfig {
	cfg := types.ExtractorConfig{
		Mode:       types.ExtractorMode(viper.GetString("extractor.mode")),
		Command:    viper.GetString("extractor.command"),
		Args:       viper.GetStringSlice("extractor.args"),
		URL:        viper.GetString("extractor.url"),
		Timeout:    viper.GetDuration("extractor.timeout"),
		MaxRetries: viper.GetInt("extractor.max_retries"),
	}
	if command, _ := cmd.Flags().GetString("extractor-command"); command != "" {
		cfg.Mode = types.ExtractorExec
		cfg.Command = command
	}
	if url, _ := cmd.Flags().GetString("extractor-url"); url != "" {
		cfg.Mode = types.ExtractorHTTP
		cfg.URL = url
	}
	if timeout, _ := cmd.Flags().GetDuration("extractor-timeout"); timeout > 0 {
		cfg.Timeout = timeout
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Minute
	}
	return cfg
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(types.ExitCode(err))
	}
}
