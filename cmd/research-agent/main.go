// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the research-agent CLI: ingest
// recent arXiv papers into the vector store, run research queries against
// them, and invoke external tools directly.
package main

import (
	"errors"
	"io/fs"
	"os"
	"sort"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/research-agent/internal/logging"
	"github.com/pdiddy/research-agent/internal/metrics"
	"github.com/pdiddy/research-agent/internal/secrets"
	"github.com/pdiddy/research-agent/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

const secretsDir = ".secrets/"

// cfg and logger are populated by the root PersistentPreRunE.
var (
	cfg    types.Config
	logger = zap.NewNop()
)

// rootCmd is the base command for the research-agent CLI.
var rootCmd = &cobra.Command{
	Use:   "research-agent",
	Short: "Ingest papers and answer research questions over them",
	Long: `research-agent keeps a local corpus of recent arXiv papers in a Qdrant
vector store and answers research questions against it.

ingest discovers new papers, skips ones already stored, and indexes the rest.
research retrieves and reranks passages, consults an external source when
local coverage is low, and produces gap, design, pattern and future-direction
analyses.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}

		c, err := loadConfig()
		if err != nil {
			return err
		}
		if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
			c.Logging.Level = lvl
		}
		l, err := logging.New(c.Logging)
		if err != nil {
			return err
		}

		s, err := secrets.Load(secretsDir, l)
		if err != nil {
			return err
		}
		secrets.Apply(&c, s)
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			l.Debug("loaded secrets", zap.Strings("keys", keys))
		}

		cfg, logger = c, l

		if addr, _ := cmd.Flags().GetString("metrics-addr"); addr != "" {
			go func() {
				if err := metrics.Serve(addr); err != nil {
					logger.Error("metrics server stopped", zap.String("addr", addr), zap.Error(err))
				}
			}()
			logger.Info("serving metrics", zap.String("addr", addr))
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file (default: ./research-agent.yaml or ~/.config/research-agent/research-agent.yaml)")
	rootCmd.PersistentFlags().String("metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9090) while the command runs")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error (overrides config)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
