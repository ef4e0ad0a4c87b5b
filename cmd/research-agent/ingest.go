// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/research-agent/internal/workflow"
	"github.com/pdiddy/research-agent/pkg/types"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Discover recent arXiv papers and index the new ones",
	Long: `Ingest lists papers submitted to the configured arXiv categories within
the last --days-back days, skips papers already in the metadata store (by
arXiv ID or normalized title), and downloads, parses, chunks, embeds and
indexes the rest. One line is printed per workflow step.`,
	Args: cobra.NoArgs,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().Int("days-back", 0, "discovery window in days, 1-365 (default from config, 7)")
	ingestCmd.Flags().Int("max-results", 0, "maximum papers to discover, 1-1000 (default from config, 100)")
	ingestCmd.Flags().Bool("json", false, "print each state as a JSON line")

	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	days, _ := cmd.Flags().GetInt("days-back")
	limit, _ := cmd.Flags().GetInt("max-results")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	var cl closers
	defer cl.close()
	w, err := newIngestion(ctx, cfg, &cl)
	if err != nil {
		return err
	}

	var final types.IngestionState
	for st := range w.Run(ctx, workflow.IngestionRequest{DaysBack: days, MaxResults: limit}) {
		if err := printIngestState(os.Stdout, st, jsonOutput); err != nil {
			return err
		}
		final = st
	}

	if final.Status == types.IngestionError {
		return fmt.Errorf("ingestion failed: %s", final.Error)
	}
	if final.DocsFailed > 0 {
		return fmt.Errorf("%d paper(s) failed ingestion", final.DocsFailed)
	}
	return nil
}

func printIngestState(w io.Writer, st types.IngestionState, jsonOutput bool) error {
	if jsonOutput {
		return json.NewEncoder(w).Encode(st)
	}

	fmt.Fprintf(w, "[%3.0f%%] %-16s %-20s", st.ProgressPercent, st.Node, st.Status)
	switch st.Node {
	case workflow.NodeSearch:
		fmt.Fprintf(w, " found=%d", st.DocsFound)
	case workflow.NodeCheckDuplicates:
		fmt.Fprintf(w, " existing=%d new=%d", st.DocsExisting, st.DocsNew)
	case workflow.NodeIngest, workflow.NodeFinalize:
		fmt.Fprintf(w, " ingested=%d failed=%d chunks=%d", st.DocsIngested, st.DocsFailed, st.ChunksIngested)
	}
	fmt.Fprintln(w)

	if st.Node == workflow.NodeFinalize {
		for _, f := range st.Failed {
			fmt.Fprintf(w, "  failed: %s: %s\n", f.Path, f.Error)
		}
		if st.Error != "" {
			fmt.Fprintf(w, "  error: %s\n", st.Error)
		}
	}
	return nil
}
