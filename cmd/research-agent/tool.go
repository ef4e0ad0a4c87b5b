// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/research-agent/pkg/types"
)

var toolCmd = &cobra.Command{
	Use:   "tool NAME QUERY",
	Short: "Invoke one external tool through the gateway",
	Long: `Tool calls a single external source (arxiv_latest, semantic_scholar or
openalex) through the gateway, with the same rate limiting, retries,
timeout and circuit breaker the research workflow uses.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runTool,
}

func init() {
	toolCmd.Flags().Int("limit", 0, "maximum results (default from config)")
	toolCmd.Flags().Bool("json", false, "print the tool result as JSON")

	rootCmd.AddCommand(toolCmd)
}

func runTool(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	if limit <= 0 {
		limit = cfg.Gateway.ResultLimit
	}

	gw := newGateway(cfg)
	res := gw.Invoke(cmd.Context(), types.ToolContext{
		ToolName:    args[0],
		Query:       strings.Join(args[1:], " "),
		ResultLimit: limit,
		Timeout:     cfg.Gateway.Timeout,
	})

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			return err
		}
	} else {
		fmt.Printf("%s: %d result(s) in %s\n", res.ToolName, len(res.Results), res.Duration)
		for i, r := range res.Results {
			fmt.Printf("%3d. [%.2f] %s  %s\n", i+1, r.Score, r.ChunkID, firstLine(r.Text, 80))
		}
	}

	if !res.Success {
		return fmt.Errorf("tool %s: %s (available: %s)", res.ToolName, res.Error, strings.Join(gw.Tools(), ", "))
	}
	return nil
}

func firstLine(s string, n int) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > n {
		s = s[:n-3] + "..."
	}
	return s
}
