// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/research-agent/internal/workflow"
	"github.com/pdiddy/research-agent/pkg/types"
)

var researchCmd = &cobra.Command{
	Use:   "research QUERY",
	Short: "Answer a research question from the indexed corpus",
	Long: `Research embeds the query, retrieves and reranks passages from the vector
store, consults an external source when local coverage is below the
threshold, and runs the selected analyses (gap_analysis, design_suggestion,
pattern_detection, future_directions, or comprehensive for all four).`,
	Args: cobra.MinimumNArgs(1),
	RunE: runResearch,
}

func init() {
	researchCmd.Flags().String("analysis-type", "", "comprehensive, gap_analysis, design_suggestion, pattern_detection or future_directions (default from config)")
	researchCmd.Flags().String("strategy", "", "rerank strategy: cross_encoder, semantic_diversity, ensemble or fallback (default from config)")
	researchCmd.Flags().Bool("no-external", false, "never consult external tools")
	researchCmd.Flags().String("format", "text", "output format: text, json or yaml")

	rootCmd.AddCommand(researchCmd)
}

func runResearch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	analysisType, _ := cmd.Flags().GetString("analysis-type")
	strategy, _ := cmd.Flags().GetString("strategy")
	noExternal, _ := cmd.Flags().GetBool("no-external")
	format, _ := cmd.Flags().GetString("format")

	switch format {
	case "text", "json", "yaml":
	default:
		return fmt.Errorf("unsupported format %q: use text, json or yaml", format)
	}

	var cl closers
	defer cl.close()
	w, err := newResearch(ctx, cfg, &cl)
	if err != nil {
		return err
	}

	st := w.Run(ctx, workflow.ResearchRequest{
		Query:        strings.Join(args, " "),
		AnalysisType: types.AnalysisType(analysisType),
		Strategy:     types.RerankStrategy(strategy),
		UseExternal:  !noExternal,
	})
	if st.Final == nil {
		return fmt.Errorf("research produced no response: %s", st.Error)
	}
	return writeResponse(os.Stdout, st.Final, format)
}

func writeResponse(w io.Writer, r *types.FinalResponse, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return err
		}
		return enc.Close()
	default:
		writeText(w, r)
		return nil
	}
}

func writeText(w io.Writer, r *types.FinalResponse) {
	fmt.Fprintf(w, "Query: %s\n", r.Query)
	fmt.Fprintf(w, "Analysis: %s   papers=%d ranked=%d external=%t confidence=%.2f time=%s\n",
		r.AnalysisType, r.RetrievedPapers, r.RankedResultsCount, r.UsedExternal,
		r.AverageConfidence, r.ExecutionTime.Round(time.Millisecond))

	a := r.Analysis
	if a.Gap != nil {
		section(w, "Research gaps", a.Gap.Assessment,
			"Identified gaps", a.Gap.IdentifiedGaps,
			"Research areas", a.Gap.ResearchAreas,
			"Missing benchmarks", a.Gap.MissingBenchmarks,
			"Underexplored topics", a.Gap.UnderexploredTopics)
	}
	if a.Design != nil {
		section(w, "Design suggestions", a.Design.Assessment,
			"Approaches", a.Design.SuggestedApproaches,
			"Architectural improvements", a.Design.ArchitecturalImprovements,
			"Implementation strategies", a.Design.ImplementationStrategies,
			"Trade-offs", a.Design.TradeOffs)
	}
	if a.Pattern != nil {
		section(w, "Patterns", a.Pattern.Assessment,
			"Patterns found", a.Pattern.PatternsFound,
			"Trends", a.Pattern.TrendAnalysis,
			"Emerging methods", a.Pattern.EmergingMethods)
	}
	if a.Future != nil {
		section(w, "Future directions", a.Future.Assessment,
			"Next steps", a.Future.NextSteps,
			"Open questions", a.Future.OpenQuestions,
			"Applications", a.Future.FutureApplications)
	}

	if len(r.Recommendations) > 0 {
		fmt.Fprintln(w, "\nRecommendations")
		for i, rec := range r.Recommendations {
			fmt.Fprintf(w, "  %d. %s\n", i+1, rec)
		}
	}
	if len(r.Sources) > 0 {
		fmt.Fprintf(w, "\nSources: %s\n", strings.Join(r.Sources, ", "))
	}
	if r.Error != "" {
		fmt.Fprintf(w, "\nWarnings: %s\n", r.Error)
	}
}

// section prints a titled analysis. groups alternates label and items.
func section(w io.Writer, title string, as types.Assessment, groups ...any) {
	src := "model"
	if as.Heuristic {
		src = "heuristic"
	}
	fmt.Fprintf(w, "\n%s (confidence %.2f, faithfulness %.2f, %s)\n", title, as.Confidence, as.Faithfulness, src)
	for i := 0; i+1 < len(groups); i += 2 {
		label, _ := groups[i].(string)
		items, _ := groups[i+1].([]string)
		if len(items) == 0 {
			continue
		}
		fmt.Fprintf(w, "  %s:\n", label)
		for _, it := range items {
			fmt.Fprintf(w, "    - %s\n", it)
		}
	}
}
