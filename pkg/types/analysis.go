// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// AnalysisType selects which analyses a research run performs.
type AnalysisType string

const (
	AnalysisComprehensive    AnalysisType = "comprehensive"
	AnalysisGap              AnalysisType = "gap_analysis"
	AnalysisDesign           AnalysisType = "design_suggestion"
	AnalysisPattern          AnalysisType = "pattern_detection"
	AnalysisFutureDirections AnalysisType = "future_directions"
)

// Valid reports whether t is a known analysis type.
func (t AnalysisType) Valid() bool {
	switch t {
	case AnalysisComprehensive, AnalysisGap, AnalysisDesign, AnalysisPattern, AnalysisFutureDirections:
		return true
	}
	return false
}

// Includes reports whether a run of type t performs analysis kind.
func (t AnalysisType) Includes(kind AnalysisType) bool {
	return t == AnalysisComprehensive || t == kind
}

// Assessment holds the quality fields shared by every analysis.
type Assessment struct {
	// Confidence is in [0,1]; heuristic fallbacks carry a lower value.
	Confidence float64 `json:"confidence_score" yaml:"confidence_score"`

	// Faithfulness is the fraction of findings grounded in the source text.
	Faithfulness float64 `json:"faithfulness_score" yaml:"faithfulness_score"`

	// Sources lists the paper IDs given to the analysis as context.
	Sources []string `json:"sources,omitempty" yaml:"sources,omitempty"`

	// Heuristic is set when the result came from the fallback path.
	Heuristic bool `json:"heuristic,omitempty" yaml:"heuristic,omitempty"`
}

// GapAnalysis lists underexplored areas in the retrieved literature.
type GapAnalysis struct {
	IdentifiedGaps      []string `json:"identified_gaps" yaml:"identified_gaps"`
	ResearchAreas       []string `json:"research_areas" yaml:"research_areas"`
	MissingBenchmarks   []string `json:"missing_benchmarks" yaml:"missing_benchmarks"`
	UnderexploredTopics []string `json:"underexplored_topics" yaml:"underexplored_topics"`
	Assessment          `yaml:",inline"`
}

// DesignSuggestion proposes approaches and architectural improvements.
type DesignSuggestion struct {
	SuggestedApproaches       []string `json:"suggested_approaches" yaml:"suggested_approaches"`
	ArchitecturalImprovements []string `json:"architectural_improvements" yaml:"architectural_improvements"`
	ImplementationStrategies  []string `json:"implementation_strategies" yaml:"implementation_strategies"`
	TradeOffs                 []string `json:"trade_offs" yaml:"trade_offs"`
	Assessment                `yaml:",inline"`
}

// PatternDetection reports recurring methods and trends.
type PatternDetection struct {
	PatternsFound   []string `json:"patterns_found" yaml:"patterns_found"`
	TrendAnalysis   []string `json:"trend_analysis" yaml:"trend_analysis"`
	EmergingMethods []string `json:"emerging_methods" yaml:"emerging_methods"`
	Assessment      `yaml:",inline"`
}

// FutureDirections suggests next steps and open questions.
type FutureDirections struct {
	NextSteps          []string `json:"next_steps" yaml:"next_steps"`
	OpenQuestions      []string `json:"open_questions" yaml:"open_questions"`
	FutureApplications []string `json:"future_applications" yaml:"future_applications"`
	Assessment         `yaml:",inline"`
}

// AnalysisSet groups the four analyses; each is nil until its stage runs.
type AnalysisSet struct {
	Gap     *GapAnalysis      `json:"gap_analysis" yaml:"gap_analysis"`
	Design  *DesignSuggestion `json:"design_suggestions" yaml:"design_suggestions"`
	Pattern *PatternDetection `json:"pattern_detection" yaml:"pattern_detection"`
	Future  *FutureDirections `json:"future_directions" yaml:"future_directions"`
}
