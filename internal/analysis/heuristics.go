// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package analysis

import "github.com/pdiddy/research-agent/pkg/types"

// The heuristics return generic findings used when no model answer is
// available. They are deliberately independent of the context.

func gapHeuristic() types.GapAnalysis {
	return types.GapAnalysis{
		IdentifiedGaps: []string{
			"Limited exploration of domain adaptation",
			"Missing comparison with recent state-of-the-art methods",
			"Insufficient analysis of failure cases",
		},
		ResearchAreas: []string{
			"Robustness and adversarial training",
			"Computational efficiency",
			"Few-shot learning scenarios",
		},
		MissingBenchmarks: []string{
			"Evaluation on adversarial examples",
			"Cross-domain generalization metrics",
			"Real-world deployment benchmarks",
		},
		UnderexploredTopics: []string{
			"Interpretability in domain-specific contexts",
			"Integration with existing legacy systems",
			"Scalability to production environments",
		},
	}
}

func designHeuristic() types.DesignSuggestion {
	return types.DesignSuggestion{
		SuggestedApproaches: []string{
			"Modular architecture with pluggable components",
			"Attention mechanisms for feature importance",
			"Knowledge distillation for efficiency",
		},
		ArchitecturalImprovements: []string{
			"Decouple model inference from business logic",
			"Cache embedding retrieval",
			"Add monitoring and observability instrumentation",
		},
		ImplementationStrategies: []string{
			"Start with a small-scale prototype and iterate",
			"Use containers for deployment consistency",
			"Build A/B testing infrastructure",
		},
		TradeOffs: []string{
			"Accuracy vs latency: consider quantization or pruning",
			"Generalization vs specialization: fine-tuning vs transfer learning",
			"Complexity vs maintainability: feature engineering overhead",
		},
	}
}

func patternHeuristic() types.PatternDetection {
	return types.PatternDetection{
		PatternsFound: []string{
			"Common use of Transformer-based architectures",
			"Shift towards multi-modal learning approaches",
			"Increased focus on efficient model compression",
		},
		TrendAnalysis: []string{
			"Growing emphasis on interpretability and explainability",
			"Rising adoption of federated and privacy-preserving learning",
			"Integration of symbolic reasoning with neural methods",
		},
		EmergingMethods: []string{
			"Mixture of Experts scaling",
			"In-context learning and few-shot adaptation",
			"Diffusion models for generative tasks",
		},
	}
}

func futureHeuristic() types.FutureDirections {
	return types.FutureDirections{
		NextSteps: []string{
			"Investigate hybrid approaches combining multiple paradigms",
			"Develop more efficient pre-training objectives",
			"Create better evaluation metrics for real-world performance",
		},
		OpenQuestions: []string{
			"How can models generalize better to out-of-distribution data?",
			"What are the fundamental limits of scaling laws?",
			"How can world knowledge be integrated more effectively?",
		},
		FutureApplications: []string{
			"Medical diagnosis and treatment planning",
			"Autonomous decision-making under uncertainty",
			"Knowledge graph construction and reasoning",
		},
	}
}
