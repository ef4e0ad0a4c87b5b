// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package analysis

import (
	"bytes"
	"text/template"
)

// systemPrompt is shared by every analysis request.
const systemPrompt = `You are an expert research analyst specializing in AI, machine learning, and computer science.
Your task is to analyze academic papers and provide insightful analysis.

Guidelines:
- Be specific and cite concepts from the papers
- Use clear, academic language
- Provide actionable insights
- Focus on implications and connections between papers`

const jsonInstructions = `
Respond with a single JSON object with keys: {{.Keys}}
Each value must be a list of strings. Do not include any text outside the JSON object.`

var gapPromptTmpl = template.Must(template.New("gap").Parse(`Based on the following research papers, identify research gaps and unexplored areas:

{{.Context}}

Provide:
1. Identified research gaps: specific areas not well covered in the current literature
2. Research areas: domains or subfields that lack sufficient coverage
3. Missing benchmarks: evaluation metrics that are absent or insufficient
4. Underexplored topics: topics mentioned but not thoroughly investigated
` + jsonInstructions))

var designPromptTmpl = template.Must(template.New("design").Parse(`Based on the following research papers, suggest architectural improvements and design approaches:

{{.Context}}

Provide:
1. Suggested approaches: implementation strategies that could be adopted
2. Architectural improvements: ways to structure systems more effectively
3. Implementation strategies: practical development guidelines
4. Trade-offs: important trade-offs to consider when designing solutions
` + jsonInstructions))

var patternPromptTmpl = template.Must(template.New("pattern").Parse(`Based on the following research papers, detect patterns and emerging trends:

{{.Context}}

Provide:
1. Patterns found: common patterns across the papers
2. Trend analysis: current trends and directions in the field
3. Emerging methods: new methodologies gaining traction
` + jsonInstructions))

var futurePromptTmpl = template.Must(template.New("future").Parse(`Based on the following research papers, project future research directions:

{{.Context}}

Provide:
1. Next steps: recommended next steps for research
2. Open questions: fundamental questions still unanswered
3. Future applications: potential real-world applications
` + jsonInstructions))

type promptData struct {
	Context string
	Keys    string
}

func renderPrompt(tmpl *template.Template, context, keys string) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, promptData{Context: context, Keys: keys}); err != nil {
		return "", err
	}
	return buf.String(), nil
}
