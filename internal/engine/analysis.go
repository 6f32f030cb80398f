// internal/engine/analysis.go
package engine

import (
	"context"
	"encoding/json"
	"log"
	"strings"

	"cogniverse/internal/llm"
)

// ErrorPattern is one classified error from the scorecard analysis.
type ErrorPattern struct {
	Type     string `json:"type"` // concept | time | careless | selection | unknown
	Detail   string `json:"detail"`
	Severity int    `json:"severity"` // 1..3
}

// Analysis is the LLM-assisted layer of a recommendation: a short coaching
// summary plus classified error patterns.
type Analysis struct {
	Summary  string         `json:"summary"`
	Errors   []ErrorPattern `json:"errors"`
	Fallback bool           `json:"fallback,omitempty"`
}

var validErrorTypes = map[string]bool{
	"concept":   true,
	"time":      true,
	"careless":  true,
	"selection": true,
	"unknown":   true,
}

const analysisSystemPrompt = `You are an expert exam coach. Analyze the student's mock scorecard text and produce actionable guidance.
Return ONLY valid JSON matching this exact shape:
{
  "summary": "string",
  "errors": [{ "type": "concept|time|careless|selection|unknown", "detail": "string", "severity": 1|2|3 }]
}
Rules:
- Keep summary short (1-2 sentences).
- Provide 3-6 errors.
- No markdown, no code fences, JSON only.`

// RunAnalysis asks the LLM to classify the scorecard and degrades to a
// deterministic keyword-driven fallback on any failure, so the caller always
// gets a usable payload.
func RunAnalysis(ctx context.Context, client *llm.Client, rawText string) Analysis {
	raw, err := client.Chat(ctx, []llm.Message{
		{Role: "system", Content: analysisSystemPrompt},
		{Role: "user", Content: "Mock scorecard text:\n\"\"\"\n" + rawText + "\n\"\"\""},
	}, llm.Options{Temperature: 0.2, MaxTokens: 900})
	if err != nil {
		log.Printf("[Engine] LLM analysis unavailable, using fallback: %v", err)
		return buildFallbackAnalysis(rawText)
	}

	payload := llm.ExtractJSONBlock(raw)
	if payload == "" {
		log.Printf("[Engine] LLM analysis returned no JSON, using fallback")
		return buildFallbackAnalysis(rawText)
	}

	var parsed struct {
		Summary string `json:"summary"`
		Errors  []struct {
			Type     string `json:"type"`
			Detail   string `json:"detail"`
			Severity int    `json:"severity"`
		} `json:"errors"`
	}
	if err := json.Unmarshal([]byte(payload), &parsed); err != nil {
		log.Printf("[Engine] LLM analysis JSON malformed, using fallback: %v", err)
		return buildFallbackAnalysis(rawText)
	}

	analysis := Analysis{Summary: parsed.Summary}
	for _, e := range parsed.Errors {
		errType := e.Type
		if !validErrorTypes[errType] {
			errType = "unknown"
		}
		severity := e.Severity
		if severity < 1 || severity > 3 {
			severity = 2
		}
		analysis.Errors = append(analysis.Errors, ErrorPattern{
			Type:     errType,
			Detail:   e.Detail,
			Severity: severity,
		})
	}

	if analysis.Summary == "" || len(analysis.Errors) == 0 {
		return buildFallbackAnalysis(rawText)
	}
	return analysis
}

// buildFallbackAnalysis scans the raw text for error-type keywords so the UI
// always has a data shape even with no model behind it.
func buildFallbackAnalysis(rawText string) Analysis {
	lower := strings.ToLower(rawText)
	var errorTypes []string
	if strings.Contains(lower, "time") || strings.Contains(lower, "slow") || strings.Contains(lower, "speed") {
		errorTypes = append(errorTypes, "time")
	}
	if strings.Contains(lower, "careless") || strings.Contains(lower, "silly") || strings.Contains(lower, "mistake") {
		errorTypes = append(errorTypes, "careless")
	}
	if strings.Contains(lower, "guess") || strings.Contains(lower, "selection") || strings.Contains(lower, "attempt") {
		errorTypes = append(errorTypes, "selection")
	}
	if strings.Contains(lower, "concept") || strings.Contains(lower, "theory") || strings.Contains(lower, "formula") {
		errorTypes = append(errorTypes, "concept")
	}
	if len(errorTypes) == 0 {
		errorTypes = []string{"concept", "time", "careless"}
	}
	if len(errorTypes) > 4 {
		errorTypes = errorTypes[:4]
	}

	details := map[string]string{
		"time":      "Pace drops in later sections; timing checkpoints are missing.",
		"careless":  "Errors show up on easy questions; double-checking is inconsistent.",
		"selection": "Too many risky picks early; accuracy dips when guessing.",
		"concept":   "Some core concepts need targeted revision and drilling.",
	}

	analysis := Analysis{
		Summary:  "Quick scan complete. Focus on timing, accuracy, and concept cleanup this week.",
		Fallback: true,
	}
	for i, errType := range errorTypes {
		severity := 2
		if i == 0 {
			severity = 3
		}
		analysis.Errors = append(analysis.Errors, ErrorPattern{
			Type:     errType,
			Detail:   details[errType],
			Severity: severity,
		})
	}
	return analysis
}
