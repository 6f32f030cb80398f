// internal/engine/bundle.go
package engine

import (
	"context"
	"log"

	"gorm.io/gorm"

	"cogniverse/internal/analyzer"
	"cogniverse/internal/llm"
)

// RecommendationBundle is everything one analysis run hands back to the client.
type RecommendationBundle struct {
	Strategy StrategyContext  `json:"strategy"`
	Analysis Analysis         `json:"analysis"`
	Signals  Signals          `json:"signals"`
	Ranked   []RankedAction   `json:"ranked"`
	NBAs     []NBAAction      `json:"nbas"`
	Plan     Plan             `json:"plan"`
	Probes   []Probe          `json:"probes"`
	NextMock NextMockStrategy `json:"nextMock"`
}

// ComposeInput carries the per-run context into the recommendation pipeline.
type ComposeInput struct {
	UserID    string
	Ephemeral bool // ephemeral identities get no memory reads or writes
	Exam      string
	Profile   SignalInputs
	RawText   string
}

// ComposeRecommendation runs the full pipeline for one analyzed attempt:
// persona, memory-aware strategy selection, ranked actions, NBAs, plan,
// probes, next-mock guidance, and the LLM analysis layer.
func ComposeRecommendation(ctx context.Context, db *gorm.DB, client *llm.Client, input ComposeInput, mock analyzer.MockAnalysis) RecommendationBundle {
	attempt := mock.Attempt

	persona := attempt.Inferred.Persona
	if persona == "" {
		persona = DerivePersona(attempt)
	}

	exam := input.Exam
	if exam == "" {
		exam = mock.Exam.Detected
	}
	if exam == "" {
		exam = "General"
	}

	var avoid []string
	if !input.Ephemeral {
		summary, err := LoadMemorySummary(db, input.UserID, exam, persona)
		if err != nil {
			log.Printf("[Engine] memory summary unavailable: %v", err)
		} else {
			avoid = summary.AvoidStrategies
		}
	}

	strategy := SelectStrategy(exam, persona, avoid)

	if !input.Ephemeral {
		if err := RecordStrategyUsage(db, input.UserID, strategy); err != nil {
			log.Printf("[Engine] failed to record strategy usage: %v", err)
		}
	}

	input.Profile.Performance.Score = attempt.Known.Score
	input.Profile.Performance.Accuracy = attempt.Known.Accuracy
	if input.Profile.Profile.ExamGoal == "" {
		input.Profile.Profile.ExamGoal = exam
	}
	signals := NormalizeSignals(input.Profile)

	nbas := BuildNBAs(attempt, strategy)

	return RecommendationBundle{
		Strategy: strategy,
		Analysis: RunAnalysis(ctx, client, input.RawText),
		Signals:  signals,
		Ranked:   RankActions(signals),
		NBAs:     nbas,
		Plan:     BuildPlan(nbas, strategy.HorizonDays),
		Probes:   BuildProbes(attempt),
		NextMock: BuildNextMockStrategy(attempt),
	}
}
