// internal/engine/nba.go
package engine

import (
	"fmt"

	"github.com/google/uuid"

	"cogniverse/internal/analyzer"
)

// NBAAction is one next-best-action in a recommendation bundle.
type NBAAction struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Why             string   `json:"why"`
	ExpectedImpact  string   `json:"expectedImpact"`
	EffortLevel     string   `json:"effortLevel"` // S | M | L
	TimeHorizon     string   `json:"timeHorizon"` // Today | ThisWeek | Next14Days
	SuccessCriteria []string `json:"successCriteria"`
	Tags            []string `json:"tags"`
}

const maxNBAs = 5

func pushAction(actions []NBAAction, action NBAAction) []NBAAction {
	for _, existing := range actions {
		if existing.Title == action.Title {
			return actions
		}
	}
	action.ID = uuid.NewString()
	return append(actions, action)
}

// BuildNBAs derives up to 5 next-best-actions from the attempt signals,
// deduplicated by title.
func BuildNBAs(attempt analyzer.NormalizedAttempt, strategy StrategyContext) []NBAAction {
	var actions []NBAAction
	accuracy := attempt.Known.Accuracy
	score := attempt.Known.Score

	var weakestSection *analyzer.KnownSection
	for i := range attempt.Known.Sections {
		section := &attempt.Known.Sections[i]
		if section.Accuracy != nil && *section.Accuracy < 75 {
			weakestSection = section
			break
		}
	}

	if containsString(attempt.Missing, "score") || containsString(attempt.Missing, "accuracy") {
		actions = pushAction(actions, NBAAction{
			Title:          "Reconstruct your scorecard + error log",
			Why:            "Core metrics are missing, so we need a clear error log before tightening the plan.",
			ExpectedImpact: "Establishes a reliable baseline and prevents guessing about priorities.",
			EffortLevel:    "S",
			TimeHorizon:    "Today",
			SuccessCriteria: []string{
				"Logged at least 15 misses with root cause tags.",
				"Captured total score + accuracy.",
			},
			Tags: []string{"baseline", "accuracy"},
		})
	}

	if accuracy != nil && *accuracy <= 70 {
		actions = pushAction(actions, NBAAction{
			Title:          "Redo missed questions with a 2-pass review",
			Why:            "Low accuracy signals concept gaps or rushed choices; a structured redo closes the loop.",
			ExpectedImpact: "Reduces avoidable errors and stabilizes accuracy.",
			EffortLevel:    "M",
			TimeHorizon:    "ThisWeek",
			SuccessCriteria: []string{
				"Redo set completed with >80% accuracy.",
				"Top 5 error patterns noted.",
			},
			Tags: []string{"accuracy", "concept-gap"},
		})
	}

	if accuracy != nil && *accuracy >= 85 && score != nil && *score < 60 {
		actions = pushAction(actions, NBAAction{
			Title:          "Timed set focused on pacing + question selection",
			Why:            "High accuracy but lower score indicates pacing and attempt strategy gaps.",
			ExpectedImpact: "Improves score by raising attempts without sacrificing accuracy.",
			EffortLevel:    "M",
			TimeHorizon:    "ThisWeek",
			SuccessCriteria: []string{
				"Completed 2 timed sets within target pace.",
				"Attempts per section increased.",
			},
			Tags: []string{"speed", "strategy"},
		})
	}

	if weakestSection != nil {
		actions = pushAction(actions, NBAAction{
			Title:          fmt.Sprintf("Repair %s fundamentals", weakestSection.Name),
			Why:            fmt.Sprintf("%s is dragging the overall mock performance.", weakestSection.Name),
			ExpectedImpact: "Lifts the lowest section to remove score volatility.",
			EffortLevel:    "M",
			TimeHorizon:    "Next14Days",
			SuccessCriteria: []string{
				"Completed a focused drill set for the section.",
				"Section accuracy improved in practice.",
			},
			Tags: []string{"sectional", "concept-gap"},
		})
	}

	miniMockHorizon := "ThisWeek"
	if strategy.HorizonDays == 14 {
		miniMockHorizon = "Next14Days"
	}
	actions = pushAction(actions, NBAAction{
		Title:          "Mini-mock + post-review ritual",
		Why:            "Short mocks lock in the plan and surface the next bottleneck quickly.",
		ExpectedImpact: "Confirms improvement and keeps momentum measurable.",
		EffortLevel:    "L",
		TimeHorizon:    miniMockHorizon,
		SuccessCriteria: []string{
			"Mini-mock completed and reviewed within 24 hours.",
		},
		Tags: []string{"review", "consistency"},
	})

	if len(actions) < 3 {
		actions = pushAction(actions, NBAAction{
			Title:          "Create a 3-metric tracker (score, accuracy, time)",
			Why:            "We need consistent signals to personalize the next iteration.",
			ExpectedImpact: "Improves clarity on what is improving and what is stalling.",
			EffortLevel:    "S",
			TimeHorizon:    "Today",
			SuccessCriteria: []string{
				"Tracker filled for this mock and next practice set.",
			},
			Tags: []string{"baseline", "planning"},
		})
	}

	if len(actions) < 3 {
		actions = pushAction(actions, NBAAction{
			Title:          "Redo the hardest 10 questions from this mock",
			Why:            "A focused redo exposes the exact skill gaps before the next attempt.",
			ExpectedImpact: "Builds accuracy and confidence on high-impact items.",
			EffortLevel:    "M",
			TimeHorizon:    "ThisWeek",
			SuccessCriteria: []string{
				"Redo set completed with written fixes for each miss.",
			},
			Tags: []string{"review", "concept-gap"},
		})
	}

	if len(actions) > maxNBAs {
		actions = actions[:maxNBAs]
	}
	return actions
}
