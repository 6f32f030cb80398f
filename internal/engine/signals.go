// internal/engine/signals.go
package engine

import "sort"

// SignalInputs collects the raw profile/performance/event inputs that feed the
// action ranker. Anything unknown is left at its zero value.
type SignalInputs struct {
	Profile struct {
		ExamGoal      string
		WeeklyHours   int
		BaselineLevel string
	}
	Performance struct {
		Score    *int
		Accuracy *int
	}
	Events struct {
		RecentCompletions int
	}
	TextHints []string
}

// Signals is the banded view of SignalInputs.
type Signals struct {
	ExamGoal      string   `json:"examGoal"`
	PaceBand      string   `json:"paceBand"`
	AccuracyBand  string   `json:"accuracyBand"`
	BaselineLevel string   `json:"baselineLevel"`
	Completions   int      `json:"completions"`
	TextHints     []string `json:"textHints,omitempty"`
}

// NormalizeSignals discretizes continuous inputs into bands.
func NormalizeSignals(input SignalInputs) Signals {
	paceBand := "low"
	switch {
	case input.Profile.WeeklyHours >= 12:
		paceBand = "high"
	case input.Profile.WeeklyHours >= 6:
		paceBand = "medium"
	}

	accuracy := 0
	if input.Performance.Accuracy != nil {
		accuracy = *input.Performance.Accuracy
	}
	accuracyBand := "low"
	switch {
	case accuracy >= 75:
		accuracyBand = "high"
	case accuracy >= 55:
		accuracyBand = "mid"
	}

	examGoal := input.Profile.ExamGoal
	if examGoal == "" {
		examGoal = "General"
	}
	baseline := input.Profile.BaselineLevel
	if baseline == "" {
		baseline = "unknown"
	}

	return Signals{
		ExamGoal:      examGoal,
		PaceBand:      paceBand,
		AccuracyBand:  accuracyBand,
		BaselineLevel: baseline,
		Completions:   input.Events.RecentCompletions,
		TextHints:     input.TextHints,
	}
}

// RankedAction is one canonical next action with its adjusted score.
type RankedAction struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Reason string `json:"reason"`
	Score  int    `json:"score"`
}

// RankActions scores the four canonical actions against the banded signals and
// returns them in descending score order. Ties keep the base ordering.
func RankActions(signals Signals) []RankedAction {
	actions := []RankedAction{
		{
			ID:     "review-mistakes",
			Title:  "Review error patterns from the last mock",
			Reason: "Fastest way to reduce repeat mistakes.",
			Score:  90,
		},
		{
			ID:     "timed-section",
			Title:  "Run one timed section with strict cut-offs",
			Reason: "Builds execution discipline under time pressure.",
			Score:  80,
		},
		{
			ID:     "accuracy-drill",
			Title:  "Accuracy drill: 20 mixed questions, stop after 2 errors",
			Reason: "Protects score from careless losses.",
			Score:  75,
		},
		{
			ID:     "weak-area",
			Title:  "Target the weakest section with focused practice",
			Reason: "Balances the score profile quickly.",
			Score:  70,
		},
	}

	if signals.AccuracyBand == "low" {
		actions[2].Score += 10
		actions[0].Score += 5
	}
	if signals.PaceBand == "low" {
		actions[1].Score += 8
	}
	if signals.Completions == 0 {
		actions[0].Score += 6
	}

	sort.SliceStable(actions, func(i, j int) bool {
		return actions[i].Score > actions[j].Score
	})
	return actions
}
