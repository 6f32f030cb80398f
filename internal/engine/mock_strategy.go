// internal/engine/mock_strategy.go
package engine

import "cogniverse/internal/analyzer"

// NextMockStrategy is the execution guidance for the student's next mock.
type NextMockStrategy struct {
	Rules           []string `json:"rules"`
	TimeCheckpoints []string `json:"timeCheckpoints"`
	SkipPolicy      []string `json:"skipPolicy"`
}

// BuildNextMockStrategy tailors attempt rules to the accuracy profile.
func BuildNextMockStrategy(attempt analyzer.NormalizedAttempt) NextMockStrategy {
	accuracy := attempt.Known.Accuracy
	speedFocused := accuracy != nil && *accuracy <= 70
	accuracyFocused := accuracy != nil && *accuracy >= 85

	rules := []string{"Start with a 60-second scan to mark easy wins."}
	if speedFocused {
		rules = append(rules, "Attempt only high-confidence questions first; flag anything uncertain.")
	} else {
		rules = append(rules, "Use a two-pass approach: easy, then medium, then revisit hard.")
	}
	if accuracyFocused {
		rules = append(rules, "Do not change answers without concrete evidence.")
	} else {
		rules = append(rules, "Limit rechecks to 2 per section to protect time.")
	}

	return NextMockStrategy{
		Rules: rules,
		TimeCheckpoints: []string{
			"Checkpoint 1: 25% of time, at least 30% questions attempted.",
			"Checkpoint 2: 60% of time, at least 65% questions attempted.",
			"Checkpoint 3: 85% of time, final review + flagged questions only.",
		},
		SkipPolicy: []string{
			"Skip questions that exceed 90 seconds without progress.",
			"Skip any question with >2 unknown concepts on first read.",
			"Return only if there is time and confidence is high.",
		},
	}
}
