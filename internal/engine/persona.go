// internal/engine/persona.go
package engine

import "cogniverse/internal/analyzer"

// DerivePersona maps attempt signals onto the coarse learner archetypes the
// strategy selector understands. High accuracy with a low score means the
// student attempts too little (a pace problem); weak accuracy means the
// rebuild has to start there; anything else gets the steady default.
func DerivePersona(attempt analyzer.NormalizedAttempt) string {
	accuracy := attempt.Known.Accuracy
	score := attempt.Known.Score

	if accuracy != nil && *accuracy >= 85 && score != nil && *score < 60 {
		return "speed-first"
	}
	if accuracy != nil && *accuracy < 55 {
		return "accuracy-first"
	}
	return "steady"
}
