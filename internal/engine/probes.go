// internal/engine/probes.go
package engine

import (
	"github.com/google/uuid"

	"cogniverse/internal/analyzer"
)

// Probe is a short diagnostic exercise closing a data or performance gap.
type Probe struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	DurationMin  int    `json:"durationMin"`
	Instructions string `json:"instructions"`
	SuccessCheck string `json:"successCheck"`
}

const maxProbes = 3

func addProbe(probes []Probe, probe Probe) []Probe {
	probe.ID = uuid.NewString()
	return append(probes, probe)
}

// BuildProbes evaluates the probe rules in fixed priority order and caps the
// result at 3. The rules are independent triggers, so the order decides which
// probes survive truncation.
func BuildProbes(attempt analyzer.NormalizedAttempt) []Probe {
	var probes []Probe
	accuracy := attempt.Known.Accuracy
	score := attempt.Known.Score

	if containsString(attempt.Missing, "accuracy") || containsString(attempt.Missing, "score") {
		probes = addProbe(probes, Probe{
			Title:        "Rebuild the scorecard fast",
			DurationMin:  15,
			Instructions: "Recreate score + accuracy from this mock, then tag 10 misses with root causes.",
			SuccessCheck: "You have score/accuracy plus at least 10 tagged misses.",
		})
	}

	if accuracy != nil && *accuracy <= 70 {
		probes = addProbe(probes, Probe{
			Title:        "Two-pass error redo",
			DurationMin:  25,
			Instructions: "Redo 10 missed questions. First pass: concept recall. Second pass: timed execution.",
			SuccessCheck: "Redo set is ≥80% accurate with written fixes.",
		})
	}

	// High accuracy with a low score means very few attempts: a pacing gap.
	if accuracy != nil && *accuracy >= 85 && score != nil && *score < 60 {
		probes = addProbe(probes, Probe{
			Title:        "Pacing sprint",
			DurationMin:  20,
			Instructions: "Run a 15-question timed set with strict time checkpoints.",
			SuccessCheck: "You complete the set on time with ≥80% accuracy.",
		})
	}

	if len(probes) < maxProbes {
		probes = addProbe(probes, Probe{
			Title:        "Mini-mock checkpoint",
			DurationMin:  30,
			Instructions: "Run a mini-mock and write 3 quick takeaways on selection, time, and accuracy.",
			SuccessCheck: "Mini-mock plus 3 takeaways are captured.",
		})
	}

	if len(probes) > maxProbes {
		probes = probes[:maxProbes]
	}
	return probes
}
