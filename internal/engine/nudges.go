// internal/engine/nudges.go
package engine

import "time"

type Nudge struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

// NudgeEvent is the slice of the event log the nudge builder cares about.
type NudgeEvent struct {
	Type string
	TS   time.Time
}

const staleActionDays = 3

// BuildNudges inspects the recent event window and produces reminder messages:
// a stale-action nudge when nothing has been completed for a few days, and an
// unused-insights nudge when uploads pile up without the actions being viewed.
func BuildNudges(events []NudgeEvent, lastActionDoneAt *time.Time) []Nudge {
	var nudges []Nudge
	now := time.Now()

	if lastActionDoneAt != nil {
		if now.Sub(*lastActionDoneAt) >= staleActionDays*24*time.Hour {
			nudges = append(nudges, Nudge{
				ID:      "stale-actions",
				Message: "It's been a few days since you checked off an action. Pick one small win today.",
			})
		}
	}

	uploads := 0
	views := 0
	for _, event := range events {
		switch event.Type {
		case "upload_attempt", "mock_analyzed":
			uploads++
		case "view_actions":
			views++
		}
	}

	if uploads >= 2 && views == 0 {
		nudges = append(nudges, Nudge{
			ID:      "view-actions",
			Message: "You've uploaded a couple of mocks. Review your next actions to lock in the gains.",
		})
	}

	return nudges
}
