// internal/state/envelope.go
package state

import "time"

// History keeps a bounded trail of the most recent event ids, newest first.
type History struct {
	RecentEventIDs []string `json:"recentEventIds"`
}

const recentEventCap = 25

// UserState is the versioned per-user envelope that every event folds into.
// Signals hold derived numeric/enum observations, Facts hold durable
// key-value knowledge about the user.
type UserState struct {
	UserID    string                 `json:"userId"`
	Version   int                    `json:"version"`
	Signals   map[string]interface{} `json:"signals"`
	Facts     map[string]interface{} `json:"facts"`
	History   History                `json:"history"`
	CreatedAt time.Time              `json:"createdAt"`
	UpdatedAt time.Time              `json:"updatedAt"`
}

// CreateDefaultState returns the zero envelope for a user: version 0, empty
// maps, no history.
func CreateDefaultState(userID string) UserState {
	now := time.Now().UTC()
	return UserState{
		UserID:    userID,
		Version:   0,
		Signals:   map[string]interface{}{},
		Facts:     map[string]interface{}{},
		History:   History{RecentEventIDs: []string{}},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// ApplyEventToState folds one event into the envelope and returns the next
// version. It is pure: the input state is not mutated. Every application bumps
// the version, even for unrecognized event types, so re-applying the same
// event is visible in the version counter.
func ApplyEventToState(s UserState, event EventRecord) UserState {
	next := s
	next.Signals = copyMap(s.Signals)
	next.Facts = copyMap(s.Facts)
	next.History = History{RecentEventIDs: prependCapped(event.EventID, s.History.RecentEventIDs)}

	switch event.Type {
	case EventMockAnalyzed:
		next.Facts["lastMock"] = map[string]interface{}{
			"ts":             event.TS,
			"source":         event.Payload["source"],
			"extractedChars": event.Payload["extractedChars"],
			"summary":        event.Payload["summary"],
		}

	case EventPlanGenerated:
		next.Facts["lastPlan"] = map[string]interface{}{
			"ts":          event.TS,
			"horizonDays": event.Payload["horizonDays"],
			"actionCount": event.Payload["actionCount"],
		}

	case EventActionStarted, EventActionCompleted, EventActionSkipped:
		if actionID, ok := event.Payload["actionId"].(string); ok && actionID != "" {
			statusMap := copyMap(asMap(next.Facts["actionStatus"]))
			statusMap[actionID] = map[string]interface{}{
				"status": string(event.Type)[len("action_"):],
				"ts":     event.TS,
			}
			next.Facts["actionStatus"] = statusMap
		}

	case EventUserFeedback:
		feedback := copyMap(event.Payload)
		feedback["ts"] = event.TS
		next.Signals["feedback"] = feedback

	case EventChatMessage:
		next.Facts["lastChatMessage"] = map[string]interface{}{
			"ts":      event.TS,
			"role":    event.Payload["role"],
			"content": event.Payload["content"],
		}

	case EventIntakeUpdated:
		intake := copyMap(asMap(next.Facts["intake"]))
		for k, v := range event.Payload {
			intake[k] = v
		}
		next.Facts["intake"] = intake

	case EventInstrumentStarted:
		next.Facts["mode2.startedAt"] = event.TS
		if template, ok := event.Payload["template"]; ok && template != nil {
			next.Facts["mode2.template"] = template
		}
		if attemptID, ok := event.Payload["attemptId"]; ok && attemptID != nil {
			next.Facts["mode2.attemptId"] = attemptID
		}

	case EventInstrumentQuestionUpdated:
		if key, ok := event.Payload["questionKey"].(string); ok && key != "" {
			entry := copyMap(event.Payload)
			if _, has := entry["updatedAt"]; !has {
				entry["updatedAt"] = event.TS
			}
			next.Facts["mode2.q."+key] = entry
		}

	case EventInstrumentFinished:
		if summary, ok := event.Payload["summary"]; ok && summary != nil {
			next.Facts["mode2.summary"] = summary
		}
		if template, ok := event.Payload["template"]; ok && template != nil {
			next.Facts["mode2.template"] = template
		}
		if dominant, ok := event.Payload["dominantErrorType"]; ok && dominant != nil {
			next.Facts["mode2.dominantErrorType"] = dominant
		}
		if proxy, ok := event.Payload["timePressureProxy"]; ok {
			next.Signals["timePressure.proxy"] = proxy
		}
		for k, v := range asMap(event.Payload["errorSignals"]) {
			next.Signals["errors."+k+".count"] = v
		}
		next.Facts["mode2.completedAt"] = event.TS

	case EventPlanStepStarted, EventPlanStepCompleted, EventPlanStepSkipped:
		if stepID, ok := event.Payload["stepId"].(string); ok && stepID != "" {
			status := string(event.Type)[len("plan_step_"):]
			next.Facts["plan.step."+stepID+".status"] = status
			next.Facts["plan.step."+stepID+".updatedAt"] = event.TS
		}

	default:
		// Unrecognized types only bump version and timestamps.
	}

	next.Version = s.Version + 1
	next.UpdatedAt = event.TS
	return next
}

func prependCapped(id string, ids []string) []string {
	out := make([]string, 0, len(ids)+1)
	out = append(out, id)
	out = append(out, ids...)
	if len(out) > recentEventCap {
		out = out[:recentEventCap]
	}
	return out
}

func copyMap(m map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func asMap(v interface{}) map[string]interface{} {
	if m, ok := v.(map[string]interface{}); ok {
		return m
	}
	return map[string]interface{}{}
}
