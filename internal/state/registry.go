// internal/state/registry.go
package state

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// EventType is the closed vocabulary of events the envelope understands.
// Anything outside this set still gets logged and bumps the state version,
// but carries no state mutation.
type EventType string

const (
	EventMockAnalyzed              EventType = "mock_analyzed"
	EventPlanGenerated             EventType = "plan_generated"
	EventActionStarted             EventType = "action_started"
	EventActionCompleted           EventType = "action_completed"
	EventActionSkipped             EventType = "action_skipped"
	EventUserFeedback              EventType = "user_feedback"
	EventChatMessage               EventType = "chat_message"
	EventIntakeUpdated             EventType = "intake_updated"
	EventInstrumentStarted         EventType = "instrument_started"
	EventInstrumentQuestionUpdated EventType = "instrument_question_updated"
	EventInstrumentFinished        EventType = "instrument_finished"
	EventPlanStepStarted           EventType = "plan_step_started"
	EventPlanStepCompleted         EventType = "plan_step_completed"
	EventPlanStepSkipped           EventType = "plan_step_skipped"
)

// EventInput is the client-supplied shape of an event before normalization.
type EventInput struct {
	Type      string                 `json:"type"`
	TS        *time.Time             `json:"ts,omitempty"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
	Context   map[string]interface{} `json:"context,omitempty"`
	RequestID string                 `json:"requestId,omitempty"`
}

// EventRecord is a normalized, id-stamped event ready to apply and log.
type EventRecord struct {
	EventID   string                 `json:"eventId"`
	UserID    string                 `json:"userId"`
	Type      EventType              `json:"type"`
	TS        time.Time              `json:"ts"`
	Payload   map[string]interface{} `json:"payload"`
	Context   map[string]interface{} `json:"context"`
	RequestID string                 `json:"requestId,omitempty"`
}

// NormalizeEvent stamps a fresh event id, defaults the timestamp, and
// sanitizes type-specific payload fields so that downstream application never
// has to re-validate client input.
func NormalizeEvent(userID string, input EventInput) EventRecord {
	ts := time.Now().UTC()
	if input.TS != nil {
		ts = input.TS.UTC()
	}
	payload := input.Payload
	if payload == nil {
		payload = map[string]interface{}{}
	}
	context := input.Context
	if context == nil {
		context = map[string]interface{}{}
	}

	return EventRecord{
		EventID:   "evt_" + uuid.NewString(),
		UserID:    userID,
		Type:      EventType(input.Type),
		TS:        ts,
		Payload:   sanitizePayload(input.Type, payload, ts),
		Context:   context,
		RequestID: input.RequestID,
	}
}

var (
	confidenceOptions  = map[string]bool{"low": true, "med": true, "high": true}
	statusOptions      = map[string]bool{"attempted": true, "skipped": true}
	correctnessOptions = map[string]bool{"correct": true, "incorrect": true, "unknown": true}
	errorTypeOptions   = map[string]bool{"concept": true, "time": true, "careless": true, "selection": true, "unknown": true}
)

func sanitizePayload(eventType string, payload map[string]interface{}, ts time.Time) map[string]interface{} {
	if eventType == string(EventInstrumentQuestionUpdated) {
		out := copyMap(payload)
		sectionIndex := coerceInt(payload["sectionIndex"], 0)
		questionIndex := coerceInt(payload["questionIndex"], 0)
		out["sectionIndex"] = sectionIndex
		out["questionIndex"] = questionIndex
		out["confidence"] = pickEnum(payload["confidence"], confidenceOptions, "med")
		out["status"] = pickEnum(payload["status"], statusOptions, "attempted")
		out["correctness"] = pickEnum(payload["correctness"], correctnessOptions, "unknown")
		out["errorType"] = pickEnum(payload["errorType"], errorTypeOptions, "unknown")
		timeSpent := coerceInt(payload["timeSpentSec"], 0)
		if timeSpent < 0 {
			timeSpent = 0
		}
		out["timeSpentSec"] = timeSpent
		if _, ok := payload["updatedAt"].(string); !ok {
			out["updatedAt"] = ts.Format(time.RFC3339)
		}
		if _, ok := payload["questionKey"].(string); !ok {
			out["questionKey"] = strconv.Itoa(sectionIndex) + ":" + strconv.Itoa(questionIndex)
		}
		return out
	}

	if strings.HasPrefix(eventType, "plan_step_") {
		out := copyMap(payload)
		if _, ok := payload["stepId"].(string); !ok {
			out["stepId"] = ""
		}
		return out
	}

	return payload
}

func pickEnum(value interface{}, allowed map[string]bool, fallback string) string {
	if s, ok := value.(string); ok && allowed[s] {
		return s
	}
	return fallback
}

func coerceInt(value interface{}, fallback int) int {
	switch v := value.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return fallback
}
