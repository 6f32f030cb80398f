package state

import (
	"testing"
	"time"
)

func eventOf(t EventType, payload map[string]interface{}) EventRecord {
	return EventRecord{
		EventID: "evt_test",
		UserID:  "u1",
		Type:    t,
		TS:      time.Now().UTC(),
		Payload: payload,
	}
}

func TestCreateDefaultState(t *testing.T) {
	s := CreateDefaultState("u1")
	if s.Version != 0 {
		t.Errorf("version = %d, want 0", s.Version)
	}
	if s.UserID != "u1" || s.Signals == nil || s.Facts == nil {
		t.Errorf("bad default state: %+v", s)
	}
	if len(s.History.RecentEventIDs) != 0 {
		t.Errorf("history should start empty")
	}
}

func TestApplyEvent_VersionAlwaysBumps(t *testing.T) {
	s := CreateDefaultState("u1")
	event := eventOf("totally_unknown_event", nil)

	next := ApplyEventToState(s, event)
	if next.Version != 1 {
		t.Errorf("version = %d, want 1", next.Version)
	}
	if !next.UpdatedAt.Equal(event.TS) {
		t.Errorf("updatedAt should follow event ts")
	}
	if len(next.Facts) != 0 {
		t.Errorf("unknown event must not write facts: %+v", next.Facts)
	}

	// Re-applying is not idempotent.
	again := ApplyEventToState(next, event)
	if again.Version != 2 {
		t.Errorf("re-applied version = %d, want 2", again.Version)
	}
}

func TestApplyEvent_DoesNotMutateInput(t *testing.T) {
	s := CreateDefaultState("u1")
	ApplyEventToState(s, eventOf(EventMockAnalyzed, map[string]interface{}{"source": "pdf"}))
	if s.Version != 0 || len(s.Facts) != 0 || len(s.History.RecentEventIDs) != 0 {
		t.Errorf("input state mutated: %+v", s)
	}
}

func TestApplyEvent_MockAnalyzed(t *testing.T) {
	s := CreateDefaultState("u1")
	next := ApplyEventToState(s, eventOf(EventMockAnalyzed, map[string]interface{}{
		"source":         "pdf",
		"extractedChars": 1234,
	}))
	lastMock, ok := next.Facts["lastMock"].(map[string]interface{})
	if !ok {
		t.Fatalf("lastMock missing: %+v", next.Facts)
	}
	if lastMock["source"] != "pdf" || lastMock["extractedChars"] != 1234 {
		t.Errorf("lastMock = %+v", lastMock)
	}
}

func TestApplyEvent_ActionStatus(t *testing.T) {
	s := CreateDefaultState("u1")
	s = ApplyEventToState(s, eventOf(EventActionStarted, map[string]interface{}{"actionId": "a1"}))
	s = ApplyEventToState(s, eventOf(EventActionCompleted, map[string]interface{}{"actionId": "a1"}))
	s = ApplyEventToState(s, eventOf(EventActionSkipped, map[string]interface{}{"actionId": "a2"}))

	statusMap, ok := s.Facts["actionStatus"].(map[string]interface{})
	if !ok {
		t.Fatalf("actionStatus missing: %+v", s.Facts)
	}
	a1 := statusMap["a1"].(map[string]interface{})
	if a1["status"] != "completed" {
		t.Errorf("a1 status = %v, want completed", a1["status"])
	}
	a2 := statusMap["a2"].(map[string]interface{})
	if a2["status"] != "skipped" {
		t.Errorf("a2 status = %v, want skipped", a2["status"])
	}
}

func TestApplyEvent_ActionWithoutIDIgnored(t *testing.T) {
	s := CreateDefaultState("u1")
	next := ApplyEventToState(s, eventOf(EventActionCompleted, nil))
	if _, ok := next.Facts["actionStatus"]; ok {
		t.Error("actionStatus must not appear without an actionId")
	}
	if next.Version != 1 {
		t.Errorf("version still bumps, got %d", next.Version)
	}
}

func TestApplyEvent_IntakeMerges(t *testing.T) {
	s := CreateDefaultState("u1")
	s = ApplyEventToState(s, eventOf(EventIntakeUpdated, map[string]interface{}{"examGoal": "CAT"}))
	s = ApplyEventToState(s, eventOf(EventIntakeUpdated, map[string]interface{}{"weeklyHours": 12}))

	intake := s.Facts["intake"].(map[string]interface{})
	if intake["examGoal"] != "CAT" || intake["weeklyHours"] != 12 {
		t.Errorf("intake should merge across events: %+v", intake)
	}
}

func TestApplyEvent_InstrumentQuestion(t *testing.T) {
	s := CreateDefaultState("u1")
	next := ApplyEventToState(s, eventOf(EventInstrumentQuestionUpdated, map[string]interface{}{
		"questionKey": "1:4",
		"status":      "attempted",
	}))
	entry, ok := next.Facts["mode2.q.1:4"].(map[string]interface{})
	if !ok {
		t.Fatalf("question fact missing: %+v", next.Facts)
	}
	if entry["status"] != "attempted" {
		t.Errorf("entry = %+v", entry)
	}
	if entry["updatedAt"] == nil {
		t.Error("updatedAt should default to event ts")
	}
}

func TestApplyEvent_InstrumentFinished(t *testing.T) {
	s := CreateDefaultState("u1")
	next := ApplyEventToState(s, eventOf(EventInstrumentFinished, map[string]interface{}{
		"summary":           map[string]interface{}{"attempted": 18},
		"dominantErrorType": "time",
		"timePressureProxy": 0.8,
		"errorSignals":      map[string]interface{}{"careless": 3},
	}))
	if next.Facts["mode2.dominantErrorType"] != "time" {
		t.Errorf("dominantErrorType missing: %+v", next.Facts)
	}
	if next.Signals["timePressure.proxy"] != 0.8 {
		t.Errorf("timePressure.proxy = %v", next.Signals["timePressure.proxy"])
	}
	if next.Signals["errors.careless.count"] != 3 {
		t.Errorf("errors.careless.count = %v", next.Signals["errors.careless.count"])
	}
	if next.Facts["mode2.completedAt"] == nil {
		t.Error("completedAt missing")
	}
}

func TestApplyEvent_PlanStep(t *testing.T) {
	s := CreateDefaultState("u1")
	next := ApplyEventToState(s, eventOf(EventPlanStepCompleted, map[string]interface{}{"stepId": "d1-t1"}))
	if next.Facts["plan.step.d1-t1.status"] != "completed" {
		t.Errorf("step status = %v", next.Facts["plan.step.d1-t1.status"])
	}

	// Empty stepId (sanitizer output for bad input) writes nothing.
	blank := ApplyEventToState(s, eventOf(EventPlanStepStarted, map[string]interface{}{"stepId": ""}))
	if len(blank.Facts) != 0 {
		t.Errorf("blank stepId must not write facts: %+v", blank.Facts)
	}
}

func TestApplyEvent_HistoryCapped(t *testing.T) {
	s := CreateDefaultState("u1")
	for i := 0; i < 30; i++ {
		event := eventOf(EventChatMessage, map[string]interface{}{"role": "user", "content": "hi"})
		event.EventID = "evt_" + string(rune('a'+i%26)) + string(rune('0'+i%10))
		s = ApplyEventToState(s, event)
	}
	if len(s.History.RecentEventIDs) != 25 {
		t.Errorf("history length = %d, want 25", len(s.History.RecentEventIDs))
	}
	if s.Version != 30 {
		t.Errorf("version = %d, want 30", s.Version)
	}
}
