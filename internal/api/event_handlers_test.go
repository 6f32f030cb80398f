package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"cogniverse/internal/db"
	"cogniverse/internal/state"
)

func eventRouter(ident string, ephemeral bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	grp := r.Group("/", withIdentity(ident, ephemeral))
	grp.POST("/events", PostEventHandler())
	grp.GET("/state", StateHandler())
	grp.GET("/nudges", NudgesHandler())
	return r
}

func TestPostEvent_DurablePersists(t *testing.T) {
	setupAPIDB(t)
	resetTables(t)
	r := eventRouter("student@example.com", false)

	w := postJSON(r, "/events", gin.H{
		"type":    "intake_updated",
		"payload": gin.H{"examGoal": "CAT"},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if !contains(w.Body.String(), `"ok":true`) || !contains(w.Body.String(), "stateSnapshot") {
		t.Errorf("unexpected body: %s", w.Body.String())
	}

	var stateCount, eventCount int64
	db.DB.Model(&state.StateRecord{}).Count(&stateCount)
	db.DB.Model(&state.EventRow{}).Count(&eventCount)
	if stateCount != 1 || eventCount != 1 {
		t.Errorf("expected persisted state+event, got state=%d events=%d", stateCount, eventCount)
	}
}

func TestPostEvent_AnonymousSnapshotWithoutRows(t *testing.T) {
	setupAPIDB(t)
	resetTables(t)
	r := eventRouter("anon_xyz", true)

	w := postJSON(r, "/events", gin.H{"type": "chat_message", "payload": gin.H{"role": "user", "content": "hi"}})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		StateSnapshot struct {
			UserID  string `json:"userId"`
			Version int    `json:"version"`
		} `json:"stateSnapshot"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response: %v", err)
	}
	if resp.StateSnapshot.UserID != "anon_xyz" || resp.StateSnapshot.Version != 1 {
		t.Errorf("unexpected snapshot: %+v", resp.StateSnapshot)
	}

	var stateCount, eventCount int64
	db.DB.Model(&state.StateRecord{}).Count(&stateCount)
	db.DB.Model(&state.EventRow{}).Count(&eventCount)
	if stateCount != 0 || eventCount != 0 {
		t.Errorf("anonymous event wrote rows: state=%d events=%d", stateCount, eventCount)
	}
}

func TestPostEvent_InvalidBody(t *testing.T) {
	setupAPIDB(t)
	resetTables(t)
	r := eventRouter("student@example.com", false)

	w := postJSON(r, "/events", gin.H{"payload": gin.H{"x": 1}})
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for missing type, got %d: %s", w.Code, w.Body.String())
	}
}

func TestStateHandler_ReflectsEvents(t *testing.T) {
	setupAPIDB(t)
	resetTables(t)
	r := eventRouter("student@example.com", false)

	postJSON(r, "/events", gin.H{"type": "intake_updated", "payload": gin.H{"examGoal": "CAT"}})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/state", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !contains(w.Body.String(), `"version":1`) || !contains(w.Body.String(), "CAT") {
		t.Errorf("state should reflect the intake event: %s", w.Body.String())
	}
}

func TestNudgesHandler_ViewActionsNudge(t *testing.T) {
	setupAPIDB(t)
	resetTables(t)
	r := eventRouter("student@example.com", false)

	postJSON(r, "/events", gin.H{"type": "mock_analyzed"})
	postJSON(r, "/events", gin.H{"type": "mock_analyzed"})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/nudges", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !contains(w.Body.String(), "view-actions") {
		t.Errorf("expected view-actions nudge: %s", w.Body.String())
	}
}

func TestNudgesHandler_StaleActions(t *testing.T) {
	setupAPIDB(t)
	resetTables(t)
	r := eventRouter("student@example.com", false)

	// Seed an old action_completed row directly so the completion is stale.
	old := state.EventRow{
		EventID: "evt_seed-old",
		UserID:  "student@example.com",
		Type:    "action_completed",
		TS:      time.Now().Add(-5 * 24 * time.Hour),
	}
	if err := db.DB.Create(&old).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/nudges", nil)
	r.ServeHTTP(w, req)
	if !contains(w.Body.String(), "stale-actions") {
		t.Errorf("expected stale-actions nudge: %s", w.Body.String())
	}
}

func TestNudgesHandler_AnonymousEmpty(t *testing.T) {
	setupAPIDB(t)
	resetTables(t)
	r := eventRouter("anon_abc", true)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/nudges", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !contains(w.Body.String(), `"nudges":[]`) {
		t.Errorf("expected empty nudges: %s", w.Body.String())
	}
}
