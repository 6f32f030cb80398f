package attempt

import (
	"errors"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"cogniverse/internal/analyzer"
	"cogniverse/internal/engine"
)

func setupAttemptDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&Attempt{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

func sampleBundle() engine.RecommendationBundle {
	actions := []engine.NBAAction{
		{ID: "nba-1", Title: "Redo missed questions", EffortLevel: "M"},
		{ID: "nba-2", Title: "Timed section drill", EffortLevel: "S"},
	}
	return engine.RecommendationBundle{
		Strategy: engine.StrategyContext{ID: "steady_rebuild_7d", Exam: "CAT", Persona: "steady", HorizonDays: 7},
		Analysis: engine.Analysis{
			Summary: "Focus on accuracy.",
			Errors: []engine.ErrorPattern{
				{Type: "careless", Detail: "Errors on easy questions", Severity: 3},
			},
		},
		NBAs: actions,
		Plan: engine.BuildPlan(actions, 7),
	}
}

func seedAttempt(t *testing.T, db *gorm.DB, userID string) *Attempt {
	t.Helper()
	report := analyzer.AnalyzeMock("CAT mock\nScore: 62\nAccuracy: 48%\nQuant: score 60/100 with accuracy 55%")
	a := &Attempt{UserID: userID, Exam: "CAT", Source: "text", RawText: "raw"}
	if err := SaveAttempt(db, a, report, sampleBundle()); err != nil {
		t.Fatalf("save: %v", err)
	}
	return a
}

func TestSaveAndGetAttempt(t *testing.T) {
	db := setupAttemptDB(t)
	saved := seedAttempt(t, db, "u1")

	loaded, err := GetAttemptForUser(db, "u1", saved.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if loaded.Exam != "CAT" || loaded.Source != "text" {
		t.Errorf("unexpected attempt: %+v", loaded)
	}

	bundle, err := loaded.DecodeRecommendation()
	if err != nil {
		t.Fatalf("decode bundle: %v", err)
	}
	if bundle.Strategy.ID != "steady_rebuild_7d" || len(bundle.Plan.Days) != 7 {
		t.Errorf("bundle lost in round trip: %+v", bundle.Strategy)
	}

	report, err := loaded.DecodeReport()
	if err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if report.Exam.Detected != "CAT" {
		t.Errorf("report exam = %q", report.Exam.Detected)
	}
}

func TestGetAttemptForUser_ScopedToOwner(t *testing.T) {
	db := setupAttemptDB(t)
	saved := seedAttempt(t, db, "u1")

	if _, err := GetAttemptForUser(db, "u2", saved.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("expected not found for other user, got %v", err)
	}
}

func TestListAttempts_NewestFirstAndClamped(t *testing.T) {
	db := setupAttemptDB(t)
	for i := 0; i < 5; i++ {
		seedAttempt(t, db, "u1")
	}
	seedAttempt(t, db, "u2")

	attempts, err := ListAttempts(db, "u1", 3)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(attempts) != 3 {
		t.Errorf("expected 3 attempts, got %d", len(attempts))
	}
	for _, a := range attempts {
		if a.UserID != "u1" {
			t.Errorf("leaked attempt for %q", a.UserID)
		}
	}

	// Out-of-range limits fall back to safe values.
	if _, err := ListAttempts(db, "u1", 0); err != nil {
		t.Errorf("limit 0: %v", err)
	}
	if _, err := ListAttempts(db, "u1", 500); err != nil {
		t.Errorf("limit 500: %v", err)
	}
}

func TestMarkTask_UpdatesStoredPlan(t *testing.T) {
	db := setupAttemptDB(t)
	saved := seedAttempt(t, db, "u1")

	bundle, _ := saved.DecodeRecommendation()
	taskID := bundle.Plan.Days[0].Tasks[0].ID

	updatedBundle, err := MarkTask(db, saved, taskID, "done", "felt easy")
	if err != nil {
		t.Fatalf("mark: %v", err)
	}
	if updatedBundle.Plan.Days[0].Tasks[0].Status != "done" {
		t.Errorf("returned bundle not updated: %+v", updatedBundle.Plan.Days[0].Tasks[0])
	}

	loaded, _ := GetAttemptForUser(db, "u1", saved.ID)
	updated, _ := loaded.DecodeRecommendation()
	task := updated.Plan.Days[0].Tasks[0]
	if task.Status != "done" || task.Note != "felt easy" {
		t.Errorf("task not updated: %+v", task)
	}
}

func TestMarkTask_UnknownTask(t *testing.T) {
	db := setupAttemptDB(t)
	saved := seedAttempt(t, db, "u1")

	if _, err := MarkTask(db, saved, "no-such-task", "done", ""); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestCohortRows_LatestPerUser(t *testing.T) {
	db := setupAttemptDB(t)
	seedAttempt(t, db, "u1")
	latest := seedAttempt(t, db, "u1")
	seedAttempt(t, db, "u2")

	rows, err := CohortRows(db)
	if err != nil {
		t.Fatalf("cohort: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}

	var u1 *CohortRow
	for i := range rows {
		if rows[i].UserID == "u1" {
			u1 = &rows[i]
		}
	}
	if u1 == nil {
		t.Fatal("missing row for u1")
	}
	if u1.LatestAttemptID != latest.ID {
		t.Errorf("latestAttemptId = %d, want %d", u1.LatestAttemptID, latest.ID)
	}
	if u1.PrimaryBottleneck != "Errors on easy questions" {
		t.Errorf("primaryBottleneck = %q", u1.PrimaryBottleneck)
	}
	if u1.Confidence == "" {
		t.Error("confidence band missing")
	}
}

func TestCohortRows_CompletionRate(t *testing.T) {
	db := setupAttemptDB(t)
	saved := seedAttempt(t, db, "u1")

	bundle, _ := saved.DecodeRecommendation()
	// 7 days, one task each; mark two done for 2/7 = 28%.
	MarkTask(db, saved, bundle.Plan.Days[0].Tasks[0].ID, "done", "")
	reloaded, _ := GetAttemptForUser(db, "u1", saved.ID)
	again, _ := reloaded.DecodeRecommendation()
	MarkTask(db, reloaded, again.Plan.Days[1].Tasks[0].ID, "done", "")

	rows, err := CohortRows(db)
	if err != nil {
		t.Fatalf("cohort: %v", err)
	}
	if rows[0].ActionCompletionRate != 28 {
		t.Errorf("actionCompletionRate = %d, want 28", rows[0].ActionCompletionRate)
	}
}
