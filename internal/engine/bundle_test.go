package engine

import (
	"context"
	"testing"

	"cogniverse/internal/analyzer"
)

func mockFromText(t *testing.T, text string) analyzer.MockAnalysis {
	t.Helper()
	return analyzer.AnalyzeMock(text)
}

func TestComposeRecommendation_FullBundle(t *testing.T) {
	db := setupMemoryDB(t)
	mock := mockFromText(t, "CAT mock attempt number 3\nScore: 62\nAccuracy: 48%\nQuant: score 60/100\nVARC: accuracy 40%")

	bundle := ComposeRecommendation(context.Background(), db, llmClientFor(""), ComposeInput{
		UserID:  "u1",
		Exam:    "CAT",
		RawText: "raw scorecard text",
	}, mock)

	if bundle.Strategy.Exam != "CAT" {
		t.Errorf("strategy exam = %q, want CAT", bundle.Strategy.Exam)
	}
	if bundle.Strategy.ID == "" || bundle.Strategy.HorizonDays == 0 {
		t.Errorf("strategy not selected: %+v", bundle.Strategy)
	}
	if len(bundle.Plan.Days) != bundle.Strategy.HorizonDays {
		t.Errorf("plan has %d days, strategy horizon %d", len(bundle.Plan.Days), bundle.Strategy.HorizonDays)
	}
	if len(bundle.NBAs) < 3 {
		t.Errorf("expected at least 3 NBAs, got %d", len(bundle.NBAs))
	}
	if len(bundle.Probes) == 0 || len(bundle.Probes) > 3 {
		t.Errorf("probes out of range: %d", len(bundle.Probes))
	}
	if len(bundle.Ranked) == 0 {
		t.Error("expected ranked actions")
	}
	if !bundle.Analysis.Fallback {
		t.Error("expected fallback analysis without LLM credentials")
	}
	if len(bundle.NextMock.Rules) == 0 || len(bundle.NextMock.TimeCheckpoints) == 0 {
		t.Error("next-mock strategy missing")
	}
}

func TestComposeRecommendation_RecordsMemoryForDurableUser(t *testing.T) {
	db := setupMemoryDB(t)
	mock := mockFromText(t, "CAT mock\nScore: 62\nAccuracy: 48%")

	bundle := ComposeRecommendation(context.Background(), db, llmClientFor(""), ComposeInput{
		UserID: "u1",
		Exam:   "CAT",
	}, mock)

	var tuple MemoryTuple
	if err := db.Where("user_id = ? AND strategy = ?", "u1", bundle.Strategy.ID).First(&tuple).Error; err != nil {
		t.Fatalf("expected a memory tuple: %v", err)
	}
	if tuple.Seen != 1 {
		t.Errorf("seen = %d, want 1", tuple.Seen)
	}
}

func TestComposeRecommendation_EphemeralSkipsMemory(t *testing.T) {
	db := setupMemoryDB(t)
	mock := mockFromText(t, "CAT mock\nScore: 62\nAccuracy: 48%")

	ComposeRecommendation(context.Background(), db, llmClientFor(""), ComposeInput{
		UserID:    "anon_abc",
		Ephemeral: true,
		Exam:      "CAT",
	}, mock)

	var count int64
	if err := db.Model(&MemoryTuple{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Errorf("ephemeral run must not persist memory, got %d tuples", count)
	}
}

func TestComposeRecommendation_ExamDefaults(t *testing.T) {
	db := setupMemoryDB(t)
	mock := mockFromText(t, "practice session\nScore: 40\nAccuracy: 50%")

	bundle := ComposeRecommendation(context.Background(), db, llmClientFor(""), ComposeInput{
		UserID: "u1",
	}, mock)
	if bundle.Strategy.Exam != "General" {
		t.Errorf("exam should default to General, got %q", bundle.Strategy.Exam)
	}
}

func TestComposeRecommendation_DetectedExamWinsOverDefault(t *testing.T) {
	db := setupMemoryDB(t)
	mock := mockFromText(t, "NEET biology mock\nphysics chemistry botany zoology\nScore: 400\nAccuracy: 70%")

	bundle := ComposeRecommendation(context.Background(), db, llmClientFor(""), ComposeInput{
		UserID: "u1",
	}, mock)
	if bundle.Strategy.Exam != "NEET" {
		t.Errorf("expected detected exam NEET, got %q", bundle.Strategy.Exam)
	}
}
