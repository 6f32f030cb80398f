// internal/engine/strategy.go
package engine

import (
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StrategyContext identifies the study strategy chosen for one analysis run.
type StrategyContext struct {
	ID          string `json:"id"`
	Exam        string `json:"exam"`
	Persona     string `json:"persona"`
	HorizonDays int    `json:"horizonDays"`
}

// MemoryTuple is the rolling-statistics record keyed by (user, exam, persona,
// strategy). It is how the selector remembers which strategies went badly.
type MemoryTuple struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	UserID            string    `gorm:"size:128;not null;uniqueIndex:idx_memory_key" json:"userId"`
	Exam              string    `gorm:"size:16;not null;uniqueIndex:idx_memory_key" json:"exam"`
	Persona           string    `gorm:"size:32;not null;uniqueIndex:idx_memory_key" json:"persona"`
	Strategy          string    `gorm:"size:64;not null;uniqueIndex:idx_memory_key" json:"strategy"`
	Seen              int       `gorm:"not null;default:0" json:"seen"`
	CompletedPlans    int       `gorm:"not null;default:0" json:"completedPlans"`
	AvgCompletionRate float64   `gorm:"not null;default:0" json:"avgCompletionRate"`
	LastOutcome       string    `gorm:"size:8" json:"lastOutcome,omitempty"` // good | neutral | bad
	LastUsedAt        time.Time `json:"lastUsedAt"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

type MemorySummary struct {
	Tuples          []MemoryTuple
	AvoidStrategies []string
}

// LoadMemorySummary loads the 3 most recently used tuples for the key and
// collects the strategies whose last outcome was bad.
func LoadMemorySummary(db *gorm.DB, userID, exam, persona string) (MemorySummary, error) {
	var tuples []MemoryTuple
	err := db.Where("user_id = ? AND exam = ? AND persona = ?", userID, exam, persona).
		Order("last_used_at DESC").
		Limit(3).
		Find(&tuples).Error
	if err != nil {
		return MemorySummary{}, fmt.Errorf("failed to load memory tuples: %w", err)
	}

	summary := MemorySummary{Tuples: tuples}
	for _, tuple := range tuples {
		if tuple.LastOutcome == "bad" {
			summary.AvoidStrategies = append(summary.AvoidStrategies, tuple.Strategy)
		}
	}
	return summary, nil
}

// SelectStrategy picks a strategy for (exam, persona), skipping strategies the
// memory flagged. When every candidate is excluded the 7-day candidate wins
// anyway: horizon diversity is sacrificed to guarantee a non-empty result.
func SelectStrategy(exam, persona string, avoidStrategies []string) StrategyContext {
	base := "steady_rebuild"
	switch persona {
	case "speed-first":
		base = "speed_stabilize"
	case "accuracy-first":
		base = "accuracy_rebuild"
	}

	candidates := []StrategyContext{
		{ID: base + "_7d", Exam: exam, Persona: persona, HorizonDays: 7},
		{ID: base + "_14d", Exam: exam, Persona: persona, HorizonDays: 14},
	}

	for _, candidate := range candidates {
		if !containsString(avoidStrategies, candidate.ID) {
			return candidate
		}
	}
	return candidates[0]
}

// RecordStrategyUsage upserts the chosen tuple. Stats fields are initialized
// only on first insert; existing rolling stats are preserved while seen and
// last_used_at are refreshed.
func RecordStrategyUsage(db *gorm.DB, userID string, strategy StrategyContext) error {
	now := time.Now().UTC()
	tuple := MemoryTuple{
		UserID:     userID,
		Exam:       strategy.Exam,
		Persona:    strategy.Persona,
		Strategy:   strategy.ID,
		Seen:       1,
		LastUsedAt: now,
	}
	err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "user_id"}, {Name: "exam"}, {Name: "persona"}, {Name: "strategy"},
		},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"seen":         gorm.Expr("seen + 1"),
			"last_used_at": now,
			"updated_at":   now,
		}),
	}).Create(&tuple).Error
	if err != nil {
		return fmt.Errorf("failed to record strategy usage: %w", err)
	}
	return nil
}

// RecordStrategyOutcome folds a finished plan into the tuple's rolling stats.
func RecordStrategyOutcome(db *gorm.DB, userID string, strategy StrategyContext, completionRate float64) error {
	var tuple MemoryTuple
	err := db.Where("user_id = ? AND exam = ? AND persona = ? AND strategy = ?",
		userID, strategy.Exam, strategy.Persona, strategy.ID).First(&tuple).Error
	if err != nil {
		return fmt.Errorf("failed to load memory tuple: %w", err)
	}

	total := tuple.AvgCompletionRate*float64(tuple.CompletedPlans) + completionRate
	tuple.CompletedPlans++
	tuple.AvgCompletionRate = total / float64(tuple.CompletedPlans)
	tuple.LastOutcome = outcomeForRate(completionRate)

	if err := db.Save(&tuple).Error; err != nil {
		return fmt.Errorf("failed to save memory tuple: %w", err)
	}
	return nil
}

func outcomeForRate(completionRate float64) string {
	switch {
	case completionRate >= 70:
		return "good"
	case completionRate >= 40:
		return "neutral"
	default:
		return "bad"
	}
}

func containsString(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
