// internal/attempt/store.go
package attempt

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"

	"cogniverse/internal/analyzer"
	"cogniverse/internal/engine"
)

// SaveAttempt encodes the report and recommendation and inserts the row.
func SaveAttempt(db *gorm.DB, a *Attempt, report analyzer.MockAnalysis, bundle engine.RecommendationBundle) error {
	reportBlob, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	bundleBlob, err := json.Marshal(bundle)
	if err != nil {
		return fmt.Errorf("failed to encode recommendation: %w", err)
	}
	a.Report = reportBlob
	a.Recommendation = bundleBlob
	return db.Create(a).Error
}

// ListAttempts returns the user's newest attempts. The limit is clamped to
// 1..50 and defaults to 20.
func ListAttempts(db *gorm.DB, userID string, limit int) ([]Attempt, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 50 {
		limit = 50
	}
	var attempts []Attempt
	err := db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&attempts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list attempts: %w", err)
	}
	return attempts, nil
}

// GetAttemptForUser loads one attempt, scoped to its owner. Returns
// gorm.ErrRecordNotFound for both unknown ids and other users' attempts.
func GetAttemptForUser(db *gorm.DB, userID string, id uint) (*Attempt, error) {
	var a Attempt
	if err := db.Where("id = ? AND user_id = ?", id, userID).First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

// DecodeRecommendation unmarshals the stored bundle.
func (a *Attempt) DecodeRecommendation() (engine.RecommendationBundle, error) {
	var bundle engine.RecommendationBundle
	if err := json.Unmarshal(a.Recommendation, &bundle); err != nil {
		return bundle, fmt.Errorf("stored recommendation malformed: %w", err)
	}
	return bundle, nil
}

// DecodeReport unmarshals the stored analyzer output.
func (a *Attempt) DecodeReport() (analyzer.MockAnalysis, error) {
	var report analyzer.MockAnalysis
	if err := json.Unmarshal(a.Report, &report); err != nil {
		return report, fmt.Errorf("stored report malformed: %w", err)
	}
	return report, nil
}

// MarkTask updates one plan task's status inside the stored recommendation,
// persists the bundle back and returns the updated bundle. Re-marking the same
// task simply overwrites the status; there is no idempotency key.
func MarkTask(db *gorm.DB, a *Attempt, taskID, status, note string) (engine.RecommendationBundle, error) {
	bundle, err := a.DecodeRecommendation()
	if err != nil {
		return bundle, err
	}

	found := false
	for di := range bundle.Plan.Days {
		for ti := range bundle.Plan.Days[di].Tasks {
			if bundle.Plan.Days[di].Tasks[ti].ID == taskID {
				bundle.Plan.Days[di].Tasks[ti].Status = status
				if note != "" {
					bundle.Plan.Days[di].Tasks[ti].Note = note
				}
				found = true
			}
		}
	}
	if !found {
		return bundle, gorm.ErrRecordNotFound
	}

	blob, err := json.Marshal(bundle)
	if err != nil {
		return bundle, fmt.Errorf("failed to encode recommendation: %w", err)
	}
	if err := db.Model(a).Update("recommendation", blob).Error; err != nil {
		return bundle, err
	}
	return bundle, nil
}

// CohortRow is one student line on the institute dashboard, derived from that
// student's latest attempt.
type CohortRow struct {
	UserID               string    `json:"userId"`
	LatestAttemptID      uint      `json:"latestAttemptId"`
	CreatedAt            time.Time `json:"createdAt"`
	Exam                 string    `json:"exam"`
	Confidence           string    `json:"confidence"` // extraction quality band
	PrimaryBottleneck    string    `json:"primaryBottleneck"`
	ActionCompletionRate int       `json:"actionCompletionRate"` // percent of plan tasks done
}

const cohortScanLimit = 400

// CohortRows builds the institute view: the latest attempt per user across
// the most recent attempts, summarized into dashboard fields.
func CohortRows(db *gorm.DB) ([]CohortRow, error) {
	var attempts []Attempt
	err := db.Order("created_at DESC").Limit(cohortScanLimit).Find(&attempts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to scan attempts: %w", err)
	}

	rows := []CohortRow{}
	seen := map[string]bool{}
	for i := range attempts {
		a := &attempts[i]
		if seen[a.UserID] {
			continue
		}
		seen[a.UserID] = true
		rows = append(rows, summarize(a))
	}
	return rows, nil
}

func summarize(a *Attempt) CohortRow {
	row := CohortRow{
		UserID:            a.UserID,
		LatestAttemptID:   a.ID,
		CreatedAt:         a.CreatedAt,
		Exam:              a.Exam,
		Confidence:        "low",
		PrimaryBottleneck: "Insufficient signal",
	}

	if report, err := a.DecodeReport(); err == nil {
		if q := report.Attempt.Artifacts.ExtractionQuality; q != "" {
			row.Confidence = q
		}
	}

	bundle, err := a.DecodeRecommendation()
	if err != nil {
		return row
	}
	if len(bundle.Analysis.Errors) > 0 {
		row.PrimaryBottleneck = bundle.Analysis.Errors[0].Detail
	}

	total, done := 0, 0
	for _, day := range bundle.Plan.Days {
		for _, task := range day.Tasks {
			total++
			if task.Status == "done" {
				done++
			}
		}
	}
	if total > 0 {
		row.ActionCompletionRate = done * 100 / total
	}
	return row
}
