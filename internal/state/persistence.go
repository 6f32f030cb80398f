// internal/state/persistence.go
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StateRecord is the persisted form of a UserState. The envelope itself is a
// single JSON column; Version is duplicated for cheap inspection.
type StateRecord struct {
	ID        uint           `gorm:"primarykey"`
	UserID    string         `gorm:"uniqueIndex;size:64;not null"`
	Version   int            `gorm:"not null"`
	State     datatypes.JSON `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// EventRow is one append-only event log entry.
type EventRow struct {
	ID        uint           `gorm:"primarykey"`
	EventID   string         `gorm:"uniqueIndex;size:64;not null"`
	UserID    string         `gorm:"index;size:64;not null"`
	Type      string         `gorm:"size:64;not null"`
	TS        time.Time      `gorm:"index"`
	Payload   datatypes.JSON
	Context   datatypes.JSON
	RequestID string         `gorm:"size:64"`
	CreatedAt time.Time
}

// LoadState returns the stored envelope for the user, or a fresh default when
// none exists yet.
func LoadState(db *gorm.DB, userID string) (UserState, error) {
	var record StateRecord
	err := db.Where("user_id = ?", userID).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return CreateDefaultState(userID), nil
	}
	if err != nil {
		return CreateDefaultState(userID), fmt.Errorf("failed to load state: %w", err)
	}

	var userState UserState
	if err := json.Unmarshal(record.State, &userState); err != nil {
		return CreateDefaultState(userID), fmt.Errorf("stored state malformed: %w", err)
	}
	return userState, nil
}

// SaveState upserts the envelope keyed by user id. Last write wins; there is
// no compare-and-swap on the version column.
func SaveState(db *gorm.DB, userState UserState) error {
	blob, err := json.Marshal(userState)
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}

	record := StateRecord{
		UserID:  userState.UserID,
		Version: userState.Version,
		State:   blob,
	}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"version", "state", "updated_at"}),
	}).Create(&record).Error
}

// LogEvent appends the event to the log. Failures are logged and swallowed:
// the event log is best-effort telemetry and must never fail a request.
func LogEvent(db *gorm.DB, event EventRecord) {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		log.Printf("[State] failed to encode event payload: %v", err)
		return
	}
	context, err := json.Marshal(event.Context)
	if err != nil {
		log.Printf("[State] failed to encode event context: %v", err)
		return
	}

	row := EventRow{
		EventID:   event.EventID,
		UserID:    event.UserID,
		Type:      string(event.Type),
		TS:        event.TS,
		Payload:   payload,
		Context:   context,
		RequestID: event.RequestID,
	}
	if err := db.Create(&row).Error; err != nil {
		log.Printf("[State] event write failed: %v", err)
	}
}

// RecordEvent normalizes, applies, persists, and logs one event for a durable
// identity, returning the updated envelope.
func RecordEvent(db *gorm.DB, userID string, input EventInput) (UserState, EventRecord, error) {
	event := NormalizeEvent(userID, input)

	userState, err := LoadState(db, userID)
	if err != nil {
		log.Printf("[State] falling back to default state for %s: %v", userID, err)
	}

	next := ApplyEventToState(userState, event)
	if err := SaveState(db, next); err != nil {
		return next, event, fmt.Errorf("failed to save state: %w", err)
	}
	LogEvent(db, event)
	return next, event, nil
}

// RecentEvents returns the newest events for a user, newest first.
func RecentEvents(db *gorm.DB, userID string, limit int) ([]EventRow, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var rows []EventRow
	err := db.Where("user_id = ?", userID).
		Order("ts DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load events: %w", err)
	}
	return rows, nil
}
