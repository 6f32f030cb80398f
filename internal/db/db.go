package db

import (
	"log"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"cogniverse/internal/attempt"
	"cogniverse/internal/config"
	"cogniverse/internal/engine"
	"cogniverse/internal/state"
	"cogniverse/internal/user"
)

var DB *gorm.DB

// Init connects to Postgres and migrates every model once, at process start.
func Init(cfg *config.Config) error {
	db, err := gorm.Open(postgres.Open(cfg.Postgres.DSN), &gorm.Config{})
	if err != nil {
		return err
	}

	if err := db.AutoMigrate(&user.User{}); err != nil {
		return err
	}

	if err := db.AutoMigrate(&attempt.Attempt{}); err != nil {
		return err
	}

	if err := db.AutoMigrate(&engine.MemoryTuple{}); err != nil {
		return err
	}

	if err := db.AutoMigrate(&state.StateRecord{}, &state.EventRow{}); err != nil {
		return err
	}

	DB = db
	log.Printf("Database connected and migrated")
	return nil
}
