package db

import (
	"log"

	"dietflow/internal/config"
	"dietflow/internal/narrative"
	"dietflow/internal/plan"
	"dietflow/internal/tracking"
	"dietflow/internal/user"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func Init(cfg *config.Config) error {
	db, err := gorm.Open(postgres.Open(cfg.Postgres.DSN), &gorm.Config{})
	if err != nil {
		return err
	}

	// Auto-migrate account and plan models
	if err := db.AutoMigrate(&user.User{}, &plan.Plan{}); err != nil {
		return err
	}

	// Auto-migrate the tracking pipeline models
	if err := db.AutoMigrate(
		&tracking.CheckIn{},
		&tracking.ProgressSnapshot{},
		&tracking.CalorieAdjustment{},
	); err != nil {
		return err
	}

	// Auto-migrate narrative records
	if err := db.AutoMigrate(&narrative.Narrative{}); err != nil {
		return err
	}

	DB = db
	log.Printf("Database connected and migrated")
	return nil
}
