package database

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/clivefinesse/jobtracker/internal/models"
)

// AutoMigrate applies the schema for every persistent model.
func AutoMigrate(db *gorm.DB) error {
	if db == nil {
		return errors.New("nil database handle")
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.JobApplication{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	return nil
}
