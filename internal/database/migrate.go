package database

import (
	"capmatch/internal/models"

	"gorm.io/gorm"
)

// registeredModels lists every model automigrated at startup. Order matters
// for foreign key creation.
func registeredModels() []interface{} {
	return []interface{}{
		&models.Student{},
		&models.Supervisor{},
		&models.Project{},
		&models.Application{},
		&models.PartnershipRequest{},
		&models.CoSupervisionRequest{},
	}
}

// Migrate runs GORM automigrations for all registered models.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(registeredModels()...)
}
