package db

import (
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/smileworks/clinic/internal/models"
)

// Open opens (or creates) the clinic database at path and migrates the
// schema. The returned handle is meant to be injected into the services; no
// package-level connection is kept.
func Open(path string) (*gorm.DB, error) {
	dsn := path + "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	// SQLite works best with a single writer; cap the pool accordingly.
	sqlDB, err := conn.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)

	if err := conn.AutoMigrate(
		&models.Patient{},
		&models.Appointment{},
		&models.Procedure{},
		&models.Treatment{},
		&models.TreatmentProcedure{},
		&models.QRToken{},
		&models.ReminderConfig{},
		&models.ReminderLog{},
		&models.AdminUser{},
	); err != nil {
		return nil, err
	}

	// Composite indexes that GORM doesn't auto-create from struct tags.
	conn.Exec("CREATE INDEX IF NOT EXISTS idx_appt_date_status ON appointments(date, status)")
	conn.Exec("CREATE INDEX IF NOT EXISTS idx_treatment_patient ON treatments(patient_id, treatment_date)")
	conn.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_procedure_cat_name ON procedures(category, name)")

	return conn, nil
}
