package database

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/mjozefiak/polcare/config"
	"github.com/mjozefiak/polcare/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Init initializes the database connection.
// It uses the DSN from the application config.
// For "memory", it uses an in-memory SQLite database.
// For other DSNs, it assumes a file-based SQLite database.
func Init() (*gorm.DB, error) {
	var err error
	dsn := config.AppConfig.Database.DSN

	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  true,
		},
	)

	gormConfig := &gorm.Config{
		Logger: gormLogger,
	}

	if dsn == "memory" || dsn == "" { // Treat empty DSN as in-memory for safety
		log.Println("INFO: [Database] Initializing in-memory SQLite database (DSN: 'memory' or empty).")
		DB, err = gorm.Open(sqlite.Open("file::memory:?cache=shared"), gormConfig)
	} else {
		log.Printf("INFO: [Database] Initializing file-based SQLite database at DSN: '%s'.", dsn)
		dbDir := filepath.Dir(dsn)
		if dbDir != "." && dbDir != "/" {
			if _, statErr := os.Stat(dbDir); os.IsNotExist(statErr) {
				log.Printf("INFO: [Database] Database directory '%s' does not exist, attempting to create.", dbDir)
				if mkdirErr := os.MkdirAll(dbDir, 0755); mkdirErr != nil {
					log.Printf("ERROR: [Database] Failed to create database directory '%s': %v", dbDir, mkdirErr)
					return nil, fmt.Errorf("failed to create database directory '%s': %w", dbDir, mkdirErr)
				}
			}
		}
		DB, err = gorm.Open(sqlite.Open(dsn), gormConfig)
	}

	if err != nil {
		log.Printf("ERROR: [Database] Failed to connect to database (DSN: '%s'): %v", dsn, err)
		return nil, fmt.Errorf("failed to connect to database (DSN: '%s'): %w", dsn, err)
	}

	log.Println("INFO: [Database] Database connection established successfully.")
	return DB, nil
}

// Migrate creates or updates the reference-data schema.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Pharmacy{},
		&models.Doctor{},
	)
}

// SeedReferenceData upserts the built-in pharmacy and doctor records.
// The records mirror a small Warsaw data set; SortOrder encodes the
// nearest-first listing convention the dispatcher relies on.
func SeedReferenceData(db *gorm.DB) error {
	pharmacies := []models.Pharmacy{
		{ID: "ph_001", Name: "Apteka Pod Orionem", Address: "ul. Marszałkowska 144, Warszawa", Phone: "+48 22 537 72 64", Latitude: 52.2297, Longitude: 21.0122, SortOrder: 1},
		{ID: "ph_002", Name: "Apteka Główna", Address: "ul. Krakowskie Przedmieście 15, Warszawa", Phone: "+48 22 826 83 58", Latitude: 52.2392, Longitude: 21.0144, SortOrder: 2},
		{ID: "ph_003", Name: "Farmacja Zdrowia", Address: "ul. Nowy Świat 45, Warszawa", Phone: "+48 22 829 14 23", Latitude: 52.2246, Longitude: 21.0186, SortOrder: 3},
		{ID: "ph_004", Name: "Medicina Plus", Address: "ul. Złota 39, Warszawa", Phone: "+48 22 826 94 47", Latitude: 52.2291, Longitude: 21.0065, SortOrder: 4},
		{ID: "ph_005", Name: "Społeczny Dom Farmacja", Address: "ul. Chmielna 13, Warszawa", Phone: "+48 22 827 39 27", Latitude: 52.2367, Longitude: 21.0089, SortOrder: 5},
	}
	doctors := []models.Doctor{
		{ID: "doc_001", Name: "Dr. Anna Kowalska", Specialty: "General Practitioner", Address: "ul. Hoża 56, Warszawa", Phone: "+48 22 621 44 88", SortOrder: 1},
		{ID: "doc_002", Name: "Dr. Piotr Nowak", Specialty: "Internal Medicine", Address: "ul. Wilcza 23, Warszawa", Phone: "+48 22 622 17 35", SortOrder: 2},
		{ID: "doc_003", Name: "Centrum Medyczne Warszawa", Specialty: "Multi-specialty Clinic", Address: "al. Jerozolimskie 65, Warszawa", Phone: "+48 22 630 30 30", SortOrder: 3},
	}

	if err := db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&pharmacies).Error; err != nil {
		return fmt.Errorf("failed to seed pharmacies: %w", err)
	}
	if err := db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&doctors).Error; err != nil {
		return fmt.Errorf("failed to seed doctors: %w", err)
	}
	log.Printf("INFO: [Database] Seeded reference data: %d pharmacies, %d doctors.", len(pharmacies), len(doctors))
	return nil
}

// GetDB returns the global database instance.
// It panics if DB has not been initialized via Init().
func GetDB() *gorm.DB {
	if DB == nil {
		log.Fatal("FATAL: [Database] Database instance has not been initialized. Call database.Init() first.")
	}
	return DB
}
