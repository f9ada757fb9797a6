package database

import (
	"log"

	"github.com/strove-app/strove/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Connect opens the Postgres database behind dsn, migrates it and seeds demo
// postings. It exits the process when the database is unreachable.
func Connect(dsn string) *gorm.DB {
	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	log.Println("Database connection established")

	log.Println("Running Migrations...")
	if err := Migrate(DB); err != nil {
		log.Fatal("Migration failed:", err)
	}
	if err := SeedPostings(DB); err != nil {
		log.Printf("⚠️  Seeding postings failed: %v", err)
	}
	return DB
}

// Migrate creates or updates every table the service owns.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Profile{},
		&models.Follower{},
		&models.Posting{},
		&models.Application{},
		&models.ApplicationEvent{},
		&models.Star{},
		&models.MailboxState{},
		&models.ProcessedEmail{},
	)
}
