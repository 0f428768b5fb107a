package database

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type Database struct {
	*gorm.DB
}

func NewDatabase(dsn string) (*Database, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	log.Println("Connected to database successfully")

	return &Database{db}, nil
}

// SQL exposes the underlying connection pool for the hand-written SQL
// repositories; gorm and raw queries share the same pool.
func (db *Database) SQL() (*sql.DB, error) {
	return db.DB.DB()
}

func (db *Database) Migrate() error {
	if err := db.AutoMigrate(&Notification{}, &Feedback{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	sqlDB, err := db.SQL()
	if err != nil {
		return err
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}

	log.Println("Database migration completed")
	return nil
}
