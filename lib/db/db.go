package db

import (
	"fmt"

	"log/slog"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Open connects to the configured database. A DATABASE_URL selects Postgres
// (the hosted store); without one we fall back to a local SQLite file so the
// service runs with zero configuration in development.
func Open(databaseURL string, logger *slog.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	if databaseURL != "" {
		dialector = postgres.Open(databaseURL)
	} else {
		logger.Info("DATABASE_URL not set, using local SQLite database")
		dialector = sqlite.Open("recommender.db")
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger: NewGormLogger(logger),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return gdb, nil
}
