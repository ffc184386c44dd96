package db

import (
	"context"
	"fmt"

	"log/slog"

	"github.com/moviematch/recommender/models"
	"gorm.io/gorm"
)

// RunMigrations brings the schema up to date and creates the composite
// indexes the pipeline's hot queries depend on.
func RunMigrations(gdb *gorm.DB, logger *slog.Logger) error {
	ctx := context.Background()

	if gdb.Dialector.Name() == "sqlite" {
		enableSQLiteOptimizations(ctx, gdb, logger)
	}

	if err := gdb.AutoMigrate(
		&models.Group{},
		&models.Interaction{},
		&models.Movie{},
		&models.GroupRecommendation{},
		&models.Person{},
		&models.MovieCredit{},
	); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	if err := createAdditionalIndexes(ctx, gdb, logger); err != nil {
		return fmt.Errorf("failed to create additional indexes: %w", err)
	}

	return nil
}

// enableSQLiteOptimizations applies SQLite pragmas for the local fallback
// database. Failures are logged and ignored; the defaults still work.
func enableSQLiteOptimizations(ctx context.Context, gdb *gorm.DB, logger *slog.Logger) {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA temp_store=MEMORY",
	}

	for _, pragma := range pragmas {
		if err := gdb.WithContext(ctx).Exec(pragma).Error; err != nil {
			logger.Warn("Failed to execute pragma", slog.String("pragma", pragma), slog.Any("error", err))
		}
	}
}

// createAdditionalIndexes covers the freshness gate (group + created_at) and
// the batch replacement delete, which AutoMigrate's single-column indexes
// don't serve on their own.
func createAdditionalIndexes(ctx context.Context, gdb *gorm.DB, logger *slog.Logger) error {
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_group_recommendations_group_created ON group_recommendations(group_id, created_at)",
		"CREATE INDEX IF NOT EXISTS idx_group_recommendations_expires ON group_recommendations(expires_at)",
		"CREATE INDEX IF NOT EXISTS idx_interactions_group_user ON interactions(group_id, user_id)",
	}

	for _, indexSQL := range indexes {
		if err := gdb.WithContext(ctx).Exec(indexSQL).Error; err != nil {
			logger.Warn("Failed to create index", slog.String("sql", indexSQL), slog.Any("error", err))
		}
	}

	return nil
}
