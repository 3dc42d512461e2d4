package data

import (
	"context"
	"fmt"

	"github.com/go-kratos/kratos/v2/log"
	"gorm.io/gorm"
)

// Migrate creates or updates the schema.
func Migrate(ctx context.Context, db *gorm.DB, driver string, l *log.Helper) error {
	if driver == "sqlite" {
		enableSQLitePragmas(ctx, db, l)
	}

	if err := db.WithContext(ctx).AutoMigrate(
		&User{},
		&UserPreference{},
		&Movie{},
		&Show{},
		&Season{},
		&Episode{},
		&Rating{},
		&Comment{},
		&CommentLike{},
		&WatchHistory{},
	); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	return nil
}

func enableSQLitePragmas(ctx context.Context, db *gorm.DB, l *log.Helper) {
	pragmas := []string{
		"PRAGMA foreign_keys=ON",
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA temp_store=MEMORY",
	}

	for _, pragma := range pragmas {
		if err := db.WithContext(ctx).Exec(pragma).Error; err != nil {
			l.Warnf("failed to execute %q: %v", pragma, err)
		}
	}
}
