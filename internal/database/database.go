// Package database bootstraps the GORM connection shared by every
// long-lived stage. The dialect is selectable (mysql in production,
// sqlite for tests and local runs via DATABASE_DIALECT) and no default DSN is
// ever hardcoded: a missing DATABASE_URL is an error, not a silent
// fallback to a real credential.
package database

import (
	"fmt"
	"log"
	"time"

	"eva-finance/internal/models"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// PoolConfig bounds the connection pool fronting the store.
type PoolConfig struct {
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

// DefaultPool is the default connection-pool configuration.
var DefaultPool = PoolConfig{MaxIdleConns: 2, MaxOpenConns: 10, ConnMaxLifetime: time.Hour}

// Initialize opens the store for the given dialect and DSN, tunes the
// connection pool, and runs the additive startup migrations.
func Initialize(dialect, dsn string, pool PoolConfig) (*gorm.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("database: DATABASE_URL is required")
	}

	var open gorm.Dialector
	switch dialect {
	case "mysql":
		open = mysql.Open(dsn)
	case "sqlite":
		open = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("database: unsupported dialect %q", dialect)
	}

	db, err := gorm.Open(open, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("database: failed to connect (%s): %w", dialect, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("database: failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxIdleConns(pool.MaxIdleConns)
	sqlDB.SetMaxOpenConns(pool.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(pool.ConnMaxLifetime)

	if err := AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("database: migration failed: %w", err)
	}

	log.Println("[DATABASE] store initialized")
	return db, nil
}

// AutoMigrate creates or updates every table this repo owns. Additive
// only: a column is never dropped here.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.RawPost{},
		&models.ProcessedPost{},
		&models.BehaviorState{},
		&models.SignalEvent{},
		&models.ConfidenceScore{},
		&models.RecommendationDraft{},
		&models.BrandTickerMap{},
		&models.PaperPosition{},
		&models.TrendsValidation{},
	); err != nil {
		return err
	}
	return ensureMarkdownSHA256Column(db)
}

// ensureMarkdownSHA256Column is the one raw-SQL fallback migration: when
// the GORM migrator can't add a column on a dialect it doesn't fully
// manage in-place, fall back to a direct ALTER TABLE guarded by an
// existence check so repeated runs stay no-ops.
func ensureMarkdownSHA256Column(db *gorm.DB) error {
	if db.Migrator().HasColumn(&models.RecommendationDraft{}, "markdown_sha256") {
		return nil
	}
	if err := db.Migrator().AddColumn(&models.RecommendationDraft{}, "MarkdownSHA256"); err == nil {
		return nil
	}
	if err := db.Exec(`ALTER TABLE recommendation_drafts ADD COLUMN markdown_sha256 VARCHAR(64)`).Error; err != nil {
		return fmt.Errorf("failed adding markdown_sha256 column: %w", err)
	}
	return nil
}
