package database

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/pathakanu/lifesync/internal/model"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Options selects the backend. When URL is provided PostgreSQL is used,
// otherwise SQLite at SQLitePath.
type Options struct {
	URL          string
	SQLitePath   string
	GormLogLevel string
}

// New creates a GORM database connection and migrates the schema.
func New(opts Options, log *slog.Logger) (*gorm.DB, error) {
	gormLogger, levelErr := NewGormLogger(log, opts.GormLogLevel)
	if levelErr != nil {
		log.Warn("database: falling back to default gorm log level", "error", levelErr)
	}
	gormConfig := &gorm.Config{Logger: gormLogger}

	var (
		db  *gorm.DB
		err error
	)
	if opts.URL != "" {
		db, err = gorm.Open(postgres.Open(opts.URL), gormConfig)
	} else {
		db, err = gorm.Open(sqlite.Open(opts.SQLitePath), gormConfig)
	}
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	logBackend(db, opts, log)
	return db, nil
}

// Migrate creates or updates the tables used by the assistant.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&model.Blob{}); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get underlying *sql.DB: %w", err)
	}
	return sqlDB.Close()
}

func logBackend(db *gorm.DB, opts Options, log *slog.Logger) {
	dialector := db.Dialector.Name()
	switch strings.ToLower(dialector) {
	case "postgres":
		log.Info("database: connected to PostgreSQL")
	case "sqlite":
		log.Info("database: using SQLite", "path", opts.SQLitePath)
	default:
		log.Info("database: connected", "dialector", dialector)
	}
}
