package database

import (
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/tokencap/tokencap/internal/logger"
	"github.com/tokencap/tokencap/internal/models"
)

var DB *gorm.DB

type Config struct {
	// Path to the single-file SQLite database, e.g. "./tokencap.db".
	Path         string
	BusyTimeout  time.Duration
	MaxOpenConns int
	MaxIdleConns int
	LogLevel     gormlogger.LogLevel
}

// DSN renders the sqlite connection string with the pragmas the ledger
// relies on: WAL for durable concurrent reads, busy_timeout so writers
// queue instead of failing.
func (c *Config) DSN() string {
	busyMs := c.BusyTimeout.Milliseconds()
	if busyMs <= 0 {
		busyMs = 5000
	}
	return fmt.Sprintf("%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)", c.Path, busyMs)
}

func Initialize(cfg *Config) error {
	if cfg.Path == "" {
		cfg.Path = "./tokencap.db"
	}
	if cfg.MaxOpenConns == 0 {
		cfg.MaxOpenConns = 1
	}
	if cfg.MaxIdleConns == 0 {
		cfg.MaxIdleConns = 1
	}
	if cfg.LogLevel == 0 {
		cfg.LogLevel = gormlogger.Warn
	}

	gormLog := gormlogger.New(
		logger.NewGormLogger(logger.Get()),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  cfg.LogLevel,
			IgnoreRecordNotFoundError: true,
			ParameterizedQueries:      true,
		},
	)

	db, err := gorm.Open(sqlite.Open(cfg.DSN()), &gorm.Config{
		Logger:      gormLog,
		PrepareStmt: true,
	})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	// SQLite allows one writer at a time; a small pool keeps charge
	// transactions queued on busy_timeout instead of failing.
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)

	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	DB = db

	if err := Migrate(DB); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

func Migrate(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("database not initialized")
	}

	if err := db.AutoMigrate(
		&models.Budget{},
		&models.UsageRecord{},
	); err != nil {
		return fmt.Errorf("failed to migrate models: %w", err)
	}

	if err := createIndexes(db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	return nil
}

func createIndexes(db *gorm.DB) error {
	// Usage indexes for summaries and history reads
	db.Exec("CREATE INDEX IF NOT EXISTS idx_usage_project_id ON usage(project_id)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_usage_created_at ON usage(created_at)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_usage_project_created ON usage(project_id, created_at)")

	// Budget lookup is always by project
	db.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_budgets_project_id ON budgets(project_id)")

	return nil
}

func Close() error {
	if DB == nil {
		return nil
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}

func GetDB() *gorm.DB {
	return DB
}

func IsHealthy() bool {
	if DB == nil {
		return false
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return false
	}

	return sqlDB.Ping() == nil
}
