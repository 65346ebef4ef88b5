// Package history keeps an SQL audit trail of runs and of every follow or
// unfollow they attempted.
package history

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"followsync/pkg/logger"
)

// RunRecord is one reconciliation run
type RunRecord struct {
	ID              uint      `gorm:"primaryKey" json:"-"`
	RunID           string    `gorm:"size:36;uniqueIndex" json:"run_id"`
	Username        string    `gorm:"size:100;index" json:"username"`
	StartedAt       time.Time `json:"started_at"`
	FinishedAt      time.Time `json:"finished_at"`
	DryRun          bool      `json:"dry_run"`
	Followers       int       `json:"followers"`
	Following       int       `json:"following"`
	Followed        int       `json:"followed"`
	Unfollowed      int       `json:"unfollowed"`
	FailedFollows   int       `json:"failed_follows"`
	FailedUnfollows int       `json:"failed_unfollows"`
	FetchFailures   int       `json:"fetch_failures"`
	CreatedAt       time.Time `json:"-"`
}

// MutationRecord is the outcome of one target of a run
type MutationRecord struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	RunID     string    `gorm:"size:36;index" json:"run_id"`
	Target    string    `gorm:"size:100" json:"target"`
	Action    string    `gorm:"size:16" json:"action"`
	Outcome   string    `gorm:"size:32" json:"outcome"`
	Attempts  int       `json:"attempts"`
	Error     string    `gorm:"type:text" json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Store persists runs through GORM
type Store struct {
	db     *gorm.DB
	logger logger.Logger
}

// Open connects to the database and migrates the schema. driver is one of
// sqlite, postgres or mysql; for sqlite dsn is a file path.
func Open(driver, dsn string, log logger.Logger) (*Store, error) {
	var dialector gorm.Dialector

	switch driver {
	case "sqlite", "":
		if dir := filepath.Dir(dsn); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create history directory: %w", err)
			}
		}
		dialector = sqlite.Open(dsn)
	case "postgres":
		dialector = postgres.New(postgres.Config{
			DSN:                  dsn,
			PreferSimpleProtocol: true,
		})
	case "mysql":
		dialector = mysql.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(&RunRecord{}, &MutationRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate history schema: %w", err)
	}

	return &Store{db: db, logger: logger.OrDefault(log)}, nil
}

// Close releases the underlying connection pool
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Record stores run and its mutations in one transaction
func (s *Store) Record(ctx context.Context, run *RunRecord, mutations []MutationRecord) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(run).Error; err != nil {
			return err
		}
		if len(mutations) == 0 {
			return nil
		}
		for i := range mutations {
			mutations[i].RunID = run.RunID
		}
		return tx.Create(&mutations).Error
	})
	if err != nil {
		return fmt.Errorf("failed to record run %s: %w", run.RunID, err)
	}

	s.logger.DebugWithFields("Run recorded", map[string]interface{}{
		"run_id":    run.RunID,
		"mutations": len(mutations),
	})
	return nil
}

// Recent returns up to limit runs of username, newest first. An empty
// username lists runs of every account.
func (s *Store) Recent(ctx context.Context, username string, limit int) ([]RunRecord, error) {
	q := s.db.WithContext(ctx).Order("started_at DESC").Order("id DESC")
	if username != "" {
		q = q.Where("username = ?", username)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}

	var runs []RunRecord
	if err := q.Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

// Mutations returns the mutations of runID in the order they were made
func (s *Store) Mutations(ctx context.Context, runID string) ([]MutationRecord, error) {
	var out []MutationRecord
	err := s.db.WithContext(ctx).
		Where("run_id = ?", runID).
		Order("id ASC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list mutations: %w", err)
	}
	return out, nil
}
