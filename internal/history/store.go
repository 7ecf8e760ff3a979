package history

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/1broseidon/barkeep/internal/runtimepath"
	"github.com/pkg/errors"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	// DefaultLimit caps Recent when no limit is given.
	DefaultLimit = 20
	// Retention is how long entries are kept; older ones are pruned at
	// daemon start.
	Retention = 30 * 24 * time.Hour
)

// DefaultPath returns the journal location under the user data directory.
func DefaultPath() (string, error) {
	return runtimepath.HistoryPath()
}

// Store is the sqlite-backed event journal.
type Store struct {
	db *gorm.DB
}

// Open connects to the journal at path, creating the file and schema as
// needed. An empty path selects DefaultPath.
func Open(path string) (*Store, error) {
	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return nil, err
		}
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to open history database")
	}
	if err := db.AutoMigrate(&Entry{}); err != nil {
		return nil, errors.Wrap(err, "failed to initialize history schema")
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return errors.Wrap(err, "failed to get underlying sql.DB")
	}
	return sqlDB.Close()
}

// Record inserts entry, stamping it with the current time when unset.
func (s *Store) Record(entry *Entry) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	if result := s.db.Create(entry); result.Error != nil {
		return errors.Wrap(result.Error, "failed to insert history entry")
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	var entries []Entry
	result := s.db.WithContext(ctx).Order("timestamp DESC").Order("id DESC").Limit(limit).Find(&entries)
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, "failed to query history")
	}
	return entries, nil
}

// ForIdentity returns up to limit entries about one application, newest
// first.
func (s *Store) ForIdentity(ctx context.Context, identity string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	var entries []Entry
	result := s.db.WithContext(ctx).
		Where("identity = ?", identity).
		Order("timestamp DESC").
		Order("id DESC").
		Limit(limit).
		Find(&entries)
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, "failed to query history")
	}
	return entries, nil
}

// Prune deletes entries older than before and returns how many went.
func (s *Store) Prune(before time.Time) (int64, error) {
	result := s.db.Where("timestamp < ?", before).Delete(&Entry{})
	if result.Error != nil {
		return 0, errors.Wrap(result.Error, "failed to prune history")
	}
	return result.RowsAffected, nil
}
