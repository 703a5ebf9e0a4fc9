package sqlite

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jmoiron/sqlx"
)

const busyTimeout = 5 * time.Second

// ErrDirtySchema means an earlier migration stopped half way and needs a manual fix.
var ErrDirtySchema = errors.New("database schema is dirty")

// modernc reads each _pragma query parameter on connect
var pragmas = []string{
	"foreign_keys(1)", // blog_images cascade on blog removal
	"journal_mode(WAL)",
	fmt.Sprintf("busy_timeout(%d)", busyTimeout.Milliseconds()),
}

func dsn(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + url.Values{"_pragma": pragmas}.Encode()
}

func openDB(path string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("cannot open db %s: %w", path, err)
	}

	// single writer; recompile workers queue on this connection
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	return db, nil
}

// Migrate brings the schema up to the newest file under migrationsPath.
func (s *Store) Migrate(migrationsPath string) error {
	driver, err := sqlite.WithInstance(s.db.DB, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("could not create migrations driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+migrationsPath, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("migration setup failed: %w", err)
	}

	// a fresh database reports ErrNilVersion, which is fine
	if version, dirty, err := m.Version(); err == nil && dirty {
		return fmt.Errorf("%w at version %d", ErrDirtySchema, version)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration exec failed: %w", err)
	}

	return nil
}
