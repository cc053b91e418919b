package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	sq "github.com/Masterminds/squirrel"
	"github.com/gofrs/flock"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

const (
	dbFile   = "moviealert.db"
	lockFile = "moviealert.lock"
)

// DB is the history database. Opening it takes an exclusive lock on the
// directory so overlapping runs cannot open the same movies twice.
type DB struct {
	handler  *sql.DB
	log      zerolog.Logger
	lock     sync.RWMutex
	squirrel sq.StatementBuilderType
	fileLock *flock.Flock
}

// Exists reports whether dir already holds a history database. It never
// creates anything.
func Exists(dir string) (bool, error) {
	_, err := os.Stat(filepath.Join(dir, dbFile))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, errors.Wrap(err, "unable to stat database")
}

// NewDB opens (and creates if needed) the history database in dir.
func NewDB(dir string, log zerolog.Logger) (*DB, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "unable to create database directory")
	}

	fileLock := flock.New(filepath.Join(dir, lockFile))
	ok, err := fileLock.TryLock()
	if err != nil {
		return nil, errors.Wrap(err, "unable to acquire database lock")
	}
	if !ok {
		return nil, errors.New("another moviealert run is in progress")
	}

	db := &DB{
		log:      log.With().Str("module", "database").Logger(),
		squirrel: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
		fileLock: fileLock,
	}

	DSN := filepath.Join(dir, dbFile) + "?_pragma=busy_timeout%3d1000"

	db.handler, err = sql.Open("sqlite", DSN)
	if err != nil {
		_ = fileLock.Unlock()
		return nil, errors.Wrap(err, "unable to connect to database")
	}

	if _, err = db.handler.Exec(`PRAGMA journal_mode = wal;`); err != nil {
		db.release()
		return nil, errors.Wrap(err, "unable to enable WAL mode")
	}

	if err := db.Migrate(); err != nil {
		db.release()
		return nil, errors.Wrap(err, "failed to migrate schema")
	}

	return db, nil
}

// Migrate brings the schema up to date using PRAGMA user_version.
func (db *DB) Migrate() error {
	db.lock.Lock()
	defer db.lock.Unlock()

	var version int
	if err := db.handler.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return errors.Wrap(err, "failed to query schema version")
	}

	if version == len(historyMigrations) {
		return nil
	} else if version > len(historyMigrations) {
		return errors.Errorf("history database schema version (%d) is newer than supported (%d)", version, len(historyMigrations))
	}

	db.log.Info().Msgf("Beginning database schema upgrade from version %v to version: %v", version, len(historyMigrations))

	tx, err := db.handler.Begin()
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	if version == 0 {
		if _, err := tx.Exec(historySchema); err != nil {
			return errors.Wrap(err, "failed to initialize schema")
		}
		db.log.Info().Msg("Created initial history database schema")
	} else {
		for i := version; i < len(historyMigrations); i++ {
			if historyMigrations[i] == "" {
				continue
			}
			db.log.Info().Msgf("Upgrading history database schema to version: %v", i+1)
			if _, err := tx.Exec(historyMigrations[i]); err != nil {
				return errors.Wrapf(err, "failed to execute migration #%v", i)
			}
		}
	}

	_, err = tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", len(historyMigrations)))
	if err != nil {
		return errors.Wrap(err, "failed to bump schema version")
	}

	db.log.Info().Msgf("Database schema upgraded to version: %v", len(historyMigrations))
	return tx.Commit()
}

// Close closes the database connection and releases the directory lock.
func (db *DB) Close() error {
	defer func() {
		if err := db.fileLock.Unlock(); err != nil {
			db.log.Warn().Err(err).Msg("failed to release database lock")
		}
	}()

	if _, err := db.handler.Exec(`PRAGMA optimize;`); err != nil {
		db.handler.Close()
		return errors.Wrap(err, "query planner optimization")
	}

	return db.handler.Close()
}

func (db *DB) release() {
	db.handler.Close()
	_ = db.fileLock.Unlock()
}
