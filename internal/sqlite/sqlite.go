package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"github.com/myrjola/faqforge/internal/errors"
	"github.com/myrjola/faqforge/internal/random"
	"log/slog"
	"strings"
	"time"

	_ "embed"
	_ "github.com/mattn/go-sqlite3" // Enable sqlite3 driver
)

//go:embed schema.sql
var schemaDefinition string

type Database struct {
	ReadWrite *sql.DB
	ReadOnly  *sql.DB
	logger    *slog.Logger
}

// NewDatabase connects to database and synchronizes the schema.
//
// It establishes two database connections, one for read/write operations and one for read-only operations.
// This is a best practice mentioned in https://github.com/mattn/go-sqlite3/issues/1179#issuecomment-1638083995
//
// The url parameter is the path to the SQLite database file or ":memory:" for an in-memory database.
func NewDatabase(ctx context.Context, url string, logger *slog.Logger) (*Database, error) {
	db, err := connect(url, logger)
	if err != nil {
		return nil, errors.Wrap(err, "connect", slog.String("url", url))
	}

	if err = db.migrateTo(ctx, schemaDefinition); err != nil {
		return nil, errors.Wrap(err, "synchronize schema")
	}

	go db.startOptimizer(ctx)

	return db, nil
}

func connect(url string, logger *slog.Logger) (*Database, error) {
	var (
		err         error
		readWriteDB *sql.DB
		readDB      *sql.DB
	)

	pragmas := []string{
		// Avoids SQLITE_BUSY errors when database is under load.
		"_busy_timeout=5000",
		// Increases performance at the cost of durability https://www.sqlite.org/pragma.html#pragma_synchronous.
		"_synchronous=normal",
		"_foreign_keys=on",
		"_temp_store=memory",
	}

	// For in-memory databases, we need shared cache mode so that both connection pools access the same data.
	//
	// For parallel tests, every database gets a random name to avoid sharing data.
	// See https://www.sqlite.org/inmemorydb.html.
	var readConfig, readWriteConfig string
	connMaxLifetime := time.Hour
	if strings.Contains(url, ":memory:") {
		var (
			randomID     string
			dbNameLength uint = 20
		)
		if randomID, err = random.Letters(dbNameLength); err != nil {
			return nil, errors.Wrap(err, "generate random ID")
		}
		common := strings.Join(append([]string{"mode=memory", "cache=shared"}, pragmas...), "&")
		readConfig = fmt.Sprintf("file:%s?%s&_query_only=true", randomID, common)
		readWriteConfig = fmt.Sprintf("file:%s?%s&_txlock=immediate", randomID, common)
		// The in-memory database vanishes when its last connection closes.
		connMaxLifetime = 0
	} else {
		// Write-ahead logging enables higher performance and concurrent readers.
		common := strings.Join(append([]string{"_journal_mode=wal"}, pragmas...), "&")
		url = strings.TrimPrefix(url, "file:")
		readConfig = fmt.Sprintf("file:%s?mode=ro&_txlock=deferred&_query_only=true&%s", url, common)
		readWriteConfig = fmt.Sprintf("file:%s?mode=rwc&_txlock=immediate&%s", url, common)
	}

	// Open the read-write pool first so that the file exists before the read-only pool connects.
	if readWriteDB, err = sql.Open("sqlite3", readWriteConfig); err != nil {
		return nil, errors.Wrap(err, "open read-write database")
	}
	readWriteDB.SetMaxOpenConns(1)
	readWriteDB.SetMaxIdleConns(1)
	readWriteDB.SetConnMaxLifetime(connMaxLifetime)
	readWriteDB.SetConnMaxIdleTime(connMaxLifetime)
	if err = readWriteDB.Ping(); err != nil {
		return nil, errors.Wrap(err, "ping read-write database")
	}

	if readDB, err = sql.Open("sqlite3", readConfig); err != nil {
		return nil, errors.Wrap(err, "open read database")
	}
	maxReadConns := 10
	readDB.SetMaxOpenConns(maxReadConns)
	readDB.SetMaxIdleConns(maxReadConns)
	readDB.SetConnMaxLifetime(connMaxLifetime)
	readDB.SetConnMaxIdleTime(connMaxLifetime)

	return &Database{
		ReadWrite: readWriteDB,
		ReadOnly:  readDB,
		logger:    logger,
	}, nil
}

// Close closes both connection pools.
func (db *Database) Close() error {
	return errors.Join(
		errors.Wrap(db.ReadOnly.Close(), "close read database"),
		errors.Wrap(db.ReadWrite.Close(), "close read-write database"),
	)
}
