package repositories

import (
	"context"
	"database/sql"
	"github.com/jmoiron/sqlx"
	"github.com/myrjola/faqforge/internal/errors"
	"github.com/myrjola/faqforge/internal/sqlite"
	"github.com/myrjola/faqforge/internal/state"
	"log/slog"
	"maps"
	"slices"
)

var _ state.KV = (*KVRepository)(nil)

const upsertStateEntry = `INSERT INTO state_entries (key, value) VALUES (?, ?)
ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated = strftime('%Y-%m-%dT%H:%M:%fZ')`

// KVRepository persists client state entries in the state_entries table.
type KVRepository struct {
	readWrite *sqlx.DB
	readOnly  *sqlx.DB
	logger    *slog.Logger
}

func NewKVRepository(dbs *sqlite.Database, logger *slog.Logger) *KVRepository {
	return &KVRepository{
		readWrite: sqlx.NewDb(dbs.ReadWrite, "sqlite3"),
		readOnly:  sqlx.NewDb(dbs.ReadOnly, "sqlite3"),
		logger:    logger.With("source", "KVRepository"),
	}
}

// Get returns the value stored under key and whether it exists.
func (r *KVRepository) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := r.readOnly.GetContext(ctx, &value, `SELECT value FROM state_entries WHERE key = ?`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "select state entry", slog.String("key", key))
	}
	return value, true, nil
}

// Put stores value under key, replacing any previous value.
func (r *KVRepository) Put(ctx context.Context, key string, value []byte) error {
	if _, err := r.readWrite.ExecContext(ctx, upsertStateEntry, key, value); err != nil {
		return errors.Wrap(err, "upsert state entry", slog.String("key", key))
	}
	return nil
}

// PutAll stores every value in a single transaction.
func (r *KVRepository) PutAll(ctx context.Context, values map[string][]byte) error {
	tx, err := r.readWrite.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}
	defer func() {
		_ = tx.Rollback()
	}()
	for _, key := range slices.Sorted(maps.Keys(values)) {
		if _, err = tx.ExecContext(ctx, upsertStateEntry, key, values[key]); err != nil {
			return errors.Wrap(err, "upsert state entry", slog.String("key", key))
		}
	}
	if err = tx.Commit(); err != nil {
		return errors.Wrap(err, "commit transaction")
	}
	r.logger.LogAttrs(ctx, slog.LevelDebug, "saved state entries", slog.Int("count", len(values)))
	return nil
}

// Entry describes a stored key.
type Entry struct {
	Key     string `db:"key"`
	Size    int    `db:"size"`
	Updated string `db:"updated"`
}

// Entries lists the stored keys in alphabetical order.
func (r *KVRepository) Entries(ctx context.Context) ([]Entry, error) {
	var entries []Entry
	stmt := `SELECT key, length(value) AS size, updated FROM state_entries ORDER BY key`
	if err := r.readOnly.SelectContext(ctx, &entries, stmt); err != nil {
		return nil, errors.Wrap(err, "select state entries")
	}
	return entries, nil
}
