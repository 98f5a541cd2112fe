package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"github.com/myrjola/faqforge/internal/errors"
	"github.com/myrjola/faqforge/internal/random"
	"log/slog"
	"slices"
	"strings"
)

// schemaObject is a row of sqlite_schema.
type schemaObject struct {
	kind  string
	name  string
	table string
	sql   string
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// migrateTo makes the database schema match schemaDefinition declaratively.
//
// Deleted tables are dropped, new tables created, and changed tables rebuilt with the
// 12-step procedure of https://www.sqlite.org/lang_altertable.html#otheralter, copying the columns the old and new
// definitions share. Indexes and triggers are recreated whenever their definition changed.
func (db *Database) migrateTo(ctx context.Context, schemaDefinition string) error {
	target, err := db.targetSchema(ctx, schemaDefinition)
	if err != nil {
		return errors.Wrap(err, "build target schema")
	}

	if _, err = db.ReadWrite.ExecContext(ctx, "PRAGMA foreign_keys = OFF"); err != nil {
		return errors.Wrap(err, "disable foreign key validation")
	}
	defer func() {
		if _, fkErr := db.ReadWrite.ExecContext(ctx, "PRAGMA foreign_keys = ON"); fkErr != nil {
			fkErr = errors.Wrap(fkErr, "re-enable foreign key validation")
			db.logger.LogAttrs(ctx, slog.LevelError, "foreign keys left disabled", errors.SlogError(fkErr))
		}
	}()

	tx, err := db.ReadWrite.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "start transaction")
	}
	defer func() {
		_ = tx.Rollback()
	}()

	current, err := db.readSchema(ctx, tx)
	if err != nil {
		return errors.Wrap(err, "read current schema")
	}
	if err = db.migrateTables(ctx, tx, current, target); err != nil {
		return errors.Wrap(err, "migrate tables")
	}

	// Table rebuilds drop their indexes and triggers, so compare against the schema as it is now.
	if current, err = db.readSchema(ctx, tx); err != nil {
		return errors.Wrap(err, "re-read current schema")
	}
	if err = db.migrateDependents(ctx, tx, current, target); err != nil {
		return errors.Wrap(err, "migrate indexes and triggers")
	}

	if _, err = tx.ExecContext(ctx, "PRAGMA foreign_key_check"); err != nil {
		return errors.Wrap(err, "foreign key check")
	}
	if err = tx.Commit(); err != nil {
		return errors.Wrap(err, "commit transaction")
	}
	return nil
}

// targetSchema evaluates schemaDefinition in a scratch in-memory database and returns the resulting objects.
func (db *Database) targetSchema(ctx context.Context, schemaDefinition string) ([]schemaObject, error) {
	name, err := random.Letters(20) //nolint:mnd // long enough to avoid collisions
	if err != nil {
		return nil, errors.Wrap(err, "generate random ID")
	}
	scratch, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	if err != nil {
		return nil, errors.Wrap(err, "open scratch database")
	}
	defer func() {
		if closeErr := scratch.Close(); closeErr != nil {
			closeErr = errors.Wrap(closeErr, "close scratch database")
			db.logger.LogAttrs(ctx, slog.LevelError, "failed to close scratch database", errors.SlogError(closeErr))
		}
	}()
	scratch.SetMaxOpenConns(1)
	if _, err = scratch.ExecContext(ctx, schemaDefinition); err != nil {
		return nil, errors.Wrap(err, "apply schema to scratch database")
	}
	objects, err := db.readSchema(ctx, scratch)
	if err != nil {
		return nil, errors.Wrap(err, "read scratch schema")
	}
	return objects, nil
}

func (db *Database) readSchema(ctx context.Context, q queryer) ([]schemaObject, error) {
	rows, err := q.QueryContext(ctx, `SELECT type, name, tbl_name, sql
FROM sqlite_schema
WHERE name NOT LIKE 'sqlite_%' AND sql IS NOT NULL
ORDER BY rowid`)
	if err != nil {
		return nil, errors.Wrap(err, "query sqlite_schema")
	}
	defer func() {
		_ = rows.Close()
	}()
	var objects []schemaObject
	for rows.Next() {
		var o schemaObject
		if err = rows.Scan(&o.kind, &o.name, &o.table, &o.sql); err != nil {
			return nil, errors.Wrap(err, "scan schema object")
		}
		objects = append(objects, o)
	}
	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(err, "rows error")
	}
	return objects, nil
}

func find(objects []schemaObject, kind, name string) (schemaObject, bool) {
	i := slices.IndexFunc(objects, func(o schemaObject) bool { return o.kind == kind && o.name == name })
	if i == -1 {
		return schemaObject{}, false
	}
	return objects[i], true
}

func (db *Database) migrateTables(ctx context.Context, tx *sql.Tx, current, target []schemaObject) error {
	for _, o := range current {
		if o.kind != "table" {
			continue
		}
		if _, ok := find(target, "table", o.name); !ok {
			db.logger.LogAttrs(ctx, slog.LevelInfo, "dropping table", slog.String("table", o.name))
			if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DROP TABLE "%s"`, o.name)); err != nil {
				return errors.Wrap(err, "drop table", slog.String("table", o.name))
			}
		}
	}

	for _, t := range target {
		if t.kind != "table" {
			continue
		}
		c, exists := find(current, "table", t.name)
		switch {
		case !exists:
			db.logger.LogAttrs(ctx, slog.LevelInfo, "creating table", slog.String("table", t.name))
			if _, err := tx.ExecContext(ctx, t.sql); err != nil {
				return errors.Wrap(err, "create table", slog.String("table", t.name))
			}
		case c.sql != t.sql:
			if err := db.rebuildTable(ctx, tx, t); err != nil {
				return errors.Wrap(err, "rebuild table", slog.String("table", t.name))
			}
		}
	}
	return nil
}

// rebuildTable performs steps 4-7 of the 12-step table migration.
func (db *Database) rebuildTable(ctx context.Context, tx *sql.Tx, target schemaObject) error {
	tempName := target.name + "_migration_temp"
	db.logger.LogAttrs(ctx, slog.LevelInfo, "migrating table", slog.String("table", target.name),
		slog.String("new_sql", target.sql))

	createTemp := strings.Replace(target.sql, target.name, tempName, 1)
	if _, err := tx.ExecContext(ctx, createTemp); err != nil {
		return errors.Wrap(err, "create temporary table", slog.String("query", createTemp))
	}

	columns, err := commonColumns(ctx, tx, target.name, tempName)
	if err != nil {
		return errors.Wrap(err, "common columns")
	}
	if len(columns) > 0 {
		cols := strings.Join(columns, ", ")
		copySQL := fmt.Sprintf(`INSERT INTO "%s" (%s) SELECT %s FROM "%s"`, tempName, cols, cols, target.name)
		if _, err = tx.ExecContext(ctx, copySQL); err != nil {
			return errors.Wrap(err, "copy rows", slog.String("query", copySQL))
		}
	}

	if _, err = tx.ExecContext(ctx, fmt.Sprintf(`DROP TABLE "%s"`, target.name)); err != nil {
		return errors.Wrap(err, "drop old table")
	}
	if _, err = tx.ExecContext(ctx, fmt.Sprintf(`ALTER TABLE "%s" RENAME TO "%s"`, tempName, target.name)); err != nil {
		return errors.Wrap(err, "rename temporary table")
	}
	return nil
}

func commonColumns(ctx context.Context, tx *sql.Tx, a, b string) ([]string, error) {
	rows, err := tx.QueryContext(ctx, `SELECT '"' || ca.name || '"'
FROM pragma_table_info(?) AS ca
JOIN pragma_table_info(?) AS cb ON ca.name = cb.name
ORDER BY ca.cid`, a, b)
	if err != nil {
		return nil, errors.Wrap(err, "query table info")
	}
	defer func() {
		_ = rows.Close()
	}()
	var columns []string
	for rows.Next() {
		var column string
		if err = rows.Scan(&column); err != nil {
			return nil, errors.Wrap(err, "scan column")
		}
		columns = append(columns, column)
	}
	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(err, "rows error")
	}
	return columns, nil
}

// migrateDependents synchronizes indexes and triggers.
func (db *Database) migrateDependents(ctx context.Context, tx *sql.Tx, current, target []schemaObject) error {
	for _, c := range current {
		if c.kind != "index" && c.kind != "trigger" {
			continue
		}
		if t, ok := find(target, c.kind, c.name); ok && t.sql == c.sql {
			continue
		}
		db.logger.LogAttrs(ctx, slog.LevelInfo, "dropping "+c.kind, slog.String("name", c.name))
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DROP %s "%s"`, strings.ToUpper(c.kind), c.name)); err != nil {
			return errors.Wrap(err, "drop", slog.String("kind", c.kind), slog.String("name", c.name))
		}
	}
	for _, t := range target {
		if t.kind != "index" && t.kind != "trigger" {
			continue
		}
		if c, ok := find(current, t.kind, t.name); ok && c.sql == t.sql {
			continue
		}
		db.logger.LogAttrs(ctx, slog.LevelInfo, "creating "+t.kind, slog.String("name", t.name))
		if _, err := tx.ExecContext(ctx, t.sql); err != nil {
			return errors.Wrap(err, "create", slog.String("kind", t.kind), slog.String("name", t.name))
		}
	}
	return nil
}
