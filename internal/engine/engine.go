// Package engine mirrors the schema registry into an in-memory SQLite
// database: one table per top-level resolved record type, with validated
// records inserted as rows and compound values stored as JSON text. It
// powers the ad-hoc SQL surface of the yaql shell; the database is never
// persisted.
package engine

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"github.com/yasl-lang/yaql/internal/diag"
	"github.com/yasl-lang/yaql/internal/registry"
	"github.com/yasl-lang/yaql/internal/sig"
	"github.com/yasl-lang/yaql/internal/validate"
	"github.com/yasl-lang/yaql/internal/yamlio"
)

// Engine couples a registry to an in-memory SQLite database.
type Engine struct {
	db  *sql.DB
	reg *registry.Registry
	rep *diag.Reporter
	log zerolog.Logger

	// tableMap tracks which tables mirror which record types, for export.
	tableMap map[string]registry.TypeKey
	unsaved  bool
}

// New opens an engine over reg with an empty in-memory database.
func New(reg *registry.Registry, rep *diag.Reporter) (*Engine, error) {
	if rep == nil {
		rep = diag.Nop()
	}
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("opening in-memory database: %w", err)
	}
	return &Engine{
		db:       db,
		reg:      reg,
		rep:      rep,
		log:      zerolog.Nop(),
		tableMap: map[string]registry.TypeKey{},
	}, nil
}

// SetLogger installs a structured logger; the default discards everything.
func (e *Engine) SetLogger(log zerolog.Logger) { e.log = log }

// UnsavedChanges reports whether the database was mutated since the last
// export.
func (e *Engine) UnsavedChanges() bool { return e.unsaved }

// Close releases the database.
func (e *Engine) Close() error { return e.db.Close() }

// LoadSchema loads YASL schema files from a file or directory and creates
// tables for every newly resolved top-level type.
func (e *Engine) LoadSchema(path string) bool {
	_, err := yamlio.LoadSchemaFiles(e.reg, e.rep, path)
	if err != nil {
		e.log.Error().Err(err).Str("path", path).Msg("schema load failed")
	}
	if syncErr := e.syncTables(); syncErr != nil {
		e.log.Error().Err(syncErr).Msg("table sync failed")
		return false
	}
	return err == nil
}

// syncTables creates a table for every registered top-level type that does
// not have one yet.
func (e *Engine) syncTables() error {
	for key, rt := range e.reg.Types() {
		if rt.Nested {
			continue
		}
		table := tableName(key)
		if _, mapped := e.tableMap[table]; mapped {
			continue
		}
		if err := e.createTable(table, rt); err != nil {
			return err
		}
		e.tableMap[table] = key
	}
	return nil
}

// tableName derives the SQL table name for a type: namespace-prefixed with
// dots flattened to underscores, except for the default namespace.
func tableName(key registry.TypeKey) string {
	if key.Namespace == "" || key.Namespace == registry.DefaultNamespace {
		return key.Name
	}
	return strings.ReplaceAll(key.Namespace, ".", "_") + "_" + key.Name
}

// columnType maps a field signature to a SQLite column affinity. Compound
// and reference values are stored as JSON or raw text.
func columnType(s sig.Signature) string {
	p, ok := s.(sig.Primitive)
	if !ok {
		return "TEXT"
	}
	switch p.Kind {
	case sig.KindInt:
		return "INTEGER"
	case sig.KindFloat:
		return "REAL"
	case sig.KindBool:
		return "BOOLEAN"
	default:
		return "TEXT"
	}
}

func (e *Engine) createTable(table string, rt *registry.RecordType) error {
	cols := make([]string, 0, len(rt.Fields))
	for _, f := range rt.Fields {
		cols = append(cols, fmt.Sprintf("%q %s", f.Name, columnType(f.Type)))
	}
	stmt := fmt.Sprintf("CREATE TABLE %q (%s);", table, strings.Join(cols, ", "))
	e.log.Debug().Str("stmt", stmt).Msg("creating table")
	if _, err := e.db.Exec(stmt); err != nil {
		return fmt.Errorf("creating table %s: %w", table, err)
	}
	return nil
}

// LoadData validates YAML data files from a file or directory and inserts
// the resulting records, returning the number inserted.
func (e *Engine) LoadData(path, typeName string) int {
	records, err := yamlio.LoadDataFiles(e.reg, e.rep, path, typeName)
	if err != nil {
		e.log.Error().Err(err).Str("path", path).Msg("data load failed")
		return 0
	}

	count := 0
	for _, rec := range records {
		if err := e.insertRecord(rec); err != nil {
			e.log.Error().Err(err).Str("type", rec.Type.Key().String()).Msg("insert failed")
			e.rep.Failf("failed to insert '%s' record: %v", rec.Type.Key(), err)
			continue
		}
		count++
	}
	if count > 0 {
		e.unsaved = true
	}
	return count
}

func (e *Engine) insertRecord(rec *validate.Record) error {
	table := tableName(rec.Type.Key())
	if _, mapped := e.tableMap[table]; !mapped {
		return fmt.Errorf("no table for type '%s'", rec.Type.Key())
	}

	cols := make([]string, 0, len(rec.Type.Fields))
	marks := make([]string, 0, len(rec.Type.Fields))
	values := make([]any, 0, len(rec.Type.Fields))
	for _, f := range rec.Type.Fields {
		v, ok := rec.Values[f.Name]
		if !ok {
			continue
		}
		sv, err := sqlValue(v)
		if err != nil {
			return err
		}
		cols = append(cols, fmt.Sprintf("%q", f.Name))
		marks = append(marks, "?")
		values = append(values, sv)
	}

	stmt := fmt.Sprintf("INSERT INTO %q (%s) VALUES (%s)",
		table, strings.Join(cols, ", "), strings.Join(marks, ", "))
	if _, err := e.db.Exec(stmt, values...); err != nil {
		return fmt.Errorf("inserting row: %w", err)
	}
	return nil
}

// sqlValue folds a validated field value into a driver-storable one: times
// as ISO strings, compound values as JSON text.
func sqlValue(v any) (any, error) {
	switch t := v.(type) {
	case nil, string, bool, int, int64, float64:
		return v, nil
	case time.Time:
		return t.Format(time.RFC3339), nil
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encoding compound value: %w", err)
		}
		return string(b), nil
	}
}

// Result is one SQL result set: ordered column names and the rows as
// column-keyed maps.
type Result struct {
	Columns []string
	Rows    []map[string]any
}

// ExecuteSQL runs an ad-hoc statement. Queries return a result set;
// mutation statements return nil and mark the database dirty.
func (e *Engine) ExecuteSQL(query string) (*Result, error) {
	trimmed := strings.ToLower(strings.TrimSpace(query))
	for _, prefix := range []string{"insert", "update", "delete", "create", "drop", "alter"} {
		if strings.HasPrefix(trimmed, prefix) {
			if _, err := e.db.Exec(query); err != nil {
				return nil, fmt.Errorf("sql error: %w", err)
			}
			e.unsaved = true
			return nil, nil
		}
	}

	rows, err := e.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("sql error: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("sql error: %w", err)
	}

	result := &Result{Columns: cols}
	for rows.Next() {
		raw := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("sql error: %w", err)
		}
		row := make(map[string]any, len(cols))
		for i, col := range cols {
			if b, ok := raw[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = raw[i]
			}
		}
		result.Rows = append(result.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sql error: %w", err)
	}
	return result, nil
}
