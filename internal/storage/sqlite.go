// Package storage persists assembled graphs in a local SQLite database so
// scanning and exporting can run as separate commands.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"py2uml/internal/graph"
)

type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates or opens a SQLite database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS modules (
			id TEXT PRIMARY KEY,
			position INTEGER,
			functions JSON,
			imports JSON
		);`,
		`CREATE TABLE IF NOT EXISTS classes (
			id TEXT PRIMARY KEY,
			name TEXT,
			module TEXT,
			position INTEGER,
			methods JSON,
			attributes JSON,
			bases JSON
		);`,
		`CREATE INDEX IF NOT EXISTS idx_classes_module ON classes(module);`,
	}
	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

// SaveGraph replaces the stored graph with g. Positions record the
// assembler's deterministic node order so a load reproduces it exactly.
func (s *SQLiteStore) SaveGraph(ctx context.Context, g *graph.Graph, title string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"modules", "classes"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO meta (key, value) VALUES ('title', ?)
		ON CONFLICT(key) DO UPDATE SET value=excluded.value
	`, title); err != nil {
		return err
	}

	modStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO modules (id, position, functions, imports) VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer modStmt.Close()

	for i, m := range g.Modules {
		functions, _ := json.Marshal(m.Functions)
		imports, _ := json.Marshal(m.Imports)
		if _, err := modStmt.ExecContext(ctx, m.ID, i, functions, imports); err != nil {
			return fmt.Errorf("failed to save module %s: %w", m.ID, err)
		}
	}

	classStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO classes (id, name, module, position, methods, attributes, bases)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer classStmt.Close()

	for i, c := range g.Classes {
		methods, _ := json.Marshal(c.Methods)
		attributes, _ := json.Marshal(c.Attributes)
		bases, _ := json.Marshal(c.Bases)
		if _, err := classStmt.ExecContext(ctx, c.ID, c.Name, c.Module, i, methods, attributes, bases); err != nil {
			return fmt.Errorf("failed to save class %s: %w", c.ID, err)
		}
	}

	return tx.Commit()
}

// LoadGraph reconstructs the stored graph and its title.
func (s *SQLiteStore) LoadGraph(ctx context.Context) (*graph.Graph, string, error) {
	g := &graph.Graph{}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, functions, imports FROM modules ORDER BY position
	`)
	if err != nil {
		return nil, "", err
	}
	defer rows.Close()

	for rows.Next() {
		m := &graph.ModuleNode{}
		var functions, imports []byte
		if err := rows.Scan(&m.ID, &functions, &imports); err != nil {
			return nil, "", err
		}
		if err := unmarshalJSON(functions, &m.Functions); err != nil {
			return nil, "", fmt.Errorf("module %s: %w", m.ID, err)
		}
		if err := unmarshalJSON(imports, &m.Imports); err != nil {
			return nil, "", fmt.Errorf("module %s: %w", m.ID, err)
		}
		g.Modules = append(g.Modules, m)
	}
	if err := rows.Err(); err != nil {
		return nil, "", err
	}

	classRows, err := s.db.QueryContext(ctx, `
		SELECT id, name, module, methods, attributes, bases FROM classes ORDER BY position
	`)
	if err != nil {
		return nil, "", err
	}
	defer classRows.Close()

	for classRows.Next() {
		c := &graph.ClassNode{}
		var methods, attributes, bases []byte
		if err := classRows.Scan(&c.ID, &c.Name, &c.Module, &methods, &attributes, &bases); err != nil {
			return nil, "", err
		}
		if err := unmarshalJSON(methods, &c.Methods); err != nil {
			return nil, "", fmt.Errorf("class %s: %w", c.ID, err)
		}
		if err := unmarshalJSON(attributes, &c.Attributes); err != nil {
			return nil, "", fmt.Errorf("class %s: %w", c.ID, err)
		}
		if err := unmarshalJSON(bases, &c.Bases); err != nil {
			return nil, "", fmt.Errorf("class %s: %w", c.ID, err)
		}
		g.Classes = append(g.Classes, c)
	}
	if err := classRows.Err(); err != nil {
		return nil, "", err
	}

	// Membership lists are derived, not stored.
	for _, c := range g.Classes {
		for _, m := range g.Modules {
			if m.ID == c.Module {
				m.Classes = append(m.Classes, c.ID)
				break
			}
		}
	}

	var title string
	err = s.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = 'title'`).Scan(&title)
	if err != nil && err != sql.ErrNoRows {
		return nil, "", err
	}

	g.Reindex()
	if err := g.Validate(); err != nil {
		return nil, "", fmt.Errorf("stored graph failed validation: %w", err)
	}
	return g, title, nil
}

func unmarshalJSON[T any](data []byte, out *T) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, out)
}
