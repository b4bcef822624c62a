// Package library keeps imported workflows in a SQLite database so they can
// be rendered or served by id.
package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/msalah0e/flowcanvas/internal/workflow"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when no workflow has the requested id.
var ErrNotFound = errors.New("workflow not found")

// Entry is one library row without the workflow body.
type Entry struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Nodes       int       `json:"nodes"`
	Links       int       `json:"links"`
	Source      string    `json:"source,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Store is a workflow library backed by SQLite.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (creating if needed) the library database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open library %s: %w", path, err)
	}
	s, err := NewStore(db)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open library %s: %w", path, err)
	}
	return s, nil
}

// NewStore initializes the schema in db and returns a Store. The caller
// keeps ownership of db unless it closes the Store.
func NewStore(db *sql.DB) (*Store, error) {
	// SQLite allows one writer; a single connection also keeps :memory:
	// databases from splitting per connection.
	db.SetMaxOpenConns(1)
	s := &Store{db: db, now: time.Now}
	if err := s.initSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS workflows (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			nodes INTEGER NOT NULL,
			links INTEGER NOT NULL,
			source TEXT NOT NULL DEFAULT '',
			body BLOB NOT NULL,
			updated_at INTEGER NOT NULL
		);`,
	)
	return err
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// Put inserts or replaces a workflow. source records where it came from.
func (s *Store) Put(ctx context.Context, w workflow.Workflow, source string) error {
	if w.ID == "" {
		return fmt.Errorf("put %q: workflow has no id", w.Name)
	}
	body, err := workflow.Encode(w, workflow.FormatJSON)
	if err != nil {
		return err
	}
	g := workflow.BuildGraph(w)
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO workflows (id, name, description, nodes, links, source, body, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			nodes = excluded.nodes,
			links = excluded.links,
			source = excluded.source,
			body = excluded.body,
			updated_at = excluded.updated_at`,
		w.ID,
		w.Name,
		w.Description,
		len(w.Nodes),
		len(g.Links),
		source,
		body,
		s.now().UnixMilli(),
	)
	return err
}

// Get loads a workflow by id.
func (s *Store) Get(ctx context.Context, id string) (workflow.Workflow, error) {
	var body []byte
	err := s.db.QueryRowContext(ctx, `SELECT body FROM workflows WHERE id = ?`, id).Scan(&body)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return workflow.Workflow{}, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return workflow.Workflow{}, err
	}
	w, err := workflow.Decode(body, workflow.FormatJSON)
	if err != nil {
		return workflow.Workflow{}, fmt.Errorf("decode %s: %w", id, err)
	}
	return w, nil
}

// List returns every entry ordered by name, then id.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description, nodes, links, source, updated_at
		FROM workflows
		ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var updated int64
		if err := rows.Scan(&e.ID, &e.Name, &e.Description, &e.Nodes, &e.Links, &e.Source, &updated); err != nil {
			return nil, err
		}
		e.UpdatedAt = time.UnixMilli(updated).UTC()
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// Remove deletes a workflow by id.
func (s *Store) Remove(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM workflows WHERE id = ?`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}
