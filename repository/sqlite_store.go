package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
)

// SQLiteStore keeps every collection as JSON documents in one table.
//
//	documents(id, collection, data)  PRIMARY KEY (id)
//
// Filters are evaluated in process, which suits catalog-sized collections.
type SQLiteStore struct {
	mu sync.RWMutex
	db *sql.DB
}

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS documents (
		id TEXT PRIMARY KEY,
		collection TEXT NOT NULL,
		data TEXT NOT NULL
	)`); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS documents_collection ON documents(collection)`); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Collection(name string) Collection {
	return &sqliteCollection{store: s, name: name}
}

// EnsureUniqueIndex adds a partial expression index over the JSON field.
func (s *SQLiteStore) EnsureUniqueIndex(ctx context.Context, collection, field string) error {
	if !identifier.MatchString(collection) || !identifier.MatchString(field) {
		return fmt.Errorf("invalid index name %s.%s", collection, field)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	stmt := fmt.Sprintf(
		`CREATE UNIQUE INDEX IF NOT EXISTS documents_%[1]s_%[2]s ON documents(json_extract(data, '$.%[2]s')) WHERE collection = '%[1]s'`,
		collection, field,
	)
	if _, err := s.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("create unique index on %s.%s: %w", collection, field, err)
	}
	return nil
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) Close(context.Context) error {
	return s.db.Close()
}

type sqliteCollection struct {
	store *SQLiteStore
	name  string
}

type sqliteRow struct {
	id  string
	doc Document
}

func (c *sqliteCollection) load(ctx context.Context, q interface {
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
}) ([]sqliteRow, error) {
	rows, err := q.QueryContext(ctx, "SELECT id, data FROM documents WHERE collection = ? ORDER BY rowid", c.name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []sqliteRow
	for rows.Next() {
		var id, raw string
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, err
		}
		var doc Document
		if err := json.Unmarshal([]byte(raw), &doc); err != nil {
			return nil, fmt.Errorf("decode document %s: %w", id, err)
		}
		normalizeNumbers(doc)
		doc[InternalIDField] = id
		out = append(out, sqliteRow{id: id, doc: doc})
	}
	return out, rows.Err()
}

func (c *sqliteCollection) Find(ctx context.Context, filter Filter, opts FindOptions) ([]Document, error) {
	c.store.mu.RLock()
	defer c.store.mu.RUnlock()
	rows, err := c.load(ctx, c.store.db)
	if err != nil {
		return nil, err
	}
	docs := make([]Document, len(rows))
	for i, r := range rows {
		docs[i] = r.doc
	}
	return selectDocuments(docs, filter, opts), nil
}

func (c *sqliteCollection) InsertOne(ctx context.Context, doc Document) error {
	return c.InsertMany(ctx, []Document{doc})
}

func (c *sqliteCollection) InsertMany(ctx context.Context, docs []Document) error {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	tx, err := c.store.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	for _, doc := range docs {
		id := uuid.NewString()
		if v, ok := doc[InternalIDField].(string); ok && v != "" {
			id = v
		}
		body := copyDocument(doc)
		delete(body, InternalIDField)
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO documents (id, collection, data) VALUES (?, ?, ?)",
			id, c.name, string(raw),
		); err != nil {
			return translateSQLiteError(err)
		}
	}
	return tx.Commit()
}

func translateSQLiteError(err error) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) &&
		(sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique || sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey) {
		return ErrDuplicateKey
	}
	return err
}

func (c *sqliteCollection) UpdateMany(ctx context.Context, filter Filter, set Document) (int64, error) {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	tx, err := c.store.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()
	rows, err := c.load(ctx, tx)
	if err != nil {
		return 0, err
	}
	var modified int64
	for _, r := range rows {
		if !matches(r.doc, filter) || !applySet(r.doc, set) {
			continue
		}
		delete(r.doc, InternalIDField)
		raw, err := json.Marshal(r.doc)
		if err != nil {
			return 0, err
		}
		if _, err := tx.ExecContext(ctx, "UPDATE documents SET data = ? WHERE id = ?", string(raw), r.id); err != nil {
			return 0, translateSQLiteError(err)
		}
		modified++
	}
	return modified, tx.Commit()
}

func (c *sqliteCollection) DeleteMany(ctx context.Context, filter Filter) (int64, error) {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	tx, err := c.store.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()
	rows, err := c.load(ctx, tx)
	if err != nil {
		return 0, err
	}
	var deleted int64
	for _, r := range rows {
		if !matches(r.doc, filter) {
			continue
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", r.id); err != nil {
			return 0, err
		}
		deleted++
	}
	return deleted, tx.Commit()
}

func (c *sqliteCollection) Distinct(ctx context.Context, field string) ([]interface{}, error) {
	c.store.mu.RLock()
	defer c.store.mu.RUnlock()
	rows, err := c.store.db.QueryContext(ctx,
		"SELECT DISTINCT json_extract(data, ?) FROM documents WHERE collection = ? AND json_extract(data, ?) IS NOT NULL",
		"$."+field, c.name, "$."+field,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []interface{}
	for rows.Next() {
		var v interface{}
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		if b, ok := v.([]byte); ok {
			v = string(b)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
