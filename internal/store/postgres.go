package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
)

// PostgresDocStore keeps documents in a single JSONB table. Field-level
// writes go through jsonb_set / #- inside one UPDATE, which makes them
// atomic per statement.
type PostgresDocStore struct {
	db *sql.DB
}

// NewPostgresDocStore wraps an open connection.
func NewPostgresDocStore(db *sql.DB) *PostgresDocStore {
	return &PostgresDocStore{db: db}
}

// EnsureSchema creates the documents table if missing.
func (s *PostgresDocStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS documents (
			key        TEXT PRIMARY KEY,
			doc        JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	return err
}

// Get unmarshals the document at key into out.
func (s *PostgresDocStore) Get(ctx context.Context, key string, out any) error {
	var raw []byte
	row := s.db.QueryRowContext(ctx, `SELECT doc FROM documents WHERE key = $1`, key)
	if err := row.Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	return json.Unmarshal(raw, out)
}

// Upsert replaces or creates the whole document.
func (s *PostgresDocStore) Upsert(ctx context.Context, key string, doc any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents (key, doc)
		VALUES ($1, $2::jsonb)
		ON CONFLICT (key) DO UPDATE SET doc = EXCLUDED.doc, updated_at = NOW()
	`, key, string(raw))
	return err
}

// UpsertField sets one path inside an existing document.
func (s *PostgresDocStore) UpsertField(ctx context.Context, key string, path []string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE documents
		SET doc = jsonb_set(doc, $2::text[], $3::jsonb, true), updated_at = NOW()
		WHERE key = $1
	`, key, pgTextArray(path), string(raw))
	if err != nil {
		return err
	}
	return requireRow(res)
}

// DeleteField removes one path; deleting from a missing document fails
// with ErrNotFound, deleting a missing path succeeds.
func (s *PostgresDocStore) DeleteField(ctx context.Context, key string, path []string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE documents
		SET doc = doc #- $2::text[], updated_at = NOW()
		WHERE key = $1
	`, key, pgTextArray(path))
	if err != nil {
		return err
	}
	return requireRow(res)
}

// ListPrefix returns raw documents for keys beginning with prefix.
func (s *PostgresDocStore) ListPrefix(ctx context.Context, prefix string) ([]json.RawMessage, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT doc FROM documents WHERE key LIKE $1 || '%' ORDER BY key`, prefix)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []json.RawMessage
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		out = append(out, json.RawMessage(raw))
	}
	return out, rows.Err()
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// pgTextArray renders a path as a Postgres text[] literal. Path
// elements are identifiers and uuids, so quoting each is enough.
func pgTextArray(path []string) string {
	quoted := make([]string, len(path))
	for i, p := range path {
		quoted[i] = `"` + strings.ReplaceAll(p, `"`, `\"`) + `"`
	}
	return "{" + strings.Join(quoted, ",") + "}"
}
