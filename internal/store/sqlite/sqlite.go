// Package sqlite provides the default on-disk store backed by SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/stackhire/intake-gateway/internal/store"
)

// Ensure Store implements the persistence surface.
var _ store.Store = (*Store)(nil)

// Store implements store.Store backed by SQLite.
type Store struct {
	db *sql.DB
}

// New opens (or creates) a SQLite store at the supplied path.
func New(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initSchema() error {
	const schema = `
CREATE TABLE IF NOT EXISTS chat_sessions (
	id TEXT PRIMARY KEY,
	messages TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS companies (
	id TEXT PRIMARY KEY,
	session_id TEXT NOT NULL UNIQUE,
	data TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_companies_session ON companies(session_id);
`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Close releases underlying resources.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateSession inserts a new session with the supplied transcript blob.
func (s *Store) CreateSession(ctx context.Context, messages string) (store.Session, error) {
	now := time.Now().UTC()
	sess := store.Session{
		ID:        store.NewID(),
		Messages:  messages,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO chat_sessions (id, messages, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		sess.ID, sess.Messages, sess.CreatedAt, sess.UpdatedAt)
	if err != nil {
		return store.Session{}, fmt.Errorf("create session: %w", err)
	}
	return sess, nil
}

// ReadSession fetches a session by id.
func (s *Store) ReadSession(ctx context.Context, id string) (store.Session, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, messages, created_at, updated_at FROM chat_sessions WHERE id = ?`, id)
	var sess store.Session
	if err := row.Scan(&sess.ID, &sess.Messages, &sess.CreatedAt, &sess.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.Session{}, store.ErrNotFound
		}
		return store.Session{}, fmt.Errorf("read session: %w", err)
	}
	return sess, nil
}

// UpdateSessionMessages overwrites the transcript blob.
func (s *Store) UpdateSessionMessages(ctx context.Context, id, messages string) (store.Session, error) {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`UPDATE chat_sessions SET messages = ?, updated_at = ? WHERE id = ?`,
		messages, now, id)
	if err != nil {
		return store.Session{}, fmt.Errorf("update session: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return store.Session{}, fmt.Errorf("update session: %w", err)
	}
	if affected == 0 {
		return store.Session{}, store.ErrNotFound
	}
	return s.ReadSession(ctx, id)
}

// ListCompanies returns all extracted postings.
func (s *Store) ListCompanies(ctx context.Context) ([]store.Company, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, data, created_at, updated_at FROM companies ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	defer rows.Close()

	var companies []store.Company
	for rows.Next() {
		var c store.Company
		if err := rows.Scan(&c.ID, &c.SessionID, &c.Data, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan company: %w", err)
		}
		companies = append(companies, c)
	}
	return companies, rows.Err()
}

// UpsertCompany creates or overwrites the posting for sessionID in one
// statement; no create-then-recover branch.
func (s *Store) UpsertCompany(ctx context.Context, sessionID, data string) (store.Company, error) {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
INSERT INTO companies (id, session_id, data, created_at, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(session_id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		store.NewID(), sessionID, data, now, now)
	if err != nil {
		return store.Company{}, fmt.Errorf("upsert company: %w", err)
	}
	return s.readCompanyBySession(ctx, sessionID)
}

func (s *Store) readCompanyBySession(ctx context.Context, sessionID string) (store.Company, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, session_id, data, created_at, updated_at FROM companies WHERE session_id = ?`, sessionID)
	var c store.Company
	if err := row.Scan(&c.ID, &c.SessionID, &c.Data, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.Company{}, store.ErrNotFound
		}
		return store.Company{}, fmt.Errorf("read company: %w", err)
	}
	return c, nil
}
