// Package postgres provides a PostgreSQL implementation of store.Store for
// deployments that outgrow the embedded SQLite default.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/stackhire/intake-gateway/internal/store"
)

// Ensure Store implements the persistence surface.
var _ store.Store = (*Store)(nil)

// Store implements store.Store for PostgreSQL via the pgx stdlib driver.
type Store struct {
	db *sql.DB
}

// Config holds connection pool settings.
type Config struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// DefaultConfig returns sensible defaults for connection pooling.
func DefaultConfig() Config {
	return Config{
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
		ConnMaxIdleTime: 1 * time.Minute,
	}
}

// New creates a PostgreSQL store with the given DSN.
func New(dsn string, cfg Config) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
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
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS companies (
	id TEXT PRIMARY KEY,
	session_id TEXT NOT NULL UNIQUE,
	data TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
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
		`INSERT INTO chat_sessions (id, messages, created_at, updated_at) VALUES ($1, $2, $3, $4)`,
		sess.ID, sess.Messages, sess.CreatedAt, sess.UpdatedAt)
	if err != nil {
		return store.Session{}, fmt.Errorf("create session: %w", err)
	}
	return sess, nil
}

// ReadSession fetches a session by id.
func (s *Store) ReadSession(ctx context.Context, id string) (store.Session, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, messages, created_at, updated_at FROM chat_sessions WHERE id = $1`, id)
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
	row := s.db.QueryRowContext(ctx, `
UPDATE chat_sessions SET messages = $1, updated_at = $2 WHERE id = $3
RETURNING id, messages, created_at, updated_at`,
		messages, now, id)
	var sess store.Session
	if err := row.Scan(&sess.ID, &sess.Messages, &sess.CreatedAt, &sess.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.Session{}, store.ErrNotFound
		}
		return store.Session{}, fmt.Errorf("update session: %w", err)
	}
	return sess, nil
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

// UpsertCompany creates or overwrites the posting for sessionID atomically.
func (s *Store) UpsertCompany(ctx context.Context, sessionID, data string) (store.Company, error) {
	now := time.Now().UTC()
	row := s.db.QueryRowContext(ctx, `
INSERT INTO companies (id, session_id, data, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (session_id) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at
RETURNING id, session_id, data, created_at, updated_at`,
		store.NewID(), sessionID, data, now, now)
	var c store.Company
	if err := row.Scan(&c.ID, &c.SessionID, &c.Data, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return store.Company{}, fmt.Errorf("upsert company: %w", err)
	}
	return c, nil
}
