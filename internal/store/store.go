// Package store defines the persistence contract for intake sessions and the
// company postings extracted from them.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound indicates the requested record does not exist.
var ErrNotFound = errors.New("record not found")

// Session is a persisted intake conversation: an opaque serialized transcript
// plus identity and timestamps. The transcript always begins with exactly one
// system entry; ids are never reused.
type Session struct {
	ID        string
	Messages  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Company holds the validated job-posting payload extracted from a session.
// At most one record exists per session; later extractions overwrite it.
type Company struct {
	ID        string
	SessionID string
	Data      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewID mints a globally unique record identifier.
func NewID() string {
	return uuid.New().String()
}

// SessionStore persists conversation transcripts.
type SessionStore interface {
	CreateSession(ctx context.Context, messages string) (Session, error)
	ReadSession(ctx context.Context, id string) (Session, error)
	// UpdateSessionMessages overwrites the transcript blob and returns the
	// updated record. ErrNotFound when id is unknown.
	UpdateSessionMessages(ctx context.Context, id, messages string) (Session, error)
}

// CompanyStore persists extracted postings keyed by session.
type CompanyStore interface {
	ListCompanies(ctx context.Context) ([]Company, error)
	// UpsertCompany atomically creates or overwrites the posting for
	// sessionID. It never fails on an existing record.
	UpsertCompany(ctx context.Context, sessionID, data string) (Company, error)
}

// Store is the full persistence surface the service needs.
type Store interface {
	SessionStore
	CompanyStore
	Close() error
}
