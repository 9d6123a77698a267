package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackhire/intake-gateway/internal/store"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "intake.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSessionLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sess, err := s.CreateSession(ctx, `[{"role":"system","content":"prompt"}]`)
	require.NoError(t, err)
	assert.NotEmpty(t, sess.ID)
	assert.False(t, sess.CreatedAt.IsZero())

	got, err := s.ReadSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, got.ID)
	assert.Equal(t, sess.Messages, got.Messages)

	updated, err := s.UpdateSessionMessages(ctx, sess.ID, `[{"role":"system","content":"prompt"},{"role":"assistant","content":"hi"}]`)
	require.NoError(t, err)
	assert.Contains(t, updated.Messages, "assistant")
	assert.False(t, updated.UpdatedAt.Before(sess.UpdatedAt))
}

func TestReadUnknownSession(t *testing.T) {
	s := newTestStore(t)
	_, err := s.ReadSession(context.Background(), "no-such-id")
	assert.True(t, errors.Is(err, store.ErrNotFound))
}

func TestUpdateUnknownSession(t *testing.T) {
	s := newTestStore(t)
	_, err := s.UpdateSessionMessages(context.Background(), "no-such-id", "x")
	assert.True(t, errors.Is(err, store.ErrNotFound))
}

func TestUpsertCompanyOverwrites(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first, err := s.UpsertCompany(ctx, "session-1", `{"v":1}`)
	require.NoError(t, err)

	second, err := s.UpsertCompany(ctx, "session-1", `{"v":2}`)
	require.NoError(t, err)

	// overwrite, not append: same record, new payload
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, `{"v":2}`, second.Data)

	companies, err := s.ListCompanies(ctx)
	require.NoError(t, err)
	require.Len(t, companies, 1)
	assert.Equal(t, "session-1", companies[0].SessionID)
}

func TestListCompaniesEmpty(t *testing.T) {
	s := newTestStore(t)
	companies, err := s.ListCompanies(context.Background())
	require.NoError(t, err)
	assert.Empty(t, companies)
}

func TestSessionIDsAreUnique(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		sess, err := s.CreateSession(ctx, "[]")
		require.NoError(t, err)
		assert.False(t, seen[sess.ID], "duplicate id %s", sess.ID)
		seen[sess.ID] = true
	}
}
