package kvstore_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/dinner-theater-booking/internal/kvstore"
)

func exerciseStore(t *testing.T, s kvstore.Store) {
	ctx := context.Background()

	_, err := s.Get(ctx, "missing")
	assert.ErrorIs(t, err, kvstore.ErrNotFound)

	require.NoError(t, s.Set(ctx, "cfg", []byte(`{"a":1}`)))
	v, err := s.Get(ctx, "cfg")
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(v))

	require.NoError(t, s.Set(ctx, "cfg", []byte(`{"a":2}`)))
	v, err = s.Get(ctx, "cfg")
	require.NoError(t, err)
	assert.Equal(t, `{"a":2}`, string(v))
}

func TestMemory(t *testing.T) {
	exerciseStore(t, kvstore.NewMemory())
}

func TestMemory_CopiesValues(t *testing.T) {
	m := kvstore.NewMemory()
	buf := []byte("abc")
	require.NoError(t, m.Set(context.Background(), "k", buf))
	buf[0] = 'x'
	v, err := m.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(v))
}

func TestSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "settings.db")
	s, err := kvstore.OpenSQLite(path)
	require.NoError(t, err)
	defer s.Close()
	exerciseStore(t, s)

	// values survive reopening the file
	require.NoError(t, s.Close())
	s2, err := kvstore.OpenSQLite(path)
	require.NoError(t, err)
	defer s2.Close()
	v, err := s2.Get(context.Background(), "cfg")
	require.NoError(t, err)
	assert.Equal(t, `{"a":2}`, string(v))
}
