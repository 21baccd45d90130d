package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hasti-ptl/Krishisahayk/internal/store"
	"github.com/hasti-ptl/Krishisahayk/internal/store/storetest"
)

func TestStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		s, err := New(t.TempDir())
		require.NoError(t, err)
		return s
	})
}

func TestStore_PersistsAcrossInstances(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	dir := t.TempDir()

	s1, err := New(dir)
	require.NoError(t, err)
	require.NoError(t, s1.Append(ctx, "krishi_activities", []byte(`{"id":1}`)))

	s2, err := New(dir)
	require.NoError(t, err)
	got, err := s2.ListAll(ctx, "krishi_activities")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.JSONEq(t, `{"id":1}`, string(got[0]))

	matches, err := filepath.Glob(filepath.Join(dir, "*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, matches, "no temp files left behind")
}

func TestStore_RejectsBadKeysAndPayloads(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s, err := New(t.TempDir())
	require.NoError(t, err)

	assert.Error(t, s.Append(ctx, "../escape", []byte(`{}`)))
	assert.Error(t, s.Put(ctx, "a/b", []byte(`{}`)))
	assert.Error(t, s.Append(ctx, "krishi_log", []byte(`not json`)))
}

func TestStore_CorruptLogIsAnError(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	dir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "krishi_log.log.json"), []byte("{"), 0o644))
	s, err := New(dir)
	require.NoError(t, err)

	_, err = s.ListAll(ctx, "krishi_log")
	assert.Error(t, err)
	require.NoError(t, s.Ping(ctx))
}
