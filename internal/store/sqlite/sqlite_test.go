package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hasti-ptl/Krishisahayk/internal/store"
	"github.com/hasti-ptl/Krishisahayk/internal/store/storetest"
)

func TestStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		s, err := Open(context.Background(), filepath.Join(t.TempDir(), "krishi.db"))
		require.NoError(t, err)
		t.Cleanup(func() { s.Close() })
		return s
	})
}

func TestOpen_ReopenKeepsDataAndSkipsApplied(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "krishi.db")

	s1, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s1.Append(ctx, "krishi_transactions", []byte(`{"amount":100}`)))
	require.NoError(t, s1.Close())

	s2, err := Open(ctx, path)
	require.NoError(t, err)
	defer s2.Close()

	got, err := s2.ListAll(ctx, "krishi_transactions")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.JSONEq(t, `{"amount":100}`, string(got[0]))
	require.NoError(t, s2.Ping(ctx))
}
