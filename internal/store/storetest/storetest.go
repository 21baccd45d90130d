// Package storetest checks a store.Store implementation against the
// behaviour every backend must share.
package storetest

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hasti-ptl/Krishisahayk/internal/store"
)

// Run exercises a fresh store from newStore in each subtest.
func Run(t *testing.T, newStore func(t *testing.T) store.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("list unknown key is empty", func(t *testing.T) {
		s := newStore(t)
		got, err := s.ListAll(ctx, "krishi_nothing")
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("list is newest first", func(t *testing.T) {
		s := newStore(t)
		for i := 1; i <= 3; i++ {
			require.NoError(t, s.Append(ctx, "krishi_log", []byte(fmt.Sprintf(`{"n":%d}`, i))))
		}
		require.NoError(t, s.Append(ctx, "krishi_other", []byte(`{"n":99}`)))

		got, err := s.ListAll(ctx, "krishi_log")
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.JSONEq(t, `{"n":3}`, string(got[0]))
		assert.JSONEq(t, `{"n":2}`, string(got[1]))
		assert.JSONEq(t, `{"n":1}`, string(got[2]))
	})

	t.Run("get missing is not found", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Get(ctx, "krishi_cache")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("put overwrites", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Put(ctx, "krishi_cache", []byte(`{"v":1}`)))
		require.NoError(t, s.Put(ctx, "krishi_cache", []byte(`{"v":2}`)))

		got, err := s.Get(ctx, "krishi_cache")
		require.NoError(t, err)
		assert.JSONEq(t, `{"v":2}`, string(got))
	})

	t.Run("json helpers", func(t *testing.T) {
		s := newStore(t)
		type entry struct {
			Crop string `json:"crop"`
		}
		require.NoError(t, store.AppendJSON(ctx, s, "krishi_json", entry{Crop: "Rice"}))
		require.NoError(t, store.AppendJSON(ctx, s, "krishi_json", entry{Crop: "Wheat"}))

		got, err := store.ListJSON[entry](ctx, s, "krishi_json")
		require.NoError(t, err)
		assert.Equal(t, []entry{{Crop: "Wheat"}, {Crop: "Rice"}}, got)

		require.NoError(t, store.PutJSON(ctx, s, "krishi_json_value", entry{Crop: "Maize"}))
		var v entry
		require.NoError(t, store.GetJSON(ctx, s, "krishi_json_value", &v))
		assert.Equal(t, "Maize", v.Crop)
	})

	t.Run("concurrent appends are all kept", func(t *testing.T) {
		s := newStore(t)
		const n = 20
		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				assert.NoError(t, s.Append(ctx, "krishi_race", []byte(fmt.Sprintf(`{"n":%d}`, i))))
			}(i)
		}
		wg.Wait()

		got, err := s.ListAll(ctx, "krishi_race")
		require.NoError(t, err)
		assert.Len(t, got, n)
	})
}
