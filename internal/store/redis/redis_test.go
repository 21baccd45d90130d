package redis

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/hasti-ptl/Krishisahayk/internal/store"
	"github.com/hasti-ptl/Krishisahayk/internal/store/storetest"
)

// Runs against a real server; set KRISHI_TEST_REDIS_ADDR to enable.
func TestStore(t *testing.T) {
	addr := os.Getenv("KRISHI_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("KRISHI_TEST_REDIS_ADDR not set")
	}

	storetest.Run(t, func(t *testing.T) store.Store {
		s, err := New(context.Background(), Config{Addr: addr, Prefix: "test:" + uuid.NewString() + ":"})
		require.NoError(t, err)
		t.Cleanup(func() { s.Close() })
		return s
	})
}
