package store_test

import (
	"testing"

	"github.com/hasti-ptl/Krishisahayk/internal/store"
	"github.com/hasti-ptl/Krishisahayk/internal/store/storetest"
)

func TestMemory(t *testing.T) {
	storetest.Run(t, func(*testing.T) store.Store { return store.NewMemory() })
}
