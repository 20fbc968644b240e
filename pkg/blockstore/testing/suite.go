package testing

import (
	"context"
	"testing"

	"github.com/blocklake/blocklake/pkg/blockstore"
)

// StoreTestSuite is a reusable test suite for LifecycleStore implementations.
// It tests the interface contract, not implementation details, so the same
// suite runs against every backend (memory, badger, remote namespace, etc.).
//
// Usage:
//
//	func TestMyStore(t *testing.T) {
//	    suite := &testing.StoreTestSuite{
//	        NewStore: func(t *testing.T) blockstore.LifecycleStore {
//	            return mystore.New()
//	        },
//	    }
//	    suite.Run(t)
//	}
type StoreTestSuite struct {
	// NewStore is a factory returning a fresh, unstarted store for each
	// test. A fresh instance per test keeps the tests isolated.
	NewStore func(t *testing.T) blockstore.LifecycleStore
}

// Run executes all tests in the suite.
func (suite *StoreTestSuite) Run(t *testing.T) {
	t.Run("Lifecycle", suite.RunLifecycleTests)
	t.Run("ReadOperations", suite.RunReadTests)
	t.Run("WriteOperations", suite.RunWriteTests)
	t.Run("Enumeration", suite.RunListTests)
}

// testContext returns a standard test context.
func testContext() context.Context {
	return context.Background()
}
