package remotens

import (
	"testing"
	"time"

	"github.com/blocklake/blocklake/pkg/blockstore"
	storetesting "github.com/blocklake/blocklake/pkg/blockstore/testing"
	"github.com/blocklake/blocklake/pkg/namespace/localfs"
	nsmemory "github.com/blocklake/blocklake/pkg/namespace/memory"
	"github.com/spf13/afero"
)

func suiteConfig() Config {
	return Config{
		Root:          "/blocks/",
		ProbeInterval: time.Millisecond,
		PageSize:      3, // small pages so the suite crosses page boundaries
	}
}

func TestContractOverMemoryNamespace(t *testing.T) {
	suite := &storetesting.StoreTestSuite{
		NewStore: func(t *testing.T) blockstore.LifecycleStore {
			return New(nsmemory.New(nsmemory.Config{}), suiteConfig())
		},
	}
	suite.Run(t)
}

func TestContractOverLaggyMemoryNamespace(t *testing.T) {
	suite := &storetesting.StoreTestSuite{
		NewStore: func(t *testing.T) blockstore.LifecycleStore {
			return New(nsmemory.New(nsmemory.Config{VisibilityLag: 2}), suiteConfig())
		},
	}
	suite.Run(t)
}

func TestContractOverLocalFilesystem(t *testing.T) {
	suite := &storetesting.StoreTestSuite{
		NewStore: func(t *testing.T) blockstore.LifecycleStore {
			return New(localfs.New(afero.NewMemMapFs()), suiteConfig())
		},
	}
	suite.Run(t)
}
