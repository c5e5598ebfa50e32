package sandbox

import (
	"fmt"
	"path/filepath"

	"github.com/hashicorp/go-hclog"

	"github.com/0xPolygon/edge-xcc/helper/common"
	"github.com/0xPolygon/edge-xcc/storage"
	"github.com/0xPolygon/edge-xcc/storage/boltdb"
	"github.com/0xPolygon/edge-xcc/storage/leveldb"
	"github.com/0xPolygon/edge-xcc/storage/memory"
	"github.com/0xPolygon/edge-xcc/storage/pebble"
)

// Backend names a storage implementation
type Backend string

const (
	BackendMemory  Backend = "memory"
	BackendLevelDB Backend = "leveldb"
	BackendBoltDB  Backend = "boltdb"
	BackendPebble  Backend = "pebble"
)

// Backends lists the supported storage backends
var Backends = []Backend{BackendMemory, BackendLevelDB, BackendBoltDB, BackendPebble}

// ParseBackend resolves a backend name
func ParseBackend(name string) (Backend, error) {
	for _, b := range Backends {
		if string(b) == name {
			return b, nil
		}
	}

	return "", fmt.Errorf("unknown storage backend %q", name)
}

// OpenStorage opens the store called name under dataDir. The memory backend
// ignores both.
func OpenStorage(backend Backend, dataDir, name string, logger hclog.Logger) (storage.KV, error) {
	if backend == BackendMemory {
		return memory.NewMemoryStorage(), nil
	}

	if dataDir == "" {
		return nil, fmt.Errorf("backend %s needs a data directory", backend)
	}

	if err := common.SetupDataDir(dataDir, nil); err != nil {
		return nil, err
	}

	path := filepath.Join(dataDir, name)

	switch backend {
	case BackendLevelDB:
		return leveldb.NewLevelDBStorage(path, logger)
	case BackendBoltDB:
		return boltdb.NewBoltDBStorage(path+".db", logger)
	case BackendPebble:
		return pebble.NewPebbleStorage(path, logger)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}
