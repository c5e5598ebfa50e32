package state

import (
	"github.com/hashicorp/go-hclog"
	lru "github.com/hashicorp/golang-lru"

	"github.com/0xPolygon/edge-xcc/storage"
)

const defaultCacheSize = 4096

// State is the committed view over a key value storage. Reads are served
// from a bounded cache in front of the storage.
type State struct {
	logger hclog.Logger
	kv     storage.KV
	cache  *lru.Cache
}

type cachedValue struct {
	value []byte
	found bool
}

// NewState creates a committed state on top of kv
func NewState(kv storage.KV, logger hclog.Logger) (*State, error) {
	cache, err := lru.New(defaultCacheSize)
	if err != nil {
		return nil, err
	}

	return &State{
		logger: logger.Named("state"),
		kv:     kv,
		cache:  cache,
	}, nil
}

// Get returns the committed value of key
func (s *State) Get(key []byte) ([]byte, bool, error) {
	if v, ok := s.cache.Get(string(key)); ok {
		if c, ok := v.(cachedValue); ok {
			return c.value, c.found, nil
		}
	}

	value, found, err := s.kv.Get(key)
	if err != nil {
		return nil, false, err
	}

	s.cache.Add(string(key), cachedValue{value: value, found: found})

	return value, found, nil
}

// NewTxn returns a fresh write set over the state
func (s *State) NewTxn() *Txn {
	return newTxn(s)
}

// Close closes the underlying storage
func (s *State) Close() error {
	s.cache.Purge()

	return s.kv.Close()
}
