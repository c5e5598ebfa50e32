package memory

import (
	"sync"

	"github.com/0xPolygon/edge-xcc/helper/hex"
	"github.com/0xPolygon/edge-xcc/storage"
)

var _ storage.KV = (*memoryKV)(nil)

// NewMemoryStorage creates the new storage reference with inmemory
func NewMemoryStorage() storage.KV {
	return &memoryKV{db: map[string][]byte{}}
}

// memoryKV is an in memory implementation of the kv storage
type memoryKV struct {
	lock sync.RWMutex
	db   map[string][]byte
}

func (m *memoryKV) Set(p []byte, v []byte) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.db[hex.EncodeToHex(p)] = copyBytes(v)

	return nil
}

func (m *memoryKV) Get(p []byte) ([]byte, bool, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()

	v, ok := m.db[hex.EncodeToHex(p)]
	if !ok {
		return nil, false, nil
	}

	return copyBytes(v), true, nil
}

func (m *memoryKV) Delete(p []byte) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	delete(m.db, hex.EncodeToHex(p))

	return nil
}

func (m *memoryKV) NewBatch() storage.Batch {
	return &memoryBatch{kv: m}
}

func (m *memoryKV) Close() error {
	return nil
}

type memoryOp struct {
	key    string
	value  []byte
	delete bool
}

type memoryBatch struct {
	kv  *memoryKV
	ops []memoryOp
}

func (b *memoryBatch) Put(k []byte, v []byte) {
	b.ops = append(b.ops, memoryOp{key: hex.EncodeToHex(k), value: copyBytes(v)})
}

func (b *memoryBatch) Delete(k []byte) {
	b.ops = append(b.ops, memoryOp{key: hex.EncodeToHex(k), delete: true})
}

func (b *memoryBatch) Write() error {
	b.kv.lock.Lock()
	defer b.kv.lock.Unlock()

	for _, op := range b.ops {
		if op.delete {
			delete(b.kv.db, op.key)
		} else {
			b.kv.db[op.key] = op.value
		}
	}

	b.ops = nil

	return nil
}

func copyBytes(b []byte) []byte {
	if b == nil {
		return []byte{}
	}

	c := make([]byte, len(b))
	copy(c, b)

	return c
}
