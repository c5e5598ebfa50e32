package pebble

import (
	"errors"

	"github.com/cockroachdb/pebble"
	"github.com/hashicorp/go-hclog"

	"github.com/0xPolygon/edge-xcc/storage"
)

var _ storage.KV = (*pebbleKV)(nil)

// NewPebbleStorage creates the new storage reference with pebble
func NewPebbleStorage(path string, logger hclog.Logger) (storage.KV, error) {
	opts := &pebble.Options{
		Cache:        pebble.NewCache(16 * 1024 * 1024),
		MemTableSize: 8 * 1024 * 1024,
	}
	defer opts.Cache.Unref()

	db, err := pebble.Open(path, opts)
	if err != nil {
		return nil, err
	}

	logger.Named("pebble").Debug("opened database", "path", path)

	return &pebbleKV{db: db}, nil
}

// pebbleKV is the pebble implementation of the kv storage
type pebbleKV struct {
	db *pebble.DB
}

func (p *pebbleKV) Set(k []byte, v []byte) error {
	return p.db.Set(k, v, pebble.Sync)
}

func (p *pebbleKV) Get(k []byte) ([]byte, bool, error) {
	value, closer, err := p.db.Get(k)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, false, nil
	}

	if err != nil {
		return nil, false, err
	}

	defer closer.Close()

	result := make([]byte, len(value))
	copy(result, value)

	return result, true, nil
}

func (p *pebbleKV) Delete(k []byte) error {
	return p.db.Delete(k, pebble.Sync)
}

func (p *pebbleKV) NewBatch() storage.Batch {
	return &pebbleBatch{batch: p.db.NewBatch()}
}

func (p *pebbleKV) Close() error {
	return p.db.Close()
}

type pebbleBatch struct {
	batch *pebble.Batch
}

func (b *pebbleBatch) Put(k []byte, v []byte) {
	// writes into an in-memory batch only fail once the batch is closed
	_ = b.batch.Set(k, v, nil)
}

func (b *pebbleBatch) Delete(k []byte) {
	_ = b.batch.Delete(k, nil)
}

func (b *pebbleBatch) Write() error {
	defer b.batch.Close()

	return b.batch.Commit(pebble.Sync)
}
