package storage

// KV is a key value storage interface
type KV interface {
	Get(k []byte) ([]byte, bool, error)
	Set(k []byte, v []byte) error
	Delete(k []byte) error
	NewBatch() Batch
	Close() error
}

// Batch groups writes so they are applied together or not at all
type Batch interface {
	Put(k []byte, v []byte)
	Delete(k []byte)
	Write() error
}
