package state

import (
	"bytes"
	"fmt"

	"github.com/armon/go-metrics"
	iradix "github.com/hashicorp/go-immutable-radix"

	"github.com/0xPolygon/edge-xcc/storage"
)

// entry is a pending write. A nil value is a deletion.
type entry struct {
	value []byte
}

// Txn is a set of pending writes over the committed state
type Txn struct {
	state     *State
	snapshots []*iradix.Tree
	txn       *iradix.Txn
}

// newTxn creates a new state reference
func newTxn(state *State) *Txn {
	i := iradix.New()

	return &Txn{
		state:     state,
		snapshots: []*iradix.Tree{},
		txn:       i.Txn(),
	}
}

// Get returns the value of key including the pending writes
func (txn *Txn) Get(key []byte) ([]byte, bool, error) {
	if v, ok := txn.txn.Get(key); ok {
		e, _ := v.(*entry)
		if e.value == nil {
			return nil, false, nil
		}

		return bytes.Clone(e.value), true, nil
	}

	return txn.state.Get(key)
}

// Set writes value under key
func (txn *Txn) Set(key, value []byte) {
	if value == nil {
		value = []byte{}
	}

	txn.txn.Insert(key, &entry{value: bytes.Clone(value)})
}

// Delete removes key
func (txn *Txn) Delete(key []byte) {
	txn.txn.Insert(key, &entry{})
}

// Snapshot takes a snapshot at this point in time
func (txn *Txn) Snapshot() int {
	t := txn.txn.CommitOnly()

	id := len(txn.snapshots)
	txn.snapshots = append(txn.snapshots, t)

	return id
}

// RevertToSnapshot reverts to a given snapshot
func (txn *Txn) RevertToSnapshot(id int) {
	if id >= len(txn.snapshots) {
		panic(fmt.Sprintf("BUG: snapshot %d not found", id))
	}

	tree := txn.snapshots[id]
	txn.txn = tree.Txn()
	txn.snapshots = txn.snapshots[:id]
}

// Len returns the number of pending writes
func (txn *Txn) Len() int {
	return txn.txn.CommitOnly().Len()
}

// Commit writes every pending entry to storage in a single batch and
// returns the number of entries written
func (txn *Txn) Commit() (int, error) {
	tree := txn.txn.CommitOnly()
	batch := txn.state.kv.NewBatch()
	count := 0

	tree.Root().Walk(func(k []byte, v interface{}) bool {
		e, _ := v.(*entry)
		if e.value == nil {
			batch.Delete(k)
		} else {
			batch.Put(k, e.value)
		}

		count++

		metrics.IncrCounterWithLabels([]string{"state", "commit", "writes"}, 1,
			[]metrics.Label{{Name: "namespace", Value: namespaceLabel(k)}})

		return false
	})

	if err := batch.Write(); err != nil {
		return 0, err
	}

	tree.Root().Walk(func(k []byte, v interface{}) bool {
		e, _ := v.(*entry)
		txn.state.cache.Add(string(k), cachedValue{value: e.value, found: e.value != nil})

		return false
	})

	txn.Discard()

	return count, nil
}

// Discard drops every pending write
func (txn *Txn) Discard() {
	txn.txn = iradix.New().Txn()
	txn.snapshots = txn.snapshots[:0]
}

func namespaceLabel(key []byte) string {
	if p, ok := storage.KeyNamespace(key); ok {
		return p.String()
	}

	return "other"
}
