package memory

import (
	"testing"

	"github.com/0xPolygon/edge-xcc/storage"
)

func TestStorage(t *testing.T) {
	storage.TestStorage(t, func(t *testing.T) (storage.KV, func()) {
		t.Helper()

		return NewMemoryStorage(), func() {}
	})
}
