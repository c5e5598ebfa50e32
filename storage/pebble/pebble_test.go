package pebble

import (
	"os"
	"testing"

	"github.com/hashicorp/go-hclog"

	"github.com/0xPolygon/edge-xcc/storage"
)

func newStorage(t *testing.T) (storage.KV, func()) {
	t.Helper()

	path, err := os.MkdirTemp("", "xcc_pebble")
	if err != nil {
		t.Fatal(err)
	}

	s, err := NewPebbleStorage(path, hclog.NewNullLogger())
	if err != nil {
		t.Fatal(err)
	}

	closeFn := func() {
		if err := s.Close(); err != nil {
			t.Fatal(err)
		}

		if err := os.RemoveAll(path); err != nil {
			t.Fatal(err)
		}
	}

	return s, closeFn
}

func TestStorage(t *testing.T) {
	storage.TestStorage(t, newStorage)
}
