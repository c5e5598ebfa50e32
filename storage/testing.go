package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xPolygon/edge-xcc/types"
)

type PlaceholderStorage func(t *testing.T) (KV, func())

var (
	addr1 = types.StringToAddress("1")
	addr2 = types.StringToAddress("2")

	slot1 = types.StringToHash("1")
)

// TestStorage tests a set of tests on a storage
func TestStorage(t *testing.T, m PlaceholderStorage) {
	t.Helper()

	t.Run("testSetGet", func(t *testing.T) {
		testSetGet(t, m)
	})
	t.Run("testDelete", func(t *testing.T) {
		testDelete(t, m)
	})
	t.Run("testBatch", func(t *testing.T) {
		testBatch(t, m)
	})
	t.Run("testValueIsolation", func(t *testing.T) {
		testValueIsolation(t, m)
	})
	t.Run("testGenerationKeys", func(t *testing.T) {
		testGenerationKeys(t, m)
	})
}

func testSetGet(t *testing.T, m PlaceholderStorage) {
	t.Helper()

	s, closeFn := m(t)
	defer closeFn()

	key := AddressToKey(KeyPrefixNonce, addr1)

	_, ok, err := s.Get(key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(key, []byte{1}))

	v, ok, err := s.Get(key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte{1}, v)

	require.NoError(t, s.Set(key, []byte{2, 3}))

	v, ok, err = s.Get(key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte{2, 3}, v)

	// same payload in another namespace is another key
	_, ok, err = s.Get(AddressToKey(KeyPrefixBalance, addr1))
	require.NoError(t, err)
	assert.False(t, ok)
}

func testDelete(t *testing.T, m PlaceholderStorage) {
	t.Helper()

	s, closeFn := m(t)
	defer closeFn()

	key := AddressToKey(KeyPrefixCode, addr1)

	require.NoError(t, s.Set(key, []byte{0xaa}))
	require.NoError(t, s.Delete(key))

	_, ok, err := s.Get(key)
	require.NoError(t, err)
	assert.False(t, ok)

	// deleting a missing key is not an error
	require.NoError(t, s.Delete(AddressToKey(KeyPrefixCode, addr2)))
}

func testBatch(t *testing.T, m PlaceholderStorage) {
	t.Helper()

	s, closeFn := m(t)
	defer closeFn()

	stale := AddressToKey(KeyPrefixBalance, addr2)
	require.NoError(t, s.Set(stale, []byte{9}))

	b := s.NewBatch()
	b.Put(AddressToKey(KeyPrefixBalance, addr1), []byte{1})
	b.Put(BytesToKey(KeyPrefixConfig, []byte("name")), []byte("value"))
	b.Delete(stale)

	// nothing is visible before the batch is written
	_, ok, err := s.Get(AddressToKey(KeyPrefixBalance, addr1))
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, b.Write())

	v, ok, err := s.Get(AddressToKey(KeyPrefixBalance, addr1))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte{1}, v)

	v, ok, err = s.Get(BytesToKey(KeyPrefixConfig, []byte("name")))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("value"), v)

	_, ok, err = s.Get(stale)
	require.NoError(t, err)
	assert.False(t, ok)
}

func testValueIsolation(t *testing.T, m PlaceholderStorage) {
	t.Helper()

	s, closeFn := m(t)
	defer closeFn()

	key := BytesToKey(KeyPrefixConfig, []byte("k"))
	value := []byte{1, 2, 3}

	require.NoError(t, s.Set(key, value))
	value[0] = 0xff

	v, _, err := s.Get(key)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, v)

	v[1] = 0xff

	v, _, err = s.Get(key)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, v)
}

func testGenerationKeys(t *testing.T, m PlaceholderStorage) {
	t.Helper()

	s, closeFn := m(t)
	defer closeFn()

	require.NoError(t, s.Set(StorageToKey(addr1, slot1, 0), []byte{1}))

	// a bumped generation sees an empty storage without touching the old entries
	_, ok, err := s.Get(StorageToKey(addr1, slot1, 1))
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = s.Get(StorageToKey(addr1, slot1, 0))
	require.NoError(t, err)
	assert.True(t, ok)
}
