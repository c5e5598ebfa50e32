package storage

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/0xPolygon/edge-xcc/types"
)

func TestKeyPrefix_RoundTrip(t *testing.T) {
	t.Parallel()

	for i, p := range KeyPrefixes {
		require.Equal(t, byte(i), byte(p))
		require.Equal(t, p, KeyPrefixFromByte(byte(p)))

		parsed, err := ParseKeyPrefix(p.String())
		require.NoError(t, err)
		require.Equal(t, p, parsed)
	}
}

func TestKeyPrefixFromByte_Undefined(t *testing.T) {
	t.Parallel()

	for b := 0x0a; b <= 0xff; b++ {
		b := byte(b)

		require.False(t, IsValidKeyPrefix(b))
		require.PanicsWithValue(t, "BUG: undefined key prefix 0x"+hexByte(b), func() {
			KeyPrefixFromByte(b)
		})
	}
}

func hexByte(b byte) string {
	const digits = "0123456789abcdef"

	if b < 0x10 {
		return string(digits[b])
	}

	return string([]byte{digits[b>>4], digits[b&0xf]})
}

func TestKeyLayout(t *testing.T) {
	t.Parallel()

	addr := types.StringToAddress("0x1122334455667788990011223344556677889900")

	assert.Equal(t, []byte{0x7, 0x0, 'a', 'b'}, BytesToKey(KeyPrefixConfig, []byte("ab")))

	key := AddressToKey(KeyPrefixNonce, addr)
	require.Len(t, key, AddressKeyLength)
	assert.Equal(t, []byte{0x7, 0x1}, key[:2])
	assert.Equal(t, addr[:], key[2:])

	blob := ContractBlobStorageKey(addr, 0x01020304)
	require.Len(t, blob, 26)
	assert.Equal(t, []byte{0x7, 0x4}, blob[:2])
	assert.Equal(t, addr[:], blob[2:22])
	assert.Equal(t, []byte{0x04, 0x03, 0x02, 0x01}, blob[22:])

	slot := types.StringToHash("0xff")
	full := StorageToKey(addr, slot, 0x01020304)
	require.Len(t, full, StorageKeyLength)
	assert.True(t, bytes.HasPrefix(full, blob))
	assert.Equal(t, slot[:], full[26:])

	assert.Equal(t, []byte{0x7, 0x6, 0x2}, EthConnectorKey(EthConnectorUsedEvent))
}

func TestKeyNamespace(t *testing.T) {
	t.Parallel()

	p, ok := KeyNamespace(BytesToKey(KeyPrefixGeneration, nil))
	require.True(t, ok)
	assert.Equal(t, KeyPrefixGeneration, p)

	_, ok = KeyNamespace([]byte{0x7, 0x0a})
	assert.False(t, ok)

	_, ok = KeyNamespace([]byte{0x8, 0x0})
	assert.False(t, ok)

	_, ok = KeyNamespace([]byte{0x7})
	assert.False(t, ok)
}

func TestKeys_Injective(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		p1 := rapid.SampledFrom(KeyPrefixes).Draw(t, "p1")
		p2 := rapid.SampledFrom(KeyPrefixes).Draw(t, "p2")
		b1 := rapid.SliceOf(rapid.Byte()).Draw(t, "b1")
		b2 := rapid.SliceOf(rapid.Byte()).Draw(t, "b2")

		same := p1 == p2 && bytes.Equal(b1, b2)
		if bytes.Equal(BytesToKey(p1, b1), BytesToKey(p2, b2)) != same {
			t.Fatalf("keys collide: %v %x / %v %x", p1, b1, p2, b2)
		}
	})
}

func TestStorageToKey_Injective(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		a1 := types.BytesToAddress(rapid.SliceOfN(rapid.Byte(), 20, 20).Draw(t, "a1"))
		a2 := types.BytesToAddress(rapid.SliceOfN(rapid.Byte(), 20, 20).Draw(t, "a2"))
		g1 := rapid.Uint32().Draw(t, "g1")
		g2 := rapid.Uint32().Draw(t, "g2")
		s1 := types.BytesToHash(rapid.SliceOfN(rapid.Byte(), 32, 32).Draw(t, "s1"))
		s2 := types.BytesToHash(rapid.SliceOfN(rapid.Byte(), 32, 32).Draw(t, "s2"))

		same := a1 == a2 && g1 == g2 && s1 == s2
		if bytes.Equal(StorageToKey(a1, s1, g1), StorageToKey(a2, s2, g2)) != same {
			t.Fatalf("storage keys collide")
		}
	})
}
