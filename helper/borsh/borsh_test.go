package borsh

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriter_Layout(t *testing.T) {
	t.Parallel()

	w := NewWriter(0)
	w.U8(1)
	w.U32(0x04030201)
	w.U64(7)
	w.String("ab")
	w.U128(uint256.NewInt(0x0102))

	expected := []byte{
		0x01,
		0x01, 0x02, 0x03, 0x04,
		0x07, 0, 0, 0, 0, 0, 0, 0,
		0x02, 0, 0, 0, 'a', 'b',
		0x02, 0x01, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	}

	assert.Equal(t, expected, w.Result())

	r := NewReader(expected)

	u8, err := r.U8()
	require.NoError(t, err)
	assert.Equal(t, uint8(1), u8)

	u32, err := r.U32()
	require.NoError(t, err)
	assert.Equal(t, uint32(0x04030201), u32)

	u64, err := r.U64()
	require.NoError(t, err)
	assert.Equal(t, uint64(7), u64)

	str, err := r.String()
	require.NoError(t, err)
	assert.Equal(t, "ab", str)

	u128, err := r.U128()
	require.NoError(t, err)
	assert.Equal(t, uint64(0x0102), u128.Uint64())

	require.NoError(t, r.Finish())
}

func TestWriter_U128Overflow(t *testing.T) {
	t.Parallel()

	big := new(uint256.Int).Lsh(uint256.NewInt(1), 128)

	assert.PanicsWithValue(t, ErrU128Overflow, func() {
		NewWriter(0).U128(big)
	})
}

func TestReader_Errors(t *testing.T) {
	t.Parallel()

	t.Run("truncated integer", func(t *testing.T) {
		t.Parallel()

		_, err := NewReader([]byte{1, 2}).U32()
		require.ErrorIs(t, err, ErrUnexpectedEOF)
	})

	t.Run("length prefix past the end", func(t *testing.T) {
		t.Parallel()

		_, err := NewReader([]byte{0xff, 0xff, 0xff, 0xff, 'a'}).Bytes()
		require.ErrorIs(t, err, ErrUnexpectedEOF)
	})

	t.Run("invalid utf-8", func(t *testing.T) {
		t.Parallel()

		_, err := NewReader([]byte{2, 0, 0, 0, 0xc3, 0x28}).String()
		require.ErrorIs(t, err, ErrInvalidUTF8)
	})

	t.Run("trailing bytes", func(t *testing.T) {
		t.Parallel()

		r := NewReader([]byte{1, 2})
		_, err := r.U8()
		require.NoError(t, err)
		require.ErrorIs(t, r.Finish(), ErrTrailingBytes)
	})
}
