// Package borsh implements the subset of the borsh binary layout used by the
// cross-contract call wire format: little-endian fixed width integers and
// u32 length-prefixed byte strings.
package borsh

import (
	"encoding/binary"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/holiman/uint256"
)

var (
	ErrUnexpectedEOF = errors.New("borsh: unexpected end of input")
	ErrTrailingBytes = errors.New("borsh: trailing bytes")
	ErrInvalidUTF8   = errors.New("borsh: string is not valid utf-8")
	ErrU128Overflow  = errors.New("borsh: value does not fit in u128")
)

// Writer appends borsh encoded values to a buffer
type Writer struct {
	buf []byte
}

// NewWriter returns a writer with the given initial capacity
func NewWriter(capacity int) *Writer {
	return &Writer{buf: make([]byte, 0, capacity)}
}

func (w *Writer) U8(v uint8) {
	w.buf = append(w.buf, v)
}

func (w *Writer) U32(v uint32) {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, v)
}

func (w *Writer) U64(v uint64) {
	w.buf = binary.LittleEndian.AppendUint64(w.buf, v)
}

// U128 writes the low 16 bytes of v. It panics if v does not fit.
func (w *Writer) U128(v *uint256.Int) {
	if v == nil {
		v = new(uint256.Int)
	}

	if v.BitLen() > 128 {
		panic(ErrU128Overflow)
	}

	w.buf = binary.LittleEndian.AppendUint64(w.buf, v[0])
	w.buf = binary.LittleEndian.AppendUint64(w.buf, v[1])
}

func (w *Writer) Bytes(b []byte) {
	w.U32(uint32(len(b)))
	w.buf = append(w.buf, b...)
}

func (w *Writer) String(s string) {
	w.U32(uint32(len(s)))
	w.buf = append(w.buf, s...)
}

// Result returns the encoded buffer
func (w *Writer) Result() []byte {
	return w.buf
}

// Reader consumes borsh encoded values from a buffer
type Reader struct {
	buf []byte
	pos int
}

func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

func (r *Reader) next(n int) ([]byte, error) {
	if n < 0 || len(r.buf)-r.pos < n {
		return nil, fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrUnexpectedEOF, n, r.pos, len(r.buf)-r.pos)
	}

	b := r.buf[r.pos : r.pos+n]
	r.pos += n

	return b, nil
}

func (r *Reader) U8() (uint8, error) {
	b, err := r.next(1)
	if err != nil {
		return 0, err
	}

	return b[0], nil
}

func (r *Reader) U32() (uint32, error) {
	b, err := r.next(4)
	if err != nil {
		return 0, err
	}

	return binary.LittleEndian.Uint32(b), nil
}

func (r *Reader) U64() (uint64, error) {
	b, err := r.next(8)
	if err != nil {
		return 0, err
	}

	return binary.LittleEndian.Uint64(b), nil
}

func (r *Reader) U128() (*uint256.Int, error) {
	b, err := r.next(16)
	if err != nil {
		return nil, err
	}

	v := new(uint256.Int)
	v[0] = binary.LittleEndian.Uint64(b[:8])
	v[1] = binary.LittleEndian.Uint64(b[8:])

	return v, nil
}

// Bytes reads a length-prefixed byte string. The result is a copy.
func (r *Reader) Bytes() ([]byte, error) {
	size, err := r.U32()
	if err != nil {
		return nil, err
	}

	// compare in uint64 so a huge prefix never wraps
	if uint64(size) > uint64(len(r.buf)-r.pos) {
		return nil, fmt.Errorf("%w: length prefix %d exceeds remaining %d bytes", ErrUnexpectedEOF, size, len(r.buf)-r.pos)
	}

	b, err := r.next(int(size))
	if err != nil {
		return nil, err
	}

	out := make([]byte, len(b))
	copy(out, b)

	return out, nil
}

// String reads a length-prefixed UTF-8 string
func (r *Reader) String() (string, error) {
	b, err := r.Bytes()
	if err != nil {
		return "", err
	}

	if !utf8.Valid(b) {
		return "", ErrInvalidUTF8
	}

	return string(b), nil
}

// Remaining returns the number of unread bytes
func (r *Reader) Remaining() int {
	return len(r.buf) - r.pos
}

// Finish fails if any input is left unread
func (r *Reader) Finish() error {
	if n := r.Remaining(); n != 0 {
		return fmt.Errorf("%w: %d bytes left", ErrTrailingBytes, n)
	}

	return nil
}
