package keccak

import (
	"hash"

	"github.com/umbracle/fastrlp"
	"golang.org/x/crypto/sha3"
)

// Keccak is the legacy (pre-NIST) keccak-256 hash
type Keccak struct {
	buf  []byte
	hash hash.Hash
}

// NewKeccak256 returns a new keccak-256 hasher
func NewKeccak256() *Keccak {
	return &Keccak{hash: sha3.NewLegacyKeccak256()}
}

// WriteRlp hashes the RLP encoding of v and appends the digest to dst
func (k *Keccak) WriteRlp(dst []byte, v *fastrlp.Value) []byte {
	k.buf = v.MarshalTo(k.buf[:0])
	k.Write(k.buf)

	return k.Sum(dst)
}

// Write implements the hash interface
func (k *Keccak) Write(b []byte) (int, error) {
	return k.hash.Write(b)
}

// Reset implements the hash interface
func (k *Keccak) Reset() {
	k.buf = k.buf[:0]
	k.hash.Reset()
}

// Sum implements the hash interface
func (k *Keccak) Sum(dst []byte) []byte {
	return k.hash.Sum(dst)
}
