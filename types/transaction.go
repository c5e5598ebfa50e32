package types

import (
	"fmt"

	"github.com/holiman/uint256"
	"github.com/umbracle/fastrlp"

	"github.com/0xPolygon/edge-xcc/helper/keccak"
)

// Transaction is an EVM call submitted to the engine by a trusted relayer.
// It carries the sender explicitly instead of a signature.
type Transaction struct {
	Nonce uint64
	Gas   uint64
	From  Address
	To    *Address
	Value *uint256.Int
	Input []byte
}

// Hash returns the keccak hash of the RLP encoding
func (t *Transaction) Hash() Hash {
	ar := fastrlp.DefaultArenaPool.Get()
	defer fastrlp.DefaultArenaPool.Put(ar)

	var h Hash

	keccak.Keccak256Rlp(h[:0], t.MarshalWith(ar))

	return h
}

// MarshalRLP returns the RLP encoding of the transaction
func (t *Transaction) MarshalRLP() []byte {
	return t.MarshalRLPTo(nil)
}

// MarshalRLPTo appends the RLP encoding of the transaction to dst
func (t *Transaction) MarshalRLPTo(dst []byte) []byte {
	ar := fastrlp.DefaultArenaPool.Get()
	defer fastrlp.DefaultArenaPool.Put(ar)

	return t.MarshalWith(ar).MarshalTo(dst)
}

// MarshalWith marshals the transaction to RLP with a specific fastrlp.Arena
func (t *Transaction) MarshalWith(arena *fastrlp.Arena) *fastrlp.Value {
	vv := arena.NewArray()

	vv.Set(arena.NewUint(t.Nonce))
	vv.Set(arena.NewUint(t.Gas))
	vv.Set(arena.NewCopyBytes(t.From.Bytes()))

	// Address may be empty
	if t.To != nil {
		vv.Set(arena.NewCopyBytes(t.To.Bytes()))
	} else {
		vv.Set(arena.NewNull())
	}

	if t.Value != nil {
		vv.Set(arena.NewCopyBytes(t.Value.Bytes()))
	} else {
		vv.Set(arena.NewNull())
	}

	vv.Set(arena.NewCopyBytes(t.Input))

	return vv
}

// UnmarshalRLP decodes a transaction from its RLP encoding
func (t *Transaction) UnmarshalRLP(input []byte) error {
	pr := fastrlp.DefaultParserPool.Get()
	defer fastrlp.DefaultParserPool.Put(pr)

	v, err := pr.Parse(input)
	if err != nil {
		return err
	}

	return t.UnmarshalRLPFrom(pr, v)
}

// UnmarshalRLPFrom decodes a transaction from a parsed RLP value
func (t *Transaction) UnmarshalRLPFrom(_ *fastrlp.Parser, v *fastrlp.Value) error {
	elems, err := v.GetElems()
	if err != nil {
		return err
	}

	if num := len(elems); num != 6 {
		return fmt.Errorf("incorrect number of elements to decode transaction, expected 6 but found %d", num)
	}

	// nonce
	if t.Nonce, err = elems[0].GetUint64(); err != nil {
		return err
	}

	// gas
	if t.Gas, err = elems[1].GetUint64(); err != nil {
		return err
	}

	// from
	if err = elems[2].GetAddr(t.From[:]); err != nil {
		return err
	}

	// to
	vv, err := elems[3].Bytes()
	if err != nil {
		return err
	}

	switch len(vv) {
	case 0:
		t.To = nil
	case AddressLength:
		addr := BytesToAddress(vv)
		t.To = &addr
	default:
		return fmt.Errorf("invalid recipient length %d", len(vv))
	}

	// value
	vv, err = elems[4].Bytes()
	if err != nil {
		return err
	}

	if len(vv) > 32 {
		return fmt.Errorf("value too large: %d bytes", len(vv))
	}

	t.Value = new(uint256.Int).SetBytes(vv)

	// input
	if t.Input, err = elems[5].GetBytes(t.Input[:0]); err != nil {
		return err
	}

	return nil
}
