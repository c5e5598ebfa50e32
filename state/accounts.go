package state

import (
	"encoding/binary"
	"fmt"

	"github.com/holiman/uint256"

	"github.com/0xPolygon/edge-xcc/storage"
	"github.com/0xPolygon/edge-xcc/types"
)

// GetNonce returns the nonce of addr. Nonces are stored as 8 bytes big endian.
func (txn *Txn) GetNonce(addr types.Address) (uint64, error) {
	v, ok, err := txn.Get(storage.AddressToKey(storage.KeyPrefixNonce, addr))
	if err != nil || !ok {
		return 0, err
	}

	if len(v) != 8 {
		return 0, fmt.Errorf("corrupted nonce of %s: %d bytes", addr, len(v))
	}

	return binary.BigEndian.Uint64(v), nil
}

func (txn *Txn) SetNonce(addr types.Address, nonce uint64) {
	txn.Set(storage.AddressToKey(storage.KeyPrefixNonce, addr), binary.BigEndian.AppendUint64(nil, nonce))
}

// GetBalance returns the balance of addr. Balances are stored as 32 bytes big endian.
func (txn *Txn) GetBalance(addr types.Address) (*uint256.Int, error) {
	v, ok, err := txn.Get(storage.AddressToKey(storage.KeyPrefixBalance, addr))
	if err != nil {
		return nil, err
	}

	if !ok {
		return new(uint256.Int), nil
	}

	return new(uint256.Int).SetBytes(v), nil
}

func (txn *Txn) SetBalance(addr types.Address, balance *uint256.Int) {
	b := balance.Bytes32()
	txn.Set(storage.AddressToKey(storage.KeyPrefixBalance, addr), b[:])
}

func (txn *Txn) GetCode(addr types.Address) ([]byte, error) {
	v, _, err := txn.Get(storage.AddressToKey(storage.KeyPrefixCode, addr))

	return v, err
}

func (txn *Txn) SetCode(addr types.Address, code []byte) {
	txn.Set(storage.AddressToKey(storage.KeyPrefixCode, addr), code)
}

// GetGeneration returns the storage generation of addr, 0 if never bumped
func (txn *Txn) GetGeneration(addr types.Address) (uint32, error) {
	v, ok, err := txn.Get(storage.AddressToKey(storage.KeyPrefixGeneration, addr))
	if err != nil || !ok {
		return 0, err
	}

	if len(v) != 4 {
		return 0, fmt.Errorf("corrupted generation of %s: %d bytes", addr, len(v))
	}

	return binary.LittleEndian.Uint32(v), nil
}

func (txn *Txn) setGeneration(addr types.Address, generation uint32) {
	txn.Set(storage.AddressToKey(storage.KeyPrefixGeneration, addr), binary.LittleEndian.AppendUint32(nil, generation))
}

// GetStorage returns a storage slot of addr at its current generation
func (txn *Txn) GetStorage(addr types.Address, slot types.Hash) (types.Hash, error) {
	generation, err := txn.GetGeneration(addr)
	if err != nil {
		return types.ZeroHash, err
	}

	v, ok, err := txn.Get(storage.StorageToKey(addr, slot, generation))
	if err != nil || !ok {
		return types.ZeroHash, err
	}

	return types.BytesToHash(v), nil
}

// SetStorage writes a storage slot of addr at its current generation.
// Writing the zero value removes the slot.
func (txn *Txn) SetStorage(addr types.Address, slot types.Hash, value types.Hash) error {
	generation, err := txn.GetGeneration(addr)
	if err != nil {
		return err
	}

	key := storage.StorageToKey(addr, slot, generation)

	if value == types.ZeroHash {
		txn.Delete(key)
	} else {
		txn.Set(key, value[:])
	}

	return nil
}

// RemoveAccount deletes the account of addr. Its storage is invalidated by
// moving to the next generation; the old slots are left behind unreachable.
func (txn *Txn) RemoveAccount(addr types.Address) error {
	generation, err := txn.GetGeneration(addr)
	if err != nil {
		return err
	}

	txn.Delete(storage.AddressToKey(storage.KeyPrefixNonce, addr))
	txn.Delete(storage.AddressToKey(storage.KeyPrefixBalance, addr))
	txn.Delete(storage.AddressToKey(storage.KeyPrefixCode, addr))
	txn.setGeneration(addr, generation+1)

	return nil
}

// GetRelayer returns the EVM address registered for a relayer account
func (txn *Txn) GetRelayer(account types.AccountID) (types.Address, bool, error) {
	v, ok, err := txn.Get(storage.BytesToKey(storage.KeyPrefixRelayerEvmAddressMap, []byte(account)))
	if err != nil || !ok {
		return types.ZeroAddress, false, err
	}

	return types.BytesToAddress(v), true, nil
}

func (txn *Txn) SetRelayer(account types.AccountID, addr types.Address) {
	txn.Set(storage.BytesToKey(storage.KeyPrefixRelayerEvmAddressMap, []byte(account)), addr[:])
}

// SetTokenPair links a bridged token account to its ERC-20 address in both directions
func (txn *Txn) SetTokenPair(nep141 types.AccountID, erc20 types.Address) {
	txn.Set(storage.BytesToKey(storage.KeyPrefixNep141Erc20Map, []byte(nep141)), erc20[:])
	txn.Set(storage.AddressToKey(storage.KeyPrefixErc20Nep141Map, erc20), []byte(nep141))
}

func (txn *Txn) GetERC20(nep141 types.AccountID) (types.Address, bool, error) {
	v, ok, err := txn.Get(storage.BytesToKey(storage.KeyPrefixNep141Erc20Map, []byte(nep141)))
	if err != nil || !ok {
		return types.ZeroAddress, false, err
	}

	return types.BytesToAddress(v), true, nil
}

func (txn *Txn) GetNEP141(erc20 types.Address) (types.AccountID, bool, error) {
	v, ok, err := txn.Get(storage.AddressToKey(storage.KeyPrefixErc20Nep141Map, erc20))
	if err != nil || !ok {
		return "", false, err
	}

	return types.AccountID(v), true, nil
}

// ConfigKey returns the key of a named engine setting, optionally qualified by suffix
func ConfigKey(name string, suffix ...byte) []byte {
	return storage.BytesToKey(storage.KeyPrefixConfig, append([]byte(name), suffix...))
}
