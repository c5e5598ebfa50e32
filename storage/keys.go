package storage

import (
	"encoding/binary"
	"fmt"

	"github.com/0xPolygon/edge-xcc/types"
)

// VersionPrefix is the first byte of every key and identifies the key layout
type VersionPrefix byte

const (
	VersionPrefixV1 VersionPrefix = 0x7
)

// KeyPrefix is the second byte of every key and identifies its namespace
type KeyPrefix byte

const (
	KeyPrefixConfig               KeyPrefix = 0x0
	KeyPrefixNonce                KeyPrefix = 0x1
	KeyPrefixBalance              KeyPrefix = 0x2
	KeyPrefixCode                 KeyPrefix = 0x3
	KeyPrefixStorage              KeyPrefix = 0x4
	KeyPrefixRelayerEvmAddressMap KeyPrefix = 0x5
	KeyPrefixEthConnector         KeyPrefix = 0x6
	KeyPrefixGeneration           KeyPrefix = 0x7
	KeyPrefixNep141Erc20Map       KeyPrefix = 0x8
	KeyPrefixErc20Nep141Map       KeyPrefix = 0x9
)

// KeyPrefixes lists every defined namespace in byte order
var KeyPrefixes = []KeyPrefix{
	KeyPrefixConfig,
	KeyPrefixNonce,
	KeyPrefixBalance,
	KeyPrefixCode,
	KeyPrefixStorage,
	KeyPrefixRelayerEvmAddressMap,
	KeyPrefixEthConnector,
	KeyPrefixGeneration,
	KeyPrefixNep141Erc20Map,
	KeyPrefixErc20Nep141Map,
}

// IsValidKeyPrefix returns true if b is a defined namespace byte
func IsValidKeyPrefix(b byte) bool {
	return b <= byte(KeyPrefixErc20Nep141Map)
}

// KeyPrefixFromByte decodes a namespace byte. Namespace bytes never come from
// user input, so an undefined value is a programming error and panics.
func KeyPrefixFromByte(b byte) KeyPrefix {
	if !IsValidKeyPrefix(b) {
		panic(fmt.Sprintf("BUG: undefined key prefix 0x%x", b))
	}

	return KeyPrefix(b)
}

func (k KeyPrefix) String() string {
	switch k {
	case KeyPrefixConfig:
		return "config"
	case KeyPrefixNonce:
		return "nonce"
	case KeyPrefixBalance:
		return "balance"
	case KeyPrefixCode:
		return "code"
	case KeyPrefixStorage:
		return "storage"
	case KeyPrefixRelayerEvmAddressMap:
		return "relayer_evm_address_map"
	case KeyPrefixEthConnector:
		return "eth_connector"
	case KeyPrefixGeneration:
		return "generation"
	case KeyPrefixNep141Erc20Map:
		return "nep141_erc20_map"
	case KeyPrefixErc20Nep141Map:
		return "erc20_nep141_map"
	default:
		panic("BUG: key prefix not found")
	}
}

// ParseKeyPrefix resolves a namespace by its name
func ParseKeyPrefix(name string) (KeyPrefix, error) {
	for _, p := range KeyPrefixes {
		if p.String() == name {
			return p, nil
		}
	}

	return 0, fmt.Errorf("unknown key prefix %q", name)
}

// EthConnectorStorageID addresses the legacy connector entries under KeyPrefixEthConnector
type EthConnectorStorageID byte

const (
	EthConnectorContract EthConnectorStorageID = iota
	EthConnectorFungibleToken
	EthConnectorUsedEvent
	EthConnectorPausedMask
	EthConnectorStatisticsAccountsCounter
	EthConnectorFungibleTokenMetadata
)

const (
	// AddressKeyLength is the size of AddressToKey keys
	AddressKeyLength = 2 + types.AddressLength

	// ContractBlobKeyLength is the size of ContractBlobStorageKey keys
	ContractBlobKeyLength = AddressKeyLength + 4

	// StorageKeyLength is the size of StorageToKey keys
	StorageKeyLength = ContractBlobKeyLength + types.HashLength
)

// BytesToKey returns version ++ prefix ++ payload
func BytesToKey(prefix KeyPrefix, payload []byte) []byte {
	key := make([]byte, 2+len(payload))
	key[0] = byte(VersionPrefixV1)
	key[1] = byte(prefix)
	copy(key[2:], payload)

	return key
}

// AddressToKey returns the 22 byte key of an address in the given namespace
func AddressToKey(prefix KeyPrefix, addr types.Address) []byte {
	return BytesToKey(prefix, addr[:])
}

// ContractBlobStorageKey returns the 26 byte key prefixing all storage of addr at generation
func ContractBlobStorageKey(addr types.Address, generation uint32) []byte {
	key := make([]byte, ContractBlobKeyLength)
	key[0] = byte(VersionPrefixV1)
	key[1] = byte(KeyPrefixStorage)
	copy(key[2:], addr[:])
	binary.LittleEndian.PutUint32(key[AddressKeyLength:], generation)

	return key
}

// StorageToKey returns the key of one storage slot of addr at generation
func StorageToKey(addr types.Address, slot types.Hash, generation uint32) []byte {
	key := make([]byte, StorageKeyLength)
	copy(key, ContractBlobStorageKey(addr, generation))
	copy(key[ContractBlobKeyLength:], slot[:])

	return key
}

// EthConnectorKey returns the key of a legacy connector entry
func EthConnectorKey(id EthConnectorStorageID) []byte {
	return BytesToKey(KeyPrefixEthConnector, []byte{byte(id)})
}

// KeyNamespace returns the namespace of a key and whether it is well formed
func KeyNamespace(key []byte) (KeyPrefix, bool) {
	if len(key) < 2 || key[0] != byte(VersionPrefixV1) || !IsValidKeyPrefix(key[1]) {
		return 0, false
	}

	return KeyPrefix(key[1]), true
}
