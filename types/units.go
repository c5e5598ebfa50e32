package types

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/holiman/uint256"
)

// NearGas is the host chain compute unit
type NearGas uint64

// EthGas is the EVM gas unit
type EthGas uint64

const (
	// Ggas is 10^9 NearGas
	Ggas NearGas = 1_000_000_000
	// Tgas is 10^12 NearGas
	Tgas NearGas = 1_000 * Ggas
)

func (g NearGas) String() string {
	return strconv.FormatUint(uint64(g), 10)
}

func (g EthGas) String() string {
	return strconv.FormatUint(uint64(g), 10)
}

var ErrYoctoOverflow = errors.New("yocto amount does not fit in 128 bits")

// yoctoPerNear is 10^24
var yoctoPerNear = new(uint256.Int).Exp(uint256.NewInt(10), uint256.NewInt(24))

// NearToYocto converts whole units of the host currency into yocto units
func NearToYocto(near uint64) *uint256.Int {
	return new(uint256.Int).Mul(uint256.NewInt(near), yoctoPerNear)
}

// MilliNearToYocto converts thousandths of the host currency into yocto units
func MilliNearToYocto(milli uint64) *uint256.Int {
	return new(uint256.Int).Div(NearToYocto(milli), uint256.NewInt(1_000))
}

// ParseYocto parses a decimal yocto amount and checks it fits 128 bits
func ParseYocto(str string) (*uint256.Int, error) {
	v, err := uint256.FromDecimal(str)
	if err != nil {
		return nil, fmt.Errorf("invalid yocto amount %q: %w", str, err)
	}

	if !IsU128(v) {
		return nil, ErrYoctoOverflow
	}

	return v, nil
}

// IsU128 returns true if v has no bits set above the 128th
func IsU128(v *uint256.Int) bool {
	return v.BitLen() <= 128
}
