package xcc

import (
	"fmt"
	"math"

	"github.com/holiman/uint256"

	"github.com/0xPolygon/edge-xcc/types"
)

const (
	// CrossContractCallBase is the fixed EVM gas charged by the precompile
	CrossContractCallBase types.EthGas = 4_883

	// CrossContractCallByte is the EVM gas charged per input byte
	CrossContractCallByte types.EthGas = 4

	// CrossContractCallNearGas is the host gas one EVM gas unit stands for
	CrossContractCallNearGas uint64 = 175_000_000

	// RouterExec is the gas the router may spend on execute, on top of the forwarded gas
	RouterExec = 7 * types.Tgas

	// RouterSchedule is the gas the router may spend on schedule, not counting
	// the promise bytes
	RouterSchedule = 5 * types.Tgas

	// RouterScheduleByte is added to RouterSchedule per promise byte. It covers
	// the host input and storage write costs of one byte.
	RouterScheduleByte types.NearGas = 1_000_000_000

	// InitializeGas is attached to the router initialize call
	InitializeGas = 15 * types.Tgas

	// UnwrapAndRefundGas is attached to the router unwrap_and_refund_storage call
	UnwrapAndRefundGas = 25 * types.Tgas

	// WithdrawToRouterGas is attached to the token transfer funding a new router
	WithdrawToRouterGas = 10 * types.Tgas

	// RegisterGas is attached by the router to its storage_deposit call
	RegisterGas = 5 * types.Tgas

	// WithdrawGas is attached by the router to its near_withdraw call
	WithdrawGas = 5 * types.Tgas

	// MaxAttachedGas bounds the gas a single promise may forward. It equals
	// the prepaid gas of one host function call.
	MaxAttachedGas = 300 * types.Tgas

	// MaxTotalGas bounds the gas forwarded by all calls of a promise, the
	// router running them spends RouterExec out of the same prepaid gas
	MaxTotalGas = MaxAttachedGas - RouterExec
)

var (
	// RouterStorageAmount is the stake a new router account is funded with, 2 whole units
	RouterStorageAmount = types.NearToYocto(2)

	// RouterRegisterDeposit is attached to storage_deposit, 0.00125 units
	RouterRegisterDeposit = new(uint256.Int).Div(types.MilliNearToYocto(5), uint256.NewInt(4))
)

// Cost returns the EVM gas charged for an input of the given size
func Cost(inputLen int) types.EthGas {
	return CrossContractCallBase + CrossContractCallByte*types.EthGas(inputLen)
}

// ScheduleGas returns the gas attached to a schedule call carrying a promise
// of the given encoded size
func ScheduleGas(promiseLen int) types.NearGas {
	return RouterSchedule + RouterScheduleByte*types.NearGas(promiseLen)
}

// Sample is the host gas burnt by one bridging call of a given input size
type Sample struct {
	InputLen int
	NearGas  types.NearGas
}

// Calibration holds the cost coefficients fitted from samples, in EVM gas
type Calibration struct {
	Base    float64
	PerByte float64
}

// Calibrate fits cost(L) = base + per_byte*L through two samples. baseline is
// the host gas of a plain call and is not part of the bridging cost.
func Calibrate(baseline types.NearGas, s1, s2 Sample) (Calibration, error) {
	if s1.InputLen == s2.InputLen {
		return Calibration{}, fmt.Errorf("samples need different input lengths, both are %d", s1.InputLen)
	}

	x1, y1 := float64(s1.InputLen), float64(s1.NearGas)
	x2, y2 := float64(s2.InputLen), float64(s2.NearGas)

	perByte := (y2 - y1) / (x2 - x1)
	base := y1 - perByte*x1 - float64(baseline)
	ratio := float64(CrossContractCallNearGas)

	return Calibration{
		Base:    base / ratio,
		PerByte: perByte / ratio,
	}, nil
}

// Check fails if the fitted coefficients differ from the configured ones by more than percent
func (c Calibration) Check(percent float64) error {
	if !WithinPercent(percent, c.Base, float64(CrossContractCallBase)) {
		return fmt.Errorf("base cost %.2f is not within %.0f%% of %d", c.Base, percent, CrossContractCallBase)
	}

	if !WithinPercent(percent, c.PerByte, float64(CrossContractCallByte)) {
		return fmt.Errorf("per byte cost %.2f is not within %.0f%% of %d", c.PerByte, percent, CrossContractCallByte)
	}

	return nil
}

// WithinPercent reports whether a and b differ by at most percent of the larger one
func WithinPercent(percent, a, b float64) bool {
	larger := math.Max(a, b)
	smaller := math.Min(a, b)

	return (larger-smaller)*100 <= percent*larger
}
