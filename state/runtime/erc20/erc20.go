package erc20

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
	"github.com/umbracle/ethgo"
	"github.com/umbracle/ethgo/abi"

	"github.com/0xPolygon/edge-xcc/helper/keccak"
	"github.com/0xPolygon/edge-xcc/state/runtime"
	"github.com/0xPolygon/edge-xcc/types"
)

var (
	BalanceOfMethod    = abi.MustNewMethod("function balanceOf(address owner) returns (uint256)")
	AllowanceMethod    = abi.MustNewMethod("function allowance(address owner, address spender) returns (uint256)")
	TotalSupplyMethod  = abi.MustNewMethod("function totalSupply() returns (uint256)")
	ApproveMethod      = abi.MustNewMethod("function approve(address spender, uint256 amount) returns (bool)")
	TransferMethod     = abi.MustNewMethod("function transfer(address to, uint256 amount) returns (bool)")
	TransferFromMethod = abi.MustNewMethod("function transferFrom(address from, address to, uint256 amount) returns (bool)")
	BurnMethod         = abi.MustNewMethod("function burn(uint256 amount)")

	TransferEvent = abi.MustNewEvent("event Transfer(address indexed from, address indexed to, uint256 value)")
	ApprovalEvent = abi.MustNewEvent("event Approval(address indexed owner, address indexed spender, uint256 value)")
)

var (
	ErrInsufficientBalance   = errors.New("erc20: transfer amount exceeds balance")
	ErrInsufficientAllowance = errors.New("erc20: insufficient allowance")
	ErrUnknownSelector       = errors.New("erc20: unknown method selector")
	ErrWriteProtection       = errors.New("erc20: state change in a static call")
	ErrValueNotAccepted      = errors.New("erc20: method is not payable")
)

// Gas charged per method
const (
	readGas  uint64 = 2_600
	writeGas uint64 = 30_000
)

// Storage layout of the token, compatible with a Solidity ERC-20
var (
	balancesSlot    = types.BytesToHash([]byte{0})
	allowancesSlot  = types.BytesToHash([]byte{1})
	TotalSupplySlot = types.BytesToHash([]byte{2})
)

// Registry tells which addresses hold bridged tokens. Lookups are not metered.
type Registry interface {
	IsToken(addr types.Address) bool
}

var _ runtime.Runtime = (*ERC20)(nil)

// ERC20 is the runtime of the bridged fungible tokens
type ERC20 struct{}

func NewERC20() *ERC20 {
	return &ERC20{}
}

func (e *ERC20) Name() string {
	return "erc20"
}

// CanRun implements the runtime interface
func (e *ERC20) CanRun(c *runtime.Contract, host runtime.Host) bool {
	registry, ok := host.(Registry)

	return ok && registry.IsToken(c.CodeAddress)
}

type handler struct {
	method *abi.Method
	gas    uint64
	write  bool
	run    func(c *runtime.Contract, host runtime.Host, args map[string]interface{}) ([]interface{}, error)
}

var handlers = map[string]*handler{}

func register(method *abi.Method, gas uint64, write bool, run func(*runtime.Contract, runtime.Host, map[string]interface{}) ([]interface{}, error)) {
	handlers[string(method.ID())] = &handler{method: method, gas: gas, write: write, run: run}
}

func init() {
	register(BalanceOfMethod, readGas, false, balanceOf)
	register(AllowanceMethod, readGas, false, allowance)
	register(TotalSupplyMethod, readGas, false, totalSupply)
	register(ApproveMethod, writeGas, true, approve)
	register(TransferMethod, writeGas, true, transfer)
	register(TransferFromMethod, writeGas, true, transferFrom)
	register(BurnMethod, writeGas, true, burn)
}

// Run implements the runtime interface
func (e *ERC20) Run(c *runtime.Contract, host runtime.Host) *runtime.ExecutionResult {
	ret, err := e.run(c, host)

	result := &runtime.ExecutionResult{
		ReturnValue: ret,
		GasLeft:     c.Gas,
		Err:         err,
	}

	if result.Failed() {
		result.ReturnValue = nil

		if errors.Is(err, runtime.ErrOutOfGas) {
			result.GasLeft = 0
		}
	}

	return result
}

func (e *ERC20) run(c *runtime.Contract, host runtime.Host) ([]byte, error) {
	if len(c.Input) < 4 {
		return nil, runtime.ErrInvalidInputData
	}

	h, ok := handlers[string(c.Input[:4])]
	if !ok {
		return nil, fmt.Errorf("%w: %w 0x%x", runtime.ErrExecutionReverted, ErrUnknownSelector, c.Input[:4])
	}

	if c.Gas < h.gas {
		c.Gas = 0

		return nil, runtime.ErrOutOfGas
	}

	c.Gas -= h.gas

	if !c.Value.IsZero() {
		return nil, fmt.Errorf("%w: %w", runtime.ErrExecutionReverted, ErrValueNotAccepted)
	}

	if h.write && c.Static {
		return nil, fmt.Errorf("%w: %w", runtime.ErrExecutionReverted, ErrWriteProtection)
	}

	args := map[string]interface{}{}

	if len(c.Input) > 4 {
		raw, err := h.method.Inputs.Decode(c.Input[4:])
		if err != nil {
			return nil, fmt.Errorf("%w: %w", runtime.ErrInvalidInputData, err)
		}

		if args, ok = raw.(map[string]interface{}); !ok {
			return nil, runtime.ErrInvalidInputData
		}
	}

	out, err := h.run(c, host, args)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", runtime.ErrExecutionReverted, err)
	}

	if out == nil {
		return nil, nil
	}

	return h.method.Outputs.Encode(out)
}

func balanceOf(c *runtime.Contract, host runtime.Host, args map[string]interface{}) ([]interface{}, error) {
	owner, err := addressArg(args, "owner")
	if err != nil {
		return nil, err
	}

	return []interface{}{BalanceOf(host, c.Address, owner).ToBig()}, nil
}

func allowance(c *runtime.Contract, host runtime.Host, args map[string]interface{}) ([]interface{}, error) {
	owner, err := addressArg(args, "owner")
	if err != nil {
		return nil, err
	}

	spender, err := addressArg(args, "spender")
	if err != nil {
		return nil, err
	}

	return []interface{}{Allowance(host, c.Address, owner, spender).ToBig()}, nil
}

func totalSupply(c *runtime.Contract, host runtime.Host, _ map[string]interface{}) ([]interface{}, error) {
	return []interface{}{load(host, c.Address, TotalSupplySlot).ToBig()}, nil
}

func approve(c *runtime.Contract, host runtime.Host, args map[string]interface{}) ([]interface{}, error) {
	spender, err := addressArg(args, "spender")
	if err != nil {
		return nil, err
	}

	amount, err := amountArg(args, "amount")
	if err != nil {
		return nil, err
	}

	Approve(host, c.Address, c.Caller, spender, amount)

	return []interface{}{true}, nil
}

func transfer(c *runtime.Contract, host runtime.Host, args map[string]interface{}) ([]interface{}, error) {
	to, err := addressArg(args, "to")
	if err != nil {
		return nil, err
	}

	amount, err := amountArg(args, "amount")
	if err != nil {
		return nil, err
	}

	if err := move(host, c.Address, c.Caller, to, amount); err != nil {
		return nil, err
	}

	return []interface{}{true}, nil
}

func transferFrom(c *runtime.Contract, host runtime.Host, args map[string]interface{}) ([]interface{}, error) {
	from, err := addressArg(args, "from")
	if err != nil {
		return nil, err
	}

	to, err := addressArg(args, "to")
	if err != nil {
		return nil, err
	}

	amount, err := amountArg(args, "amount")
	if err != nil {
		return nil, err
	}

	allowed := Allowance(host, c.Address, from, c.Caller)
	if allowed.Lt(amount) {
		return nil, fmt.Errorf("%w: %s allows %s, needs %s", ErrInsufficientAllowance, from, allowed.Dec(), amount.Dec())
	}

	if err := move(host, c.Address, from, to, amount); err != nil {
		return nil, err
	}

	store(host, c.Address, AllowanceSlot(from, c.Caller), allowed.Sub(allowed, amount))

	return []interface{}{true}, nil
}

func burn(c *runtime.Contract, host runtime.Host, args map[string]interface{}) ([]interface{}, error) {
	amount, err := amountArg(args, "amount")
	if err != nil {
		return nil, err
	}

	balance := BalanceOf(host, c.Address, c.Caller)
	if balance.Lt(amount) {
		return nil, fmt.Errorf("%w: %s has %s, burns %s", ErrInsufficientBalance, c.Caller, balance.Dec(), amount.Dec())
	}

	store(host, c.Address, BalanceSlot(c.Caller), balance.Sub(balance, amount))

	supply := load(host, c.Address, TotalSupplySlot)
	store(host, c.Address, TotalSupplySlot, supply.Sub(supply, amount))

	emitTransfer(host, c.Address, c.Caller, types.ZeroAddress, amount)

	return nil, nil
}

// BalanceSlot is the storage slot of the balance of owner, keccak(owner . 0)
func BalanceSlot(owner types.Address) types.Hash {
	return mappingSlot(owner, balancesSlot)
}

// AllowanceSlot is the storage slot of the allowance of spender over the tokens of owner
func AllowanceSlot(owner, spender types.Address) types.Hash {
	return mappingSlot(spender, mappingSlot(owner, allowancesSlot))
}

func mappingSlot(key types.Address, slot types.Hash) types.Hash {
	var padded [32]byte

	copy(padded[12:], key[:])

	return types.BytesToHash(keccak.Keccak256(nil, padded[:], slot[:]))
}

// BalanceOf returns the token balance of owner
func BalanceOf(host runtime.Host, token, owner types.Address) *uint256.Int {
	return load(host, token, BalanceSlot(owner))
}

// Allowance returns how much spender may move from owner
func Allowance(host runtime.Host, token, owner, spender types.Address) *uint256.Int {
	return load(host, token, AllowanceSlot(owner, spender))
}

// Approve sets the allowance of spender over the tokens of owner
func Approve(host runtime.Host, token, owner, spender types.Address, amount *uint256.Int) {
	store(host, token, AllowanceSlot(owner, spender), amount)

	host.EmitLog(token, []types.Hash{
		types.Hash(ApprovalEvent.ID()),
		addressTopic(owner),
		addressTopic(spender),
	}, amountData(amount))
}

// Mint creates amount new tokens owned by to
func Mint(host runtime.Host, token, to types.Address, amount *uint256.Int) {
	balance := BalanceOf(host, token, to)
	store(host, token, BalanceSlot(to), balance.Add(balance, amount))

	supply := load(host, token, TotalSupplySlot)
	store(host, token, TotalSupplySlot, supply.Add(supply, amount))

	emitTransfer(host, token, types.ZeroAddress, to, amount)
}

func move(host runtime.Host, token, from, to types.Address, amount *uint256.Int) error {
	balance := BalanceOf(host, token, from)
	if balance.Lt(amount) {
		return fmt.Errorf("%w: %s has %s, needs %s", ErrInsufficientBalance, from, balance.Dec(), amount.Dec())
	}

	store(host, token, BalanceSlot(from), balance.Sub(balance, amount))

	received := BalanceOf(host, token, to)
	store(host, token, BalanceSlot(to), received.Add(received, amount))

	emitTransfer(host, token, from, to, amount)

	return nil
}

func emitTransfer(host runtime.Host, token, from, to types.Address, amount *uint256.Int) {
	host.EmitLog(token, []types.Hash{
		types.Hash(TransferEvent.ID()),
		addressTopic(from),
		addressTopic(to),
	}, amountData(amount))
}

func load(host runtime.Host, token types.Address, slot types.Hash) *uint256.Int {
	v := host.GetStorage(token, slot)

	return new(uint256.Int).SetBytes32(v[:])
}

func store(host runtime.Host, token types.Address, slot types.Hash, value *uint256.Int) {
	host.SetStorage(token, slot, types.Hash(value.Bytes32()))
}

func addressTopic(addr types.Address) types.Hash {
	return types.BytesToHash(addr[:])
}

func amountData(amount *uint256.Int) []byte {
	b := amount.Bytes32()

	return b[:]
}

func addressArg(args map[string]interface{}, name string) (types.Address, error) {
	v, ok := args[name].(ethgo.Address)
	if !ok {
		return types.ZeroAddress, fmt.Errorf("%w: %s is not an address", runtime.ErrInvalidInputData, name)
	}

	return types.Address(v), nil
}

func amountArg(args map[string]interface{}, name string) (*uint256.Int, error) {
	v, ok := args[name].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not an amount", runtime.ErrInvalidInputData, name)
	}

	amount, overflow := uint256.FromBig(v)
	if overflow {
		return nil, fmt.Errorf("%w: %s overflows", runtime.ErrInvalidInputData, name)
	}

	return amount, nil
}

// EncodeTransferFrom returns the input of a transferFrom call
func EncodeTransferFrom(from, to types.Address, amount *uint256.Int) ([]byte, error) {
	return TransferFromMethod.Encode([]interface{}{ethgo.Address(from), ethgo.Address(to), amount.ToBig()})
}

// EncodeBurn returns the input of a burn call
func EncodeBurn(amount *uint256.Int) ([]byte, error) {
	return BurnMethod.Encode([]interface{}{amount.ToBig()})
}

var abiTrue = append(make([]byte, 31), 1)

// IsTrue reports whether a call returned the ABI encoding of true
func IsTrue(ret []byte) bool {
	return bytes.Equal(ret, abiTrue)
}
