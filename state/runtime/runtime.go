package runtime

import (
	"errors"

	"github.com/holiman/uint256"

	"github.com/0xPolygon/edge-xcc/types"
)

// TxContext is the context of the transaction
type TxContext struct {
	Hash   types.Hash
	Origin types.Address

	// EngineAccountID is the host account the engine runs in
	EngineAccountID types.AccountID

	// PredecessorAccountID is the host account that submitted the transaction
	PredecessorAccountID types.AccountID
}

// StorageStatus is the status of the storage access
type StorageStatus int

const (
	// StorageUnchanged if the data has not changed
	StorageUnchanged StorageStatus = iota
	// StorageModified if the value has been modified
	StorageModified
	// StorageAdded if this is a new entry in the storage
	StorageAdded
	// StorageDeleted if the storage was deleted
	StorageDeleted
)

func (s StorageStatus) String() string {
	switch s {
	case StorageUnchanged:
		return "StorageUnchanged"
	case StorageModified:
		return "StorageModified"
	case StorageAdded:
		return "StorageAdded"
	case StorageDeleted:
		return "StorageDeleted"
	default:
		panic("BUG: storage status not found")
	}
}

// Host is the execution host. Failures of the underlying storage are
// remembered by the host and fail the whole transaction.
type Host interface {
	GetStorage(addr types.Address, key types.Hash) types.Hash
	SetStorage(addr types.Address, key types.Hash, value types.Hash) StorageStatus
	GetBalance(addr types.Address) *uint256.Int
	GetCode(addr types.Address) []byte
	GetNonce(addr types.Address) uint64
	GetTxContext() TxContext
	EmitLog(addr types.Address, topics []types.Hash, data []byte)
	Callx(*Contract, Host) *ExecutionResult
}

// ExecutionResult includes all output after executing given contract
// no matter the execution itself is successful or not.
type ExecutionResult struct {
	ReturnValue []byte // Returned data from the runtime
	GasLeft     uint64 // Total gas left as result of execution
	GasUsed     uint64 // Total gas used as result of execution
	Err         error  // Any error encountered during the execution, listed below
}

func (r *ExecutionResult) Succeeded() bool { return r.Err == nil }
func (r *ExecutionResult) Failed() bool    { return r.Err != nil }
func (r *ExecutionResult) Reverted() bool  { return errors.Is(r.Err, ErrExecutionReverted) }

// UpdateGasUsed derives the used gas from the gas limit of the call
func (r *ExecutionResult) UpdateGasUsed(gasLimit uint64) {
	r.GasUsed = gasLimit - r.GasLeft
}

var (
	ErrOutOfGas          = errors.New("out of gas")
	ErrNotEnoughFunds    = errors.New("not enough funds")
	ErrDepth             = errors.New("max call depth exceeded")
	ErrExecutionReverted = errors.New("execution was reverted")
	ErrInvalidInputData  = errors.New("invalid input data")
	ErrUnsupportedHost   = errors.New("host does not support this contract")
)

type CallType int

const (
	Call CallType = iota
	CallCode
	DelegateCall
	StaticCall
)

func (c CallType) String() string {
	switch c {
	case Call:
		return "call"
	case CallCode:
		return "callcode"
	case DelegateCall:
		return "delegatecall"
	case StaticCall:
		return "staticcall"
	default:
		panic("BUG: call type not found")
	}
}

// Runtime can process contracts
type Runtime interface {
	Run(c *Contract, host Host) *ExecutionResult
	CanRun(c *Contract, host Host) bool
	Name() string
}

// Contract is the instance being called
type Contract struct {
	Type        CallType
	CodeAddress types.Address
	Address     types.Address
	Origin      types.Address
	Caller      types.Address
	Depth       int
	Value       *uint256.Int
	Input       []byte
	Gas         uint64
	Static      bool
}

func NewContractCall(
	depth int,
	origin types.Address,
	from types.Address,
	to types.Address,
	value *uint256.Int,
	gas uint64,
	input []byte,
) *Contract {
	if value == nil {
		value = new(uint256.Int)
	}

	return &Contract{
		Type:        Call,
		Caller:      from,
		Origin:      origin,
		CodeAddress: to,
		Address:     to,
		Gas:         gas,
		Value:       value,
		Input:       input,
		Depth:       depth,
	}
}
