package engine

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/hashicorp/go-hclog"
	"github.com/holiman/uint256"

	"github.com/0xPolygon/edge-xcc/helper/keccak"
	"github.com/0xPolygon/edge-xcc/host"
	"github.com/0xPolygon/edge-xcc/state"
	"github.com/0xPolygon/edge-xcc/state/runtime"
	"github.com/0xPolygon/edge-xcc/state/runtime/erc20"
	"github.com/0xPolygon/edge-xcc/state/runtime/precompiled"
	"github.com/0xPolygon/edge-xcc/types"
	"github.com/0xPolygon/edge-xcc/xcc"
)

const (
	// TxGas is the intrinsic gas of every transaction
	TxGas uint64 = 21_000

	// TxDataNonZeroGas is charged per non zero byte of input
	TxDataNonZeroGas uint64 = 16

	// TxDataZeroGas is charged per zero byte of input
	TxDataZeroGas uint64 = 4
)

var (
	ErrNonceTooLow         = errors.New("nonce too low")
	ErrNonceTooHigh        = errors.New("nonce too high")
	ErrIntrinsicGasTooLow  = errors.New("intrinsic gas too low")
	ErrContractCreation    = errors.New("contract creation is not supported")
	ErrTokenExists         = errors.New("token already bridged")
	ErrTokenNotFound       = errors.New("token not bridged")
	ErrInvalidEngineConfig = errors.New("invalid engine config")
)

// Status is the outcome of the EVM call of a transaction
type Status int

const (
	StatusSucceeded Status = iota
	StatusReverted
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusSucceeded:
		return "succeeded"
	case StatusReverted:
		return "reverted"
	case StatusFailed:
		return "failed"
	default:
		panic("BUG: status not found")
	}
}

// SubmitResult is what a transaction left behind. Receipts are the host
// receipts the engine account has to send, in creation order.
type SubmitResult struct {
	Hash        types.Hash
	Status      Status
	Err         error
	ReturnValue []byte
	GasUsed     uint64
	Logs        []*Log
	Receipts    []*host.ActionReceipt

	// NearGasBurnt is the host gas spent by the engine on the transaction
	NearGasBurnt types.NearGas

	// Relayer is the EVM address registered for the submitting account
	Relayer *types.Address
}

// Engine runs EVM transactions inside a host account. Bridging calls turn
// into receipts sent by that account.
type Engine struct {
	logger    hclog.Logger
	accountID types.AccountID
	state     *state.State
	costs     *host.Costs
	runtimes  []runtime.Runtime

	lock sync.Mutex
}

// NewEngine creates an engine running as accountID over st
func NewEngine(logger hclog.Logger, st *state.State, accountID types.AccountID) (*Engine, error) {
	if err := xcc.ValidateEngineAccount(accountID); err != nil {
		return nil, fmt.Errorf("%w: account %q: %w", ErrInvalidEngineConfig, accountID, err)
	}

	logger = logger.Named("engine")

	return &Engine{
		logger:    logger,
		accountID: accountID,
		state:     st,
		costs:     host.DefaultCosts(),
		runtimes: []runtime.Runtime{
			precompiled.NewPrecompiled(logger),
			erc20.NewERC20(),
		},
	}, nil
}

// Close closes the engine state
func (e *Engine) Close() error {
	return e.state.Close()
}

// AccountID returns the host account the engine runs in
func (e *Engine) AccountID() types.AccountID {
	return e.accountID
}

// Costs returns the host gas price list the engine is metered with
func (e *Engine) Costs() *host.Costs {
	return e.costs
}

func (e *Engine) newTransition(txn *state.Txn, meter *host.Meter, ctx runtime.TxContext) *Transition {
	return &Transition{
		logger:   e.logger,
		costs:    e.costs,
		txn:      txn,
		ctx:      ctx,
		meter:    meter,
		promises: host.NewPromiseBuilder(e.costs, meter, e.accountID, ctx.Hash[:]),
		runtimes: e.runtimes,
	}
}

// SubmitRaw decodes an RLP encoded transaction and submits it
func (e *Engine) SubmitRaw(predecessor types.AccountID, raw []byte) (*SubmitResult, error) {
	tx := &types.Transaction{}
	if err := tx.UnmarshalRLP(raw); err != nil {
		return nil, fmt.Errorf("%w: %w", runtime.ErrInvalidInputData, err)
	}

	return e.Submit(predecessor, tx)
}

// Submit runs a transaction sent through predecessor. An error means the
// transaction was not applied at all; a failed EVM call still consumes the
// nonce and is reported in the result.
func (e *Engine) Submit(predecessor types.AccountID, tx *types.Transaction) (*SubmitResult, error) {
	e.lock.Lock()
	defer e.lock.Unlock()

	if tx.To == nil {
		return nil, ErrContractCreation
	}

	txn := e.state.NewTxn()
	defer txn.Discard()

	meter := host.NewMeter(host.MaxPrepaidGas)
	if err := meter.Burn(e.costs.Call(len(tx.Input))); err != nil {
		return nil, err
	}

	hash := tx.Hash()

	t := e.newTransition(txn, meter, runtime.TxContext{
		Hash:                 hash,
		Origin:               tx.From,
		EngineAccountID:      e.accountID,
		PredecessorAccountID: predecessor,
	})

	nonce := t.readNonce(tx.From)
	if t.err != nil {
		return nil, t.err
	}

	switch {
	case nonce < tx.Nonce:
		return nil, fmt.Errorf("%w: %d < %d", ErrNonceTooHigh, nonce, tx.Nonce)
	case nonce > tx.Nonce:
		return nil, fmt.Errorf("%w: %d > %d", ErrNonceTooLow, nonce, tx.Nonce)
	}

	intrinsic, err := IntrinsicGas(tx.Input)
	if err != nil {
		return nil, err
	}

	if tx.Gas < intrinsic {
		return nil, fmt.Errorf("%w: have %d, want %d", ErrIntrinsicGasTooLow, tx.Gas, intrinsic)
	}

	t.writeNonce(tx.From, nonce+1)

	gas := tx.Gas - intrinsic
	contract := runtime.NewContractCall(1, tx.From, tx.From, *tx.To, tx.Value, gas, tx.Input)

	result := t.Callx(contract, t)
	result.UpdateGasUsed(gas)

	if t.err == nil && errors.Is(result.Err, host.ErrExceededPrepaidGas) {
		t.err = result.Err
	}

	if t.err != nil {
		return nil, t.err
	}

	if errors.Is(result.Err, runtime.ErrNotEnoughFunds) {
		return nil, result.Err
	}

	res := &SubmitResult{
		Hash:         hash,
		Err:          result.Err,
		ReturnValue:  result.ReturnValue,
		GasUsed:      intrinsic + result.GasUsed,
		Logs:         t.logs,
		Receipts:     t.promises.Receipts(),
		NearGasBurnt: meter.Burnt(),
	}

	switch {
	case result.Succeeded():
		res.Status = StatusSucceeded
	case result.Reverted():
		res.Status = StatusReverted
	default:
		res.Status = StatusFailed
	}

	relayer, found, err := txn.GetRelayer(predecessor)
	if err != nil {
		return nil, err
	}

	if found {
		res.Relayer = &relayer
	}

	if _, err := txn.Commit(); err != nil {
		return nil, err
	}

	observeSubmit(res)

	e.logger.Debug(
		"transaction applied",
		"hash", hash,
		"from", tx.From,
		"to", *tx.To,
		"status", res.Status,
		"gas", res.GasUsed,
		"near_gas", res.NearGasBurnt,
		"receipts", len(res.Receipts),
		"err", res.Err,
	)

	return res, nil
}

// IntrinsicGas returns the gas charged before a transaction runs
func IntrinsicGas(input []byte) (uint64, error) {
	gas := TxGas

	var nz uint64

	for _, b := range input {
		if b != 0 {
			nz++
		}
	}

	if (math.MaxUint64-gas)/TxDataNonZeroGas < nz {
		return 0, runtime.ErrOutOfGas
	}

	gas += nz * TxDataNonZeroGas

	z := uint64(len(input)) - nz
	if (math.MaxUint64-gas)/TxDataZeroGas < z {
		return 0, runtime.ErrOutOfGas
	}

	gas += z * TxDataZeroGas

	return gas, nil
}

// update runs fn over a fresh write set and commits it when fn succeeds
func (e *Engine) update(fn func(t *Transition) error) error {
	e.lock.Lock()
	defer e.lock.Unlock()

	txn := e.state.NewTxn()
	defer txn.Discard()

	t := e.newTransition(txn, host.NewMeter(math.MaxUint64), runtime.TxContext{EngineAccountID: e.accountID})

	if err := fn(t); err != nil {
		return err
	}

	if t.err != nil {
		return t.err
	}

	_, err := txn.Commit()

	return err
}

// view runs fn over a write set that is thrown away
func (e *Engine) view(fn func(t *Transition) error) error {
	e.lock.Lock()
	defer e.lock.Unlock()

	txn := e.state.NewTxn()
	defer txn.Discard()

	t := e.newTransition(txn, host.NewMeter(math.MaxUint64), runtime.TxContext{EngineAccountID: e.accountID})

	if err := fn(t); err != nil {
		return err
	}

	return t.err
}

// FactoryUpdate sets the code deployed to routers and bumps its version.
// Routers deployed with an older version are upgraded on their next call.
func (e *Engine) FactoryUpdate(code []byte) (uint32, error) {
	var version uint32

	err := e.update(func(t *Transition) error {
		raw, found, err := t.txn.Get(xcc.CodeVersionKey)
		if err != nil {
			return err
		}

		if found {
			if version, err = xcc.DecodeVersion(raw); err != nil {
				return err
			}
		}

		version++

		t.txn.Set(xcc.CodeKey, code)
		t.txn.Set(xcc.CodeVersionKey, xcc.EncodeVersion(version))

		return nil
	})
	if err != nil {
		return 0, err
	}

	e.logger.Info("router code updated", "version", version, "size", len(code))

	return version, nil
}

// FactorySetWNearAddress sets the ERC-20 address of the wrapped native token
func (e *Engine) FactorySetWNearAddress(addr types.Address) error {
	return e.update(func(t *Transition) error {
		t.txn.Set(xcc.WNearAddressKey, addr[:])

		return nil
	})
}

// RouterVersion returns the router code version deployed for addr
func (e *Engine) RouterVersion(addr types.Address) (uint32, bool, error) {
	var (
		version uint32
		found   bool
	)

	err := e.view(func(t *Transition) error {
		raw, ok, err := t.txn.Get(xcc.RouterVersionKey(addr))
		if err != nil || !ok {
			return err
		}

		found = true
		version, err = xcc.DecodeVersion(raw)

		return err
	})

	return version, found, err
}

// TokenAddress returns the ERC-20 address a bridged token account is given
func TokenAddress(engine, nep141 types.AccountID) types.Address {
	return types.BytesToAddress(keccak.Keccak256(nil, []byte(engine), []byte{0}, []byte(nep141))[12:])
}

// DeployERC20Token bridges a token account and returns its ERC-20 address
func (e *Engine) DeployERC20Token(nep141 types.AccountID) (types.Address, error) {
	if err := nep141.Validate(); err != nil {
		return types.ZeroAddress, err
	}

	addr := TokenAddress(e.accountID, nep141)

	err := e.update(func(t *Transition) error {
		if _, found, err := t.txn.GetERC20(nep141); err != nil {
			return err
		} else if found {
			return fmt.Errorf("%w: %s", ErrTokenExists, nep141)
		}

		t.txn.SetTokenPair(nep141, addr)

		return nil
	})
	if err != nil {
		return types.ZeroAddress, err
	}

	e.logger.Info("token bridged", "nep141", nep141, "erc20", addr)

	return addr, nil
}

// ERC20Address returns the ERC-20 address of a bridged token account
func (e *Engine) ERC20Address(nep141 types.AccountID) (types.Address, bool, error) {
	var (
		addr  types.Address
		found bool
	)

	err := e.view(func(t *Transition) (err error) {
		addr, found, err = t.txn.GetERC20(nep141)

		return err
	})

	return addr, found, err
}

// MintERC20 credits amount of a bridged token to an address
func (e *Engine) MintERC20(token, to types.Address, amount *uint256.Int) error {
	return e.update(func(t *Transition) error {
		if !t.IsToken(token) {
			return fmt.Errorf("%w: %s", ErrTokenNotFound, token)
		}

		erc20.Mint(t, token, to, amount)

		return nil
	})
}

// ERC20Balance returns the token balance of owner
func (e *Engine) ERC20Balance(token, owner types.Address) (*uint256.Int, error) {
	var balance *uint256.Int

	err := e.view(func(t *Transition) error {
		balance = erc20.BalanceOf(t, token, owner)

		return nil
	})

	return balance, err
}

// ERC20Allowance returns how much spender may move from owner
func (e *Engine) ERC20Allowance(token, owner, spender types.Address) (*uint256.Int, error) {
	var allowance *uint256.Int

	err := e.view(func(t *Transition) error {
		allowance = erc20.Allowance(t, token, owner, spender)

		return nil
	})

	return allowance, err
}

// SetBalance sets the native balance of an address
func (e *Engine) SetBalance(addr types.Address, balance *uint256.Int) error {
	return e.update(func(t *Transition) error {
		t.txn.SetBalance(addr, balance)

		return nil
	})
}

// Balance returns the native balance of an address
func (e *Engine) Balance(addr types.Address) (*uint256.Int, error) {
	var balance *uint256.Int

	err := e.view(func(t *Transition) error {
		balance = t.GetBalance(addr)

		return nil
	})

	return balance, err
}

// Nonce returns the nonce of an address
func (e *Engine) Nonce(addr types.Address) (uint64, error) {
	var nonce uint64

	err := e.view(func(t *Transition) error {
		nonce = t.GetNonce(addr)

		return nil
	})

	return nonce, err
}

// RegisterRelayer links a host account to the EVM address it is known by
func (e *Engine) RegisterRelayer(account types.AccountID, addr types.Address) error {
	if err := account.Validate(); err != nil {
		return err
	}

	return e.update(func(t *Transition) error {
		t.txn.SetRelayer(account, addr)

		return nil
	})
}

// RemoveAccount deletes an address and makes its contract storage unreachable
func (e *Engine) RemoveAccount(addr types.Address) error {
	return e.update(func(t *Transition) error {
		return t.txn.RemoveAccount(addr)
	})
}
