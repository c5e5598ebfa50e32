package engine

import (
	"fmt"

	"github.com/hashicorp/go-hclog"
	"github.com/holiman/uint256"

	"github.com/0xPolygon/edge-xcc/host"
	"github.com/0xPolygon/edge-xcc/state"
	"github.com/0xPolygon/edge-xcc/state/runtime"
	"github.com/0xPolygon/edge-xcc/state/runtime/erc20"
	"github.com/0xPolygon/edge-xcc/state/runtime/precompiled"
	"github.com/0xPolygon/edge-xcc/storage"
	"github.com/0xPolygon/edge-xcc/types"
)

// MaxCallDepth is the deepest a call may nest
const MaxCallDepth = 1024

const nonceValueLen = 8

var (
	_ runtime.Host         = (*Transition)(nil)
	_ precompiled.NearHost = (*Transition)(nil)
	_ erc20.Registry       = (*Transition)(nil)

	nonceKeyLen = len(storage.AddressToKey(storage.KeyPrefixNonce, types.ZeroAddress))
)

// Log is an EVM log emitted during a transaction
type Log struct {
	Address types.Address
	Topics  []types.Hash
	Data    []byte
}

// Transition is the execution of one transaction over a write set of the
// engine state. Host gas of the work it does is charged to its meter.
type Transition struct {
	logger   hclog.Logger
	costs    *host.Costs
	txn      *state.Txn
	ctx      runtime.TxContext
	meter    *host.Meter
	promises *host.PromiseBuilder
	runtimes []runtime.Runtime
	logs     []*Log

	// err is the first storage or host gas failure, it fails the transaction
	err error
}

func (t *Transition) fail(err error) {
	if t.err == nil && err != nil {
		t.err = err
	}
}

func (t *Transition) burn(gas types.NearGas) {
	t.fail(t.meter.Burn(gas))
}

// Err returns the failure that aborts the transaction, if any
func (t *Transition) Err() error {
	return t.err
}

func (t *Transition) readNonce(addr types.Address) uint64 {
	nonce, err := t.txn.GetNonce(addr)
	t.fail(err)
	t.burn(t.costs.Read(nonceKeyLen, nonceValueLen))

	return nonce
}

func (t *Transition) writeNonce(addr types.Address, nonce uint64) {
	t.burn(t.costs.Write(nonceKeyLen, nonceValueLen))
	t.txn.SetNonce(addr, nonce)
}

func (t *Transition) GetStorage(addr types.Address, key types.Hash) types.Hash {
	value, err := t.txn.GetStorage(addr, key)
	t.fail(err)
	t.burn(t.costs.Read(storage.StorageKeyLength, types.HashLength))

	return value
}

func (t *Transition) SetStorage(addr types.Address, key types.Hash, value types.Hash) runtime.StorageStatus {
	current, err := t.txn.GetStorage(addr, key)
	if err != nil {
		t.fail(err)

		return runtime.StorageUnchanged
	}

	if current == value {
		return runtime.StorageUnchanged
	}

	if value == types.ZeroHash {
		t.burn(t.costs.Remove(storage.StorageKeyLength))
	} else {
		t.burn(t.costs.Write(storage.StorageKeyLength, types.HashLength))
	}

	t.fail(t.txn.SetStorage(addr, key, value))

	switch {
	case current == types.ZeroHash:
		return runtime.StorageAdded
	case value == types.ZeroHash:
		return runtime.StorageDeleted
	default:
		return runtime.StorageModified
	}
}

func (t *Transition) GetBalance(addr types.Address) *uint256.Int {
	balance, err := t.txn.GetBalance(addr)
	if err != nil {
		t.fail(err)

		return new(uint256.Int)
	}

	return balance
}

func (t *Transition) GetCode(addr types.Address) []byte {
	code, err := t.txn.GetCode(addr)
	t.fail(err)

	return code
}

func (t *Transition) GetNonce(addr types.Address) uint64 {
	nonce, err := t.txn.GetNonce(addr)
	t.fail(err)

	return nonce
}

func (t *Transition) GetTxContext() runtime.TxContext {
	return t.ctx
}

func (t *Transition) EmitLog(addr types.Address, topics []types.Hash, data []byte) {
	t.logs = append(t.logs, &Log{
		Address: addr,
		Topics:  append([]types.Hash(nil), topics...),
		Data:    append([]byte(nil), data...),
	})
}

// ReadConfig reads an engine setting, charging the read in host gas
func (t *Transition) ReadConfig(key []byte) ([]byte, bool, error) {
	value, found, err := t.txn.Get(key)
	if err != nil {
		return nil, false, err
	}

	if err := t.meter.Burn(t.costs.Read(len(key), len(value))); err != nil {
		return nil, false, err
	}

	return value, found, nil
}

// WriteConfig writes an engine setting, charging the write in host gas
func (t *Transition) WriteConfig(key, value []byte) error {
	if err := t.meter.Burn(t.costs.Write(len(key), len(value))); err != nil {
		return err
	}

	t.txn.Set(key, value)

	return nil
}

// NEP141 returns the token account bridged to an ERC-20 address
func (t *Transition) NEP141(token types.Address) (types.AccountID, bool, error) {
	account, found, err := t.txn.GetNEP141(token)
	if err != nil {
		return "", false, err
	}

	key := storage.AddressToKey(storage.KeyPrefixErc20Nep141Map, token)
	if err := t.meter.Burn(t.costs.Read(len(key), len(account))); err != nil {
		return "", false, err
	}

	return account, found, nil
}

func (t *Transition) Promises() host.Promises {
	return t.promises
}

// IsToken reports whether addr holds a bridged token
func (t *Transition) IsToken(addr types.Address) bool {
	_, found, err := t.txn.GetNEP141(addr)
	t.fail(err)

	return found
}

// Callx runs a call against the state of the transition. A failed call
// leaves no state changes, receipts or logs behind.
func (t *Transition) Callx(c *runtime.Contract, h runtime.Host) *runtime.ExecutionResult {
	if c.Depth > MaxCallDepth+1 {
		return &runtime.ExecutionResult{
			GasLeft: c.Gas,
			Err:     runtime.ErrDepth,
		}
	}

	if c.Type == runtime.Call || c.Type == runtime.CallCode {
		if !t.canTransfer(c.Caller, c.Value) {
			return &runtime.ExecutionResult{
				GasLeft: c.Gas,
				Err:     runtime.ErrNotEnoughFunds,
			}
		}
	}

	snapshot := t.txn.Snapshot()
	receipts := t.promises.Len()
	checkpoint := t.meter.Checkpoint()
	logs := len(t.logs)

	if c.Type == runtime.Call {
		if err := t.transfer(c.Caller, c.Address, c.Value); err != nil {
			t.txn.RevertToSnapshot(snapshot)

			return &runtime.ExecutionResult{
				GasLeft: c.Gas,
				Err:     err,
			}
		}
	}

	result := t.run(c, h)

	if t.err != nil && result.Succeeded() {
		result = &runtime.ExecutionResult{Err: t.err}
	}

	if result.Failed() {
		t.txn.RevertToSnapshot(snapshot)
		t.promises.Truncate(receipts)
		t.meter.Restore(checkpoint)
		t.logs = t.logs[:logs]

		if !result.Reverted() {
			result.GasLeft = 0
		}

		t.logger.Debug("call failed", "to", c.Address, "depth", c.Depth, "err", result.Err)
	}

	return result
}

func (t *Transition) run(c *runtime.Contract, h runtime.Host) *runtime.ExecutionResult {
	for _, r := range t.runtimes {
		if r.CanRun(c, h) {
			return r.Run(c, h)
		}
	}

	// plain account, the value transfer is all there is to it
	return &runtime.ExecutionResult{
		GasLeft: c.Gas,
	}
}

func (t *Transition) canTransfer(from types.Address, amount *uint256.Int) bool {
	if amount == nil || amount.IsZero() {
		return true
	}

	return !t.GetBalance(from).Lt(amount)
}

func (t *Transition) transfer(from, to types.Address, amount *uint256.Int) error {
	if amount == nil || amount.IsZero() {
		return nil
	}

	balance := t.GetBalance(from)
	if balance.Lt(amount) {
		return runtime.ErrNotEnoughFunds
	}

	t.txn.SetBalance(from, new(uint256.Int).Sub(balance, amount))

	received := t.GetBalance(to)

	sum, overflow := new(uint256.Int).AddOverflow(received, amount)
	if overflow {
		return fmt.Errorf("%w: balance of %s overflows", runtime.ErrInvalidInputData, to)
	}

	t.txn.SetBalance(to, sum)

	return nil
}
