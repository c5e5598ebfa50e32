package host

import (
	"github.com/holiman/uint256"

	"github.com/0xPolygon/edge-xcc/state"
	"github.com/0xPolygon/edge-xcc/types"
)

var _ Context = (*Env)(nil)

// Env runs one function call of a receipt. Storage is namespaced to the
// current account and every host operation is charged to the meter.
type Env struct {
	*PromiseBuilder

	chain       *Chain
	txn         *state.Txn
	current     types.AccountID
	predecessor types.AccountID
	input       []byte
	deposit     *uint256.Int
	meter       *Meter
	logs        []string
}

func newEnv(chain *Chain, txn *state.Txn, receipt *ActionReceipt, action Action, seed []byte) (*Env, error) {
	meter := NewMeter(action.Gas)

	env := &Env{
		chain:       chain,
		txn:         txn,
		current:     receipt.Receiver,
		predecessor: receipt.Predecessor,
		input:       action.Args,
		deposit:     action.DepositOf(),
		meter:       meter,
	}

	env.PromiseBuilder = NewPromiseBuilder(chain.costs, meter, receipt.Receiver, seed)
	env.PromiseBuilder.debit = env.debit

	if err := meter.Burn(chain.costs.Call(len(action.Args))); err != nil {
		return nil, err
	}

	return env, nil
}

func (e *Env) debit(amount *uint256.Int) error {
	if amount.IsZero() {
		return nil
	}

	balance, err := e.chain.balance(e.txn, e.current)
	if err != nil {
		return err
	}

	if balance.Lt(amount) {
		return ErrInsufficientBalance
	}

	e.chain.setBalance(e.txn, e.current, balance.Sub(balance, amount))

	return nil
}

func (e *Env) CurrentAccountID() types.AccountID {
	return e.current
}

func (e *Env) PredecessorAccountID() types.AccountID {
	return e.predecessor
}

func (e *Env) Input() []byte {
	return e.input
}

func (e *Env) AttachedDeposit() *uint256.Int {
	return e.deposit.Clone()
}

func (e *Env) PrepaidGas() types.NearGas {
	return e.meter.Prepaid()
}

func (e *Env) UsedGas() types.NearGas {
	return e.meter.Used()
}

func (e *Env) StorageRead(key []byte) ([]byte, bool, error) {
	value, found, err := e.txn.Get(storageKey(e.current, key))
	if err != nil {
		return nil, false, err
	}

	if err := e.meter.Burn(e.chain.costs.Read(len(key), len(value))); err != nil {
		return nil, false, err
	}

	return value, found, nil
}

func (e *Env) StorageWrite(key, value []byte) error {
	if err := e.meter.Burn(e.chain.costs.Write(len(key), len(value))); err != nil {
		return err
	}

	e.txn.Set(storageKey(e.current, key), value)

	return nil
}

func (e *Env) StorageRemove(key []byte) error {
	if err := e.meter.Burn(e.chain.costs.Remove(len(key))); err != nil {
		return err
	}

	e.txn.Delete(storageKey(e.current, key))

	return nil
}

func (e *Env) Log(msg string) error {
	if err := e.meter.Burn(e.chain.costs.Log(len(msg))); err != nil {
		return err
	}

	e.logs = append(e.logs, msg)

	return nil
}

func (e *Env) UseGas(gas types.NearGas) error {
	return e.meter.Burn(gas)
}
