package host

import (
	"context"
	"errors"
	"fmt"

	"github.com/armon/go-metrics"
	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"github.com/holiman/uint256"

	"github.com/0xPolygon/edge-xcc/state"
	"github.com/0xPolygon/edge-xcc/storage"
	"github.com/0xPolygon/edge-xcc/types"
)

var (
	ErrAccountExists           = errors.New("account already exists")
	ErrAccountNotFound         = errors.New("account not found")
	ErrCreateAccountNotAllowed = errors.New("only a parent account can create a sub-account")
	ErrUnknownCode             = errors.New("code is not a known contract")
	ErrUnresolvedDependency    = errors.New("receipts wait on receipts that never ran")
	ErrDuplicateReceipt        = errors.New("receipt already submitted")
)

const (
	keyBalance byte = 'b'
	keyCode    byte = 'c'
	keyStorage byte = 's'
)

// Outcome is the result of running one receipt
type Outcome struct {
	ReceiptID   uuid.UUID
	Predecessor types.AccountID
	Receiver    types.AccountID
	Logs        []string
	Receipts    []*ActionReceipt
	BurntGas    types.NearGas
	Err         error
}

func (o *Outcome) Succeeded() bool { return o.Err == nil }

// Chain is an in-process host chain: it holds accounts and runs action
// receipts one at a time, in submission order. A receipt is held back until
// its dependencies have settled, that is until they and every receipt they
// created have run.
type Chain struct {
	logger    hclog.Logger
	costs     *Costs
	state     *state.State
	contracts map[string]Contract

	queue     []*ActionReceipt
	seen      map[uuid.UUID]struct{}
	outcomes  map[uuid.UUID]*Outcome
	order     []*Outcome
	delivered []*ActionReceipt
	nonce     uint64
}

// NewChain creates a chain whose accounts live in kv
func NewChain(kv storage.KV, logger hclog.Logger) (*Chain, error) {
	logger = logger.Named("chain")

	st, err := state.NewState(kv, logger)
	if err != nil {
		return nil, err
	}

	return &Chain{
		logger:    logger,
		costs:     DefaultCosts(),
		state:     st,
		contracts: map[string]Contract{},
		seen:      map[uuid.UUID]struct{}{},
		outcomes:  map[uuid.UUID]*Outcome{},
	}, nil
}

// Costs returns the price list of the chain
func (c *Chain) Costs() *Costs {
	return c.costs
}

// RegisterCode makes code deployable; accounts running it are served by contract
func (c *Chain) RegisterCode(code []byte, contract Contract) {
	c.contracts[string(code)] = contract
}

// CreateAccount adds a top level account with an initial balance
func (c *Chain) CreateAccount(id types.AccountID, balance *uint256.Int) error {
	if err := id.Validate(); err != nil {
		return err
	}

	txn := c.state.NewTxn()

	exists, err := c.exists(txn, id)
	if err != nil {
		return err
	}

	if exists {
		return fmt.Errorf("%w: %s", ErrAccountExists, id)
	}

	c.setBalance(txn, id, balance.Clone())

	_, err = txn.Commit()

	return err
}

// DeployCode sets the code of an existing account
func (c *Chain) DeployCode(id types.AccountID, code []byte) error {
	if _, ok := c.contracts[string(code)]; !ok {
		return ErrUnknownCode
	}

	txn := c.state.NewTxn()

	exists, err := c.exists(txn, id)
	if err != nil {
		return err
	}

	if !exists {
		return fmt.Errorf("%w: %s", ErrAccountNotFound, id)
	}

	txn.Set(accountKey(id, keyCode, nil), code)

	_, err = txn.Commit()

	return err
}

func (c *Chain) AccountExists(id types.AccountID) (bool, error) {
	return c.exists(c.state.NewTxn(), id)
}

func (c *Chain) Balance(id types.AccountID) (*uint256.Int, error) {
	return c.balance(c.state.NewTxn(), id)
}

func (c *Chain) Code(id types.AccountID) ([]byte, error) {
	v, _, err := c.state.Get(accountKey(id, keyCode, nil))

	return v, err
}

// StorageRead reads the storage of an account without charging gas
func (c *Chain) StorageRead(id types.AccountID, key []byte) ([]byte, bool, error) {
	return c.state.Get(storageKey(id, key))
}

// Submit queues receipts created outside of the chain. The balance they move
// is taken from their predecessors right away.
func (c *Chain) Submit(receipts ...*ActionReceipt) error {
	txn := c.state.NewTxn()

	for _, r := range receipts {
		if _, ok := c.seen[r.ID]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateReceipt, r.ID)
		}

		deposit := totalDeposit(r.Actions)
		if deposit.IsZero() {
			continue
		}

		balance, err := c.balance(txn, r.Predecessor)
		if err != nil {
			return err
		}

		if balance.Lt(deposit) {
			return fmt.Errorf("%w: %s has %s, needs %s", ErrInsufficientBalance, r.Predecessor, balance.Dec(), deposit.Dec())
		}

		c.setBalance(txn, r.Predecessor, balance.Sub(balance, deposit))
	}

	if _, err := txn.Commit(); err != nil {
		return err
	}

	c.enqueue(receipts...)

	return nil
}

// Call submits a single function call from signer and runs the chain until idle
func (c *Chain) Call(
	ctx context.Context,
	signer, receiver types.AccountID,
	method string,
	args []byte,
	deposit *uint256.Int,
	gas types.NearGas,
) (*Outcome, error) {
	c.nonce++

	receipt := &ActionReceipt{
		ID:          NewReceiptID([]byte(signer), int(c.nonce)),
		Predecessor: signer,
		Receiver:    receiver,
		Actions:     []Action{FunctionCallAction(method, args, deposit, gas)},
	}

	if err := c.Submit(receipt); err != nil {
		return nil, err
	}

	if err := c.Run(ctx); err != nil {
		return nil, err
	}

	return c.outcomes[receipt.ID], nil
}

func (c *Chain) enqueue(receipts ...*ActionReceipt) {
	for _, r := range receipts {
		c.seen[r.ID] = struct{}{}
		c.queue = append(c.queue, r)
	}
}

// Close closes the storage of the chain
func (c *Chain) Close() error {
	return c.state.Close()
}

// Pending returns the number of receipts waiting to run
func (c *Chain) Pending() int {
	return len(c.queue)
}

// Run executes queued receipts, including the ones they create, until the queue is empty
func (c *Chain) Run(ctx context.Context) error {
	for len(c.queue) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}

		idx := c.nextReady()
		if idx < 0 {
			return fmt.Errorf("%w: %d pending", ErrUnresolvedDependency, len(c.queue))
		}

		r := c.queue[idx]
		c.queue = append(c.queue[:idx], c.queue[idx+1:]...)

		outcome := c.process(r)

		c.outcomes[r.ID] = outcome
		c.order = append(c.order, outcome)

		c.enqueue(outcome.Receipts...)
	}

	return nil
}

func (c *Chain) nextReady() int {
	for i, r := range c.queue {
		ready := true

		for _, dep := range r.DependsOn {
			if !c.settled(dep) {
				ready = false

				break
			}
		}

		if ready {
			return i
		}
	}

	return -1
}

// settled reports whether a receipt ran and so did every receipt it created
func (c *Chain) settled(id uuid.UUID) bool {
	o, ok := c.outcomes[id]
	if !ok {
		return false
	}

	for _, child := range o.Receipts {
		if !c.settled(child.ID) {
			return false
		}
	}

	return true
}

// Outcome returns the outcome of a receipt that already ran
func (c *Chain) Outcome(id uuid.UUID) (*Outcome, bool) {
	o, ok := c.outcomes[id]

	return o, ok
}

// Outcomes returns every outcome in execution order
func (c *Chain) Outcomes() []*Outcome {
	return c.order
}

// Delivered returns the receipts whose function calls reached accounts
// without a contract, in execution order
func (c *Chain) Delivered() []*ActionReceipt {
	return c.delivered
}

func (c *Chain) process(r *ActionReceipt) *Outcome {
	outcome := &Outcome{
		ReceiptID:   r.ID,
		Predecessor: r.Predecessor,
		Receiver:    r.Receiver,
	}

	txn := c.state.NewTxn()

	delivered, err := c.apply(txn, r, outcome)
	if err == nil {
		_, err = txn.Commit()
	}

	if err != nil {
		txn.Discard()

		outcome.Err = err
		outcome.Logs = nil
		outcome.Receipts = nil

		c.refund(r)

		metrics.IncrCounter([]string{"chain", "receipt", "failed"}, 1)
		c.logger.Debug("receipt failed", "id", r.ID, "receiver", r.Receiver, "err", err)

		return outcome
	}

	if delivered {
		c.delivered = append(c.delivered, r)
	}

	metrics.IncrCounter([]string{"chain", "receipt", "succeeded"}, 1)
	c.logger.Debug("receipt executed", "id", r.ID, "receiver", r.Receiver, "receipts", len(outcome.Receipts))

	return outcome
}

func (c *Chain) apply(txn *state.Txn, r *ActionReceipt, outcome *Outcome) (bool, error) {
	delivered := false

	for i, action := range r.Actions {
		exists, err := c.exists(txn, r.Receiver)
		if err != nil {
			return false, err
		}

		code, _, err := txn.Get(accountKey(r.Receiver, keyCode, nil))
		if err != nil {
			return false, err
		}

		switch action.Kind {
		case ActionCreateAccount:
			if exists {
				return false, fmt.Errorf("%w: %s", ErrAccountExists, r.Receiver)
			}

			if !r.Receiver.IsSubAccountOf(r.Predecessor) {
				return false, fmt.Errorf("%w: %s by %s", ErrCreateAccountNotAllowed, r.Receiver, r.Predecessor)
			}

			c.setBalance(txn, r.Receiver, new(uint256.Int))

		case ActionTransfer:
			if !exists {
				return false, fmt.Errorf("%w: %s", ErrAccountNotFound, r.Receiver)
			}

			if err := c.credit(txn, r.Receiver, action.DepositOf()); err != nil {
				return false, err
			}

		case ActionDeployContract:
			if !exists {
				return false, fmt.Errorf("%w: %s", ErrAccountNotFound, r.Receiver)
			}

			if _, ok := c.contracts[string(action.Code)]; !ok {
				return false, ErrUnknownCode
			}

			txn.Set(accountKey(r.Receiver, keyCode, nil), action.Code)

		case ActionFunctionCall:
			contract, ok := c.contracts[string(code)]
			if !ok {
				// nothing to run here, the call is handed over as is
				delivered = true

				target := r.Receiver
				if !exists {
					target = r.Predecessor
				}

				if err := c.credit(txn, target, action.DepositOf()); err != nil {
					return false, err
				}

				continue
			}

			if err := c.credit(txn, r.Receiver, action.DepositOf()); err != nil {
				return false, err
			}

			seed := append(r.ID[:], byte(i))

			env, err := newEnv(c, txn, r, action, seed)
			if err != nil {
				return false, err
			}

			err = contract.Call(env, action.Method)
			outcome.BurntGas += env.meter.Burnt()

			if err != nil {
				return false, fmt.Errorf("%s.%s: %w", r.Receiver, action.Method, err)
			}

			outcome.Logs = append(outcome.Logs, env.logs...)
			outcome.Receipts = append(outcome.Receipts, env.Receipts()...)
		}
	}

	return delivered, nil
}

func (c *Chain) refund(r *ActionReceipt) {
	deposit := totalDeposit(r.Actions)
	if deposit.IsZero() {
		return
	}

	txn := c.state.NewTxn()

	if err := c.credit(txn, r.Predecessor, deposit); err != nil {
		c.logger.Error("failed to refund deposit", "receipt", r.ID, "err", err)

		return
	}

	if _, err := txn.Commit(); err != nil {
		c.logger.Error("failed to refund deposit", "receipt", r.ID, "err", err)
	}
}

func (c *Chain) exists(txn *state.Txn, id types.AccountID) (bool, error) {
	_, ok, err := txn.Get(accountKey(id, keyBalance, nil))

	return ok, err
}

func (c *Chain) balance(txn *state.Txn, id types.AccountID) (*uint256.Int, error) {
	v, ok, err := txn.Get(accountKey(id, keyBalance, nil))
	if err != nil {
		return nil, err
	}

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, id)
	}

	return new(uint256.Int).SetBytes(v), nil
}

func (c *Chain) setBalance(txn *state.Txn, id types.AccountID, balance *uint256.Int) {
	b := balance.Bytes32()
	txn.Set(accountKey(id, keyBalance, nil), b[:])
}

func (c *Chain) credit(txn *state.Txn, id types.AccountID, amount *uint256.Int) error {
	balance, err := c.balance(txn, id)
	if err != nil {
		return err
	}

	c.setBalance(txn, id, balance.Add(balance, amount))

	return nil
}

// accountKey namespaces chain data by account. Account ids never contain a
// zero byte, so the separator keeps accounts apart.
func accountKey(id types.AccountID, kind byte, rest []byte) []byte {
	key := make([]byte, 0, len(id)+2+len(rest))
	key = append(key, id...)
	key = append(key, 0, kind)
	key = append(key, rest...)

	return key
}

func storageKey(id types.AccountID, key []byte) []byte {
	return accountKey(id, keyStorage, key)
}
