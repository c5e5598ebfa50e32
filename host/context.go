package host

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/holiman/uint256"

	"github.com/0xPolygon/edge-xcc/types"
)

var (
	ErrInvalidPromiseIndex = errors.New("invalid promise index")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrEmptyPromise        = errors.New("promise has no actions")
)

// PromiseIndex refers to a receipt created during the current call
type PromiseIndex uint64

// Promises creates outbound receipts on behalf of the current account
type Promises interface {
	// PromiseBatchCreate creates a receipt for receiver with the given actions
	PromiseBatchCreate(receiver types.AccountID, actions ...Action) (PromiseIndex, error)

	// PromiseBatchThen creates a receipt that runs only after the receipt at index after
	PromiseBatchThen(after PromiseIndex, receiver types.AccountID, actions ...Action) (PromiseIndex, error)
}

// Context is what a contract sees of the chain while one of its methods runs
type Context interface {
	Promises

	CurrentAccountID() types.AccountID
	PredecessorAccountID() types.AccountID
	Input() []byte
	AttachedDeposit() *uint256.Int
	PrepaidGas() types.NearGas
	UsedGas() types.NearGas

	StorageRead(key []byte) ([]byte, bool, error)
	StorageWrite(key, value []byte) error
	StorageRemove(key []byte) error

	Log(msg string) error
	UseGas(gas types.NearGas) error
}

// Contract is a compiled contract. The same instance serves every account
// the code is deployed to; all of its state lives in the account storage.
type Contract interface {
	Call(ctx Context, method string) error
}

// PromiseBuilder collects the receipts created by one execution and charges
// the sending costs to its meter
type PromiseBuilder struct {
	costs       *Costs
	meter       *Meter
	predecessor types.AccountID
	seed        []byte
	receipts    []*ActionReceipt

	// debit is called with the balance moved by every new receipt
	debit func(amount *uint256.Int) error
}

// NewPromiseBuilder creates a builder for receipts sent by predecessor. seed
// identifies the execution and makes the receipt ids deterministic.
func NewPromiseBuilder(costs *Costs, meter *Meter, predecessor types.AccountID, seed []byte) *PromiseBuilder {
	return &PromiseBuilder{
		costs:       costs,
		meter:       meter,
		predecessor: predecessor,
		seed:        seed,
	}
}

func (b *PromiseBuilder) PromiseBatchCreate(receiver types.AccountID, actions ...Action) (PromiseIndex, error) {
	return b.create(receiver, actions, nil)
}

func (b *PromiseBuilder) PromiseBatchThen(after PromiseIndex, receiver types.AccountID, actions ...Action) (PromiseIndex, error) {
	if int(after) >= len(b.receipts) {
		return 0, fmt.Errorf("%w: %d", ErrInvalidPromiseIndex, after)
	}

	return b.create(receiver, actions, []uuid.UUID{b.receipts[after].ID})
}

func (b *PromiseBuilder) create(receiver types.AccountID, actions []Action, dependsOn []uuid.UUID) (PromiseIndex, error) {
	if len(actions) == 0 {
		return 0, ErrEmptyPromise
	}

	if err := receiver.Validate(); err != nil {
		return 0, fmt.Errorf("invalid receiver %q: %w", receiver, err)
	}

	cost := b.costs.ReceiptBase

	var attached types.NearGas

	for _, a := range actions {
		cost += b.costs.Action(a)

		if a.Kind == ActionFunctionCall {
			attached += a.Gas
		}
	}

	if err := b.meter.Burn(cost); err != nil {
		return 0, err
	}

	if err := b.meter.Attach(attached); err != nil {
		return 0, err
	}

	if b.debit != nil {
		if err := b.debit(totalDeposit(actions)); err != nil {
			return 0, err
		}
	}

	index := len(b.receipts)

	b.receipts = append(b.receipts, &ActionReceipt{
		ID:          NewReceiptID(b.seed, index),
		Predecessor: b.predecessor,
		Receiver:    receiver,
		Actions:     actions,
		DependsOn:   dependsOn,
	})

	return PromiseIndex(index), nil
}

// Receipts returns the receipts created so far, in creation order
func (b *PromiseBuilder) Receipts() []*ActionReceipt {
	return b.receipts
}

// Len returns the number of receipts created so far
func (b *PromiseBuilder) Len() int {
	return len(b.receipts)
}

// Truncate drops every receipt created after the first n
func (b *PromiseBuilder) Truncate(n int) {
	if n < len(b.receipts) {
		b.receipts = b.receipts[:n]
	}
}
