package router

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/hashicorp/go-hclog"
	"github.com/holiman/uint256"

	"github.com/0xPolygon/edge-xcc/host"
	"github.com/0xPolygon/edge-xcc/storage"
	"github.com/0xPolygon/edge-xcc/types"
	"github.com/0xPolygon/edge-xcc/xcc"
)

// MethodSendRefund is the private callback returning the storage stake to the parent
const MethodSendRefund = "send_refund"

// SendRefundGas is attached to the send_refund callback
const SendRefundGas = 5 * types.Tgas

// CodeV1 is the code of the router contract
var CodeV1 = []byte("edge-xcc-router/v1")

var (
	wnearKey = storage.BytesToKey(storage.KeyPrefixConfig, []byte("wnear_account"))
	nonceKey = storage.BytesToKey(storage.KeyPrefixNonce, nil)
)

// promiseKey is where the promise scheduled at nonce is kept
func promiseKey(nonce uint64) []byte {
	return storage.BytesToKey(storage.KeyPrefixStorage, binary.LittleEndian.AppendUint64(nil, nonce))
}

var _ host.Contract = (*Router)(nil)

// Router is the contract deployed to the per-address sub-accounts of the
// engine. It issues the calls of its EVM owner on the host chain, right away
// or once someone asks for a scheduled call to run.
type Router struct {
	logger hclog.Logger
}

func NewRouter(logger hclog.Logger) *Router {
	return &Router{
		logger: logger.Named("router"),
	}
}

type methodFunc func(ctx host.Context) error

func (r *Router) methods() map[string]methodFunc {
	return map[string]methodFunc{
		xcc.MethodInitialize:       r.initialize,
		xcc.MethodSchedule:         r.schedule,
		xcc.MethodExecute:          r.execute,
		xcc.MethodExecuteScheduled: r.executeScheduled,
		xcc.MethodUnwrapAndRefund:  r.unwrapAndRefund,
		MethodSendRefund:           r.sendRefund,
	}
}

func (r *Router) Call(ctx host.Context, method string) error {
	fn, ok := r.methods()[method]
	if !ok {
		return fmt.Errorf("%w: %s", xcc.ErrUnknownMethod, method)
	}

	if method != xcc.MethodInitialize {
		if _, err := wnearAccount(ctx); err != nil {
			return err
		}
	}

	r.logger.Trace("call", "router", ctx.CurrentAccountID(), "method", method, "predecessor", ctx.PredecessorAccountID())

	return fn(ctx)
}

func (r *Router) initialize(ctx host.Context) error {
	if err := requireParent(ctx); err != nil {
		return err
	}

	_, found, err := ctx.StorageRead(wnearKey)
	if err != nil {
		return err
	}

	if found {
		return xcc.ErrAlreadyInitialized
	}

	var args xcc.InitializeArgs
	if err := decodeJSON(ctx.Input(), &args); err != nil {
		return err
	}

	if err := args.WNearAccount.Validate(); err != nil {
		return fmt.Errorf("%w: wnear account: %w", xcc.ErrMalformedInput, err)
	}

	if err := ctx.StorageWrite(wnearKey, []byte(args.WNearAccount)); err != nil {
		return err
	}

	if !args.MustRegister {
		return nil
	}

	self := ctx.CurrentAccountID()

	deposit, err := json.Marshal(&xcc.StorageDepositArgs{AccountID: &self})
	if err != nil {
		return err
	}

	_, err = ctx.PromiseBatchCreate(
		args.WNearAccount,
		host.FunctionCallAction(xcc.MethodStorageDeposit, deposit, xcc.RouterRegisterDeposit, xcc.RegisterGas),
	)

	return err
}

func (r *Router) schedule(ctx host.Context) error {
	if err := requireParent(ctx); err != nil {
		return err
	}

	if _, err := xcc.DecodePromiseArgs(ctx.Input()); err != nil {
		return err
	}

	nonce, err := readNonce(ctx)
	if err != nil {
		return err
	}

	if err := ctx.StorageWrite(promiseKey(nonce), ctx.Input()); err != nil {
		return err
	}

	if err := ctx.StorageWrite(nonceKey, binary.LittleEndian.AppendUint64(nil, nonce+1)); err != nil {
		return err
	}

	r.logger.Debug("promise scheduled", "router", ctx.CurrentAccountID(), "nonce", nonce)

	return ctx.Log(fmt.Sprintf("Promise scheduled at nonce %d", nonce))
}

func (r *Router) execute(ctx host.Context) error {
	if err := requireParent(ctx); err != nil {
		return err
	}

	promise, err := xcc.DecodePromiseArgs(ctx.Input())
	if err != nil {
		return err
	}

	return issue(ctx, promise)
}

// executeScheduled runs and forgets the promise stored at a nonce. Anyone may call it.
func (r *Router) executeScheduled(ctx host.Context) error {
	var args xcc.ExecuteScheduledArgs
	if err := decodeJSON(ctx.Input(), &args); err != nil {
		return err
	}

	nonce := uint64(args.Nonce)
	key := promiseKey(nonce)

	raw, found, err := ctx.StorageRead(key)
	if err != nil {
		return err
	}

	if !found {
		return fmt.Errorf("%w: %d", xcc.ErrNotFound, nonce)
	}

	if err := ctx.StorageRemove(key); err != nil {
		return err
	}

	promise, err := xcc.DecodePromiseArgs(raw)
	if err != nil {
		return err
	}

	r.logger.Debug("executing scheduled promise", "router", ctx.CurrentAccountID(), "nonce", nonce, "by", ctx.PredecessorAccountID())

	return issue(ctx, promise)
}

func (r *Router) unwrapAndRefund(ctx host.Context) error {
	if err := requireParent(ctx); err != nil {
		return err
	}

	var args xcc.UnwrapAndRefundArgs
	if err := decodeJSON(ctx.Input(), &args); err != nil {
		return err
	}

	if _, err := types.ParseYocto(args.Amount); err != nil {
		return fmt.Errorf("%w: amount: %w", xcc.ErrMalformedInput, err)
	}

	wnear, err := wnearAccount(ctx)
	if err != nil {
		return err
	}

	withdraw, err := json.Marshal(&xcc.NearWithdrawArgs{Amount: args.Amount})
	if err != nil {
		return err
	}

	idx, err := ctx.PromiseBatchCreate(
		wnear,
		host.FunctionCallAction(xcc.MethodNearWithdraw, withdraw, uint256.NewInt(1), xcc.WithdrawGas),
	)
	if err != nil {
		return err
	}

	if !args.RefundNeeded {
		return nil
	}

	_, err = ctx.PromiseBatchThen(
		idx,
		ctx.CurrentAccountID(),
		host.FunctionCallAction(MethodSendRefund, nil, nil, SendRefundGas),
	)

	return err
}

// sendRefund gives the storage stake fronted by the parent back once near_withdraw has run
func (r *Router) sendRefund(ctx host.Context) error {
	if ctx.PredecessorAccountID() != ctx.CurrentAccountID() {
		return fmt.Errorf("%w: %s is private", xcc.ErrUnauthorizedCaller, MethodSendRefund)
	}

	parent, ok := ctx.CurrentAccountID().Parent()
	if !ok {
		return fmt.Errorf("%w: %s has no parent", xcc.ErrUnauthorizedCaller, ctx.CurrentAccountID())
	}

	_, err := ctx.PromiseBatchCreate(parent, host.TransferAction(xcc.RouterStorageAmount))

	return err
}

// issue creates the receipts of a promise. A callback runs after its base.
func issue(ctx host.Context, promise *xcc.PromiseArgs) error {
	base, err := ctx.PromiseBatchCreate(promise.Base.TargetAccountID, functionCall(&promise.Base))
	if err != nil {
		return err
	}

	if promise.Kind != xcc.PromiseCallback {
		return nil
	}

	_, err = ctx.PromiseBatchThen(base, promise.Callback.TargetAccountID, functionCall(&promise.Callback))

	return err
}

func functionCall(c *xcc.PromiseCreateArgs) host.Action {
	return host.FunctionCallAction(c.Method, c.Args, c.Balance(), c.AttachedGas)
}

func requireParent(ctx host.Context) error {
	parent, ok := ctx.CurrentAccountID().Parent()

	if !ok || ctx.PredecessorAccountID() != parent {
		return fmt.Errorf("%w: %s, expected %s", xcc.ErrUnauthorizedCaller, ctx.PredecessorAccountID(), parent)
	}

	return nil
}

func wnearAccount(ctx host.Context) (types.AccountID, error) {
	v, found, err := ctx.StorageRead(wnearKey)
	if err != nil {
		return "", err
	}

	if !found {
		return "", xcc.ErrNotInitialized
	}

	return types.AccountID(v), nil
}

func readNonce(ctx host.Context) (uint64, error) {
	v, found, err := ctx.StorageRead(nonceKey)
	if err != nil || !found {
		return 0, err
	}

	return decodeNonce(v)
}

// ScheduledNonce returns the nonce the next promise scheduled on the router id gets
func ScheduledNonce(chain *host.Chain, id types.AccountID) (uint64, error) {
	v, found, err := chain.StorageRead(id, nonceKey)
	if err != nil || !found {
		return 0, err
	}

	return decodeNonce(v)
}

func decodeNonce(v []byte) (uint64, error) {
	if len(v) != 8 {
		return 0, fmt.Errorf("corrupted nonce: %d bytes", len(v))
	}

	return binary.LittleEndian.Uint64(v), nil
}

func decodeJSON(input []byte, v interface{}) error {
	if err := json.Unmarshal(input, v); err != nil {
		return fmt.Errorf("%w: %w", xcc.ErrMalformedInput, err)
	}

	return nil
}
