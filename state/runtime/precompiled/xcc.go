package precompiled

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/armon/go-metrics"
	"github.com/hashicorp/go-hclog"
	"github.com/holiman/uint256"
	"github.com/sethvargo/go-retry"

	"github.com/0xPolygon/edge-xcc/host"
	"github.com/0xPolygon/edge-xcc/state/runtime"
	"github.com/0xPolygon/edge-xcc/state/runtime/erc20"
	"github.com/0xPolygon/edge-xcc/types"
	"github.com/0xPolygon/edge-xcc/xcc"
)

// CrossContractCallAddress is the reserved address of the cross contract call precompile
var CrossContractCallAddress = types.StringToAddress("0x516cded1d16af10cad47d6d49128e2eb7d27b372")

// tokenCallGas is the gas given to each call into the wrapped native token
const tokenCallGas uint64 = 100_000

type deployStatus int

const (
	deployNotNeeded deployStatus = iota
	deployMissing
	deployOutdated
)

func (s deployStatus) String() string {
	switch s {
	case deployNotNeeded:
		return "not-needed"
	case deployMissing:
		return "missing"
	case deployOutdated:
		return "outdated"
	default:
		panic("BUG: deploy status not found")
	}
}

// crossContractCall turns an EVM call into a call of the router of the
// caller on the host chain, deploying and funding the router first when needed
type crossContractCall struct {
	logger hclog.Logger
}

func (x *crossContractCall) gas(input []byte) uint64 {
	return uint64(xcc.Cost(len(input)))
}

func (x *crossContractCall) run(c *runtime.Contract, h runtime.Host) ([]byte, error) {
	nh, ok := h.(NearHost)
	if !ok {
		return nil, runtime.ErrUnsupportedHost
	}

	switch {
	case c.Static || c.Type == runtime.StaticCall:
		return nil, xcc.ErrStaticCall
	case c.Type == runtime.DelegateCall || c.Type == runtime.CallCode:
		return nil, xcc.ErrDelegateCall
	case c.Value != nil && !c.Value.IsZero():
		return nil, xcc.ErrAttachedValue
	}

	args, err := xcc.DecodeCrossContractCallArgs(c.Input)
	if err != nil {
		metrics.IncrCounter([]string{"xcc", "malformed"}, 1)

		return nil, err
	}

	router, err := xcc.RouterAccountID(c.Caller, nh.GetTxContext().EngineAccountID)
	if err != nil {
		return nil, fmt.Errorf("router account of %s: %w", c.Caller, err)
	}

	call := &bridgeCall{
		host:     nh,
		contract: c,
		router:   router,
	}

	if err := call.execute(args); err != nil {
		if errors.Is(err, xcc.ErrInsufficientFunds) {
			metrics.IncrCounter([]string{"xcc", "insufficient_funds"}, 1)
		}

		return nil, err
	}

	x.logger.Debug(
		"cross contract call",
		"caller", c.Caller,
		"router", router,
		"kind", args.Kind,
		"deploy", call.status,
		"target", args.Promise.Base.TargetAccountID,
	)

	switch args.Kind {
	case xcc.CallEager:
		metrics.IncrCounter([]string{"xcc", "eager"}, 1)
	case xcc.CallDelayed:
		metrics.IncrCounter([]string{"xcc", "delayed"}, 1)
	}

	if call.status != deployNotNeeded {
		metrics.IncrCounter([]string{"xcc", "router_deploy"}, 1)
	}

	return nil, nil
}

// bridgeCall is the state of a single invocation of the precompile
type bridgeCall struct {
	host     NearHost
	contract *runtime.Contract
	router   types.AccountID

	status  deployStatus
	version uint32

	// last receipt the router call has to wait for
	after *host.PromiseIndex

	wnearAddress types.Address
	wnearAccount types.AccountID
	wnearLoaded  bool
}

func (b *bridgeCall) execute(args *xcc.CrossContractCallArgs) error {
	if err := b.resolveStatus(); err != nil {
		return err
	}

	if b.status != deployNotNeeded {
		if err := b.deploy(); err != nil {
			return err
		}
	}

	required := args.Promise.TotalBalance()
	if b.status == deployMissing {
		required.Add(required, xcc.RouterStorageAmount)
	}

	if !required.IsZero() {
		if err := b.fund(required); err != nil {
			return err
		}
	}

	// the promise is forwarded as is, without the call kind
	promise := b.contract.Input[1:]

	var action host.Action

	switch args.Kind {
	case xcc.CallEager:
		action = host.FunctionCallAction(xcc.MethodExecute, promise, nil, xcc.RouterExec+args.Promise.TotalGas())
	case xcc.CallDelayed:
		action = host.FunctionCallAction(xcc.MethodSchedule, promise, nil, xcc.ScheduleGas(len(promise)))
	}

	_, err := b.send(b.router, action)

	return err
}

// resolveStatus compares the router code version deployed for the caller with the latest one
func (b *bridgeCall) resolveStatus() error {
	raw, found, err := b.host.ReadConfig(xcc.CodeVersionKey)
	if err != nil {
		return err
	}

	if !found {
		return xcc.ErrRouterCodeMissing
	}

	if b.version, err = xcc.DecodeVersion(raw); err != nil {
		return err
	}

	raw, found, err = b.host.ReadConfig(xcc.RouterVersionKey(b.contract.Caller))
	if err != nil {
		return err
	}

	if !found {
		b.status = deployMissing

		return nil
	}

	deployed, err := xcc.DecodeVersion(raw)
	if err != nil {
		return err
	}

	if deployed < b.version {
		b.status = deployOutdated
	}

	return nil
}

func (b *bridgeCall) deploy() error {
	code, found, err := b.host.ReadConfig(xcc.CodeKey)
	if err != nil {
		return err
	}

	if !found {
		return xcc.ErrRouterCodeMissing
	}

	var actions []host.Action

	if b.status == deployMissing {
		if err := b.loadWNear(); err != nil {
			return err
		}

		initArgs, err := json.Marshal(&xcc.InitializeArgs{WNearAccount: b.wnearAccount, MustRegister: true})
		if err != nil {
			return err
		}

		actions = []host.Action{
			host.CreateAccountAction(),
			host.TransferAction(xcc.RouterStorageAmount),
			host.DeployContractAction(code),
			host.FunctionCallAction(xcc.MethodInitialize, initArgs, nil, xcc.InitializeGas),
		}
	} else {
		actions = []host.Action{host.DeployContractAction(code)}
	}

	if _, err := b.send(b.router, actions...); err != nil {
		return err
	}

	return b.host.WriteConfig(xcc.RouterVersionKey(b.contract.Caller), xcc.EncodeVersion(b.version))
}

// fund moves amount wrapped tokens from the caller to the router and has the
// router unwrap them. A fresh router gives its storage stake back to the engine.
func (b *bridgeCall) fund(amount *uint256.Int) error {
	if err := b.loadWNear(); err != nil {
		return err
	}

	if err := b.escrow(amount); err != nil {
		return err
	}

	transfer, err := json.Marshal(&xcc.FtTransferArgs{ReceiverID: b.router, Amount: amount.Dec()})
	if err != nil {
		return err
	}

	if _, err := b.send(
		b.wnearAccount,
		host.FunctionCallAction(xcc.MethodFtTransfer, transfer, uint256.NewInt(1), xcc.WithdrawToRouterGas),
	); err != nil {
		return err
	}

	unwrap, err := json.Marshal(&xcc.UnwrapAndRefundArgs{Amount: amount.Dec(), RefundNeeded: b.status == deployMissing})
	if err != nil {
		return err
	}

	_, err = b.send(b.router, host.FunctionCallAction(xcc.MethodUnwrapAndRefund, unwrap, nil, xcc.UnwrapAndRefundGas))

	return err
}

// escrow takes amount wrapped tokens from the caller and burns them. The
// transfer is tried once more when it fails for any reason other than a
// shortfall of balance or allowance.
func (b *bridgeCall) escrow(amount *uint256.Int) error {
	input, err := erc20.EncodeTransferFrom(b.contract.Caller, CrossContractCallAddress, amount)
	if err != nil {
		return err
	}

	backoff := retry.WithMaxRetries(1, retry.BackoffFunc(func() (time.Duration, bool) {
		return 0, false
	}))

	err = retry.Do(context.Background(), backoff, func(_ context.Context) error {
		res := b.callToken(input)

		switch {
		case res.Succeeded() && erc20.IsTrue(res.ReturnValue):
			return nil
		case res.Succeeded():
			return fmt.Errorf("%w: transferFrom returned false", xcc.ErrInsufficientFunds)
		case errors.Is(res.Err, erc20.ErrInsufficientBalance), errors.Is(res.Err, erc20.ErrInsufficientAllowance):
			return fmt.Errorf("%w: %w", xcc.ErrInsufficientFunds, res.Err)
		default:
			return retry.RetryableError(res.Err)
		}
	})
	if err != nil {
		return err
	}

	burn, err := erc20.EncodeBurn(amount)
	if err != nil {
		return err
	}

	if res := b.callToken(burn); res.Failed() {
		return fmt.Errorf("burn escrowed tokens: %w", res.Err)
	}

	return nil
}

func (b *bridgeCall) callToken(input []byte) *runtime.ExecutionResult {
	c := runtime.NewContractCall(
		b.contract.Depth+1,
		b.contract.Origin,
		CrossContractCallAddress,
		b.wnearAddress,
		nil,
		tokenCallGas,
		input,
	)

	return b.host.Callx(c, b.host)
}

func (b *bridgeCall) loadWNear() error {
	if b.wnearLoaded {
		return nil
	}

	raw, found, err := b.host.ReadConfig(xcc.WNearAddressKey)
	if err != nil {
		return err
	}

	if !found {
		return xcc.ErrWNearNotConfigured
	}

	b.wnearAddress = types.BytesToAddress(raw)

	account, found, err := b.host.NEP141(b.wnearAddress)
	if err != nil {
		return err
	}

	if !found {
		return fmt.Errorf("%w: %s is not a bridged token", xcc.ErrWNearNotConfigured, b.wnearAddress)
	}

	b.wnearAccount = account
	b.wnearLoaded = true

	return nil
}

// send creates a receipt that runs after the previous one sent by this call
func (b *bridgeCall) send(receiver types.AccountID, actions ...host.Action) (host.PromiseIndex, error) {
	var (
		idx host.PromiseIndex
		err error
	)

	if b.after == nil {
		idx, err = b.host.Promises().PromiseBatchCreate(receiver, actions...)
	} else {
		idx, err = b.host.Promises().PromiseBatchThen(*b.after, receiver, actions...)
	}

	if errors.Is(err, host.ErrExceededPrepaidGas) {
		// fails the EVM call instead of the whole transaction
		return 0, fmt.Errorf("%w: %s", xcc.ErrPrepaidGasExhausted, err.Error())
	}

	if err != nil {
		return 0, err
	}

	b.after = &idx

	return idx, nil
}
