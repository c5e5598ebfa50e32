package engine

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/umbracle/ethgo"
	"pgregory.net/rapid"

	"github.com/0xPolygon/edge-xcc/host"
	"github.com/0xPolygon/edge-xcc/router"
	"github.com/0xPolygon/edge-xcc/state"
	"github.com/0xPolygon/edge-xcc/state/runtime"
	"github.com/0xPolygon/edge-xcc/state/runtime/erc20"
	"github.com/0xPolygon/edge-xcc/state/runtime/precompiled"
	"github.com/0xPolygon/edge-xcc/storage"
	"github.com/0xPolygon/edge-xcc/storage/memory"
	"github.com/0xPolygon/edge-xcc/types"
	"github.com/0xPolygon/edge-xcc/xcc"
)

const (
	engineID  types.AccountID = "aurora"
	wnearID   types.AccountID = "wrap.near"
	targetID  types.AccountID = "target.near"
	relayerID types.AccountID = "relayer.near"
	bobID     types.AccountID = "bob.near"

	testGas uint64 = 1_000_000
)

var (
	alice = types.StringToAddress("0xa11ce00000000000000000000000000000000001")
	bob   = types.StringToAddress("0xb0b0000000000000000000000000000000000002")
)

type testEnv struct {
	engine *Engine
	chain  *host.Chain
	wnear  types.Address
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()

	st, err := state.NewState(memory.NewMemoryStorage(), hclog.NewNullLogger())
	require.NoError(t, err)

	e, err := NewEngine(hclog.NewNullLogger(), st, engineID)
	require.NoError(t, err)

	return e
}

// newTestEnv returns an engine with router code and the wrapped token set
// up, next to a host chain that runs the receipts it sends
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	e := newTestEngine(t)

	c, err := host.NewChain(memory.NewMemoryStorage(), hclog.NewNullLogger())
	require.NoError(t, err)

	c.RegisterCode(router.CodeV1, router.NewRouter(hclog.NewNullLogger()))
	c.RegisterCode(router.MockWNearCode, router.MockWNear{})

	require.NoError(t, c.CreateAccount(engineID, types.NearToYocto(100)))
	require.NoError(t, c.CreateAccount(wnearID, types.NearToYocto(100)))
	require.NoError(t, c.CreateAccount(targetID, new(uint256.Int)))
	require.NoError(t, c.CreateAccount(bobID, types.NearToYocto(10)))
	require.NoError(t, c.DeployCode(wnearID, router.MockWNearCode))

	version, err := e.FactoryUpdate(router.CodeV1)
	require.NoError(t, err)
	require.Equal(t, uint32(1), version)

	wnear, err := e.DeployERC20Token(wnearID)
	require.NoError(t, err)
	require.NoError(t, e.FactorySetWNearAddress(wnear))

	return &testEnv{engine: e, chain: c, wnear: wnear}
}

func (e *testEnv) submit(t *testing.T, from, to types.Address, input []byte) *SubmitResult {
	t.Helper()

	nonce, err := e.engine.Nonce(from)
	require.NoError(t, err)

	res, err := e.engine.Submit(relayerID, &types.Transaction{
		Nonce: nonce,
		Gas:   testGas,
		From:  from,
		To:    &to,
		Input: input,
	})
	require.NoError(t, err)

	return res
}

func (e *testEnv) bridge(t *testing.T, from types.Address, args *xcc.CrossContractCallArgs) *SubmitResult {
	t.Helper()

	input, err := args.Encode()
	require.NoError(t, err)

	return e.submit(t, from, precompiled.CrossContractCallAddress, input)
}

// deliver hands the receipts of a transaction to the host chain and runs it
func (e *testEnv) deliver(t *testing.T, res *SubmitResult) {
	t.Helper()

	require.NoError(t, e.chain.Submit(res.Receipts...))
	require.NoError(t, e.chain.Run(context.Background()))

	for _, o := range e.chain.Outcomes() {
		require.NoError(t, o.Err, "receipt to %s", o.Receiver)
	}
}

func (e *testEnv) fund(t *testing.T, owner types.Address, amount, allowance *uint256.Int) {
	t.Helper()

	require.NoError(t, e.engine.MintERC20(e.wnear, owner, amount))

	input, err := erc20.ApproveMethod.Encode([]interface{}{
		ethgo.Address(precompiled.CrossContractCallAddress),
		allowance.ToBig(),
	})
	require.NoError(t, err)

	res := e.submit(t, owner, e.wnear, input)
	require.Equal(t, StatusSucceeded, res.Status, res.Err)

	approved, err := e.engine.ERC20Allowance(e.wnear, owner, precompiled.CrossContractCallAddress)
	require.NoError(t, err)
	require.Equal(t, allowance, approved)
}

func (e *testEnv) wnearBalance(t *testing.T, owner types.Address) *uint256.Int {
	t.Helper()

	balance, err := e.engine.ERC20Balance(e.wnear, owner)
	require.NoError(t, err)

	return balance
}

func (e *testEnv) balance(t *testing.T, id types.AccountID) *uint256.Int {
	t.Helper()

	balance, err := e.chain.Balance(id)
	require.NoError(t, err)

	return balance
}

func (e *testEnv) deliveredTo(id types.AccountID) []*host.ActionReceipt {
	var out []*host.ActionReceipt

	for _, r := range e.chain.Delivered() {
		if r.Receiver == id {
			out = append(out, r)
		}
	}

	return out
}

func hello(balance *uint256.Int, gas types.NearGas) xcc.PromiseCreateArgs {
	return xcc.PromiseCreateArgs{
		TargetAccountID: targetID,
		Method:          "hello",
		Args:            []byte(`{"name":"world"}`),
		AttachedBalance: balance,
		AttachedGas:     gas,
	}
}

func methods(receipts []*host.ActionReceipt) []string {
	var out []string

	for _, r := range receipts {
		for _, a := range r.Actions {
			if a.Kind == host.ActionFunctionCall {
				out = append(out, a.Method)
			} else {
				out = append(out, a.Kind.String())
			}
		}
	}

	return out
}

func TestEngine_EagerCallDeploysRouter(t *testing.T) {
	t.Parallel()

	e := newTestEnv(t)
	e.fund(t, alice, types.NearToYocto(10), types.NearToYocto(10))

	res := e.bridge(t, alice, &xcc.CrossContractCallArgs{
		Kind:    xcc.CallEager,
		Promise: xcc.NewCreate(hello(new(uint256.Int), 5*types.Tgas)),
	})
	require.Equal(t, StatusSucceeded, res.Status, res.Err)

	routerID, err := xcc.RouterAccountID(alice, engineID)
	require.NoError(t, err)

	// deploy, move the stake to the router, unwrap it there, then the call
	require.Len(t, res.Receipts, 4)
	assert.Equal(t, routerID, res.Receipts[0].Receiver)
	assert.Equal(t, wnearID, res.Receipts[1].Receiver)
	assert.Equal(t, routerID, res.Receipts[2].Receiver)
	assert.Equal(t, routerID, res.Receipts[3].Receiver)
	assert.Equal(t, []string{
		"CreateAccount",
		"Transfer",
		"DeployContract",
		xcc.MethodInitialize,
		xcc.MethodFtTransfer,
		xcc.MethodUnwrapAndRefund,
		xcc.MethodExecute,
	}, methods(res.Receipts))

	for i := 1; i < len(res.Receipts); i++ {
		assert.Equal(t, []uuid.UUID{res.Receipts[i-1].ID}, res.Receipts[i].DependsOn)
	}

	assert.Equal(t, types.NearToYocto(8), e.wnearBalance(t, alice))
	assert.True(t, e.wnearBalance(t, precompiled.CrossContractCallAddress).IsZero())

	version, found, err := e.engine.RouterVersion(alice)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, uint32(1), version)

	e.deliver(t, res)

	delivered := e.deliveredTo(targetID)
	require.Len(t, delivered, 1)
	assert.Equal(t, routerID, delivered[0].Predecessor)
	assert.Equal(t, "hello", delivered[0].Actions[0].Method)
	assert.Equal(t, []byte(`{"name":"world"}`), delivered[0].Actions[0].Args)

	// the stake came back to the engine, only the token transfer deposit is spent
	assert.Equal(t, new(uint256.Int).Sub(types.NearToYocto(100), uint256.NewInt(1)), e.balance(t, engineID))

	// the router kept its stake minus the token registration
	expected := new(uint256.Int).Sub(xcc.RouterStorageAmount, xcc.RouterRegisterDeposit)
	expected.Sub(expected, uint256.NewInt(1))
	assert.Equal(t, expected, e.balance(t, routerID))
}

func TestEngine_DelayedCallWithExistingRouter(t *testing.T) {
	t.Parallel()

	e := newTestEnv(t)
	e.fund(t, alice, types.NearToYocto(10), types.NearToYocto(10))

	first := e.bridge(t, alice, &xcc.CrossContractCallArgs{
		Kind:    xcc.CallEager,
		Promise: xcc.NewCreate(hello(new(uint256.Int), 5*types.Tgas)),
	})
	require.Equal(t, StatusSucceeded, first.Status, first.Err)
	e.deliver(t, first)

	routerID, err := xcc.RouterAccountID(alice, engineID)
	require.NoError(t, err)

	res := e.bridge(t, alice, &xcc.CrossContractCallArgs{
		Kind:    xcc.CallDelayed,
		Promise: xcc.NewCreate(hello(types.NearToYocto(1), 5*types.Tgas)),
	})
	require.Equal(t, StatusSucceeded, res.Status, res.Err)

	// no deployment, the attached balance is still unwrapped at the router
	assert.Equal(t, []string{
		xcc.MethodFtTransfer,
		xcc.MethodUnwrapAndRefund,
		xcc.MethodSchedule,
	}, methods(res.Receipts))
	assert.Equal(t, types.NearToYocto(7), e.wnearBalance(t, alice))

	schedule := res.Receipts[len(res.Receipts)-1].Actions[0]
	assert.Equal(t, xcc.ScheduleGas(len(schedule.Args)), schedule.Gas)

	e.deliver(t, res)

	// scheduled, nothing reached the target yet
	assert.Len(t, e.deliveredTo(targetID), 1)

	raw, found, err := e.chain.StorageRead(routerID, storage.BytesToKey(storage.KeyPrefixNonce, nil))
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []byte{1, 0, 0, 0, 0, 0, 0, 0}, raw)

	args, err := json.Marshal(&xcc.ExecuteScheduledArgs{Nonce: 0})
	require.NoError(t, err)

	o, err := e.chain.Call(context.Background(), bobID, routerID, xcc.MethodExecuteScheduled, args, nil, 50*types.Tgas)
	require.NoError(t, err)
	require.NoError(t, o.Err)

	delivered := e.deliveredTo(targetID)
	require.Len(t, delivered, 2)
	assert.Equal(t, types.NearToYocto(1), delivered[1].Actions[0].Deposit)
	assert.Equal(t, types.NearToYocto(1), e.balance(t, targetID))

	o, err = e.chain.Call(context.Background(), bobID, routerID, xcc.MethodExecuteScheduled, args, nil, 50*types.Tgas)
	require.NoError(t, err)
	require.ErrorIs(t, o.Err, xcc.ErrNotFound)
}

func TestEngine_OutdatedRouterIsUpgraded(t *testing.T) {
	t.Parallel()

	e := newTestEnv(t)
	e.fund(t, alice, types.NearToYocto(10), types.NearToYocto(10))

	call := &xcc.CrossContractCallArgs{
		Kind:    xcc.CallEager,
		Promise: xcc.NewCreate(hello(new(uint256.Int), 5*types.Tgas)),
	}

	first := e.bridge(t, alice, call)
	require.Equal(t, StatusSucceeded, first.Status, first.Err)
	e.deliver(t, first)

	version, err := e.engine.FactoryUpdate(router.CodeV1)
	require.NoError(t, err)
	require.Equal(t, uint32(2), version)

	res := e.bridge(t, alice, call)
	require.Equal(t, StatusSucceeded, res.Status, res.Err)
	assert.Equal(t, []string{
		"DeployContract",
		xcc.MethodExecute,
	}, methods(res.Receipts))

	deployed, _, err := e.engine.RouterVersion(alice)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), deployed)

	e.deliver(t, res)
	assert.Len(t, e.deliveredTo(targetID), 2)
}

func TestEngine_CallbackPromise(t *testing.T) {
	t.Parallel()

	e := newTestEnv(t)
	e.fund(t, alice, types.NearToYocto(10), types.NearToYocto(10))

	callback := xcc.PromiseCreateArgs{
		TargetAccountID: bobID,
		Method:          "on_hello",
		AttachedBalance: new(uint256.Int),
		AttachedGas:     5 * types.Tgas,
	}

	res := e.bridge(t, alice, &xcc.CrossContractCallArgs{
		Kind:    xcc.CallEager,
		Promise: xcc.NewCallback(hello(new(uint256.Int), 5*types.Tgas), callback),
	})
	require.Equal(t, StatusSucceeded, res.Status, res.Err)

	execute := res.Receipts[len(res.Receipts)-1].Actions[0]
	assert.Equal(t, xcc.RouterExec+10*types.Tgas, execute.Gas)

	e.deliver(t, res)

	var order []types.AccountID
	for _, r := range e.chain.Delivered() {
		order = append(order, r.Receiver)
	}

	assert.Equal(t, []types.AccountID{targetID, bobID}, order)
}

func TestEngine_InsufficientFunds(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		amount    *uint256.Int
		allowance *uint256.Int
	}{
		{"no allowance", types.NearToYocto(10), new(uint256.Int)},
		{"short allowance", types.NearToYocto(10), types.NearToYocto(1)},
		{"short balance", types.NearToYocto(1), types.NearToYocto(10)},
	}

	for _, c := range cases {
		c := c

		t.Run(c.name, func(t *testing.T) {
			t.Parallel()

			e := newTestEnv(t)
			e.fund(t, alice, c.amount, c.allowance)

			nonce, err := e.engine.Nonce(alice)
			require.NoError(t, err)

			res := e.bridge(t, alice, &xcc.CrossContractCallArgs{
				Kind:    xcc.CallEager,
				Promise: xcc.NewCreate(hello(new(uint256.Int), 5*types.Tgas)),
			})

			require.Equal(t, StatusFailed, res.Status)
			require.ErrorIs(t, res.Err, xcc.ErrInsufficientFunds)
			assert.Empty(t, res.Receipts)
			assert.Equal(t, testGas, res.GasUsed)

			// no router is recorded and the tokens did not move
			_, found, err := e.engine.RouterVersion(alice)
			require.NoError(t, err)
			assert.False(t, found)
			assert.Equal(t, c.amount, e.wnearBalance(t, alice))

			// the nonce is still consumed
			after, err := e.engine.Nonce(alice)
			require.NoError(t, err)
			assert.Equal(t, nonce+1, after)
		})
	}
}

func TestEngine_RejectedInput(t *testing.T) {
	t.Parallel()

	e := newTestEnv(t)

	res := e.submit(t, alice, precompiled.CrossContractCallAddress, []byte{0x09})
	require.ErrorIs(t, res.Err, xcc.ErrMalformedInput)
	assert.Empty(t, res.Receipts)

	input, err := (&xcc.CrossContractCallArgs{
		Kind:    xcc.CallEager,
		Promise: xcc.NewCreate(hello(new(uint256.Int), types.Tgas)),
	}).Encode()
	require.NoError(t, err)

	res = e.submit(t, alice, precompiled.CrossContractCallAddress, append(input, 0x00))
	require.ErrorIs(t, res.Err, xcc.ErrMalformedInput)

	// value attached to the call is refused and given back
	require.NoError(t, e.engine.SetBalance(alice, uint256.NewInt(100)))

	nonce, err := e.engine.Nonce(alice)
	require.NoError(t, err)

	res, err = e.engine.Submit(relayerID, &types.Transaction{
		Nonce: nonce,
		Gas:   testGas,
		From:  alice,
		To:    &precompiled.CrossContractCallAddress,
		Value: uint256.NewInt(1),
		Input: input,
	})
	require.NoError(t, err)
	require.ErrorIs(t, res.Err, xcc.ErrAttachedValue)

	balance, err := e.engine.Balance(alice)
	require.NoError(t, err)
	assert.Equal(t, uint256.NewInt(100), balance)
}

func TestEngine_PromiseGasBeyondPrepaidGas(t *testing.T) {
	t.Parallel()

	e := newTestEnv(t)
	e.fund(t, alice, types.NearToYocto(10), types.NearToYocto(10))

	nonce, err := e.engine.Nonce(alice)
	require.NoError(t, err)

	// accepted by the decoder, but the deployment receipts of a new router
	// leave less than the gas the router needs to run it
	res := e.bridge(t, alice, &xcc.CrossContractCallArgs{
		Kind:    xcc.CallEager,
		Promise: xcc.NewCreate(hello(new(uint256.Int), xcc.MaxTotalGas)),
	})

	assert.Equal(t, StatusFailed, res.Status)
	require.ErrorIs(t, res.Err, xcc.ErrPrepaidGasExhausted)
	assert.Empty(t, res.Receipts)
	assert.Equal(t, testGas, res.GasUsed)
	assert.Equal(t, types.NearToYocto(10), e.wnearBalance(t, alice))

	// the escrow was rolled back with the call
	approved, err := e.engine.ERC20Allowance(e.wnear, alice, precompiled.CrossContractCallAddress)
	require.NoError(t, err)
	assert.Equal(t, types.NearToYocto(10), approved)

	after, err := e.engine.Nonce(alice)
	require.NoError(t, err)
	assert.Equal(t, nonce+1, after)

	_, deployed, err := e.engine.RouterVersion(alice)
	require.NoError(t, err)
	assert.False(t, deployed)

	// a promise that could never fit is rejected by the decoder, as a
	// failed call that is charged like any other
	input, err := (&xcc.CrossContractCallArgs{
		Kind:    xcc.CallEager,
		Promise: xcc.NewCreate(hello(new(uint256.Int), types.Tgas)),
	}).Encode()
	require.NoError(t, err)

	binary.LittleEndian.PutUint64(input[len(input)-8:], uint64(xcc.MaxAttachedGas))

	res = e.submit(t, alice, precompiled.CrossContractCallAddress, input)
	assert.Equal(t, StatusFailed, res.Status)
	require.ErrorIs(t, res.Err, xcc.ErrMalformedInput)
	assert.Equal(t, testGas, res.GasUsed)

	after, err = e.engine.Nonce(alice)
	require.NoError(t, err)
	assert.Equal(t, nonce+2, after)

	res = e.bridge(t, alice, &xcc.CrossContractCallArgs{
		Kind:    xcc.CallEager,
		Promise: xcc.NewCreate(hello(new(uint256.Int), 5*types.Tgas)),
	})
	require.Equal(t, StatusSucceeded, res.Status, res.Err)

	// with the router deployed the engine still burns gas of its own first
	res = e.bridge(t, alice, &xcc.CrossContractCallArgs{
		Kind:    xcc.CallEager,
		Promise: xcc.NewCreate(hello(new(uint256.Int), xcc.MaxTotalGas)),
	})
	require.ErrorIs(t, res.Err, xcc.ErrPrepaidGasExhausted)
	assert.Empty(t, res.Receipts)

	res = e.bridge(t, alice, &xcc.CrossContractCallArgs{
		Kind:    xcc.CallEager,
		Promise: xcc.NewCreate(hello(new(uint256.Int), 200*types.Tgas)),
	})
	require.Equal(t, StatusSucceeded, res.Status, res.Err)
	require.Len(t, res.Receipts, 1)
	assert.Equal(t, xcc.RouterExec+200*types.Tgas, res.Receipts[0].Actions[0].Gas)
}

func TestEngine_MissingConfiguration(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)
	env := &testEnv{engine: e}

	input, err := (&xcc.CrossContractCallArgs{
		Kind:    xcc.CallDelayed,
		Promise: xcc.NewCreate(hello(new(uint256.Int), types.Tgas)),
	}).Encode()
	require.NoError(t, err)

	res := env.submit(t, alice, precompiled.CrossContractCallAddress, input)
	require.ErrorIs(t, res.Err, xcc.ErrRouterCodeMissing)

	_, err = e.FactoryUpdate(router.CodeV1)
	require.NoError(t, err)

	res = env.submit(t, alice, precompiled.CrossContractCallAddress, input)
	require.ErrorIs(t, res.Err, xcc.ErrWNearNotConfigured)
}

func TestTransition_RejectsNonCallContexts(t *testing.T) {
	t.Parallel()

	e := newTestEnv(t)

	input, err := (&xcc.CrossContractCallArgs{
		Kind:    xcc.CallEager,
		Promise: xcc.NewCreate(hello(new(uint256.Int), types.Tgas)),
	}).Encode()
	require.NoError(t, err)

	cases := []struct {
		name   string
		modify func(c *runtime.Contract)
		err    error
	}{
		{"static", func(c *runtime.Contract) { c.Static = true }, xcc.ErrStaticCall},
		{"staticcall", func(c *runtime.Contract) { c.Type = runtime.StaticCall }, xcc.ErrStaticCall},
		{"delegatecall", func(c *runtime.Contract) { c.Type = runtime.DelegateCall }, xcc.ErrDelegateCall},
		{"callcode", func(c *runtime.Contract) { c.Type = runtime.CallCode }, xcc.ErrDelegateCall},
	}

	for _, c := range cases {
		err := e.engine.view(func(tr *Transition) error {
			contract := runtime.NewContractCall(1, alice, alice, precompiled.CrossContractCallAddress, nil, testGas, input)
			c.modify(contract)

			res := tr.Callx(contract, tr)
			require.ErrorIs(t, res.Err, c.err, c.name)
			assert.Zero(t, res.GasLeft, c.name)
			assert.Zero(t, tr.promises.Len(), c.name)

			return nil
		})
		require.NoError(t, err)
	}
}

func TestEngine_AccountPrecompiles(t *testing.T) {
	t.Parallel()

	e := newTestEnv(t)

	res := e.submit(t, alice, precompiled.PredecessorAccountIDAddress, nil)
	require.NoError(t, res.Err)
	assert.Equal(t, []byte(relayerID), res.ReturnValue)
	assert.Nil(t, res.Relayer)

	require.NoError(t, e.engine.RegisterRelayer(relayerID, bob))

	res = e.submit(t, alice, precompiled.CurrentAccountIDAddress, nil)
	require.NoError(t, res.Err)
	assert.Equal(t, []byte(engineID), res.ReturnValue)
	require.NotNil(t, res.Relayer)
	assert.Equal(t, bob, *res.Relayer)
}

func TestEngine_TokenTransfer(t *testing.T) {
	t.Parallel()

	e := newTestEnv(t)
	require.NoError(t, e.engine.MintERC20(e.wnear, alice, uint256.NewInt(50)))

	input, err := erc20.TransferMethod.Encode([]interface{}{ethgo.Address(bob), uint256.NewInt(20).ToBig()})
	require.NoError(t, err)

	res := e.submit(t, alice, e.wnear, input)
	require.Equal(t, StatusSucceeded, res.Status, res.Err)
	assert.True(t, erc20.IsTrue(res.ReturnValue))
	require.Len(t, res.Logs, 1)
	assert.Equal(t, types.Hash(erc20.TransferEvent.ID()), res.Logs[0].Topics[0])

	assert.Equal(t, uint256.NewInt(30), e.wnearBalance(t, alice))
	assert.Equal(t, uint256.NewInt(20), e.wnearBalance(t, bob))

	// reverted transfers keep their gas and leave nothing behind
	input, err = erc20.TransferMethod.Encode([]interface{}{ethgo.Address(bob), uint256.NewInt(31).ToBig()})
	require.NoError(t, err)

	res = e.submit(t, alice, e.wnear, input)
	require.Equal(t, StatusReverted, res.Status)
	require.ErrorIs(t, res.Err, erc20.ErrInsufficientBalance)
	assert.Less(t, res.GasUsed, testGas)
	assert.Empty(t, res.Logs)
	assert.Equal(t, uint256.NewInt(30), e.wnearBalance(t, alice))
}

func TestEngine_Admin(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)

	addr, err := e.DeployERC20Token(wnearID)
	require.NoError(t, err)
	assert.Equal(t, TokenAddress(engineID, wnearID), addr)

	_, err = e.DeployERC20Token(wnearID)
	require.ErrorIs(t, err, ErrTokenExists)

	got, found, err := e.ERC20Address(wnearID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, addr, got)

	require.ErrorIs(t, e.MintERC20(bob, alice, uint256.NewInt(1)), ErrTokenNotFound)

	require.NoError(t, e.SetBalance(alice, uint256.NewInt(7)))

	env := &testEnv{engine: e}
	env.submit(t, alice, bob, nil)

	require.NoError(t, e.RemoveAccount(alice))

	balance, err := e.Balance(alice)
	require.NoError(t, err)
	assert.True(t, balance.IsZero())

	nonce, err := e.Nonce(alice)
	require.NoError(t, err)
	assert.Zero(t, nonce)

	_, err = NewEngine(hclog.NewNullLogger(), e.state, "Not Valid")
	require.ErrorIs(t, err, ErrInvalidEngineConfig)

	// valid account, but no router account fits under it
	_, err = NewEngine(hclog.NewNullLogger(), e.state, "a-rather-long-engine.testnet")
	require.ErrorIs(t, err, ErrInvalidEngineConfig)
	require.ErrorIs(t, err, xcc.ErrEngineAccountTooLong)
}

func TestEngine_SubmitErrors(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)

	_, err := e.Submit(relayerID, &types.Transaction{From: alice, Gas: testGas})
	require.ErrorIs(t, err, ErrContractCreation)

	_, err = e.Submit(relayerID, &types.Transaction{From: alice, To: &bob, Gas: TxGas - 1})
	require.ErrorIs(t, err, ErrIntrinsicGasTooLow)

	// a plain transfer without funds is not applied
	_, err = e.Submit(relayerID, &types.Transaction{From: alice, To: &bob, Gas: testGas, Value: uint256.NewInt(1)})
	require.ErrorIs(t, err, runtime.ErrNotEnoughFunds)

	nonce, err := e.Nonce(alice)
	require.NoError(t, err)
	assert.Zero(t, nonce)

	_, err = e.SubmitRaw(relayerID, []byte{0x01})
	require.ErrorIs(t, err, runtime.ErrInvalidInputData)

	raw := (&types.Transaction{From: alice, To: &bob, Gas: testGas}).MarshalRLP()

	res, err := e.SubmitRaw(relayerID, raw)
	require.NoError(t, err)
	assert.Equal(t, StatusSucceeded, res.Status)
	assert.Equal(t, TxGas, res.GasUsed)
}

func TestEngine_Nonces(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(rt *rapid.T) {
		e := newTestEngine(t)

		var current uint64

		for i, steps := 0, rapid.IntRange(1, 20).Draw(rt, "steps"); i < steps; i++ {
			nonce := rapid.Uint64Range(0, current+2).Draw(rt, "nonce")

			_, err := e.Submit(relayerID, &types.Transaction{Nonce: nonce, From: alice, To: &bob, Gas: testGas})

			switch {
			case nonce == current:
				require.NoError(rt, err)

				current++
			case nonce < current:
				require.ErrorIs(rt, err, ErrNonceTooLow)
			default:
				require.ErrorIs(rt, err, ErrNonceTooHigh)
			}

			stored, err := e.Nonce(alice)
			require.NoError(rt, err)
			require.Equal(rt, current, stored)
		}
	})
}

func TestIntrinsicGas(t *testing.T) {
	t.Parallel()

	gas, err := IntrinsicGas(nil)
	require.NoError(t, err)
	assert.Equal(t, TxGas, gas)

	gas, err = IntrinsicGas([]byte{0, 1, 0, 2})
	require.NoError(t, err)
	assert.Equal(t, TxGas+2*TxDataZeroGas+2*TxDataNonZeroGas, gas)
}
