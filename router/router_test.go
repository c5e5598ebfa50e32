package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xPolygon/edge-xcc/host"
	"github.com/0xPolygon/edge-xcc/storage/memory"
	"github.com/0xPolygon/edge-xcc/types"
	"github.com/0xPolygon/edge-xcc/xcc"
)

const (
	engineID types.AccountID = "aurora"
	wnearID  types.AccountID = "wrap.near"
	targetID types.AccountID = "target.near"
	aliceID  types.AccountID = "alice.near"
)

var ownerAddr = types.StringToAddress("0x1111111111111111111111111111111111111111")

type testEnv struct {
	chain  *host.Chain
	router types.AccountID
}

func newTestEnv(t *testing.T, initialize bool) *testEnv {
	t.Helper()

	c, err := host.NewChain(memory.NewMemoryStorage(), hclog.NewNullLogger())
	require.NoError(t, err)

	c.RegisterCode(CodeV1, NewRouter(hclog.NewNullLogger()))
	c.RegisterCode(MockWNearCode, MockWNear{})

	require.NoError(t, c.CreateAccount(engineID, types.NearToYocto(100)))
	require.NoError(t, c.CreateAccount(wnearID, types.NearToYocto(100)))
	require.NoError(t, c.CreateAccount(targetID, new(uint256.Int)))
	require.NoError(t, c.CreateAccount(aliceID, types.NearToYocto(10)))
	require.NoError(t, c.DeployCode(wnearID, MockWNearCode))

	router, err := xcc.RouterAccountID(ownerAddr, engineID)
	require.NoError(t, err)

	actions := []host.Action{
		host.CreateAccountAction(),
		host.TransferAction(xcc.RouterStorageAmount),
		host.DeployContractAction(CodeV1),
	}

	if initialize {
		actions = append(actions, host.FunctionCallAction(
			xcc.MethodInitialize,
			mustJSON(t, &xcc.InitializeArgs{WNearAccount: wnearID, MustRegister: true}),
			nil,
			xcc.InitializeGas,
		))
	}

	deploy := &host.ActionReceipt{
		ID:          host.NewReceiptID([]byte("deploy-router"), 0),
		Predecessor: engineID,
		Receiver:    router,
		Actions:     actions,
	}

	require.NoError(t, c.Submit(deploy))
	require.NoError(t, c.Run(context.Background()))

	o, ok := c.Outcome(deploy.ID)
	require.True(t, ok)
	require.NoError(t, o.Err)

	return &testEnv{chain: c, router: router}
}

func (e *testEnv) call(t *testing.T, signer types.AccountID, method string, args []byte, gas types.NearGas) *host.Outcome {
	t.Helper()

	o, err := e.chain.Call(context.Background(), signer, e.router, method, args, nil, gas)
	require.NoError(t, err)

	return o
}

func (e *testEnv) lastDelivered(t *testing.T) *host.ActionReceipt {
	t.Helper()

	delivered := e.chain.Delivered()
	require.NotEmpty(t, delivered)

	return delivered[len(delivered)-1]
}

func mustJSON(t *testing.T, v interface{}) []byte {
	t.Helper()

	b, err := json.Marshal(v)
	require.NoError(t, err)

	return b
}

func encodePromise(t *testing.T, p xcc.PromiseArgs) []byte {
	t.Helper()

	b, err := p.Encode()
	require.NoError(t, err)

	return b
}

func hello(gas types.NearGas) xcc.PromiseCreateArgs {
	return xcc.PromiseCreateArgs{
		TargetAccountID: targetID,
		Method:          "hello",
		Args:            []byte(`{"name":"world"}`),
		AttachedBalance: uint256.NewInt(1),
		AttachedGas:     gas,
	}
}

func TestRouter_Initialize(t *testing.T) {
	t.Parallel()

	e := newTestEnv(t, true)

	v, found, err := e.chain.StorageRead(e.router, wnearKey)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []byte(wnearID), v)

	// the router registered itself with the token
	var logs []string
	for _, o := range e.chain.Outcomes() {
		logs = append(logs, o.Logs...)
	}

	assert.Contains(t, logs, fmt.Sprintf("Registered %s", e.router))

	balance, err := e.chain.Balance(e.router)
	require.NoError(t, err)
	assert.Equal(t, new(uint256.Int).Sub(xcc.RouterStorageAmount, xcc.RouterRegisterDeposit), balance)

	o := e.call(t, engineID, xcc.MethodInitialize, mustJSON(t, &xcc.InitializeArgs{WNearAccount: wnearID}), xcc.InitializeGas)
	require.ErrorIs(t, o.Err, xcc.ErrAlreadyInitialized)
}

func TestRouter_NotInitialized(t *testing.T) {
	t.Parallel()

	e := newTestEnv(t, false)

	o := e.call(t, engineID, xcc.MethodExecute, encodePromise(t, xcc.NewCreate(hello(types.Tgas))), xcc.RouterExec+types.Tgas)
	require.ErrorIs(t, o.Err, xcc.ErrNotInitialized)

	o = e.call(t, aliceID, xcc.MethodInitialize, mustJSON(t, &xcc.InitializeArgs{WNearAccount: wnearID}), xcc.InitializeGas)
	require.ErrorIs(t, o.Err, xcc.ErrUnauthorizedCaller)

	o = e.call(t, engineID, xcc.MethodInitialize, []byte("{"), xcc.InitializeGas)
	require.ErrorIs(t, o.Err, xcc.ErrMalformedInput)

	o = e.call(t, engineID, xcc.MethodInitialize, mustJSON(t, &xcc.InitializeArgs{WNearAccount: wnearID}), xcc.InitializeGas)
	require.NoError(t, o.Err)
	assert.Empty(t, o.Receipts)
}

func TestRouter_ParentOnly(t *testing.T) {
	t.Parallel()

	e := newTestEnv(t, true)
	promise := encodePromise(t, xcc.NewCreate(hello(types.Tgas)))

	for _, method := range []string{xcc.MethodExecute, xcc.MethodSchedule} {
		o := e.call(t, aliceID, method, promise, xcc.RouterExec+types.Tgas)
		require.ErrorIs(t, o.Err, xcc.ErrUnauthorizedCaller, method)
	}

	o := e.call(t, aliceID, xcc.MethodUnwrapAndRefund, mustJSON(t, &xcc.UnwrapAndRefundArgs{Amount: "1"}), xcc.UnwrapAndRefundGas)
	require.ErrorIs(t, o.Err, xcc.ErrUnauthorizedCaller)

	o = e.call(t, engineID, MethodSendRefund, nil, SendRefundGas)
	require.ErrorIs(t, o.Err, xcc.ErrUnauthorizedCaller)
}

func TestRouter_Execute(t *testing.T) {
	t.Parallel()

	e := newTestEnv(t, true)

	o := e.call(t, engineID, xcc.MethodExecute, encodePromise(t, xcc.NewCreate(hello(5*types.Tgas))), xcc.RouterExec+5*types.Tgas)
	require.NoError(t, o.Err)
	require.Len(t, o.Receipts, 1)

	call := e.lastDelivered(t)
	assert.Equal(t, e.router, call.Predecessor)
	assert.Equal(t, targetID, call.Receiver)

	require.Len(t, call.Actions, 1)
	assert.Equal(t, "hello", call.Actions[0].Method)
	assert.Equal(t, []byte(`{"name":"world"}`), call.Actions[0].Args)
	assert.Equal(t, uint64(1), call.Actions[0].DepositOf().Uint64())
	assert.Equal(t, 5*types.Tgas, call.Actions[0].Gas)
}

func TestRouter_ExecuteCallback(t *testing.T) {
	t.Parallel()

	e := newTestEnv(t, true)

	callback := hello(2 * types.Tgas)
	callback.TargetAccountID = aliceID
	callback.Method = "on_hello"

	o := e.call(t, engineID, xcc.MethodExecute, encodePromise(t, xcc.NewCallback(hello(3*types.Tgas), callback)), xcc.RouterExec+5*types.Tgas)
	require.NoError(t, o.Err)
	require.Len(t, o.Receipts, 2)

	base, then := o.Receipts[0], o.Receipts[1]
	assert.Equal(t, targetID, base.Receiver)
	assert.Equal(t, aliceID, then.Receiver)
	assert.Equal(t, base.ID, then.DependsOn[0])

	delivered := e.chain.Delivered()
	require.GreaterOrEqual(t, len(delivered), 2)
	assert.Equal(t, "hello", delivered[len(delivered)-2].Actions[0].Method)
	assert.Equal(t, "on_hello", delivered[len(delivered)-1].Actions[0].Method)
}

func TestRouter_ExecuteOutOfGas(t *testing.T) {
	t.Parallel()

	e := newTestEnv(t, true)

	// the forwarded gas is not covered
	o := e.call(t, engineID, xcc.MethodExecute, encodePromise(t, xcc.NewCreate(hello(10*types.Tgas))), xcc.RouterExec)
	require.ErrorIs(t, o.Err, host.ErrExceededPrepaidGas)
}

func TestRouter_ScheduleAndExecuteScheduled(t *testing.T) {
	t.Parallel()

	e := newTestEnv(t, true)

	for i := 0; i < 2; i++ {
		p := hello(types.NearGas(i+1) * types.Tgas)

		promise := encodePromise(t, xcc.NewCreate(p))

		o := e.call(t, engineID, xcc.MethodSchedule, promise, xcc.ScheduleGas(len(promise)))
		require.NoError(t, o.Err)
		assert.Equal(t, []string{fmt.Sprintf("Promise scheduled at nonce %d", i)}, o.Logs)
		assert.Empty(t, o.Receipts)
	}

	next, err := ScheduledNonce(e.chain, e.router)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), next)

	before := len(e.chain.Delivered())

	// anyone may trigger a scheduled promise, in any order
	o := e.call(t, aliceID, xcc.MethodExecuteScheduled, []byte(`{"nonce":"1"}`), 10*types.Tgas)
	require.NoError(t, o.Err)
	require.Len(t, e.chain.Delivered(), before+1)
	assert.Equal(t, 2*types.Tgas, e.lastDelivered(t).Actions[0].Gas)

	o = e.call(t, aliceID, xcc.MethodExecuteScheduled, []byte(`{"nonce":"1"}`), 10*types.Tgas)
	require.ErrorIs(t, o.Err, xcc.ErrNotFound)

	o = e.call(t, aliceID, xcc.MethodExecuteScheduled, []byte(`{"nonce":"0"}`), 10*types.Tgas)
	require.NoError(t, o.Err)
	assert.Equal(t, types.Tgas, e.lastDelivered(t).Actions[0].Gas)

	_, found, err := e.chain.StorageRead(e.router, promiseKey(0))
	require.NoError(t, err)
	assert.False(t, found)

	// executed promises do not give their nonce back
	next, err = ScheduledNonce(e.chain, e.router)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), next)

	o = e.call(t, aliceID, xcc.MethodExecuteScheduled, []byte(`{"nonce":1}`), 10*types.Tgas)
	require.ErrorIs(t, o.Err, xcc.ErrMalformedInput)
}

func TestRouter_FailedExecuteScheduledKeepsPromise(t *testing.T) {
	t.Parallel()

	e := newTestEnv(t, true)

	promise := encodePromise(t, xcc.NewCreate(hello(20*types.Tgas)))

	o := e.call(t, engineID, xcc.MethodSchedule, promise, xcc.ScheduleGas(len(promise)))
	require.NoError(t, o.Err)

	// not enough gas to forward, the removal is rolled back
	o = e.call(t, aliceID, xcc.MethodExecuteScheduled, []byte(`{"nonce":"0"}`), 10*types.Tgas)
	require.ErrorIs(t, o.Err, host.ErrExceededPrepaidGas)

	_, found, err := e.chain.StorageRead(e.router, promiseKey(0))
	require.NoError(t, err)
	assert.True(t, found)

	o = e.call(t, aliceID, xcc.MethodExecuteScheduled, []byte(`{"nonce":"0"}`), 30*types.Tgas)
	require.NoError(t, o.Err)
}

func TestRouter_ScheduleGasCoversLargePromises(t *testing.T) {
	t.Parallel()

	e := newTestEnv(t, true)

	p := hello(types.Tgas)
	p.Args = bytes.Repeat([]byte{'x'}, 16*1024)
	promise := encodePromise(t, xcc.NewCreate(p))

	// the base allowance alone cannot store the promise
	o := e.call(t, engineID, xcc.MethodSchedule, promise, xcc.RouterSchedule)
	require.ErrorIs(t, o.Err, host.ErrExceededPrepaidGas)

	next, err := ScheduledNonce(e.chain, e.router)
	require.NoError(t, err)
	assert.Zero(t, next)

	o = e.call(t, engineID, xcc.MethodSchedule, promise, xcc.ScheduleGas(len(promise)))
	require.NoError(t, o.Err)

	stored, found, err := e.chain.StorageRead(e.router, promiseKey(0))
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, promise, stored)
}

func TestRouter_ScheduleRejectsMalformed(t *testing.T) {
	t.Parallel()

	e := newTestEnv(t, true)

	o := e.call(t, engineID, xcc.MethodSchedule, []byte{2, 0, 0}, xcc.RouterSchedule)
	require.ErrorIs(t, o.Err, xcc.ErrMalformedInput)

	_, found, err := e.chain.StorageRead(e.router, nonceKey)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRouter_UnwrapAndRefund(t *testing.T) {
	t.Parallel()

	e := newTestEnv(t, true)

	engineBefore, err := e.chain.Balance(engineID)
	require.NoError(t, err)

	routerBefore, err := e.chain.Balance(e.router)
	require.NoError(t, err)

	// the stake plus one unit attached to the bridged call
	amount := new(uint256.Int).Add(xcc.RouterStorageAmount, types.NearToYocto(1))
	args := &xcc.UnwrapAndRefundArgs{Amount: amount.Dec(), RefundNeeded: true}

	o := e.call(t, engineID, xcc.MethodUnwrapAndRefund, mustJSON(t, args), xcc.UnwrapAndRefundGas)
	require.NoError(t, o.Err)
	require.Len(t, o.Receipts, 2)

	for _, outcome := range e.chain.Outcomes() {
		require.NoError(t, outcome.Err)
	}

	engineAfter, err := e.chain.Balance(engineID)
	require.NoError(t, err)
	assert.Equal(t, new(uint256.Int).Add(engineBefore, xcc.RouterStorageAmount), engineAfter)

	// the router keeps what is not refunded, less the yocto attached to near_withdraw
	routerAfter, err := e.chain.Balance(e.router)
	require.NoError(t, err)

	expected := new(uint256.Int).Add(routerBefore, types.NearToYocto(1))
	assert.Equal(t, expected.Sub(expected, uint256.NewInt(1)), routerAfter)
}

func TestRouter_UnwrapWithoutRefund(t *testing.T) {
	t.Parallel()

	e := newTestEnv(t, true)

	args := &xcc.UnwrapAndRefundArgs{Amount: "1000", RefundNeeded: false}

	o := e.call(t, engineID, xcc.MethodUnwrapAndRefund, mustJSON(t, args), xcc.UnwrapAndRefundGas)
	require.NoError(t, o.Err)
	require.Len(t, o.Receipts, 1)
	assert.Equal(t, wnearID, o.Receipts[0].Receiver)

	o = e.call(t, engineID, xcc.MethodUnwrapAndRefund, mustJSON(t, &xcc.UnwrapAndRefundArgs{Amount: "ten"}), xcc.UnwrapAndRefundGas)
	require.ErrorIs(t, o.Err, xcc.ErrMalformedInput)
}

func TestRouter_UnknownMethod(t *testing.T) {
	t.Parallel()

	e := newTestEnv(t, true)

	o := e.call(t, engineID, "selfdestruct", nil, 10*types.Tgas)
	require.ErrorIs(t, o.Err, xcc.ErrUnknownMethod)
}
