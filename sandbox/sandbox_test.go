package sandbox

import (
	"context"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xPolygon/edge-xcc/engine"
	"github.com/0xPolygon/edge-xcc/router"
	"github.com/0xPolygon/edge-xcc/types"
	"github.com/0xPolygon/edge-xcc/xcc"
)

var owner = types.StringToAddress("0x0000000000000000000000000000000000000abc")

const target types.AccountID = "target.near"

func newSandbox(t *testing.T, backend Backend, dir string) *Sandbox {
	t.Helper()

	engineKV, err := OpenStorage(backend, dir, "engine", hclog.NewNullLogger())
	require.NoError(t, err)

	chainKV, err := OpenStorage(backend, dir, "chain", hclog.NewNullLogger())
	require.NoError(t, err)

	s, err := New(hclog.NewNullLogger(), engineKV, chainKV, DefaultConfig())
	require.NoError(t, err)

	return s
}

func call(kind xcc.CallKind) *xcc.CrossContractCallArgs {
	return &xcc.CrossContractCallArgs{
		Kind: kind,
		Promise: xcc.NewCreate(xcc.PromiseCreateArgs{
			TargetAccountID: target,
			Method:          "hello",
			Args:            []byte(`{}`),
			AttachedBalance: new(uint256.Int),
			AttachedGas:     5 * types.Tgas,
		}),
	}
}

func TestParseBackend(t *testing.T) {
	t.Parallel()

	for _, b := range Backends {
		parsed, err := ParseBackend(string(b))
		require.NoError(t, err)
		assert.Equal(t, b, parsed)
	}

	_, err := ParseBackend("rocksdb")
	require.Error(t, err)

	_, err = OpenStorage(BackendLevelDB, "", "engine", hclog.NewNullLogger())
	require.Error(t, err)
}

func TestSandbox_EagerCall(t *testing.T) {
	t.Parallel()

	s := newSandbox(t, BackendMemory, "")
	defer s.Close()

	require.NoError(t, s.Fund(owner, types.NearToYocto(5), types.NearToYocto(5)))

	res, err := s.Bridge(owner, call(xcc.CallEager))
	require.NoError(t, err)
	require.Equal(t, engine.StatusSucceeded, res.Status, res.Err)

	outcomes, err := s.Deliver(context.Background(), res)
	require.NoError(t, err)
	require.NotEmpty(t, outcomes)

	for _, o := range outcomes {
		require.NoError(t, o.Err, o.Receiver)
	}

	delivered := s.Chain.Delivered()
	require.NotEmpty(t, delivered)
	assert.Equal(t, target, delivered[len(delivered)-1].Receiver)
}

func TestSandbox_DelayedCall(t *testing.T) {
	t.Parallel()

	s := newSandbox(t, BackendMemory, "")
	defer s.Close()

	require.NoError(t, s.Fund(owner, types.NearToYocto(5), types.NearToYocto(5)))

	res, err := s.Bridge(owner, call(xcc.CallDelayed))
	require.NoError(t, err)
	require.Equal(t, engine.StatusSucceeded, res.Status, res.Err)

	_, err = s.Deliver(context.Background(), res)
	require.NoError(t, err)

	id, err := s.RouterOf(owner)
	require.NoError(t, err)

	next, err := router.ScheduledNonce(s.Chain, id)
	require.NoError(t, err)
	require.Equal(t, uint64(1), next)

	before := len(s.Chain.Delivered())

	outcomes, err := s.ExecuteScheduled(context.Background(), "relayer.near", owner, 0, 30*types.Tgas)
	require.NoError(t, err)
	require.NotEmpty(t, outcomes)
	require.NoError(t, outcomes[0].Err)

	require.Len(t, s.Chain.Delivered(), before+1)

	outcomes, err = s.ExecuteScheduled(context.Background(), "relayer.near", owner, 0, 30*types.Tgas)
	require.NoError(t, err)
	require.ErrorIs(t, outcomes[0].Err, xcc.ErrNotFound)
}

func TestSandbox_ReopensExistingState(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	s := newSandbox(t, BackendLevelDB, dir)
	wnear := s.WNear

	require.NoError(t, s.Fund(owner, types.NearToYocto(5), types.NearToYocto(5)))
	require.NoError(t, s.Close())

	s = newSandbox(t, BackendLevelDB, dir)
	defer s.Close()

	assert.Equal(t, wnear, s.WNear)

	balance, err := s.Engine.ERC20Balance(s.WNear, owner)
	require.NoError(t, err)
	assert.Equal(t, types.NearToYocto(5), balance)

	nonce, err := s.Engine.Nonce(owner)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), nonce)
}

func TestSandbox_Calibrate(t *testing.T) {
	t.Parallel()

	s := newSandbox(t, BackendMemory, "")
	defer s.Close()

	_, err := s.Calibrate(owner, target, 16)
	require.Error(t, err)

	report, err := s.Calibrate(owner, target, 16, 1016)
	require.NoError(t, err)
	require.Len(t, report.Samples, 2)
	assert.Greater(t, report.Samples[1].NearGas, report.Samples[0].NearGas)
	require.NoError(t, report.Calibration.Check(5))
}
