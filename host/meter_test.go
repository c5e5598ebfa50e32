package host

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xPolygon/edge-xcc/types"
)

func TestMeter(t *testing.T) {
	t.Parallel()

	m := NewMeter(10 * types.Tgas)

	require.NoError(t, m.Burn(2*types.Tgas))
	require.NoError(t, m.Attach(5*types.Tgas))

	assert.Equal(t, 2*types.Tgas, m.Burnt())
	assert.Equal(t, 7*types.Tgas, m.Used())
	assert.Equal(t, 3*types.Tgas, m.Remaining())

	require.ErrorIs(t, m.Attach(4*types.Tgas), ErrExceededPrepaidGas)
	assert.Equal(t, 7*types.Tgas, m.Used())
}

func TestMeter_Restore(t *testing.T) {
	t.Parallel()

	m := NewMeter(10 * types.Tgas)
	require.NoError(t, m.Burn(1*types.Tgas))

	cp := m.Checkpoint()

	require.NoError(t, m.Burn(1*types.Tgas))
	require.NoError(t, m.Attach(5*types.Tgas))

	m.Restore(cp)

	// attached gas comes back, burnt gas does not
	assert.Equal(t, 2*types.Tgas, m.Burnt())
	assert.Equal(t, 2*types.Tgas, m.Used())
}

func TestPromiseBuilder_Charges(t *testing.T) {
	t.Parallel()

	costs := DefaultCosts()
	m := NewMeter(MaxPrepaidGas)
	b := NewPromiseBuilder(costs, m, "aurora", []byte("seed"))

	call := FunctionCallAction("execute", []byte{1, 2, 3}, nil, 7*types.Tgas)

	idx, err := b.PromiseBatchCreate("router.aurora", call)
	require.NoError(t, err)
	assert.Equal(t, PromiseIndex(0), idx)

	expected := costs.ReceiptBase + costs.FunctionCallActionBase + costs.FunctionCallActionByte*types.NearGas(len("execute")+3)
	assert.Equal(t, expected, m.Burnt())
	assert.Equal(t, expected+7*types.Tgas, m.Used())

	_, err = b.PromiseBatchThen(5, "router.aurora", call)
	require.ErrorIs(t, err, ErrInvalidPromiseIndex)

	_, err = b.PromiseBatchCreate("Invalid", call)
	require.Error(t, err)

	_, err = b.PromiseBatchCreate("router.aurora")
	require.ErrorIs(t, err, ErrEmptyPromise)

	then, err := b.PromiseBatchThen(idx, "other.near", CreateAccountAction())
	require.NoError(t, err)

	receipts := b.Receipts()
	require.Len(t, receipts, 2)
	assert.Equal(t, receipts[0].ID, receipts[then].DependsOn[0])
	assert.Equal(t, types.AccountID("aurora"), receipts[1].Predecessor)

	// ids are a function of the seed and the position
	again := NewPromiseBuilder(costs, NewMeter(MaxPrepaidGas), "aurora", []byte("seed"))
	_, err = again.PromiseBatchCreate("router.aurora", call)
	require.NoError(t, err)
	assert.Equal(t, receipts[0].ID, again.Receipts()[0].ID)

	b.Truncate(1)
	assert.Equal(t, 1, b.Len())
}
