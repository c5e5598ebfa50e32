package xcc

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xPolygon/edge-xcc/types"
)

func TestRouterAccountID(t *testing.T) {
	t.Parallel()

	addr := types.StringToAddress("0x1122334455667788990011223344556677889900")

	id, err := RouterAccountID(addr, "aurora")
	require.NoError(t, err)
	assert.Equal(t, types.AccountID("1122334455667788990011223344556677889900.aurora"), id)
	assert.True(t, id.IsSubAccountOf("aurora"))

	// the router id must still be a valid account id
	_, err = RouterAccountID(addr, types.AccountID(strings.Repeat("a", 30)))
	require.ErrorIs(t, err, types.ErrAccountIDTooLong)
}

func TestValidateEngineAccount(t *testing.T) {
	t.Parallel()

	addr := types.StringToAddress("0xffffffffffffffffffffffffffffffffffffffff")

	longest := types.AccountID(strings.Repeat("e", MaxEngineAccountLen))
	require.NoError(t, ValidateEngineAccount(longest))

	id, err := RouterAccountID(addr, longest)
	require.NoError(t, err)
	assert.Len(t, string(id), types.MaxAccountIDLen)

	tooLong := longest + "e"
	require.ErrorIs(t, ValidateEngineAccount(tooLong), ErrEngineAccountTooLong)

	_, err = RouterAccountID(addr, tooLong)
	require.Error(t, err)

	require.ErrorIs(t, ValidateEngineAccount("a"), types.ErrAccountIDTooShort)
}

func TestRouterVersionKey(t *testing.T) {
	t.Parallel()

	addr := types.StringToAddress("0x01")

	key := RouterVersionKey(addr)
	require.Len(t, key, 32)
	assert.Equal(t, []byte{0x7, 0x0}, key[:2])
	assert.Equal(t, "xcc_router", string(key[2:12]))
	assert.Len(t, CodeVersionKey, 13)

	v, err := DecodeVersion(EncodeVersion(9))
	require.NoError(t, err)
	assert.Equal(t, uint32(9), v)

	_, err = DecodeVersion([]byte{1})
	require.Error(t, err)
}

func TestExecuteScheduledArgs_JSON(t *testing.T) {
	t.Parallel()

	var args ExecuteScheduledArgs

	require.NoError(t, json.Unmarshal([]byte(`{"nonce": "0"}`), &args))
	assert.Equal(t, U64String(0), args.Nonce)

	require.NoError(t, json.Unmarshal([]byte(`{"nonce": "18446744073709551615"}`), &args))
	assert.Equal(t, U64String(18446744073709551615), args.Nonce)

	require.Error(t, json.Unmarshal([]byte(`{"nonce": 1}`), &args))
	require.Error(t, json.Unmarshal([]byte(`{"nonce": "-1"}`), &args))

	out, err := json.Marshal(ExecuteScheduledArgs{Nonce: 42})
	require.NoError(t, err)
	assert.JSONEq(t, `{"nonce":"42"}`, string(out))
}

func TestInitializeArgs_JSON(t *testing.T) {
	t.Parallel()

	var args InitializeArgs

	require.NoError(t, json.Unmarshal([]byte(`{"wnear_account": "wrap.near", "must_register": true}`), &args))
	assert.Equal(t, types.AccountID("wrap.near"), args.WNearAccount)
	assert.True(t, args.MustRegister)
}
