package xcc

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/0xPolygon/edge-xcc/helper/hex"
	"github.com/0xPolygon/edge-xcc/state"
	"github.com/0xPolygon/edge-xcc/types"
)

// Router entry points
const (
	MethodInitialize       = "initialize"
	MethodSchedule         = "schedule"
	MethodExecute          = "execute"
	MethodExecuteScheduled = "execute_scheduled"
	MethodUnwrapAndRefund  = "unwrap_and_refund_storage"
)

// Wrapped native token entry points used by the bridge
const (
	MethodFtTransfer     = "ft_transfer"
	MethodStorageDeposit = "storage_deposit"
	MethodNearWithdraw   = "near_withdraw"
)

var (
	// CodeKey holds the router code deployed to new routers
	CodeKey = state.ConfigKey("xcc_code")

	// CodeVersionKey holds the version of the router code, bumped on every update
	CodeVersionKey = state.ConfigKey("xcc_version")

	// WNearAddressKey holds the ERC-20 address of the wrapped native token
	WNearAddressKey = state.ConfigKey("wnear_address")
)

// RouterVersionKey holds the code version deployed to the router of addr
func RouterVersionKey(addr types.Address) []byte {
	return state.ConfigKey("xcc_router", addr[:]...)
}

// EncodeVersion returns the stored form of a code version
func EncodeVersion(v uint32) []byte {
	return binary.LittleEndian.AppendUint32(nil, v)
}

// DecodeVersion parses the stored form of a code version
func DecodeVersion(b []byte) (uint32, error) {
	if len(b) != 4 {
		return 0, fmt.Errorf("invalid code version length %d", len(b))
	}

	return binary.LittleEndian.Uint32(b), nil
}

// MaxEngineAccountLen is the longest engine account with room for the router
// accounts named under it
const MaxEngineAccountLen = types.MaxAccountIDLen - 2*types.AddressLength - 1

// ValidateEngineAccount checks that router accounts can be named under engine
func ValidateEngineAccount(engine types.AccountID) error {
	if err := engine.Validate(); err != nil {
		return err
	}

	if len(engine) > MaxEngineAccountLen {
		return fmt.Errorf("%w: %d characters, at most %d", ErrEngineAccountTooLong, len(engine), MaxEngineAccountLen)
	}

	return nil
}

// RouterAccountID returns the router account of addr under the engine account
func RouterAccountID(addr types.Address, engine types.AccountID) (types.AccountID, error) {
	return types.ParseAccountID(hex.EncodeToString(addr[:]) + "." + string(engine))
}

// InitializeArgs is the JSON argument of initialize
type InitializeArgs struct {
	WNearAccount types.AccountID `json:"wnear_account"`
	MustRegister bool            `json:"must_register"`
}

// ExecuteScheduledArgs is the JSON argument of execute_scheduled
type ExecuteScheduledArgs struct {
	Nonce U64String `json:"nonce"`
}

// UnwrapAndRefundArgs is the JSON argument of unwrap_and_refund_storage
type UnwrapAndRefundArgs struct {
	Amount       string `json:"amount"`
	RefundNeeded bool   `json:"refund_needed"`
}

// FtTransferArgs is the JSON argument of ft_transfer
type FtTransferArgs struct {
	ReceiverID types.AccountID `json:"receiver_id"`
	Amount     string          `json:"amount"`
	Memo       *string         `json:"memo"`
}

// StorageDepositArgs is the JSON argument of storage_deposit
type StorageDepositArgs struct {
	AccountID        *types.AccountID `json:"account_id,omitempty"`
	RegistrationOnly *bool            `json:"registration_only,omitempty"`
}

// NearWithdrawArgs is the JSON argument of near_withdraw
type NearWithdrawArgs struct {
	Amount string `json:"amount"`
}

// U64String is a u64 carried as a decimal JSON string
type U64String uint64

func (u U64String) MarshalJSON() ([]byte, error) {
	return json.Marshal(strconv.FormatUint(uint64(u), 10))
}

func (u *U64String) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}

	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return err
	}

	*u = U64String(v)

	return nil
}
