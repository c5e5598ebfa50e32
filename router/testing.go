package router

import (
	"encoding/json"
	"fmt"

	"github.com/0xPolygon/edge-xcc/host"
	"github.com/0xPolygon/edge-xcc/types"
	"github.com/0xPolygon/edge-xcc/xcc"
)

// MockWNearCode is the code of MockWNear
var MockWNearCode = []byte("edge-xcc-mock-wnear")

// MockWNear stands in for the wrapped native token in simulations. It keeps
// no token balances: transfers and registrations are only logged, and
// near_withdraw pays out of the account balance.
type MockWNear struct{}

func (MockWNear) Call(ctx host.Context, method string) error {
	switch method {
	case xcc.MethodStorageDeposit:
		return ctx.Log(fmt.Sprintf("Registered %s", ctx.PredecessorAccountID()))

	case xcc.MethodFtTransfer:
		var args xcc.FtTransferArgs
		if err := json.Unmarshal(ctx.Input(), &args); err != nil {
			return fmt.Errorf("%w: %w", xcc.ErrMalformedInput, err)
		}

		return ctx.Log(fmt.Sprintf("Transfer %s from %s to %s", args.Amount, ctx.PredecessorAccountID(), args.ReceiverID))

	case xcc.MethodNearWithdraw:
		var args xcc.NearWithdrawArgs
		if err := json.Unmarshal(ctx.Input(), &args); err != nil {
			return fmt.Errorf("%w: %w", xcc.ErrMalformedInput, err)
		}

		amount, err := types.ParseYocto(args.Amount)
		if err != nil {
			return fmt.Errorf("%w: %w", xcc.ErrMalformedInput, err)
		}

		_, err = ctx.PromiseBatchCreate(ctx.PredecessorAccountID(), host.TransferAction(amount))

		return err

	default:
		return fmt.Errorf("%w: %s", xcc.ErrUnknownMethod, method)
	}
}
