package precompiled

import (
	"github.com/0xPolygon/edge-xcc/helper/keccak"
	"github.com/0xPolygon/edge-xcc/state/runtime"
	"github.com/0xPolygon/edge-xcc/types"
)

const accountIDGas = 100

var (
	// PredecessorAccountIDAddress returns the host account that submitted the transaction
	PredecessorAccountIDAddress = nameToAddress("predecessorAccountId")

	// CurrentAccountIDAddress returns the host account of the engine
	CurrentAccountIDAddress = nameToAddress("currentAccountId")
)

func nameToAddress(name string) types.Address {
	return types.BytesToAddress(keccak.Keccak256(nil, []byte(name))[12:])
}

type predecessorAccountID struct{}

func (a *predecessorAccountID) gas(_ []byte) uint64 {
	return accountIDGas
}

func (a *predecessorAccountID) run(_ *runtime.Contract, host runtime.Host) ([]byte, error) {
	return []byte(host.GetTxContext().PredecessorAccountID), nil
}

type currentAccountID struct{}

func (a *currentAccountID) gas(_ []byte) uint64 {
	return accountIDGas
}

func (a *currentAccountID) run(_ *runtime.Contract, host runtime.Host) ([]byte, error) {
	return []byte(host.GetTxContext().EngineAccountID), nil
}
