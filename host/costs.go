package host

import (
	"github.com/0xPolygon/edge-xcc/types"
)

// Costs is the host gas price list for the work a contract performs
type Costs struct {
	CallBase      types.NearGas
	CallInputByte types.NearGas

	StorageReadBase      types.NearGas
	StorageReadKeyByte   types.NearGas
	StorageReadValueByte types.NearGas

	StorageWriteBase      types.NearGas
	StorageWriteKeyByte   types.NearGas
	StorageWriteValueByte types.NearGas

	StorageRemoveBase    types.NearGas
	StorageRemoveKeyByte types.NearGas

	LogBase types.NearGas
	LogByte types.NearGas

	ReceiptBase types.NearGas

	CreateAccountAction    types.NearGas
	TransferAction         types.NearGas
	DeployContractBase     types.NearGas
	DeployContractByte     types.NearGas
	FunctionCallActionBase types.NearGas
	FunctionCallActionByte types.NearGas
}

// DefaultCosts returns the price list used by the chain and the engine
func DefaultCosts() *Costs {
	return &Costs{
		CallBase:      3_500_000_000_000,
		CallInputByte: 525_000_000,

		StorageReadBase:      56_000_000_000,
		StorageReadKeyByte:   30_000_000,
		StorageReadValueByte: 5_000_000,

		StorageWriteBase:      64_000_000_000,
		StorageWriteKeyByte:   70_000_000,
		StorageWriteValueByte: 31_000_000,

		StorageRemoveBase:    53_000_000_000,
		StorageRemoveKeyByte: 38_000_000,

		LogBase: 3_500_000_000,
		LogByte: 13_000_000,

		ReceiptBase: 540_000_000_000,

		CreateAccountAction:    100_000_000_000,
		TransferAction:         115_000_000_000,
		DeployContractBase:     185_000_000_000,
		DeployContractByte:     6_400_000,
		FunctionCallActionBase: 200_000_000_000,
		FunctionCallActionByte: 175_000_000,
	}
}

func (c *Costs) Call(inputLen int) types.NearGas {
	return c.CallBase + c.CallInputByte*types.NearGas(inputLen)
}

func (c *Costs) Read(keyLen, valueLen int) types.NearGas {
	return c.StorageReadBase + c.StorageReadKeyByte*types.NearGas(keyLen) + c.StorageReadValueByte*types.NearGas(valueLen)
}

func (c *Costs) Write(keyLen, valueLen int) types.NearGas {
	return c.StorageWriteBase + c.StorageWriteKeyByte*types.NearGas(keyLen) + c.StorageWriteValueByte*types.NearGas(valueLen)
}

func (c *Costs) Remove(keyLen int) types.NearGas {
	return c.StorageRemoveBase + c.StorageRemoveKeyByte*types.NearGas(keyLen)
}

func (c *Costs) Log(msgLen int) types.NearGas {
	return c.LogBase + c.LogByte*types.NearGas(msgLen)
}

// Action returns the burnt cost of sending an action. Gas attached to a
// function call is not included.
func (c *Costs) Action(a Action) types.NearGas {
	switch a.Kind {
	case ActionCreateAccount:
		return c.CreateAccountAction
	case ActionTransfer:
		return c.TransferAction
	case ActionDeployContract:
		return c.DeployContractBase + c.DeployContractByte*types.NearGas(len(a.Code))
	case ActionFunctionCall:
		return c.FunctionCallActionBase + c.FunctionCallActionByte*types.NearGas(len(a.Method)+len(a.Args))
	default:
		panic("BUG: action kind not found")
	}
}
