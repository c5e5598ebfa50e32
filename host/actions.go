package host

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/0xPolygon/edge-xcc/types"
)

// ActionKind is the discriminant of an Action
type ActionKind uint8

const (
	ActionCreateAccount ActionKind = iota
	ActionTransfer
	ActionDeployContract
	ActionFunctionCall
)

func (k ActionKind) String() string {
	switch k {
	case ActionCreateAccount:
		return "CreateAccount"
	case ActionTransfer:
		return "Transfer"
	case ActionDeployContract:
		return "DeployContract"
	case ActionFunctionCall:
		return "FunctionCall"
	default:
		panic("BUG: action kind not found")
	}
}

// Action is one step of an action receipt. Only the fields of its Kind are set.
type Action struct {
	Kind    ActionKind
	Code    []byte
	Method  string
	Args    []byte
	Deposit *uint256.Int
	Gas     types.NearGas
}

func CreateAccountAction() Action {
	return Action{Kind: ActionCreateAccount}
}

func TransferAction(deposit *uint256.Int) Action {
	return Action{Kind: ActionTransfer, Deposit: deposit.Clone()}
}

func DeployContractAction(code []byte) Action {
	return Action{Kind: ActionDeployContract, Code: code}
}

func FunctionCallAction(method string, args []byte, deposit *uint256.Int, gas types.NearGas) Action {
	if deposit == nil {
		deposit = new(uint256.Int)
	}

	return Action{
		Kind:    ActionFunctionCall,
		Method:  method,
		Args:    args,
		Deposit: deposit.Clone(),
		Gas:     gas,
	}
}

// DepositOf returns the balance moved by an action
func (a Action) DepositOf() *uint256.Int {
	if a.Deposit == nil {
		return new(uint256.Int)
	}

	return a.Deposit
}

func (a Action) String() string {
	switch a.Kind {
	case ActionTransfer:
		return fmt.Sprintf("Transfer(%s)", a.DepositOf().Dec())
	case ActionDeployContract:
		return fmt.Sprintf("DeployContract(%d bytes)", len(a.Code))
	case ActionFunctionCall:
		return fmt.Sprintf("FunctionCall(%s, %d bytes, %s yocto, %d gas)", a.Method, len(a.Args), a.DepositOf().Dec(), a.Gas)
	default:
		return a.Kind.String()
	}
}

// totalDeposit sums the balance moved by a list of actions
func totalDeposit(actions []Action) *uint256.Int {
	total := new(uint256.Int)

	for _, a := range actions {
		total.Add(total, a.DepositOf())
	}

	return total
}
