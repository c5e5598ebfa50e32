package precompiled

import (
	"github.com/hashicorp/go-hclog"

	"github.com/0xPolygon/edge-xcc/host"
	"github.com/0xPolygon/edge-xcc/state/runtime"
	"github.com/0xPolygon/edge-xcc/types"
)

var _ runtime.Runtime = &Precompiled{}

type contract interface {
	gas(input []byte) uint64
	run(c *runtime.Contract, host runtime.Host) ([]byte, error)
}

// NearHost is implemented by hosts that run inside an account of the host
// chain. Reads and writes through it are charged in host gas.
type NearHost interface {
	runtime.Host

	ReadConfig(key []byte) ([]byte, bool, error)
	WriteConfig(key, value []byte) error

	// NEP141 returns the host token account bridged to an ERC-20 address
	NEP141(erc20 types.Address) (types.AccountID, bool, error)

	// Promises creates receipts sent by the engine account
	Promises() host.Promises
}

// Precompiled is the runtime for the precompiled contracts
type Precompiled struct {
	logger    hclog.Logger
	contracts map[types.Address]contract
}

// NewPrecompiled creates a new runtime for the precompiled contracts
func NewPrecompiled(logger hclog.Logger) *Precompiled {
	p := &Precompiled{
		logger: logger.Named("precompiled"),
	}
	p.setupContracts()

	return p
}

func (p *Precompiled) setupContracts() {
	p.register(CrossContractCallAddress, &crossContractCall{logger: p.logger.Named("xcc")})
	p.register(PredecessorAccountIDAddress, &predecessorAccountID{})
	p.register(CurrentAccountIDAddress, &currentAccountID{})
}

func (p *Precompiled) register(addr types.Address, b contract) {
	if len(p.contracts) == 0 {
		p.contracts = map[types.Address]contract{}
	}

	p.contracts[addr] = b
}

// CanRun implements the runtime interface
func (p *Precompiled) CanRun(c *runtime.Contract, _ runtime.Host) bool {
	_, ok := p.contracts[c.CodeAddress]

	return ok
}

// Name implements the runtime interface
func (p *Precompiled) Name() string {
	return "precompiled"
}

// Run runs an execution
func (p *Precompiled) Run(c *runtime.Contract, host runtime.Host) *runtime.ExecutionResult {
	contract := p.contracts[c.CodeAddress]
	gasCost := contract.gas(c.Input)

	// In the case of not enough gas for precompiled execution we return ErrOutOfGas
	if c.Gas < gasCost {
		return &runtime.ExecutionResult{
			GasLeft: 0,
			Err:     runtime.ErrOutOfGas,
		}
	}

	c.Gas = c.Gas - gasCost
	returnValue, err := contract.run(c, host)

	result := &runtime.ExecutionResult{
		ReturnValue: returnValue,
		GasLeft:     c.Gas,
		Err:         err,
	}

	if result.Failed() {
		result.GasLeft = 0
		result.ReturnValue = nil
	}

	return result
}
