package sandbox

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
	"github.com/holiman/uint256"
	"github.com/umbracle/ethgo"

	"github.com/0xPolygon/edge-xcc/engine"
	"github.com/0xPolygon/edge-xcc/host"
	"github.com/0xPolygon/edge-xcc/router"
	"github.com/0xPolygon/edge-xcc/state"
	"github.com/0xPolygon/edge-xcc/state/runtime/erc20"
	"github.com/0xPolygon/edge-xcc/state/runtime/precompiled"
	"github.com/0xPolygon/edge-xcc/storage"
	"github.com/0xPolygon/edge-xcc/types"
	"github.com/0xPolygon/edge-xcc/xcc"
)

var ErrTransactionFailed = errors.New("transaction did not succeed")

// Config describes the accounts a sandbox starts with
type Config struct {
	EngineAccount types.AccountID
	WNearAccount  types.AccountID
	Relayer       types.AccountID
	EngineBalance *uint256.Int
	WNearBalance  *uint256.Int
	GasLimit      uint64
}

func DefaultConfig() *Config {
	return &Config{
		EngineAccount: "aurora",
		WNearAccount:  "wrap.near",
		Relayer:       "relayer.near",
		EngineBalance: types.NearToYocto(100),
		WNearBalance:  types.NearToYocto(100),
		GasLimit:      1_000_000,
	}
}

// Sandbox runs an engine next to the host chain it sends its receipts to.
// The chain serves the router code and a wrapped NEAR token.
type Sandbox struct {
	logger hclog.Logger
	config *Config

	Engine *engine.Engine
	Chain  *host.Chain

	// WNear is the EVM token bridged from the wrapped NEAR account
	WNear types.Address
}

// New opens a sandbox over two stores. Accounts and tokens already present
// in the stores are reused.
func New(logger hclog.Logger, engineKV, chainKV storage.KV, config *Config) (*Sandbox, error) {
	logger = logger.Named("sandbox")

	st, err := state.NewState(engineKV, logger)
	if err != nil {
		return nil, err
	}

	e, err := engine.NewEngine(logger, st, config.EngineAccount)
	if err != nil {
		return nil, err
	}

	c, err := host.NewChain(chainKV, logger)
	if err != nil {
		return nil, err
	}

	c.RegisterCode(router.CodeV1, router.NewRouter(logger))
	c.RegisterCode(router.MockWNearCode, router.MockWNear{})

	s := &Sandbox{
		logger: logger,
		config: config,
		Engine: e,
		Chain:  c,
	}

	if err := s.setup(); err != nil {
		return nil, multierror.Append(err, s.Close()).ErrorOrNil()
	}

	return s, nil
}

func (s *Sandbox) setup() error {
	if err := s.ensureAccount(s.config.EngineAccount, s.config.EngineBalance); err != nil {
		return err
	}

	if err := s.ensureAccount(s.config.WNearAccount, s.config.WNearBalance); err != nil {
		return err
	}

	code, err := s.Chain.Code(s.config.WNearAccount)
	if err != nil {
		return err
	}

	if !bytes.Equal(code, router.MockWNearCode) {
		if err := s.Chain.DeployCode(s.config.WNearAccount, router.MockWNearCode); err != nil {
			return err
		}
	}

	wnear, found, err := s.Engine.ERC20Address(s.config.WNearAccount)
	if err != nil {
		return err
	}

	if found {
		s.WNear = wnear

		return nil
	}

	version, err := s.Engine.FactoryUpdate(router.CodeV1)
	if err != nil {
		return err
	}

	if wnear, err = s.Engine.DeployERC20Token(s.config.WNearAccount); err != nil {
		return err
	}

	if err := s.Engine.FactorySetWNearAddress(wnear); err != nil {
		return err
	}

	s.WNear = wnear
	s.logger.Info("sandbox initialized", "engine", s.config.EngineAccount, "router_version", version, "wnear", wnear)

	return nil
}

func (s *Sandbox) ensureAccount(id types.AccountID, balance *uint256.Int) error {
	exists, err := s.Chain.AccountExists(id)
	if err != nil || exists {
		return err
	}

	return s.Chain.CreateAccount(id, balance)
}

// Close closes both stores
func (s *Sandbox) Close() error {
	var result *multierror.Error

	if err := s.Engine.Close(); err != nil {
		result = multierror.Append(result, err)
	}

	if err := s.Chain.Close(); err != nil {
		result = multierror.Append(result, err)
	}

	return result.ErrorOrNil()
}

// Submit sends a call from an EVM address through the relayer account
func (s *Sandbox) Submit(from, to types.Address, input []byte) (*engine.SubmitResult, error) {
	nonce, err := s.Engine.Nonce(from)
	if err != nil {
		return nil, err
	}

	return s.Engine.Submit(s.config.Relayer, &types.Transaction{
		Nonce: nonce,
		Gas:   s.config.GasLimit,
		From:  from,
		To:    &to,
		Input: input,
	})
}

// Bridge submits a cross contract call to the precompile
func (s *Sandbox) Bridge(from types.Address, args *xcc.CrossContractCallArgs) (*engine.SubmitResult, error) {
	input, err := args.Encode()
	if err != nil {
		return nil, err
	}

	return s.Submit(from, precompiled.CrossContractCallAddress, input)
}

// Fund mints wrapped NEAR to owner and lets the precompile spend allowance of it
func (s *Sandbox) Fund(owner types.Address, amount, allowance *uint256.Int) error {
	if err := s.Engine.MintERC20(s.WNear, owner, amount); err != nil {
		return err
	}

	input, err := erc20.ApproveMethod.Encode([]interface{}{
		ethgo.Address(precompiled.CrossContractCallAddress),
		allowance.ToBig(),
	})
	if err != nil {
		return err
	}

	res, err := s.Submit(owner, s.WNear, input)
	if err != nil {
		return err
	}

	if res.Status != engine.StatusSucceeded {
		return fmt.Errorf("%w: approve %s: %w", ErrTransactionFailed, res.Status, res.Err)
	}

	return nil
}

// Deliver hands the receipts of a transaction to the chain and runs it until
// idle. It returns the outcomes of this run in execution order.
func (s *Sandbox) Deliver(ctx context.Context, res *engine.SubmitResult) ([]*host.Outcome, error) {
	before := len(s.Chain.Outcomes())

	if err := s.Chain.Submit(res.Receipts...); err != nil {
		return nil, err
	}

	if err := s.Chain.Run(ctx); err != nil {
		return nil, err
	}

	return s.Chain.Outcomes()[before:], nil
}

// RouterOf returns the router account of an EVM address
func (s *Sandbox) RouterOf(owner types.Address) (types.AccountID, error) {
	return xcc.RouterAccountID(owner, s.config.EngineAccount)
}

// ExecuteScheduled asks the router of owner to run the promise scheduled at
// nonce, on behalf of caller
func (s *Sandbox) ExecuteScheduled(
	ctx context.Context,
	caller types.AccountID,
	owner types.Address,
	nonce uint64,
	gas types.NearGas,
) ([]*host.Outcome, error) {
	id, err := s.RouterOf(owner)
	if err != nil {
		return nil, err
	}

	args, err := json.Marshal(&xcc.ExecuteScheduledArgs{Nonce: xcc.U64String(nonce)})
	if err != nil {
		return nil, err
	}

	before := len(s.Chain.Outcomes())

	if _, err := s.Chain.Call(ctx, caller, id, xcc.MethodExecuteScheduled, args, new(uint256.Int), gas); err != nil {
		return nil, err
	}

	return s.Chain.Outcomes()[before:], nil
}
