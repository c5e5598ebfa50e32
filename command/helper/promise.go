package helper

import (
	"fmt"

	"github.com/holiman/uint256"
	"github.com/spf13/cobra"

	"github.com/0xPolygon/edge-xcc/types"
	"github.com/0xPolygon/edge-xcc/xcc"
)

const (
	kindFlag            = "kind"
	targetFlag          = "target"
	methodFlag          = "method"
	argsFlag            = "args"
	depositFlag         = "deposit"
	gasFlag             = "gas"
	callbackTargetFlag  = "callback-target"
	callbackMethodFlag  = "callback-method"
	callbackArgsFlag    = "callback-args"
	callbackDepositFlag = "callback-deposit"
	callbackGasFlag     = "callback-gas"
)

// PromiseFlags are the command line flags describing a cross contract call
type PromiseFlags struct {
	Kind string

	Target  string
	Method  string
	Args    string
	Deposit string
	Gas     uint64

	CallbackTarget  string
	CallbackMethod  string
	CallbackArgs    string
	CallbackDeposit string
	CallbackGas     uint64
}

// Register adds the flags to cmd
func (p *PromiseFlags) Register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&p.Kind, kindFlag, xcc.CallEager.String(), "when the router issues the call: eager or delayed")

	cmd.Flags().StringVar(&p.Target, targetFlag, "", "the account the call is sent to")
	cmd.Flags().StringVar(&p.Method, methodFlag, "", "the method to call")
	cmd.Flags().StringVar(&p.Args, argsFlag, "", "the call arguments, as given")
	cmd.Flags().StringVar(&p.Deposit, depositFlag, "0", "the balance attached to the call, in yocto")
	cmd.Flags().Uint64Var(&p.Gas, gasFlag, 10, "the gas attached to the call, in Tgas")

	cmd.Flags().StringVar(&p.CallbackTarget, callbackTargetFlag, "", "the account of the callback, if any")
	cmd.Flags().StringVar(&p.CallbackMethod, callbackMethodFlag, "", "the callback method")
	cmd.Flags().StringVar(&p.CallbackArgs, callbackArgsFlag, "", "the callback arguments")
	cmd.Flags().StringVar(&p.CallbackDeposit, callbackDepositFlag, "0", "the balance attached to the callback, in yocto")
	cmd.Flags().Uint64Var(&p.CallbackGas, callbackGasFlag, 10, "the gas attached to the callback, in Tgas")

	_ = cmd.MarkFlagRequired(targetFlag)
	_ = cmd.MarkFlagRequired(methodFlag)
	cmd.MarkFlagsRequiredTogether(callbackTargetFlag, callbackMethodFlag)
}

// ParseCallKind resolves eager or delayed
func ParseCallKind(kind string) (xcc.CallKind, error) {
	for _, k := range []xcc.CallKind{xcc.CallEager, xcc.CallDelayed} {
		if k.String() == kind {
			return k, nil
		}
	}

	return 0, fmt.Errorf("unknown call kind %q, expected eager or delayed", kind)
}

// Build returns the validated call described by the flags
func (p *PromiseFlags) Build() (*xcc.CrossContractCallArgs, error) {
	kind, err := ParseCallKind(p.Kind)
	if err != nil {
		return nil, err
	}

	base, err := buildCall(p.Target, p.Method, p.Args, p.Deposit, p.Gas)
	if err != nil {
		return nil, err
	}

	args := &xcc.CrossContractCallArgs{Kind: kind, Promise: xcc.NewCreate(base)}

	if p.CallbackTarget != "" {
		callback, err := buildCall(p.CallbackTarget, p.CallbackMethod, p.CallbackArgs, p.CallbackDeposit, p.CallbackGas)
		if err != nil {
			return nil, fmt.Errorf("callback: %w", err)
		}

		args.Promise = xcc.NewCallback(base, callback)
	}

	if err := args.Validate(); err != nil {
		return nil, err
	}

	return args, nil
}

func buildCall(target, method, args, deposit string, tgas uint64) (xcc.PromiseCreateArgs, error) {
	id, err := types.ParseAccountID(target)
	if err != nil {
		return xcc.PromiseCreateArgs{}, fmt.Errorf("invalid target %q: %w", target, err)
	}

	balance, err := types.ParseYocto(deposit)
	if err != nil {
		return xcc.PromiseCreateArgs{}, fmt.Errorf("invalid deposit %q: %w", deposit, err)
	}

	if tgas > uint64(xcc.MaxAttachedGas/types.Tgas) {
		return xcc.PromiseCreateArgs{}, fmt.Errorf("gas %d Tgas exceeds %d Tgas", tgas, xcc.MaxAttachedGas/types.Tgas)
	}

	return xcc.PromiseCreateArgs{
		TargetAccountID: id,
		Method:          method,
		Args:            []byte(args),
		AttachedBalance: new(uint256.Int).Set(balance),
		AttachedGas:     types.NearGas(tgas) * types.Tgas,
	}, nil
}
