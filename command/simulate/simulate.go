package simulate

import (
	"context"
	"fmt"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/0xPolygon/edge-xcc/command"
	"github.com/0xPolygon/edge-xcc/command/config"
	"github.com/0xPolygon/edge-xcc/command/helper"
	"github.com/0xPolygon/edge-xcc/engine"
	"github.com/0xPolygon/edge-xcc/host"
	"github.com/0xPolygon/edge-xcc/router"
	"github.com/0xPolygon/edge-xcc/sandbox"
	"github.com/0xPolygon/edge-xcc/types"
	"github.com/0xPolygon/edge-xcc/xcc"
)

const (
	fromFlag    = "from"
	fundFlag    = "fund"
	storageFlag = "storage"
	executeFlag = "execute"
	holdFlag    = "hold"
)

type simulateParams struct {
	configPath string
	logLevel   string
	dataDir    string
	storage    string
	from       string
	fund       uint64
	execute    bool
	hold       bool

	promise helper.PromiseFlags
}

var params simulateParams

// GetCommand returns the simulate command
func GetCommand() *cobra.Command {
	simulateCmd := &cobra.Command{
		Use:   "simulate",
		Short: "Runs a cross contract call end to end against an in-process host chain",
		Run:   runCommand,
	}

	setFlags(simulateCmd)

	return simulateCmd
}

func setFlags(cmd *cobra.Command) {
	helper.RegisterConfigFlag(cmd, &params.configPath)
	helper.RegisterLogLevelFlag(cmd, &params.logLevel)
	params.promise.Register(cmd)

	cmd.Flags().StringVar(&params.dataDir, command.DataDirFlag, "", "overrides the data directory of the config")
	cmd.Flags().StringVar(
		&params.storage,
		storageFlag,
		"",
		"overrides the storage backend of the config: memory, leveldb, boltdb or pebble",
	)
	cmd.Flags().StringVar(
		&params.from,
		fromFlag,
		"0x0000000000000000000000000000000000000001",
		"the EVM address making the call",
	)
	cmd.Flags().Uint64Var(
		&params.fund,
		fundFlag,
		10,
		"wrapped NEAR, in whole units, minted to the caller and approved for the precompile first",
	)
	cmd.Flags().BoolVar(&params.execute, executeFlag, false, "run a delayed call right after scheduling it")
	cmd.Flags().BoolVar(&params.hold, holdFlag, false, "keep serving metrics until interrupted")
}

func (p *simulateParams) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(p.configPath)
	if err != nil {
		return nil, err
	}

	if p.dataDir != "" {
		cfg.DataDir = p.dataDir
	}

	if p.storage != "" {
		cfg.Storage = p.storage
	}

	if p.logLevel != "" {
		cfg.LogLevel = p.logLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func runCommand(cmd *cobra.Command, _ []string) {
	outputter := command.InitializeOutputter(cmd)
	defer outputter.WriteOutput()

	cfg, err := params.loadConfig()
	if err != nil {
		outputter.SetError(err)

		return
	}

	logger := cfg.Logger()

	interval, _ := cfg.Interval()

	telemetry, err := helper.SetupTelemetry(cfg.Telemetry.PrometheusAddr, interval, logger)
	if err != nil {
		outputter.SetError(fmt.Errorf("failed to set up telemetry: %w", err))

		return
	}

	defer telemetry.Close()

	res, err := params.run(cmd.Context(), cfg, logger)
	if err != nil {
		outputter.SetError(err)

		return
	}

	if params.hold && telemetry.Addr() != "" {
		logger.Info("serving metrics, interrupt to exit", "addr", telemetry.Addr())
		<-helper.GetTerminationSignalCh()
	}

	outputter.SetCommandResult(res)
}

func (p *simulateParams) run(ctx context.Context, cfg *config.Config, logger hclog.Logger) (*SimulateResult, error) {
	from, err := types.ParseAddress(p.from)
	if err != nil {
		return nil, err
	}

	args, err := p.promise.Build()
	if err != nil {
		return nil, err
	}

	sb, err := openSandbox(cfg, logger)
	if err != nil {
		return nil, err
	}

	defer func() {
		if err := sb.Close(); err != nil {
			logger.Error("failed to close storage", "err", err)
		}
	}()

	if p.fund > 0 {
		amount := types.NearToYocto(p.fund)
		if err := sb.Fund(from, amount, amount); err != nil {
			return nil, fmt.Errorf("failed to fund %s: %w", from, err)
		}
	}

	routerID, err := sb.RouterOf(from)
	if err != nil {
		return nil, err
	}

	submitted, err := sb.Bridge(from, args)
	if err != nil {
		return nil, err
	}

	res := &SimulateResult{
		Router:       string(routerID),
		Kind:         args.Kind.String(),
		Status:       submitted.Status.String(),
		GasUsed:      submitted.GasUsed,
		NearGasBurnt: uint64(submitted.NearGasBurnt),
	}

	if submitted.Err != nil {
		res.Error = submitted.Err.Error()
	}

	if submitted.Status != engine.StatusSucceeded {
		return res, nil
	}

	res.Receipts = newReceiptResults(submitted.Receipts)

	outcomes, err := sb.Deliver(ctx, submitted)
	if err != nil {
		return nil, err
	}

	if args.Kind == xcc.CallDelayed && p.execute {
		next, err := router.ScheduledNonce(sb.Chain, routerID)
		if err != nil {
			return nil, err
		}

		if next == 0 {
			return nil, fmt.Errorf("nothing was scheduled on %s", routerID)
		}

		executed, err := sb.ExecuteScheduled(ctx, cfg.Sandbox().Relayer, from, next-1, args.Promise.TotalGas()+xcc.RouterExec)
		if err != nil {
			return nil, err
		}

		outcomes = append(outcomes, executed...)
	}

	res.Outcomes = newOutcomeResults(outcomes)

	for _, r := range sb.Chain.Delivered() {
		for _, c := range r.FunctionCalls() {
			res.Delivered = append(res.Delivered, fmt.Sprintf("%s.%s", r.Receiver, c.Method))
		}
	}

	return res, nil
}

func openSandbox(cfg *config.Config, logger hclog.Logger) (*sandbox.Sandbox, error) {
	backend, err := sandbox.ParseBackend(cfg.Storage)
	if err != nil {
		return nil, err
	}

	engineKV, err := sandbox.OpenStorage(backend, cfg.DataDir, "engine", logger)
	if err != nil {
		return nil, err
	}

	chainKV, err := sandbox.OpenStorage(backend, cfg.DataDir, "chain", logger)
	if err != nil {
		_ = engineKV.Close()

		return nil, err
	}

	return sandbox.New(logger, engineKV, chainKV, cfg.Sandbox())
}

func newReceiptResults(receipts []*host.ActionReceipt) []*ReceiptResult {
	out := make([]*ReceiptResult, 0, len(receipts))

	for _, r := range receipts {
		actions := make([]string, 0, len(r.Actions))
		for _, a := range r.Actions {
			actions = append(actions, a.String())
		}

		out = append(out, &ReceiptResult{
			ID:        r.ID.String(),
			Receiver:  string(r.Receiver),
			Actions:   strings.Join(actions, ", "),
			DependsOn: len(r.DependsOn),
		})
	}

	return out
}

func newOutcomeResults(outcomes []*host.Outcome) []*OutcomeResult {
	out := make([]*OutcomeResult, 0, len(outcomes))

	for _, o := range outcomes {
		res := &OutcomeResult{
			Receiver: string(o.Receiver),
			Logs:     o.Logs,
			Receipts: len(o.Receipts),
			BurntGas: uint64(o.BurntGas),
		}

		if o.Err != nil {
			res.Error = o.Err.Error()
		}

		out = append(out, res)
	}

	return out
}
