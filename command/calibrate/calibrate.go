package calibrate

import (
	"github.com/spf13/cobra"

	"github.com/0xPolygon/edge-xcc/command"
	"github.com/0xPolygon/edge-xcc/command/config"
	"github.com/0xPolygon/edge-xcc/command/helper"
	"github.com/0xPolygon/edge-xcc/sandbox"
	"github.com/0xPolygon/edge-xcc/storage/memory"
	"github.com/0xPolygon/edge-xcc/types"
	"github.com/0xPolygon/edge-xcc/xcc"
)

const (
	lengthsFlag   = "lengths"
	toleranceFlag = "tolerance"
)

// calibrationOwner is the EVM account making the measured calls
var calibrationOwner = types.StringToAddress("0x00000000000000000000000000000000000ca11b")

const calibrationTarget types.AccountID = "calibration.target"

type calibrateParams struct {
	configPath string
	logLevel   string
	lengths    []int
	tolerance  float64
}

var params calibrateParams

// GetCommand returns the calibrate command
func GetCommand() *cobra.Command {
	calibrateCmd := &cobra.Command{
		Use:   "calibrate",
		Short: "Measures the host gas of bridging calls and fits the precompile cost to it",
		Run:   runCommand,
	}

	helper.RegisterConfigFlag(calibrateCmd, &params.configPath)
	helper.RegisterLogLevelFlag(calibrateCmd, &params.logLevel)

	calibrateCmd.Flags().IntSliceVar(
		&params.lengths,
		lengthsFlag,
		[]int{16, 1016},
		"the argument sizes of the two measured calls",
	)

	calibrateCmd.Flags().Float64Var(
		&params.tolerance,
		toleranceFlag,
		5,
		"the allowed difference from the configured cost, in percent",
	)

	return calibrateCmd
}

func runCommand(cmd *cobra.Command, _ []string) {
	outputter := command.InitializeOutputter(cmd)
	defer outputter.WriteOutput()

	res, err := params.run()
	if err != nil {
		outputter.SetError(err)

		return
	}

	outputter.SetCommandResult(res)
}

func (p *calibrateParams) run() (*CalibrateResult, error) {
	cfg, err := config.Load(p.configPath)
	if err != nil {
		return nil, err
	}

	if p.logLevel != "" {
		cfg.LogLevel = p.logLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := cfg.Logger()

	// measurements always start from empty state
	sb, err := sandbox.New(
		logger,
		memory.NewMemoryStorage(),
		memory.NewMemoryStorage(),
		cfg.Sandbox(),
	)
	if err != nil {
		return nil, err
	}

	defer sb.Close()

	report, err := sb.Calibrate(calibrationOwner, calibrationTarget, p.lengths...)
	if err != nil {
		return nil, err
	}

	res := &CalibrateResult{
		Baseline:       uint64(report.Baseline),
		Base:           report.Calibration.Base,
		PerByte:        report.Calibration.PerByte,
		ConfiguredBase: uint64(xcc.CrossContractCallBase),
		ConfiguredByte: uint64(xcc.CrossContractCallByte),
		Tolerance:      p.tolerance,
	}

	for _, s := range report.Samples {
		res.Samples = append(res.Samples, &SampleResult{InputLen: s.InputLen, NearGas: uint64(s.NearGas)})
	}

	if err := report.Calibration.Check(p.tolerance); err != nil {
		res.Mismatch = err.Error()
	}

	logger.Debug("calibration done", "base", res.Base, "per_byte", res.PerByte, "mismatch", res.Mismatch)

	return res, nil
}
