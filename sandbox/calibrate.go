package sandbox

import (
	"bytes"
	"fmt"

	"github.com/holiman/uint256"

	"github.com/0xPolygon/edge-xcc/engine"
	"github.com/0xPolygon/edge-xcc/types"
	"github.com/0xPolygon/edge-xcc/xcc"
)

// CalibrationReport holds the measurements behind a calibration
type CalibrationReport struct {
	Baseline    types.NearGas
	Samples     []xcc.Sample
	Calibration xcc.Calibration
}

// Calibrate measures the host gas of bridging calls carrying argsLens bytes of
// arguments, from an owner whose router is already deployed, and fits the
// precompile cost through the first two samples
func (s *Sandbox) Calibrate(owner types.Address, target types.AccountID, argsLens ...int) (*CalibrationReport, error) {
	if len(argsLens) < 2 {
		return nil, fmt.Errorf("calibration needs at least two samples, got %d", len(argsLens))
	}

	if err := s.Fund(owner, types.NearToYocto(10), types.NearToYocto(10)); err != nil {
		return nil, err
	}

	// the first call may pay for the router deployment
	if _, err := s.sample(owner, target, 0); err != nil {
		return nil, err
	}

	baseline, err := s.Submit(owner, owner, nil)
	if err != nil {
		return nil, err
	}

	report := &CalibrationReport{Baseline: baseline.NearGasBurnt}

	for _, l := range argsLens {
		sample, err := s.sample(owner, target, l)
		if err != nil {
			return nil, err
		}

		report.Samples = append(report.Samples, sample)
	}

	if report.Calibration, err = xcc.Calibrate(report.Baseline, report.Samples[0], report.Samples[1]); err != nil {
		return nil, err
	}

	return report, nil
}

func (s *Sandbox) sample(owner types.Address, target types.AccountID, argsLen int) (xcc.Sample, error) {
	args := &xcc.CrossContractCallArgs{
		Kind: xcc.CallEager,
		Promise: xcc.NewCreate(xcc.PromiseCreateArgs{
			TargetAccountID: target,
			Method:          "calibrate",
			Args:            bytes.Repeat([]byte{'a'}, argsLen),
			AttachedBalance: new(uint256.Int),
			AttachedGas:     5 * types.Tgas,
		}),
	}

	input, err := args.Encode()
	if err != nil {
		return xcc.Sample{}, err
	}

	res, err := s.Bridge(owner, args)
	if err != nil {
		return xcc.Sample{}, err
	}

	if res.Status != engine.StatusSucceeded {
		return xcc.Sample{}, fmt.Errorf("%w: %s: %w", ErrTransactionFailed, res.Status, res.Err)
	}

	return xcc.Sample{InputLen: len(input), NearGas: res.NearGasBurnt}, nil
}
