package calibrate

import (
	"bytes"
	"fmt"

	"github.com/0xPolygon/edge-xcc/command/helper"
)

type SampleResult struct {
	InputLen int    `json:"input_len"`
	NearGas  uint64 `json:"near_gas"`
}

type CalibrateResult struct {
	Baseline       uint64          `json:"baseline"`
	Samples        []*SampleResult `json:"samples"`
	Base           float64         `json:"base"`
	PerByte        float64         `json:"per_byte"`
	ConfiguredBase uint64          `json:"configured_base"`
	ConfiguredByte uint64          `json:"configured_per_byte"`
	Tolerance      float64         `json:"tolerance"`
	Mismatch       string          `json:"mismatch,omitempty"`
}

func (r *CalibrateResult) GetOutput() string {
	var buffer bytes.Buffer

	rows := []string{"Input length|Host gas"}
	for _, s := range r.Samples {
		rows = append(rows, fmt.Sprintf("%d|%d", s.InputLen, s.NearGas))
	}

	buffer.WriteString("\n[SAMPLES]\n")
	buffer.WriteString(helper.FormatList(rows))
	buffer.WriteString("\n")

	status := "ok"
	if r.Mismatch != "" {
		status = r.Mismatch
	}

	buffer.WriteString("\n[CALIBRATION]\n")
	buffer.WriteString(helper.FormatKV([]string{
		fmt.Sprintf("Baseline host gas|%d", r.Baseline),
		fmt.Sprintf("Fitted base|%.2f", r.Base),
		fmt.Sprintf("Fitted per byte|%.2f", r.PerByte),
		fmt.Sprintf("Configured base|%d", r.ConfiguredBase),
		fmt.Sprintf("Configured per byte|%d", r.ConfiguredByte),
		fmt.Sprintf("Within %.0f%%|%s", r.Tolerance, status),
	}))
	buffer.WriteString("\n")

	return buffer.String()
}
