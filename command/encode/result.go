package encode

import (
	"bytes"
	"fmt"

	"github.com/0xPolygon/edge-xcc/command/helper"
)

type EncodeResult struct {
	Input        string `json:"input"`
	InputLen     int    `json:"input_len"`
	EVMGas       uint64 `json:"evm_gas"`
	TotalGas     uint64 `json:"total_gas"`
	TotalBalance string `json:"total_balance"`
}

func (r *EncodeResult) GetOutput() string {
	var buffer bytes.Buffer

	buffer.WriteString("\n[CROSS CONTRACT CALL]\n")
	buffer.WriteString(helper.FormatKV([]string{
		fmt.Sprintf("Input|%s", r.Input),
		fmt.Sprintf("Input length|%d", r.InputLen),
		fmt.Sprintf("Precompile EVM gas|%d", r.EVMGas),
		fmt.Sprintf("Forwarded gas|%d", r.TotalGas),
		fmt.Sprintf("Attached balance (yocto)|%s", r.TotalBalance),
	}))
	buffer.WriteString("\n")

	return buffer.String()
}
