package decode

import (
	"bytes"
	"fmt"

	"github.com/0xPolygon/edge-xcc/command/helper"
	"github.com/0xPolygon/edge-xcc/xcc"
)

type CallResult struct {
	Target  string `json:"target_account_id"`
	Method  string `json:"method"`
	Args    string `json:"args"`
	Deposit string `json:"attached_balance"`
	Gas     uint64 `json:"attached_gas"`
}

func newCallResult(c xcc.PromiseCreateArgs) *CallResult {
	return &CallResult{
		Target:  string(c.TargetAccountID),
		Method:  c.Method,
		Args:    string(c.Args),
		Deposit: c.Balance().Dec(),
		Gas:     uint64(c.AttachedGas),
	}
}

type DecodeResult struct {
	Kind         string        `json:"kind"`
	PromiseKind  string        `json:"promise_kind"`
	TotalGas     uint64        `json:"total_gas"`
	TotalBalance string        `json:"total_balance"`
	Calls        []*CallResult `json:"calls"`
}

func (r *DecodeResult) GetOutput() string {
	var buffer bytes.Buffer

	buffer.WriteString("\n[CROSS CONTRACT CALL]\n")
	buffer.WriteString(helper.FormatKV([]string{
		fmt.Sprintf("Kind|%s", r.Kind),
		fmt.Sprintf("Promise|%s", r.PromiseKind),
		fmt.Sprintf("Forwarded gas|%d", r.TotalGas),
		fmt.Sprintf("Attached balance (yocto)|%s", r.TotalBalance),
	}))
	buffer.WriteString("\n")

	rows := []string{"Target|Method|Args|Deposit|Gas"}
	for _, c := range r.Calls {
		rows = append(rows, fmt.Sprintf("%s|%s|%s|%s|%d", c.Target, c.Method, c.Args, c.Deposit, c.Gas))
	}

	buffer.WriteString("\n[CALLS]\n")
	buffer.WriteString(helper.FormatList(rows))
	buffer.WriteString("\n")

	return buffer.String()
}
