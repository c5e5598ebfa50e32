package simulate

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/0xPolygon/edge-xcc/command/helper"
)

type ReceiptResult struct {
	ID        string `json:"id"`
	Receiver  string `json:"receiver"`
	Actions   string `json:"actions"`
	DependsOn int    `json:"depends_on"`
}

type OutcomeResult struct {
	Receiver string   `json:"receiver"`
	Logs     []string `json:"logs"`
	Receipts int      `json:"receipts"`
	BurntGas uint64   `json:"burnt_gas"`
	Error    string   `json:"error,omitempty"`
}

type SimulateResult struct {
	Router       string           `json:"router"`
	Kind         string           `json:"kind"`
	Status       string           `json:"status"`
	Error        string           `json:"error,omitempty"`
	GasUsed      uint64           `json:"gas_used"`
	NearGasBurnt uint64           `json:"near_gas_burnt"`
	Receipts     []*ReceiptResult `json:"receipts"`
	Outcomes     []*OutcomeResult `json:"outcomes"`
	Delivered    []string         `json:"delivered"`
}

func (r *SimulateResult) GetOutput() string {
	var buffer bytes.Buffer

	buffer.WriteString("\n[TRANSACTION]\n")
	buffer.WriteString(helper.FormatKV([]string{
		fmt.Sprintf("Router|%s", r.Router),
		fmt.Sprintf("Kind|%s", r.Kind),
		fmt.Sprintf("Status|%s", r.Status),
		fmt.Sprintf("Error|%s", r.Error),
		fmt.Sprintf("EVM gas used|%d", r.GasUsed),
		fmt.Sprintf("Host gas burnt|%d", r.NearGasBurnt),
	}))
	buffer.WriteString("\n")

	receipts := []string{"Receiver|Actions|Dependencies"}
	for _, rc := range r.Receipts {
		receipts = append(receipts, fmt.Sprintf("%s|%s|%d", rc.Receiver, rc.Actions, rc.DependsOn))
	}

	buffer.WriteString("\n[RECEIPTS]\n")
	buffer.WriteString(helper.FormatList(receipts))
	buffer.WriteString("\n")

	outcomes := []string{"Receiver|Receipts|Burnt gas|Logs|Error"}
	for _, o := range r.Outcomes {
		outcomes = append(outcomes, fmt.Sprintf("%s|%d|%d|%s|%s", o.Receiver, o.Receipts, o.BurntGas, strings.Join(o.Logs, "; "), o.Error))
	}

	buffer.WriteString("\n[OUTCOMES]\n")
	buffer.WriteString(helper.FormatList(outcomes))
	buffer.WriteString("\n")

	buffer.WriteString("\n[DELIVERED]\n")
	buffer.WriteString(helper.FormatList(r.Delivered))
	buffer.WriteString("\n")

	return buffer.String()
}
