package decode

import (
	"github.com/spf13/cobra"

	"github.com/0xPolygon/edge-xcc/command"
	"github.com/0xPolygon/edge-xcc/command/helper"
	"github.com/0xPolygon/edge-xcc/xcc"
)

// GetCommand returns the decode command
func GetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "decode <hex input>",
		Short: "Decodes and validates a cross contract call precompile input",
		Args:  cobra.ExactArgs(1),
		Run:   runCommand,
	}
}

func runCommand(cmd *cobra.Command, args []string) {
	outputter := command.InitializeOutputter(cmd)
	defer outputter.WriteOutput()

	input, err := helper.DecodeHexInput("input", args[0])
	if err != nil {
		outputter.SetError(err)

		return
	}

	call, err := xcc.DecodeCrossContractCallArgs(input)
	if err != nil {
		outputter.SetError(err)

		return
	}

	res := &DecodeResult{
		Kind:         call.Kind.String(),
		PromiseKind:  call.Promise.Kind.String(),
		TotalGas:     uint64(call.Promise.TotalGas()),
		TotalBalance: call.Promise.TotalBalance().Dec(),
	}

	for _, c := range call.Promise.Calls() {
		res.Calls = append(res.Calls, newCallResult(c))
	}

	outputter.SetCommandResult(res)
}
